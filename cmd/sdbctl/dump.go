package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/bysantdb/internal/bysant"
	"github.com/spf13/cobra"
)

func init() {
	cmd := newDumpCmd()
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Human-readable trace of a bysant-encoded stream",
		Long: `The dump command decodes a file containing one or more bysant
values and prints each decoder event (opens, closes, scalars) with
indentation showing container nesting.

Example:
  sdbctl dump table.bysant`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0])
		},
	}
}

func runDump(path string) error {
	printVerbose("Opening %s\n", path)
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return bysant.Dump(os.Stdout, buf)
}
