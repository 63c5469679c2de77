package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "sdbctl",
	Short: "Inspect and drive bysant staging-table streams",
	Long: `sdbctl is a tool for building, inspecting, and flushing bysant
staging tables from the command line: feeding cells in from CSV, dumping a
table's wire format in human-readable form, and summarizing a stream's
byte and event counts.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Accepted but unused; all output is plain text")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}
