package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/bysantdb/internal/bysant"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Summarize a bysant stream's top-level shape",
		Long: `The stats command walks a bysant-encoded stream and reports the
byte and event counts for its top-level value, with thousands-grouped
numbers for readability.

Example:
  sdbctl stats readings.bysant`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args[0])
		},
	}
}

func runStats(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	d := bysant.NewDeserializer()
	p := message.NewPrinter(language.English)

	nEvents, off := 0, 0
	for off < len(buf) {
		n, _, err := d.Read(buf[off:])
		if err != nil {
			if _, ok := bysant.NeedMoreBytes(err); ok {
				break
			}
			return fmt.Errorf("decode at byte %d: %w", off, err)
		}
		off += n
		nEvents++
		if d.Depth() == 0 {
			break
		}
	}

	p.Printf("file size:   %d bytes\n", len(buf))
	p.Printf("bytes read:  %d\n", off)
	p.Printf("events read: %d\n", nEvents)
	return nil
}
