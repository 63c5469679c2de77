package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/joshuapare/bysantdb/internal/bysant"
	"github.com/joshuapare/bysantdb/pkg/stagedb"
	"github.com/spf13/cobra"
)

var flushMethod string

func init() {
	cmd := newFlushCmd()
	cmd.Flags().
		StringVar(&flushMethod, "method", "smallest", "column encoding: list, delta-vector, quasi-periodic-vector, smallest")
	rootCmd.AddCommand(cmd)
}

func newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush <csv> <out.bysant>",
		Short: "Load a CSV into a staging table and flush it to a bysant stream",
		Long: `The flush command reads a CSV file (first row is column names, all
other rows treated as numeric when parseable and as strings otherwise),
stages it one cell at a time, and flushes the table as a single bysant map.

Example:
  sdbctl flush readings.csv readings.bysant --method delta-vector`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlush(args[0], args[1])
		},
	}
}

func parseMethod(s string) (stagedb.EncodingMethod, error) {
	switch s {
	case "list":
		return stagedb.MethodList, nil
	case "delta-vector":
		return stagedb.MethodDeltaVector, nil
	case "quasi-periodic-vector":
		return stagedb.MethodQuasiPeriodicVector, nil
	case "smallest":
		return stagedb.MethodSmallest, nil
	default:
		return 0, fmt.Errorf("unknown --method %q", s)
	}
}

func runFlush(csvPath, outPath string) error {
	method, err := parseMethod(flushMethod)
	if err != nil {
		return err
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	tbl := stagedb.NewTable(csvPath)
	var cols []*stagedb.Column
	for _, name := range header {
		cols = append(cols, stagedb.NewColumn(name, method))
	}
	if err := tbl.Configure(cols); err != nil {
		return fmt.Errorf("configure table: %w", err)
	}

	nrows := 0
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		for _, field := range record {
			if v, err := strconv.ParseInt(field, 10, 64); err == nil {
				if err := tbl.WriteInt(v); err != nil {
					return fmt.Errorf("write cell: %w", err)
				}
				continue
			}
			if v, err := strconv.ParseFloat(field, 64); err == nil {
				if err := tbl.WriteDouble(v); err != nil {
					return fmt.Errorf("write cell: %w", err)
				}
				continue
			}
			if err := tbl.WriteString([]byte(field)); err != nil {
				return fmt.Errorf("write cell: %w", err)
			}
		}
		nrows++
	}
	printVerbose("staged %d rows across %d columns\n", nrows, len(header))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	sink := &fileSink{f: out}
	for {
		err := tbl.Serialize(sink)
		if err == nil {
			break
		}
		if bysant.IsOverflow(err) {
			continue
		}
		return fmt.Errorf("serialize: %w", err)
	}
	return nil
}

// fileSink adapts an *os.File to bysant.Sink.
type fileSink struct{ f *os.File }

func (s *fileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
