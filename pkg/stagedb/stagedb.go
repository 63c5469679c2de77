/*
Package stagedb provides a high-level, ergonomic API for the staging
database: an append-only columnar row store that accepts cells already
encoded by the bysant serializer and emits them, on flush, as a single
bysant map whose column values are chosen among a plain list, a delta
vector, or a quasi-periodic vector.

# Quick Start

Configure a table, write a few rows, and flush it to a byte sink:

	tbl := stagedb.NewTable("readings")
	tbl.Configure([]*stagedb.Column{
	    stagedb.NewColumn("timestamp", stagedb.MethodDeltaVector),
	    stagedb.NewColumn("value", stagedb.MethodSmallest),
	})
	tbl.WriteInt(1700000000)
	tbl.WriteDouble(42.5)
	sink := bysant.NewMemSink()
	if err := tbl.Serialize(sink); err != nil {
	    log.Fatal(err)
	}
*/
package stagedb

import "github.com/joshuapare/bysantdb/stagedb"

// Table, Column, and the method/error enumerations are re-exported so
// callers only need to import this package and internal/bysant.
type (
	Table                = stagedb.Table
	Column                = stagedb.Column
	State                 = stagedb.State
	EncodingMethod        = stagedb.EncodingMethod
	ConsolidationMethod   = stagedb.ConsolidationMethod
	Consolidation         = stagedb.Consolidation
	ConsolidationMapping  = stagedb.ConsolidationMapping
	Cursor                = stagedb.Cursor
	Error                 = stagedb.Error
	ErrorKind             = stagedb.ErrorKind
)

const (
	MethodSmallest            = stagedb.MethodSmallest
	MethodList                = stagedb.MethodList
	MethodDeltaVector         = stagedb.MethodDeltaVector
	MethodQuasiPeriodicVector = stagedb.MethodQuasiPeriodicVector

	ConsFirst  = stagedb.ConsFirst
	ConsLast   = stagedb.ConsLast
	ConsMiddle = stagedb.ConsMiddle
	ConsMax    = stagedb.ConsMax
	ConsMin    = stagedb.ConsMin
	ConsMean   = stagedb.ConsMean
	ConsSum    = stagedb.ConsSum
	ConsMedian = stagedb.ConsMedian

	Unconfigured = stagedb.Unconfigured
	Reading      = stagedb.Reading
	Serializing  = stagedb.Serializing
	Broken       = stagedb.Broken
)

// NewTable returns an Unconfigured table backed by RAM storage, identified
// by id.
func NewTable(id string) *Table { return stagedb.NewTable(id) }

// NewColumn returns a column declaration ready to pass to Table.Configure.
func NewColumn(name string, method EncodingMethod) *Column {
	return stagedb.NewColumn(name, method)
}

// OpenFileBacked opens (or creates) a file-backed table at path, identified
// by id.
func OpenFileBacked(id, path string) (*Table, error) {
	return stagedb.NewFileBackedTable(id, path)
}

// NewCursor returns a cell-by-cell iterator over t's stored bytes.
func NewCursor(t *Table) *Cursor { return stagedb.NewCursor(t) }
