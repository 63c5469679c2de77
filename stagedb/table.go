package stagedb

import (
	"sync"

	"github.com/joshuapare/bysantdb/internal/bysant"
)

// State is a Table's lifecycle state.
type State int

const (
	// Unconfigured tables have no columns yet; only Configure is legal.
	Unconfigured State = iota
	// Reading tables accept cell writes (WriteInt, WriteNull, ...) and
	// Consolidate calls.
	Reading
	// Serializing tables are mid-flush; only Serialize (to resume) or
	// CancelSerialize is legal.
	Serializing
	// Broken tables have hit an unrecoverable error; only Close is legal.
	Broken
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "UNCONFIGURED"
	case Reading:
		return "READING"
	case Serializing:
		return "SERIALIZING"
	case Broken:
		return "BROKEN"
	default:
		return "UNKNOWN_STATE"
	}
}

// Table is a single staging table: a fixed set of named columns and the
// history of row-major cells written against them, plus the machinery to
// flush that history out as one bysant-encoded map.
//
// A Table is not safe for concurrent use: the spec's concurrency model is
// "one writer, exclusive access for the duration of a call," matching a
// single in-process owner serializing access itself (or holding a mutex
// across an entire write+flush sequence) rather than fine-grained internal
// locking. The embedded mutex here only guards the state field itself, so
// State() can be queried from a diagnostic goroutine without a data race.
type Table struct {
	mu    sync.Mutex
	state State

	id      string
	columns []*Column
	storage cellStorage

	nWritten int // count of cells written since creation or the last Reset
	nRows    int // floor(nWritten / len(columns)), the table's current row count
	maxRows  int // 0 means unbounded

	cellSer *bysant.Serializer // writes cells as a flat GLOBAL-context sequence

	consolidation *Consolidation

	emit emitState
}

// NewTable returns an Unconfigured table backed by an in-memory ramStore,
// identified by id (carried into every error this table returns). Call
// Configure before writing any cells.
func NewTable(id string) *Table {
	return &Table{id: id, storage: newRAMStore()}
}

// NewFileBackedTable returns an Unconfigured table whose cell history is
// appended to the file at path instead of kept in RAM. If the file already
// holds a previously flushed table's bytes, the row count cannot be
// recovered from bytes alone (the wire format keeps no row index), so
// callers restoring state across a restart are expected to have recorded
// nRows themselves and pass it to RestoreRows.
func NewFileBackedTable(id, path string) (*Table, error) {
	fs, err := OpenFileStorage(path)
	if err != nil {
		return nil, err
	}
	return &Table{id: id, storage: fs}, nil
}

// ID returns the table's identifier string, as given to NewTable or
// NewFileBackedTable.
func (t *Table) ID() string { return t.id }

// RestoreRows sets nWritten/nRows to match a count recovered from outside
// the table (e.g. a sidecar index), for use immediately after
// NewFileBackedTable reopens a non-empty file.
func (t *Table) RestoreRows(rows int) {
	t.nRows = rows
	t.nWritten = rows * len(t.columns)
}

// Configure declares the table's columns. It is only legal while
// Unconfigured and transitions the table to Reading on success.
func (t *Table) Configure(columns []*Column) error {
	if t.state != Unconfigured {
		return newErr(t.id, "Configure", BadState)
	}
	if len(columns) == 0 {
		return newErr(t.id, "Configure", Invalid)
	}
	t.columns = columns
	t.cellSer = bysant.NewSerializer(tableSink{store: t.storage})
	t.setState(Reading)
	return nil
}

// SetMaxRows caps the number of rows the table accepts before cell writes
// start returning Full. Zero (the default) means unbounded.
func (t *Table) SetMaxRows(n int) { t.maxRows = n }

// NumColumns returns the configured column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the number of complete rows written so far.
func (t *Table) NumRows() int { return t.nRows }

// GetColumnIndex returns the index of the column with the given name, or -1.
func (t *Table) GetColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// GetColumnName returns the name of the column at idx, or "" if out of range.
func (t *Table) GetColumnName(idx int) string {
	if idx < 0 || idx >= len(t.columns) {
		return ""
	}
	return t.columns[idx].Name
}

// State returns the table's current lifecycle state.
func (t *Table) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Table) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// columnFor returns the column that the next cell written would land in,
// i.e. the one at index nWritten mod len(columns).
func (t *Table) columnFor() *Column {
	return t.columns[t.nWritten%len(t.columns)]
}

// advance records that one cell was written, bumping nRows whenever a full
// row's worth of cells has landed.
func (t *Table) advance() {
	t.nWritten++
	if t.nWritten%len(t.columns) == 0 {
		t.nRows++
	}
}

// Reset discards all stored rows and per-column running analysis, returning
// the table to an empty Reading state with its columns still configured.
func (t *Table) Reset() error {
	if t.state != Reading {
		return newErr(t.id, "Reset", BadState)
	}
	t.storage.Reset()
	t.nWritten = 0
	t.nRows = 0
	for _, c := range t.columns {
		c.reset()
	}
	t.emit = emitState{}
	return nil
}

// Close releases any resources held by the table's storage backend (e.g.
// unlocking and closing a FileStorage's file). It is legal from any state.
func (t *Table) Close() error {
	if fs, ok := t.storage.(*FileStorage); ok {
		return fs.Close()
	}
	return nil
}

// tableSink adapts the table's storage to bysant.Sink for use by the
// table's private cell Serializer.
type tableSink struct {
	store cellStorage
}

func (s tableSink) Write(p []byte) (int, error) { return s.store.Write(p) }

var _ bysant.Sink = tableSink{}
