package stagedb

import "github.com/joshuapare/bysantdb/internal/bysant"

// Cursor iterates cell-by-cell over a table's stored bytes in the order
// they were written (row-major: col0, col1, ..., colN, col0, col1, ...).
// Bytes returned from Cell are valid only until the next call to Next.
type Cursor struct {
	storage cellStorage
	ncols   int
	d       *bysant.Deserializer

	off      int // byte offset of the next unread cell
	nRead    int // cells read so far
	scratch  []byte
	cur      bysant.Data
	curBytes []byte
}

// maxCellScratch is the initial size of the reassembly buffer used when a
// cell's bytes must be copied out because they straddle a chunk boundary;
// Next grows the buffer when a cell needs more.
const maxCellScratch = 256

// NewCursor returns a cursor positioned at the start of t's stored cells.
// The table must not be mutated while the cursor is in use.
func NewCursor(t *Table) *Cursor {
	return &Cursor{
		storage: t.storage,
		ncols:   len(t.columns),
		d:       bysant.NewDeserializer(),
		scratch: make([]byte, maxCellScratch),
	}
}

// Next advances to the next stored cell, returning false once every stored
// byte has been consumed.
func (c *Cursor) Next() bool {
	total := c.storage.NBytes()
	if c.off >= total {
		return false
	}
	// Feed a growing window starting at a small probe; bysant cells are
	// self-describing so a short prefix either decodes immediately or
	// reports exactly how many more bytes it needs.
	probe := 3
	for {
		avail := total - c.off
		n := probe
		if n > avail {
			n = avail
		}
		if n > len(c.scratch) {
			c.scratch = make([]byte, n)
		}
		got := c.storage.ReadAt(c.off, c.scratch[:n])
		consumed, data, err := c.d.Read(c.scratch[:got])
		if err != nil {
			if need, ok := bysant.NeedMoreBytes(err); ok {
				probe = got + need
				continue
			}
			return false
		}
		c.cur = data
		c.curBytes = append(c.curBytes[:0], c.scratch[:consumed]...)
		c.off += consumed
		c.nRead++
		return true
	}
}

// Cell returns the decoded value and raw encoded bytes of the cell Next
// just positioned on.
func (c *Cursor) Cell() (bysant.Data, []byte) { return c.cur, c.curBytes }

// ColumnIndex returns the column the most recently read cell belongs to.
func (c *Cursor) ColumnIndex() int {
	if c.ncols == 0 {
		return 0
	}
	return (c.nRead - 1) % c.ncols
}

// NReadBytes returns the total bytes consumed by the cursor so far.
func (c *Cursor) NReadBytes() int { return c.off }

// NReadObjects returns the total cells consumed by the cursor so far.
func (c *Cursor) NReadObjects() int { return c.nRead }

// Reset rewinds the cursor to the start of the table's stored bytes.
func (c *Cursor) Reset() {
	c.off = 0
	c.nRead = 0
	c.d = bysant.NewDeserializer()
}
