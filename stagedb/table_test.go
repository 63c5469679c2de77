package stagedb

import (
	"testing"

	"github.com/joshuapare/bysantdb/internal/bysant"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, cols ...string) *Table {
	t.Helper()
	tbl := NewTable("test")
	var columns []*Column
	for _, name := range cols {
		columns = append(columns, NewColumn(name, MethodList))
	}
	require.NoError(t, tbl.Configure(columns))
	return tbl
}

func TestConfigureRejectedAfterConfigured(t *testing.T) {
	tbl := newTestTable(t, "a")
	err := tbl.Configure([]*Column{NewColumn("b", MethodList)})
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, BadState, e.Kind)
}

func TestWriteCellRoundRobinAdvancesRows(t *testing.T) {
	tbl := newTestTable(t, "x", "y")
	require.NoError(t, tbl.WriteInt(1))
	require.Equal(t, 0, tbl.NumRows())
	require.NoError(t, tbl.WriteInt(2))
	require.Equal(t, 1, tbl.NumRows())
	require.NoError(t, tbl.WriteInt(3))
	require.NoError(t, tbl.WriteInt(4))
	require.Equal(t, 2, tbl.NumRows())
}

func TestWriteNullRejectedOnNotNullColumn(t *testing.T) {
	tbl := NewTable("test")
	require.NoError(t, tbl.Configure([]*Column{{Name: "x", Method: MethodList, NotNull: true}}))
	err := tbl.WriteNull()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, NilForbidden, e.Kind)
}

func TestWriteCellRejectedWhileSerializing(t *testing.T) {
	tbl := newTestTable(t, "x")
	require.NoError(t, tbl.WriteInt(1))
	sink := bysant.NewMemSink()
	require.NoError(t, tbl.Serialize(sink))
	// Serialize returns the table to Reading on completion, so re-derive a
	// Serializing table by cancelling mid-flight via a capped sink instead.
	tbl2 := newTestTable(t, "x")
	require.NoError(t, tbl2.WriteInt(1))
	capped := &cappedSink{limit: 0}
	err := tbl2.Serialize(capped)
	require.Error(t, err)
	require.True(t, bysant.IsOverflow(err))
	require.Equal(t, Serializing, tbl2.State())

	err = tbl2.WriteInt(2)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, BadState, e.Kind)
}

func TestMaxRowsReturnsFull(t *testing.T) {
	tbl := newTestTable(t, "x")
	tbl.SetMaxRows(1)
	require.NoError(t, tbl.WriteInt(1))
	err := tbl.WriteInt(2)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, Full, e.Kind)
}

func TestSerializeListColumnRoundTrips(t *testing.T) {
	tbl := newTestTable(t, "a", "b")
	require.NoError(t, tbl.WriteInt(1))
	require.NoError(t, tbl.WriteString([]byte("x")))
	require.NoError(t, tbl.WriteInt(2))
	require.NoError(t, tbl.WriteString([]byte("y")))

	sink := bysant.NewMemSink()
	require.NoError(t, tbl.Serialize(sink))
	require.Equal(t, Reading, tbl.State())

	d := bysant.NewDeserializer()
	buf := sink.Bytes()
	n, top, err := d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, bysant.TypeMap, top.Type)
	require.Equal(t, 2, top.Length)

	off := n
	n, keyA, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, "a", string(keyA.Bytes))
	off += n

	n, listA, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, bysant.TypeList, listA.Type)
	require.Equal(t, 2, listA.Length)
	off += n

	n, v1, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, int64(1), v1.Int)
	off += n
	n, v2, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, int64(2), v2.Int)
	off += n

	n, closeA, err := d.Read(buf[off:]) // zero-byte close of the exhausted fixed list
	require.NoError(t, err)
	require.Equal(t, bysant.TypeClose, closeA.Type)
	off += n

	n, keyB, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, "b", string(keyB.Bytes))
	off += n
	n, listB, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, bysant.TypeList, listB.Type)
	off += n
	n, s1, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, "x", string(s1.Bytes))
	off += n
	_, s2, err := d.Read(buf[off:])
	require.NoError(t, err)
	require.Equal(t, "y", string(s2.Bytes))
}

func TestSerializeResumesAfterOverflow(t *testing.T) {
	tbl := newTestTable(t, "a")
	for i := int64(0); i < 5; i++ {
		require.NoError(t, tbl.WriteInt(i))
	}

	capped := &cappedSink{limit: 3}
	err := tbl.Serialize(capped)
	require.Error(t, err)
	require.True(t, bysant.IsOverflow(err))
	require.Equal(t, Serializing, tbl.State())
	progressAfterFirst := len(capped.buf)

	capped.limit = -1
	require.NoError(t, tbl.Serialize(capped))
	require.Equal(t, Reading, tbl.State())
	require.Greater(t, len(capped.buf), progressAfterFirst)

	d := bysant.NewDeserializer()
	n, top, err := d.Read(capped.buf)
	require.NoError(t, err)
	require.Equal(t, bysant.TypeMap, top.Type)
	_ = n
}

// cappedSink accepts at most limit bytes in total across all calls
// (unlimited if < 0), exercising the table's resumable emit path.
type cappedSink struct {
	buf   []byte
	limit int
}

func (c *cappedSink) Write(p []byte) (int, error) {
	if c.limit < 0 {
		c.buf = append(c.buf, p...)
		return len(p), nil
	}
	room := c.limit - len(c.buf)
	if room < 0 {
		room = 0
	}
	n := len(p)
	if n > room {
		n = room
	}
	c.buf = append(c.buf, p[:n]...)
	return n, nil
}
