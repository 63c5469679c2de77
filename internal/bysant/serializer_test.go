package bysant

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeOne(t *testing.T, fn func(s *Serializer) error) []byte {
	t.Helper()
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, fn(s))
	return sink.Bytes()
}

func TestWriteIntGlobalTiny(t *testing.T) {
	require.Equal(t, "9f", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteInt(0) })))
	require.Equal(t, "80", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteInt(-31) })))
	require.Equal(t, "df", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteInt(64) })))
}

func TestWriteIntGlobalSmall(t *testing.T) {
	require.Equal(t, "e000", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteInt(65) })))
	require.Equal(t, "e7ff", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteInt(2112) })))
}

func TestWriteStringGlobal(t *testing.T) {
	require.Equal(t, "03", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteString(nil) })))
	require.Equal(t, "0441", hex.EncodeToString(encodeOne(t, func(s *Serializer) error { return s.WriteString([]byte("A")) })))
}

func TestOpenListEmpty(t *testing.T) {
	got := encodeOne(t, func(s *Serializer) error {
		if err := s.OpenList(0, CtxGlobal); err != nil {
			return err
		}
		return s.Close()
	})
	require.Equal(t, "2a", hex.EncodeToString(got))
}

func TestOpenListSmallUntyped(t *testing.T) {
	got := encodeOne(t, func(s *Serializer) error {
		if err := s.OpenList(3, CtxGlobal); err != nil {
			return err
		}
		for _, v := range []int64{1, 2, 3} {
			if err := s.WriteInt(v); err != nil {
				return err
			}
		}
		return s.Close()
	})
	require.Equal(t, "2da0a1a2", hex.EncodeToString(got))
}

func TestWriteBoolRejectsOutsideGlobal(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenList(-1, CtxNumber))
	err := s.WriteBool(true)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, BadContext, e.Kind)
}

func TestMapRoundTripsKeysAsStrings(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenMap(2, CtxGlobal))
	require.NoError(t, s.WriteString([]byte("a")))
	require.NoError(t, s.WriteInt(1))
	require.NoError(t, s.WriteString([]byte("b")))
	require.NoError(t, s.WriteInt(2))
	require.NoError(t, s.Close())

	d := NewDeserializer()
	buf := sink.Bytes()
	off := 0
	var events []Data
	for {
		n, data, err := d.Read(buf[off:])
		require.NoError(t, err)
		events = append(events, data)
		off += n
		if d.Depth() == 0 {
			break
		}
	}
	require.Len(t, events, 6) // map-open, k, v, k, v, close
	require.Equal(t, TypeMap, events[0].Type)
	require.Equal(t, 2, events[0].Length)
	require.Equal(t, "a", string(events[1].Bytes))
	require.Equal(t, KindMapKey, events[1].Kind)
	require.Equal(t, int64(1), events[2].Int)
	require.Equal(t, KindMapValue, events[2].Kind)
	require.Equal(t, TypeClose, events[5].Type)
}

func TestCloseOnEmptyStackIsNoContainer(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	err := s.Close()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, NoContainer, e.Kind)
}

func TestOverflowRetriesFromSameOffset(t *testing.T) {
	f := &flakySink{limit: 1}
	s := NewSerializer(f)
	err := s.WriteInt(2112) // 2 bytes on the wire (0xE7 0xFF), sink only has room for 1
	require.Error(t, err)
	require.True(t, IsOverflow(err))
	require.False(t, s.Broken())

	f.limit = -1 // sink drains, now accepts everything
	require.NoError(t, s.WriteInt(2112))
	require.Equal(t, []byte{0xe7, 0xff}, f.buf)
}

// flakySink accepts at most limit bytes in total across all calls (unlimited
// if < 0), used to exercise the serializer's short-write retry path.
type flakySink struct {
	buf   []byte
	limit int
}

func (f *flakySink) Write(p []byte) (int, error) {
	if f.limit < 0 {
		f.buf = append(f.buf, p...)
		return len(p), nil
	}
	room := f.limit - len(f.buf)
	if room < 0 {
		room = 0
	}
	n := len(p)
	if n > room {
		n = room
	}
	f.buf = append(f.buf, p[:n]...)
	return n, nil
}

func TestDefineClassAndOpenObject(t *testing.T) {
	schema := &Class{ID: 1, Name: "point", Fields: []Field{
		{Name: "x", CtxID: CtxNumber},
		{Name: "y", CtxID: CtxNumber},
	}}
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.DefineClass(schema, false))
	require.NoError(t, s.OpenObject(1))
	require.NoError(t, s.WriteInt(3))
	require.NoError(t, s.WriteInt(4))
	require.NoError(t, s.Close())

	d := NewDeserializer()
	buf := sink.Bytes()
	n1, ev1, err := d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, TypeClassDef, ev1.Type)
	require.Equal(t, "point", ev1.Class.Name)

	n2, ev2, err := d.Read(buf[n1:])
	require.NoError(t, err)
	require.Equal(t, TypeObject, ev2.Type)
	require.Equal(t, ClassID(1), ev2.Class.ID)

	n3, ev3, err := d.Read(buf[n1+n2:])
	require.NoError(t, err)
	require.Equal(t, int64(3), ev3.Int)

	n4, ev4, err := d.Read(buf[n1+n2+n3:])
	require.NoError(t, err)
	require.Equal(t, int64(4), ev4.Int)

	_, ev5, err := d.Read(buf[n1+n2+n3+n4:])
	require.NoError(t, err)
	require.Equal(t, TypeClose, ev5.Type)
}

func TestWriteNullForbiddenAsMapKey(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenMap(-1, CtxGlobal))
	err := s.WriteNull()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, Invalid, e.Kind)
}

func TestVariableListClosedByNullToken(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenList(-1, CtxGlobal))
	require.NoError(t, s.WriteInt(7))
	require.NoError(t, s.Close())

	buf := sink.Bytes()
	d := NewDeserializer()
	n1, ev1, err := d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, TypeZList, ev1.Type)

	n2, ev2, err := d.Read(buf[n1:])
	require.NoError(t, err)
	require.Equal(t, int64(7), ev2.Int)

	_, ev3, err := d.Read(buf[n1+n2:])
	require.NoError(t, err)
	require.Equal(t, TypeClose, ev3.Type)
}

func TestWriteDoubleDowngradesToInt(t *testing.T) {
	got := encodeOne(t, func(s *Serializer) error { return s.WriteDouble(0) })
	require.Equal(t, "9f", hex.EncodeToString(got)) // same single byte as WriteInt(0)
}

func TestNeedMoreBytesOnTruncatedInput(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.WriteInt(2112)) // e7 ff

	d := NewDeserializer()
	_, _, err := d.Read(sink.Bytes()[:1])
	need, ok := NeedMoreBytes(err)
	require.True(t, ok)
	require.Equal(t, 1, need)
}
