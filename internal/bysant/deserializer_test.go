package bysant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// readAll drains every event out of buf using a single Deserializer,
// returning once the top-level container (depth 0) has consumed it all.
func readAll(t *testing.T, d *Deserializer, buf []byte) []Data {
	t.Helper()
	var events []Data
	off := 0
	for off < len(buf) {
		n, data, err := d.Read(buf[off:])
		require.NoError(t, err)
		events = append(events, data)
		off += n
	}
	return events
}

func TestDeserializerFeedByteAtATime(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenList(2, CtxGlobal))
	require.NoError(t, s.WriteInt(10))
	require.NoError(t, s.WriteString([]byte("hi")))
	require.NoError(t, s.Close())
	full := sink.Bytes()

	d := NewDeserializer()
	var events []Data
	consumed := 0
	fed := 0
	for consumed < len(full) {
		if fed < len(full) {
			fed++
		}
		n, data, err := d.Read(full[consumed:fed])
		if err != nil {
			if _, ok := NeedMoreBytes(err); ok {
				continue
			}
			require.NoError(t, err)
		}
		consumed += n
		events = append(events, data)
	}
	require.Len(t, events, 3) // list-open, int, string (close is synthetic/0-byte, not reached by consumed<len loop)
	require.Equal(t, TypeList, events[0].Type)
	require.Equal(t, int64(10), events[1].Int)
	require.Equal(t, "hi", string(events[2].Bytes))
}

func TestDeserializerRejectsUnknownClassID(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.writeObjectOpcode(3))

	d := NewDeserializer()
	_, _, err := d.Read(sink.Bytes())
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, BadClassID, e.Kind)
	require.True(t, d.Broken())
}

func TestDeserializerBrokenAfterError(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.writeObjectOpcode(3))
	buf := sink.Bytes()

	d := NewDeserializer()
	_, _, err := d.Read(buf)
	require.Error(t, err)

	_, _, err2 := d.Read(buf)
	require.Error(t, err2)
	var e *Error
	require.ErrorAs(t, err2, &e)
	require.Equal(t, Broken, e.Kind)
}

func TestTypedListUsesNumberContextForElements(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenList(2, CtxNumber))
	require.NoError(t, s.WriteInt(1))
	require.NoError(t, s.WriteDouble(2.5))
	require.NoError(t, s.Close())

	d := NewDeserializer()
	events := readAll(t, d, sink.Bytes())
	require.Equal(t, TypeList, events[0].Type)
	require.Equal(t, int64(1), events[1].Int)
	require.Equal(t, 2.5, events[2].Double)
}

func TestLargeStringFallsBackToChunked(t *testing.T) {
	big := make([]byte, 70000)
	for i := range big {
		big[i] = byte(i)
	}
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.WriteString(big))

	d := NewDeserializer()
	buf := sink.Bytes()
	n1, ev1, err := d.Read(buf)
	require.NoError(t, err)
	require.Equal(t, TypeChunkedString, ev1.Type)

	var reassembled []byte
	off := n1
	for {
		n, data, err := d.Read(buf[off:])
		require.NoError(t, err)
		off += n
		if data.Type == TypeClose {
			break
		}
		require.Equal(t, TypeChunk, data.Type)
		reassembled = append(reassembled, data.Bytes...)
	}
	require.Equal(t, big, reassembled)
}

func TestOpenObjectUnknownClassRejected(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	err := s.OpenObject(99)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, BadClassID, e.Kind)
}

func TestSizeMismatchOnShortContainer(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	require.NoError(t, s.OpenList(2, CtxGlobal))
	require.NoError(t, s.WriteInt(1))
	err := s.Close() // only 1 of 2 declared elements written
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, SizeMismatch, e.Kind)
}

func TestTooDeepNesting(t *testing.T) {
	sink := NewMemSink()
	s := NewSerializer(sink)
	var err error
	for i := 0; i < stackSize; i++ {
		err = s.OpenList(-1, CtxGlobal)
		if err != nil {
			break
		}
	}
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, TooDeep, e.Kind)
}
