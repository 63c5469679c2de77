package stagedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRAMStoreWriteReadAtAcrossChunks(t *testing.T) {
	r := newRAMStore()
	big := make([]byte, maxChunkSize+minChunkSize*3)
	for i := range big {
		big[i] = byte(i)
	}
	n, err := r.Write(big)
	require.NoError(t, err)
	require.Equal(t, len(big), n)
	require.Equal(t, len(big), r.NBytes())

	dst := make([]byte, len(big))
	got := r.ReadAt(0, dst)
	require.Equal(t, len(big), got)
	require.Equal(t, big, dst)

	mid := make([]byte, 10)
	got = r.ReadAt(maxChunkSize-5, mid)
	require.Equal(t, 10, got)
	require.Equal(t, big[maxChunkSize-5:maxChunkSize+5], mid)
}

func TestRAMStoreTrim(t *testing.T) {
	r := newRAMStore()
	_, err := r.Write([]byte("hello world"))
	require.NoError(t, err)
	r.Trim(6)
	require.Equal(t, 5, r.NBytes())
	dst := make([]byte, 5)
	r.ReadAt(0, dst)
	require.Equal(t, "world", string(dst))
}

func TestRAMStoreReset(t *testing.T) {
	r := newRAMStore()
	_, err := r.Write([]byte("abc"))
	require.NoError(t, err)
	r.Reset()
	require.Equal(t, 0, r.NBytes())
}
