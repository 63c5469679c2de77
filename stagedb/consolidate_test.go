package stagedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsolidateSumAndFirst(t *testing.T) {
	src := newTestTable(t, "metric", "label")
	require.NoError(t, src.WriteInt(10))
	require.NoError(t, src.WriteString([]byte("a")))
	require.NoError(t, src.WriteInt(20))
	require.NoError(t, src.WriteString([]byte("b")))
	require.NoError(t, src.WriteInt(30))
	require.NoError(t, src.WriteString([]byte("c")))

	dst := newTestTable(t, "total", "first_label")
	require.NoError(t, src.SetConsolidation(&Consolidation{
		Dst: dst,
		Mappings: []ConsolidationMapping{
			{DstColumn: 0, SrcColumn: 0, Method: ConsSum},
			{DstColumn: 1, SrcColumn: 1, Method: ConsFirst},
		},
	}))

	require.NoError(t, src.Consolidate())
	require.Equal(t, 1, dst.NumRows())
}

func TestConsolidateRequiresNoConsDescriptor(t *testing.T) {
	src := newTestTable(t, "x")
	require.NoError(t, src.WriteInt(1))
	err := src.Consolidate()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, NoCons, e.Kind)
}

func TestConsolidateOnEmptyTableIsEmpty(t *testing.T) {
	src := newTestTable(t, "x")
	dst := newTestTable(t, "y")
	require.NoError(t, src.SetConsolidation(&Consolidation{
		Dst:      dst,
		Mappings: []ConsolidationMapping{{DstColumn: 0, SrcColumn: 0, Method: ConsSum}},
	}))
	err := src.Consolidate()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, Empty, e.Kind)
}

func TestConsolidateNonNumericMarksBroken(t *testing.T) {
	src := newTestTable(t, "mixed")
	require.NoError(t, src.WriteString([]byte("not a number")))

	dst := newTestTable(t, "sum")
	require.NoError(t, src.SetConsolidation(&Consolidation{
		Dst:      dst,
		Mappings: []ConsolidationMapping{{DstColumn: 0, SrcColumn: 0, Method: ConsSum}},
	}))
	require.NoError(t, src.Consolidate())
	require.Equal(t, 1, dst.NumRows())
}
