package stagedb

import (
	"testing"

	"github.com/joshuapare/bysantdb/internal/bysant"
	"github.com/stretchr/testify/require"
)

func TestSmallestNeverBiggerThanList(t *testing.T) {
	tbl := NewTable("test")
	require.NoError(t, tbl.Configure([]*Column{NewColumn("v", MethodSmallest)}))
	for _, v := range []int64{100, 102, 104, 106, 108, 110} {
		require.NoError(t, tbl.WriteInt(v))
	}

	plans, rawCells, err := planColumns(tbl)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	listSize := 0
	for _, b := range rawCells[0] {
		listSize += len(b)
	}

	chosenSize := listSize
	if plans[0].method != MethodList {
		chosenSize = measureColumnPlan(plans[0])
	}
	require.LessOrEqual(t, chosenSize, listSize)
}

func TestSmallestDisqualifiesNonNumericColumn(t *testing.T) {
	tbl := NewTable("test")
	require.NoError(t, tbl.Configure([]*Column{NewColumn("v", MethodSmallest)}))
	require.NoError(t, tbl.WriteString([]byte("hello")))

	plans, _, err := planColumns(tbl)
	require.NoError(t, err)
	require.Equal(t, MethodList, plans[0].method)
}

func TestDeltaVectorPlanConstantStride(t *testing.T) {
	tbl := NewTable("test")
	require.NoError(t, tbl.Configure([]*Column{NewColumn("v", MethodDeltaVector)}))
	for _, v := range []int64{1000, 1010, 1020, 1030} {
		require.NoError(t, tbl.WriteInt(v))
	}
	plans, _, err := planColumns(tbl)
	require.NoError(t, err)
	require.Equal(t, MethodDeltaVector, plans[0].method)
	require.Equal(t, float64(1000), plans[0].start)
	require.Len(t, plans[0].deltas, 3)

	sink := bysant.NewMemSink()
	ser := bysant.NewSerializer(sink)
	require.NoError(t, registerVectorClasses(ser))
	require.NoError(t, writeColumnValue(ser, plans[0], 0))
	require.Greater(t, len(sink.Bytes()), 0)
}
