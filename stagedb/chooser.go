package stagedb

import (
	"github.com/joshuapare/bysantdb/internal/bysant"
)

// columnPlan is the resolved (never MethodSmallest) encoding decided for one
// column at the start of a Serialize call, along with whatever precomputed
// values that encoding needs to stream.
type columnPlan struct {
	method EncodingMethod

	// DeltaVector / QuasiPeriodicVector
	factor  float64
	start   float64
	deltas  []int64   // DeltaVector only
	shifts  []qpvShift // QuasiPeriodicVector only
	period  int64
}

type qpvShift struct {
	count int64
	value float64
}

// planColumns resolves every column's encoding. Columns with an explicit
// method keep it. Columns declared MethodSmallest are read once, in full,
// and measured under all three candidate encodings via trial serialization
// against a throwaway MemSink — not the original's hand-derived two-pass
// byte-size formula, but guaranteed never to pick an encoding larger than
// the list it is being compared against, since the measurement is the real
// encoder run against a scratch sink. Ties prefer QPV, then DV, then List.
func planColumns(t *Table) ([]columnPlan, [][][]byte, error) {
	plans := make([]columnPlan, len(t.columns))
	values := make([][]float64, len(t.columns)) // only populated for non-List columns
	rawListBytes := make([][][]byte, len(t.columns))

	cur := NewCursor(t)
	for cur.Next() {
		colIdx := cur.ColumnIndex()
		col := t.columns[colIdx]
		data, raw := cur.Cell()
		rawListBytes[colIdx] = append(rawListBytes[colIdx], append([]byte(nil), raw...))
		if col.Method != MethodList {
			if v, ok := numericValue(data); ok {
				values[colIdx] = append(values[colIdx], v)
			} else {
				values[colIdx] = nil // non-numeric cell; chooseSmallest also checks Analysis.AllNumeric
			}
		}
	}

	for i, col := range t.columns {
		switch col.Method {
		case MethodList:
			plans[i] = columnPlan{method: MethodList}
		case MethodDeltaVector:
			plans[i] = buildDeltaVectorPlan(col, valuesOrEmpty(values[i]))
		case MethodQuasiPeriodicVector:
			plans[i] = buildQPVPlan(col, valuesOrEmpty(values[i]))
		default: // MethodSmallest
			plans[i] = chooseSmallest(col, values[i], rawListBytes[i])
		}
	}
	return plans, rawListBytes, nil
}

func valuesOrEmpty(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return v
}

func chooseSmallest(col *Column, values []float64, raw [][]byte) columnPlan {
	if values == nil || !col.Analysis.AllNumeric {
		return columnPlan{method: MethodList}
	}
	if !col.Analysis.AllInteger && col.Factor == 0 {
		return columnPlan{method: MethodList}
	}
	listSize := 0
	for _, b := range raw {
		listSize += len(b)
	}

	dvPlan := buildDeltaVectorPlan(col, values)
	dvSize := measureColumnPlan(dvPlan)

	best := columnPlan{method: MethodList}
	bestSize := listSize

	if dvSize <= bestSize {
		bestSize = dvSize
		best = dvPlan
	}

	if col.Analysis.AllInteger {
		qpvPlan := buildQPVPlan(col, values)
		qpvSize := measureColumnPlan(qpvPlan)
		if qpvSize <= bestSize {
			best = qpvPlan
		}
	}
	return best
}

// measureColumnPlan trial-encodes a resolved DV/QPV plan's object value
// (everything after the column label) into a throwaway sink and returns its
// byte length.
func measureColumnPlan(p columnPlan) int {
	sink := bysant.NewMemSink()
	ser := bysant.NewSerializer(sink)
	registerVectorClasses(ser)
	if err := writeColumnValue(ser, p, 0); err != nil {
		return int(^uint(0) >> 1) // disqualify on unexpected encode failure
	}
	return len(sink.Bytes())
}

func buildDeltaVectorPlan(col *Column, values []float64) columnPlan {
	factor := col.Factor
	if factor == 0 {
		if col.Analysis.HasGCD && col.Analysis.GCD > 0 {
			factor = float64(col.Analysis.GCD)
		} else {
			factor = 1
		}
	}
	p := columnPlan{method: MethodDeltaVector, factor: factor}
	if len(values) == 0 {
		return p
	}
	p.start = values[0]
	prev := values[0]
	for _, v := range values[1:] {
		p.deltas = append(p.deltas, int64((v-prev)/factor))
		prev = v
	}
	return p
}

func buildQPVPlan(col *Column, values []float64) columnPlan {
	factor := col.Factor
	if factor == 0 {
		if col.Analysis.HasGCD && col.Analysis.GCD > 0 {
			factor = float64(col.Analysis.GCD)
		} else {
			factor = 1
		}
	}
	p := columnPlan{method: MethodQuasiPeriodicVector, factor: factor}
	if len(values) == 0 {
		return p
	}
	p.start = values[0]

	deltaCounts := map[int64]int{}
	var deltas []int64
	prev := values[0]
	for _, v := range values[1:] {
		d := int64((v - prev) / factor)
		deltas = append(deltas, d)
		deltaCounts[d]++
		prev = v
	}
	var period int64
	bestCount := -1
	for d, c := range deltaCounts {
		if c > bestCount || (c == bestCount && d < period) {
			period, bestCount = d, c
		}
	}
	p.period = period

	var shifts []qpvShift
	runLen := int64(0)
	var runShift float64
	for i, d := range deltas {
		shift := float64(d - period)
		if i == 0 {
			runLen, runShift = 1, shift
			continue
		}
		if shift == runShift {
			runLen++
			continue
		}
		shifts = append(shifts, qpvShift{count: runLen, value: runShift})
		runLen, runShift = 1, shift
	}
	if len(deltas) > 0 {
		shifts = append(shifts, qpvShift{count: runLen, value: runShift})
	}
	p.shifts = shifts
	return p
}
