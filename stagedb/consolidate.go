package stagedb

import (
	"sort"

	"github.com/joshuapare/bysantdb/internal/bysant"
)

// ConsolidationMapping names one (source column, method) pair feeding a
// single destination column.
type ConsolidationMapping struct {
	DstColumn int
	SrcColumn int
	Method    ConsolidationMethod
}

// Consolidation is a table's at-most-one consolidation descriptor: a target
// table and the per-destination-column reduction to run against it.
type Consolidation struct {
	Dst      *Table
	Mappings []ConsolidationMapping
}

// SetConsolidation installs (or replaces) t's consolidation descriptor.
// Consolidate itself is not run until Consolidate is called.
func (t *Table) SetConsolidation(c *Consolidation) error {
	if t.state != Reading {
		return newErr(t.id, "SetConsolidation", BadState)
	}
	t.consolidation = c
	return nil
}

// reducer accumulates cells fed to one destination column across a
// consolidation's source rows and produces the single cell to write.
type reducer struct {
	method ConsolidationMethod

	// positional (FIRST/LAST): raw bytes of the selected cell
	rawBytes []byte
	seen     int

	// positional (MIDDLE): every cell's raw bytes, middle picked at finalize
	allRaw [][]byte

	// numeric (MAX/MIN/MEAN/SUM/MEDIAN): running state
	broken bool
	sum    float64
	count  int
	max    float64
	min    float64
	have   bool
	values []float64 // only populated for MEDIAN
}

func newReducer(m ConsolidationMethod) *reducer { return &reducer{method: m} }

// feed folds one source cell into the reducer. raw is the cell's verbatim
// encoded bytes (used by positional methods); data is its decoded value
// (used by numeric methods).
func (r *reducer) feed(raw []byte, data bysant.Data) {
	r.seen++
	switch r.method {
	case ConsFirst:
		if r.seen == 1 {
			r.rawBytes = append([]byte(nil), raw...)
		}
	case ConsLast:
		r.rawBytes = append(r.rawBytes[:0], raw...)
	case ConsMiddle:
		// recorded positionally; finalize needs the total row count to know
		// which occurrence is "the middle one", so every cell is buffered
		// here and finalize picks the middle raw slice.
		r.allRaw = append(r.allRaw, append([]byte(nil), raw...))
	default:
		v, ok := numericValue(data)
		if !ok {
			r.broken = true
			return
		}
		if !r.have {
			r.max, r.min = v, v
			r.have = true
		} else {
			if v > r.max {
				r.max = v
			}
			if v < r.min {
				r.min = v
			}
		}
		r.sum += v
		r.count++
		if r.method == ConsMedian {
			r.values = append(r.values, v)
		}
	}
}

// cellValue is the reduced result of one destination column, deferred until
// a whole destination row's worth of values is ready so they can be written
// to dst in strict column order (0..N-1), matching the round-robin layout
// every other table write goes through.
type cellValue struct {
	isNull bool
	isRaw  bool
	raw    []byte
	num    float64
}

// finalize computes the reducer's single resulting cell.
func (r *reducer) finalize() cellValue {
	switch r.method {
	case ConsFirst, ConsLast:
		if r.rawBytes == nil {
			return cellValue{isNull: true}
		}
		return cellValue{isRaw: true, raw: r.rawBytes}
	case ConsMiddle:
		if len(r.allRaw) == 0 {
			return cellValue{isNull: true}
		}
		return cellValue{isRaw: true, raw: r.allRaw[len(r.allRaw)/2]}
	default:
		if r.broken || r.count == 0 {
			return cellValue{isNull: true}
		}
		switch r.method {
		case ConsMax:
			return cellValue{num: r.max}
		case ConsMin:
			return cellValue{num: r.min}
		case ConsSum:
			return cellValue{num: r.sum}
		case ConsMean:
			return cellValue{num: r.sum / float64(r.count)}
		case ConsMedian:
			sort.Float64s(r.values)
			return cellValue{num: r.values[len(r.values)/2]}
		}
	}
	return cellValue{isNull: true}
}

// write appends v to dst, whichever column dst is currently positioned at.
func (v cellValue) write(dst *Table) error {
	switch {
	case v.isRaw:
		return dst.WriteRaw(v.raw)
	case v.isNull:
		return dst.WriteNull()
	default:
		return dst.WriteDouble(v.num)
	}
}

func numericValue(d bysant.Data) (float64, bool) {
	switch d.Type {
	case bysant.TypeInt:
		return float64(d.Int), true
	case bysant.TypeDouble:
		return d.Double, true
	default:
		return 0, false
	}
}

// Consolidate runs the installed consolidation descriptor: for every stored
// row, every mapped source column's cell is folded into its destination
// column's reducer, and at the end each destination column receives exactly
// one written cell. Both tables must be in Reading state; both are held
// exclusively (single-threaded, so this just means neither may be mutated
// from inside the callback chain) for the duration of the call.
func (t *Table) Consolidate() error {
	if t.consolidation == nil {
		return newErr(t.id, "Consolidate", NoCons)
	}
	if t.state != Reading {
		return newErr(t.id, "Consolidate", BadState)
	}
	dst := t.consolidation.Dst
	if dst.state != Reading {
		return newErr(dst.id, "Consolidate", BadState)
	}
	if t.nRows == 0 {
		return newErr(t.id, "Consolidate", Empty)
	}

	// src column index -> list of mapping indices consuming it
	bySrc := make(map[int][]int)
	for i, m := range t.consolidation.Mappings {
		bySrc[m.SrcColumn] = append(bySrc[m.SrcColumn], i)
	}
	reducers := make([]*reducer, len(t.consolidation.Mappings))
	for i, m := range t.consolidation.Mappings {
		reducers[i] = newReducer(m.Method)
	}

	cur := NewCursor(t)
	nFed := 0
	for cur.Next() {
		col := cur.ColumnIndex()
		idxs, ok := bySrc[col]
		if !ok {
			continue
		}
		data, raw := cur.Cell()
		for _, idx := range idxs {
			reducers[idx].feed(raw, data)
		}
		nFed++
	}
	logger.Debug("consolidation fed cells", "table", t.id, "n_cells", nFed, "n_rows", t.nRows)

	row := make([]cellValue, dst.NumColumns())
	for i := range row {
		row[i] = cellValue{isNull: true}
	}
	for i, m := range t.consolidation.Mappings {
		row[m.DstColumn] = reducers[i].finalize()
	}
	for _, v := range row {
		if err := v.write(dst); err != nil {
			return err
		}
	}
	return nil
}
