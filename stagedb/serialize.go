package stagedb

import "github.com/joshuapare/bysantdb/internal/bysant"

// Built-in class ids for the two vector encodings. These classes are never
// written to the wire (DefineClass is called with internal=true): a reader
// is expected to know them ahead of time, exactly as spec.md names them as
// fixed schemas rather than ones discovered via a CLASSDEF event.
const (
	classDeltaVector         bysant.ClassID = 3
	classQuasiPeriodicVector bysant.ClassID = 4
)

func registerVectorClasses(ser *bysant.Serializer) error {
	dv := &bysant.Class{ID: classDeltaVector, Name: "DeltaVector", Fields: []bysant.Field{
		{Name: "factor", CtxID: bysant.CtxNumber},
		{Name: "start", CtxID: bysant.CtxNumber},
		{Name: "deltas", CtxID: bysant.CtxListOrMap},
	}}
	if err := ser.DefineClass(dv, true); err != nil {
		return err
	}
	qpv := &bysant.Class{ID: classQuasiPeriodicVector, Name: "QuasiPeriodicVector", Fields: []bysant.Field{
		{Name: "factor", CtxID: bysant.CtxNumber},
		{Name: "start", CtxID: bysant.CtxNumber},
		{Name: "shifts", CtxID: bysant.CtxListOrMap},
	}}
	return ser.DefineClass(qpv, true)
}

// writeColumnValue emits the object value for a DeltaVector/QuasiPeriodicVector
// plan (everything after the column's map key). Used both for real emission
// and, against a throwaway sink, by the chooser's trial-size measurement.
func writeColumnValue(ser *bysant.Serializer, p columnPlan, _ int) error {
	switch p.method {
	case MethodDeltaVector:
		if err := ser.OpenObject(classDeltaVector); err != nil {
			return err
		}
		if err := ser.WriteDouble(p.factor); err != nil {
			return err
		}
		if err := ser.WriteInt(int64(p.start)); err != nil {
			return err
		}
		if err := ser.OpenList(len(p.deltas), bysant.CtxNumber); err != nil {
			return err
		}
		for _, d := range p.deltas {
			if err := ser.WriteInt(d); err != nil {
				return err
			}
		}
		if err := ser.Close(); err != nil {
			return err
		}
		return ser.Close()
	case MethodQuasiPeriodicVector:
		if err := ser.OpenObject(classQuasiPeriodicVector); err != nil {
			return err
		}
		if err := ser.WriteDouble(p.factor); err != nil {
			return err
		}
		if err := ser.WriteDouble(p.start); err != nil {
			return err
		}
		if err := ser.OpenList(len(p.shifts)*2, bysant.CtxNumber); err != nil {
			return err
		}
		for _, s := range p.shifts {
			if err := ser.WriteInt(s.count); err != nil {
				return err
			}
			if err := ser.WriteDouble(s.value); err != nil {
				return err
			}
		}
		if err := ser.Close(); err != nil {
			return err
		}
		return ser.Close()
	default:
		return nil
	}
}

type emitStage int

const (
	emitNotStarted emitStage = iota
	emitRunning
	emitDone
)

// emitState is a Table's resumable emit state machine. steps is the full,
// precomputed sequence of serializer calls one flush requires; stepIdx is
// how many have already succeeded. An OVERFLOW from the sink during
// steps[stepIdx] leaves stepIdx unchanged, so the next call to Serialize
// simply re-invokes the same step (the serializer's own skip-counter
// discipline makes that call idempotent against bytes already accepted).
type emitState struct {
	stage   emitStage
	ser     *bysant.Serializer
	steps   []func() error
	stepIdx int
}

// Serialize streams the table's full contents as one bysant GLOBAL-context
// map (column label -> encoded column value) to sink. The table moves to
// Serializing for the duration; if sink returns a short write the call
// returns bysant's Overflow error and the table stays Serializing so a
// later call with the same sink resumes exactly where it left off.
// Serialize is not legal except from Reading (to start a new flush) or
// Serializing (to resume one already in progress).
func (t *Table) Serialize(sink bysant.Sink) error {
	if t.state != Reading && t.state != Serializing {
		return newErr(t.id, "Serialize", BadState)
	}
	if t.emit.stage == emitNotStarted {
		if err := t.buildEmitPlan(sink); err != nil {
			t.setState(Broken)
			return err
		}
		t.emit.stage = emitRunning
		t.setState(Serializing)
	}

	for t.emit.stepIdx < len(t.emit.steps) {
		if err := t.emit.steps[t.emit.stepIdx](); err != nil {
			if bysant.IsOverflow(err) {
				return err
			}
			t.setState(Broken)
			return mapCodecErr(t.id, "Serialize", err)
		}
		t.emit.stepIdx++
	}

	t.emit = emitState{}
	t.setState(Reading)
	return nil
}

// CancelSerialize abandons an in-progress flush, discarding its state
// machine and returning the table to Reading without having emitted a
// complete, well-formed stream to the sink.
func (t *Table) CancelSerialize() error {
	if t.state != Serializing {
		return newErr(t.id, "CancelSerialize", BadState)
	}
	t.emit = emitState{}
	t.setState(Reading)
	return nil
}

func (t *Table) buildEmitPlan(sink bysant.Sink) error {
	plans, rawCells, err := planColumns(t)
	if err != nil {
		return err
	}
	ser := bysant.NewSerializer(sink)
	if err := registerVectorClasses(ser); err != nil {
		return err
	}

	var steps []func() error
	steps = append(steps, func() error { return ser.OpenMap(len(t.columns), bysant.CtxGlobal) })
	for i, col := range t.columns {
		name := col.Name
		steps = append(steps, func() error { return ser.WriteString([]byte(name)) })
		switch plans[i].method {
		case MethodList:
			cells := rawCells[i]
			nRows := len(cells)
			steps = append(steps, func() error { return ser.OpenList(nRows, bysant.CtxGlobal) })
			for _, raw := range cells {
				raw := raw
				steps = append(steps, func() error { return ser.WriteRaw(raw) })
			}
			steps = append(steps, ser.Close)
		default:
			// Encode the whole object value up front and emit it as one
			// WriteRaw step, so an overflow replays a single serializer call.
			scratch := bysant.NewMemSink()
			tmp := bysant.NewSerializer(scratch)
			if err := registerVectorClasses(tmp); err != nil {
				return err
			}
			if err := writeColumnValue(tmp, plans[i], 0); err != nil {
				return err
			}
			encoded := scratch.Bytes()
			steps = append(steps, func() error { return ser.WriteRaw(encoded) })
		}
	}
	steps = append(steps, ser.Close)

	t.emit.ser = ser
	t.emit.steps = steps
	t.emit.stepIdx = 0
	return nil
}
