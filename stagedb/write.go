package stagedb

// WriteInt appends an integer cell to the column the table is currently
// positioned at (nWritten mod NumColumns), folding it into that column's
// running data analysis.
func (t *Table) WriteInt(v int64) error {
	col, err := t.beginCell()
	if err != nil {
		return err
	}
	if err := t.cellSer.WriteInt(v); err != nil {
		return mapCodecErr(t.id, "WriteInt", err)
	}
	col.Analysis.observeNumeric(float64(v), true)
	t.advance()
	return nil
}

// WriteDouble appends a floating-point cell, rounded through float32 first
// when the column is declared Float32.
func (t *Table) WriteDouble(v float64) error {
	col, err := t.beginCell()
	if err != nil {
		return err
	}
	if col.Float32 {
		v = float64(float32(v))
	}
	if err := t.cellSer.WriteDouble(v); err != nil {
		return mapCodecErr(t.id, "WriteDouble", err)
	}
	col.Analysis.observeNumeric(v, v == float64(int64(v)))
	t.advance()
	return nil
}

// WriteString appends a string cell (nil means an empty string, distinct
// from WriteNull).
func (t *Table) WriteString(s []byte) error {
	col, err := t.beginCell()
	if err != nil {
		return err
	}
	if err := t.cellSer.WriteString(s); err != nil {
		return mapCodecErr(t.id, "WriteString", err)
	}
	col.Analysis.observeNonNumeric()
	t.advance()
	return nil
}

// WriteBool appends a boolean cell.
func (t *Table) WriteBool(v bool) error {
	col, err := t.beginCell()
	if err != nil {
		return err
	}
	if err := t.cellSer.WriteBool(v); err != nil {
		return mapCodecErr(t.id, "WriteBool", err)
	}
	col.Analysis.observeNonNumeric()
	t.advance()
	return nil
}

// WriteNull appends a null cell, rejected with NilForbidden against a
// column declared NotNull.
func (t *Table) WriteNull() error {
	col, err := t.beginCell()
	if err != nil {
		return err
	}
	if col.NotNull {
		return newErr(t.id, "WriteNull", NilForbidden)
	}
	if err := t.cellSer.WriteNull(); err != nil {
		return mapCodecErr(t.id, "WriteNull", err)
	}
	col.Analysis.observeNonNumeric()
	t.advance()
	return nil
}

// WriteRaw appends a cell whose bysant encoding the caller has already
// produced (e.g. copied verbatim from another source), passing the bytes
// through the table's Serializer without re-encoding them. The raw bytes
// must decode as exactly one GLOBAL
// value; the table trusts the caller and does not re-validate them.
func (t *Table) WriteRaw(encoded []byte) error {
	col, err := t.beginCell()
	if err != nil {
		return err
	}
	if err := t.cellSer.WriteRaw(encoded); err != nil {
		return mapCodecErr(t.id, "WriteRaw", err)
	}
	col.Analysis.observeNonNumeric()
	t.advance()
	return nil
}

// beginCell validates the table is in a state that accepts a cell write and
// that the row cap (if any) has not been reached, returning the column the
// next cell will land in.
func (t *Table) beginCell() (*Column, error) {
	if t.state != Reading {
		return nil, newErr(t.id, "WriteCell", BadState)
	}
	if t.maxRows > 0 && t.nRows >= t.maxRows && t.nWritten%len(t.columns) == 0 {
		return nil, newErr(t.id, "WriteCell", Full)
	}
	return t.columnFor(), nil
}
