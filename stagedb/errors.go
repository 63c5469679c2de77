package stagedb

import (
	"errors"
	"fmt"

	"github.com/joshuapare/bysantdb/internal/bysant"
)

// ErrorKind classifies why a staging-table operation failed, mirroring the
// SDB_E* status codes of the original C implementation.
type ErrorKind int

const (
	OK ErrorKind = iota
	// BadState indicates the operation is not legal in the table's current
	// lifecycle state (e.g. writing a cell while SERIALIZING).
	BadState
	// TooBig indicates a cell exceeds the storage backend's size limit.
	TooBig
	// Invalid indicates a malformed argument (bad column index, bad method).
	Invalid
	// Memory indicates an allocation failure.
	Memory
	// NoCons indicates Consolidate was called with no consolidation
	// descriptor configured.
	NoCons
	// BadFile indicates a file-storage I/O failure.
	BadFile
	// NilForbidden indicates WriteNull was called against a column declared
	// not to accept nulls.
	NilForbidden
	// Full indicates the table's configured row cap has been reached.
	Full
	// Empty indicates an operation that requires at least one row (e.g.
	// Consolidate) was attempted against a table with none.
	Empty
)

func (k ErrorKind) String() string {
	switch k {
	case OK:
		return "OK"
	case BadState:
		return "BAD_STATE"
	case TooBig:
		return "TOO_BIG"
	case Invalid:
		return "INVALID"
	case Memory:
		return "MEMORY"
	case NoCons:
		return "NO_CONS"
	case BadFile:
		return "BAD_FILE"
	case NilForbidden:
		return "NIL_FORBIDDEN"
	case Full:
		return "FULL"
	case Empty:
		return "EMPTY"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Error is the staging table's error type.
type Error struct {
	Kind  ErrorKind
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stagedb: %s: %s: %s: %v", e.Table, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("stagedb: %s: %s: %s", e.Table, e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(table, op string, kind ErrorKind) *Error {
	return &Error{Table: table, Op: op, Kind: kind}
}

// mapCodecErr translates a *bysant.Error surfaced by the table's cell
// serializer into the staging kind a caller should actually branch on,
// rather than collapsing every codec failure into Memory.
func mapCodecErr(table, op string, err error) *Error {
	var e *bysant.Error
	if !errors.As(err, &e) {
		return newErr(table, op, Memory).withErr(err)
	}
	switch e.Kind {
	case bysant.OutOfBounds:
		// A value didn't fit the wire representation the current context
		// demands (e.g. INT32 escape, raw float) — the cell was too big.
		return newErr(table, op, TooBig).withErr(err)
	case bysant.Overflow:
		// cellStorage backends never issue a short write (ramStore grows to
		// fit, FileStorage appends in full or fails outright), so a resumable
		// retry protocol has no meaning for a single cell write; the only way
		// the sink reports Overflow here is refusing the cell's bytes outright.
		return newErr(table, op, TooBig).withErr(err)
	case bysant.Invalid, bysant.BadContext, bysant.BadCtxID, bysant.BadMap,
		bysant.SizeMismatch, bysant.BadClassID, bysant.BadField,
		bysant.NoContainer, bysant.TooDeep:
		return newErr(table, op, Invalid).withErr(err)
	default: // Broken, Internal, Memory
		return newErr(table, op, Memory).withErr(err)
	}
}

// withErr attaches a wrapped cause and returns the same *Error, for chaining
// onto newErr at a call site that just received an unexpected lower-level
// error.
func (e *Error) withErr(err error) *Error {
	e.Err = err
	return e
}
