package bysant

import "math"

// frame is one entry of the serializer's container stack. It records the
// kind of container, the context governing its children, how many more
// children a fixed-size container expects (or -1 for variable), and map key
// vs value parity.
type frame struct {
	kind    FrameKind
	ctxid   CtxID
	missing int // remaining children for fixed containers; unused otherwise
	mapEven bool // true => next map slot is a key
	class   *Class
}

// Serializer streams Go values into Bysant-encoded bytes, context by
// context, onto a Sink. Every public method is transactional: if the sink
// overflows partway through an operation, the operation returns an Overflow
// error and leaves the serializer able to retry the identical call later
// without re-emitting bytes the sink already accepted. Any other error
// leaves the serializer Broken if partial output reached the sink.
type Serializer struct {
	sink Sink

	written      int // bytes ever handed to the sink across the context's life
	acknowledged int // written, as of the last fully-committed operation
	skipQuota    int // bytes of this op a previous attempt already sent, fixed for the attempt in progress
	skipped      int // portion of skipQuota already matched against new writes this attempt

	broken bool
	stack  []frame

	classes *ClassRegistry
}

// NewSerializer returns a Serializer ready to write at the top level
// (GLOBAL context, empty container stack) into sink.
func NewSerializer(sink Sink) *Serializer {
	s := &Serializer{sink: sink, classes: NewClassRegistry()}
	s.resetStack()
	return s
}

func (s *Serializer) resetStack() {
	s.stack = []frame{{kind: FTop, ctxid: CtxGlobal}}
}

// Reset returns the serializer to its initial state: empty stack, no
// registered classes, and cleared retry bookkeeping. It does not touch the
// sink.
func (s *Serializer) Reset() {
	s.written, s.acknowledged, s.skipQuota, s.skipped = 0, 0, 0, 0
	s.broken = false
	s.resetStack()
	s.classes.Reset()
}

// Depth reports how many containers are currently open.
func (s *Serializer) Depth() int { return len(s.stack) - 1 }

// Broken reports whether a prior unrecoverable error has poisoned this
// context; every further operation will fail until Reset.
func (s *Serializer) Broken() bool { return s.broken }

// --- transaction plumbing -------------------------------------------------

// writeBytes hands data to the sink, skipping any leading portion already
// accepted by a previous attempt at the operation in progress. toskip is
// measured against skipQuota, a snapshot taken once per attempt (in do), not
// against written directly — written keeps growing as this attempt's own
// writes land, and must not be mistaken for more bytes to skip.
func (s *Serializer) writeBytes(data []byte) error {
	toskip := s.skipQuota - s.skipped
	if toskip > 0 {
		if toskip >= len(data) {
			s.skipped += len(data)
			return nil
		}
		data = data[toskip:]
		s.skipped += toskip
	}
	n, err := s.sink.Write(data)
	if err != nil {
		return &Error{Kind: Broken, Err: err}
	}
	s.written += n
	if n < len(data) {
		return newErr("", Overflow)
	}
	return nil
}

func (s *Serializer) writeByte(b byte) error { return s.writeBytes([]byte{b}) }

// do wraps one public operation in the written/acknowledged/skipped
// transaction discipline: on success it commits (advances acknowledged to
// written); on Overflow it leaves state untouched so a retry replays from
// the correct offset; on any other error it marks the context Broken if any
// bytes of this attempt reached the sink.
func (s *Serializer) do(op string, fn func() error) error {
	if s.broken {
		return &Error{Op: op, Kind: Broken}
	}
	s.skipQuota = s.written - s.acknowledged
	s.skipped = 0
	err := fn()
	if err == nil {
		s.acknowledged = s.written
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		e = &Error{Kind: Internal, Err: err}
	}
	e.Op = op
	if e.Kind == Overflow {
		return e
	}
	if s.written != s.acknowledged {
		s.broken = true
	}
	return e
}

func (s *Serializer) push(f frame) error {
	if len(s.stack) >= stackSize {
		return newErr("", TooDeep)
	}
	s.stack = append(s.stack, f)
	logger.Debug("push frame", "kind", f.kind, "ctx", f.ctxid, "depth", len(s.stack)-1)
	return nil
}

func (s *Serializer) pop() (frame, error) {
	if len(s.stack) <= 1 {
		return frame{}, newErr("", NoContainer)
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	logger.Debug("pop frame", "kind", f.kind, "depth", len(s.stack)-1)
	return f, nil
}

func (s *Serializer) top() *frame { return &s.stack[len(s.stack)-1] }

// childCtx returns the context that governs the next value written inside
// parent, without mutating parent's bookkeeping (that happens in
// accountForChild, once the value has actually been written).
func (s *Serializer) childCtx(parent *frame) (CtxID, error) {
	switch parent.kind {
	case FTop:
		return parent.ctxid, nil
	case FMap, FZMap:
		if parent.mapEven {
			return CtxUnsignedOrString, nil
		}
		return parent.ctxid, nil
	case FObject:
		if parent.missing <= 0 {
			return 0, newErr("", SizeMismatch)
		}
		idx := len(parent.class.Fields) - parent.missing
		return parent.class.Fields[idx].CtxID, nil
	case FChunked:
		return CtxChunked, nil
	default: // FList, FZList, FClassDef
		return parent.ctxid, nil
	}
}

// accountForChild records that one child value was just written under
// parent: fixed containers decrement their remaining count (failing with
// SizeMismatch if already exhausted), maps additionally flip key/value
// parity, and chunked/variable containers track nothing.
func (s *Serializer) accountForChild(parent *frame) error {
	switch parent.kind {
	case FTop, FChunked, FZList:
		return nil
	case FMap:
		if parent.missing <= 0 {
			return newErr("", SizeMismatch)
		}
		parent.missing--
		parent.mapEven = !parent.mapEven
		return nil
	case FZMap:
		parent.mapEven = !parent.mapEven
		return nil
	default: // FObject, FList, FClassDef
		if parent.missing <= 0 {
			return newErr("", SizeMismatch)
		}
		parent.missing--
		return nil
	}
}

// compensateForClassDef cancels out the accountForChild call that follows an
// inline (non-internal) class definition, so defining a class mid-container
// never counts as supplying one of that container's children.
func (s *Serializer) compensateForClassDef(parent *frame) {
	switch parent.kind {
	case FMap:
		parent.missing++
		parent.mapEven = !parent.mapEven
	case FZMap:
		parent.mapEven = !parent.mapEven
	case FObject, FList, FClassDef:
		parent.missing++
	}
}

// --- scalar writes ---------------------------------------------------------

// WriteInt writes a signed integer using the tiered opcode table of the
// current context (GLOBAL or NUMBER), the UIS unsigned table if the context
// is UNSIGNED_OR_STRING (x must be non-negative there), or the raw INT32
// escape if the context is INT32.
func (s *Serializer) WriteInt(x int64) error {
	return s.do("write_int", func() error {
		parent := s.top()
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		if err := s.writeIntInContext(ctx, x); err != nil {
			return err
		}
		return s.accountForChild(parent)
	})
}

func (s *Serializer) writeIntInContext(ctx CtxID, x int64) error {
	switch ctx {
	case CtxGlobal:
		return s.writeTieredInt(&GlobalInteger, x)
	case CtxNumber:
		return s.writeTieredInt(&NumberInteger, x)
	case CtxUnsignedOrString:
		if x < 0 {
			return newErr("", BadContext)
		}
		return s.writeUnsigned(uint64(x))
	case CtxInt32:
		return s.writeInt32Escaped(x)
	default:
		return newErr("", BadContext)
	}
}

func (s *Serializer) writeTieredInt(enc *integerEncoding, x int64) error {
	switch {
	case x >= int64(enc.tinyMin) && x <= int64(enc.tinyMax):
		return s.writeByte(enc.tinyZeroOpcode + byte(x))
	case x > int64(enc.tinyMax) && x <= int64(enc.smallMax):
		return s.writeTiered2(enc.smallPosOpcode, x-int64(enc.tinyMax)-1)
	case x < int64(enc.tinyMin) && x >= int64(enc.smallMin):
		return s.writeTiered2(enc.smallNegOpcode, int64(enc.tinyMin)-1-x)
	case x > int64(enc.smallMax) && x <= int64(enc.mediumMax):
		return s.writeTiered3(enc.mediumPosOpcode, x-int64(enc.smallMax)-1)
	case x < int64(enc.smallMin) && x >= int64(enc.mediumMin):
		return s.writeTiered3(enc.mediumNegOpcode, int64(enc.smallMin)-1-x)
	case x > int64(enc.mediumMax) && x <= int64(enc.largeMax):
		return s.writeTiered4(enc.largePosOpcode, x-int64(enc.mediumMax)-1)
	case x < int64(enc.mediumMin) && x >= int64(enc.largeMin):
		return s.writeTiered4(enc.largeNegOpcode, int64(enc.mediumMin)-1-x)
	case x >= math.MinInt32 && x <= math.MaxInt32:
		if err := s.writeByte(enc.int32Opcode); err != nil {
			return err
		}
		var buf [4]byte
		putU32BE(buf[:], 0, uint32(int32(x)))
		return s.writeBytes(buf[:])
	default:
		if err := s.writeByte(enc.int64Opcode); err != nil {
			return err
		}
		var buf [8]byte
		putU64BE(buf[:], 0, uint64(x))
		return s.writeBytes(buf[:])
	}
}

// writeTiered2 emits base+(offset>>8) followed by one low byte: an 11-bit
// split used by the "small" integer tiers and the "medium" string tier.
func (s *Serializer) writeTiered2(base byte, offset int64) error {
	if err := s.writeByte(base + byte(offset>>8)); err != nil {
		return err
	}
	return s.writeByte(byte(offset))
}

// writeTiered3 emits base+(offset>>16) followed by two big-endian low bytes:
// an 18-bit split used by the "medium" integer tiers and the UIS medium tier.
func (s *Serializer) writeTiered3(base byte, offset int64) error {
	if err := s.writeByte(base + byte(offset>>16)); err != nil {
		return err
	}
	return s.writeBytes([]byte{byte(offset >> 8), byte(offset)})
}

// writeTiered4 emits base+(offset>>24) followed by three big-endian low
// bytes: a 27-bit split used by the "large" integer tier.
func (s *Serializer) writeTiered4(base byte, offset int64) error {
	if err := s.writeByte(base + byte(offset>>24)); err != nil {
		return err
	}
	return s.writeBytes([]byte{byte(offset >> 16), byte(offset >> 8), byte(offset)})
}

// writeUnsigned encodes x with the UIS tiered scheme, used both for
// UNSIGNED_OR_STRING-context integers and for internal length/id fields
// (object ids, class ids, field counts).
func (s *Serializer) writeUnsigned(x uint64) error {
	switch {
	case x <= uisTinyMax:
		return s.writeByte(uisTinyBase + byte(x))
	case x <= uisSmallMax:
		return s.writeTiered2(uisSmallBase, int64(x-uisTinyMax-1))
	case x <= uisMediumMax:
		return s.writeTiered3(uisMediumBase, int64(x-uisSmallMax-1))
	case x <= uisLargeMax:
		return s.writeTiered4(uisLargeBase, int64(x-uisMediumMax-1))
	default:
		if err := s.writeByte(uisEscapeOpcode); err != nil {
			return err
		}
		var buf [4]byte
		putU32BE(buf[:], 0, uint32(x))
		return s.writeBytes(buf[:])
	}
}

// writeInt32Escaped writes x as raw big-endian int32, escaping the one bit
// pattern (0x80000000) reserved for the INT32 null token with a trailing
// 0x01 byte.
func (s *Serializer) writeInt32Escaped(x int64) error {
	if x < math.MinInt32 || x > math.MaxInt32 {
		return newErr("", OutOfBounds)
	}
	var buf [4]byte
	bits := uint32(int32(x))
	putU32BE(buf[:], 0, bits)
	if err := s.writeBytes(buf[:]); err != nil {
		return err
	}
	if bits == 0x80000000 {
		return s.writeByte(0x01)
	}
	return nil
}

// WriteDouble writes a floating-point value. In GLOBAL/NUMBER context it
// first tries an exact int64 downgrade (preserved in that order: the
// downgrade is attempted unconditionally whenever the context isn't
// FLOAT/DOUBLE, and it is writeIntInContext that then rejects a downgrade
// the context can't carry, not a prior numeric-context check), then falls
// back to the smallest of float32/float64. In FLOAT/DOUBLE context it always
// writes the context's fixed-width raw representation.
func (s *Serializer) WriteDouble(x float64) error {
	return s.do("write_double", func() error {
		parent := s.top()
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		if err := s.writeDoubleInContext(ctx, x); err != nil {
			return err
		}
		return s.accountForChild(parent)
	})
}

func (s *Serializer) writeDoubleInContext(ctx CtxID, x float64) error {
	switch ctx {
	case CtxFloat:
		return s.writeRawFloat32Escaped(x)
	case CtxDouble:
		return s.writeRawFloat64Escaped(x)
	}
	if y := int64(x); float64(y) == x {
		return s.writeIntInContext(ctx, y)
	}
	switch ctx {
	case CtxGlobal:
		return s.writeFloatOpcode(x, opGlobalFloat32, opGlobalFloat64)
	case CtxNumber:
		return s.writeFloatOpcode(x, opNumberFloat32, opNumberFloat64)
	default:
		return newErr("", BadContext)
	}
}

func (s *Serializer) writeFloatOpcode(x float64, op32, op64 byte) error {
	if f := float32(x); float64(f) == x {
		if err := s.writeByte(op32); err != nil {
			return err
		}
		var buf [4]byte
		putU32BE(buf[:], 0, math.Float32bits(f))
		return s.writeBytes(buf[:])
	}
	if err := s.writeByte(op64); err != nil {
		return err
	}
	var buf [8]byte
	putU64BE(buf[:], 0, math.Float64bits(x))
	return s.writeBytes(buf[:])
}

func (s *Serializer) writeRawFloat32Escaped(x float64) error {
	bits := math.Float32bits(float32(x))
	var buf [4]byte
	putU32BE(buf[:], 0, bits)
	if err := s.writeBytes(buf[:]); err != nil {
		return err
	}
	if bits == 0xFFFFFFFF {
		return s.writeByte(0x01)
	}
	return nil
}

func (s *Serializer) writeRawFloat64Escaped(x float64) error {
	bits := math.Float64bits(x)
	var buf [8]byte
	putU64BE(buf[:], 0, bits)
	if err := s.writeBytes(buf[:]); err != nil {
		return err
	}
	if bits == 0xFFFFFFFFFFFFFFFF {
		return s.writeByte(0x01)
	}
	return nil
}

// WriteNumber writes x as an int if it is exactly representable as one,
// else as a double. A convenience over separately choosing WriteInt or
// WriteDouble, added for the staging table's numeric cell writer.
func (s *Serializer) WriteNumber(x float64) error {
	if y := int64(x); float64(y) == x {
		return s.WriteInt(y)
	}
	return s.WriteDouble(x)
}

// WriteBool writes a boolean. Only legal in GLOBAL context.
func (s *Serializer) WriteBool(b bool) error {
	return s.do("write_bool", func() error {
		parent := s.top()
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		if ctx != CtxGlobal {
			return newErr("", BadContext)
		}
		op := byte(opGlobalBoolF)
		if b {
			op = opGlobalBoolT
		}
		if err := s.writeByte(op); err != nil {
			return err
		}
		return s.accountForChild(parent)
	})
}

// WriteNull writes the current context's null token. Forbidden as a map key
// and inside a variable-size (ZLIST) list, since both require every element
// to be distinguishable from the container's own close marker.
func (s *Serializer) WriteNull() error {
	return s.do("write_null", func() error {
		parent := s.top()
		if parent.kind == FZList {
			return newErr("", Invalid)
		}
		if (parent.kind == FMap || parent.kind == FZMap) && parent.mapEven {
			return newErr("", Invalid)
		}
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		if err := s.writeNullToken(ctx); err != nil {
			return err
		}
		return s.accountForChild(parent)
	})
}

func (s *Serializer) writeNullToken(ctx CtxID) error {
	switch ctx {
	case CtxGlobal, CtxUnsignedOrString, CtxNumber:
		return s.writeByte(0x00)
	case CtxInt32:
		return s.writeBytes([]byte{0x80, 0, 0, 0, 0})
	case CtxFloat:
		return s.writeBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00})
	case CtxDouble:
		return s.writeBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})
	default:
		return newErr("", BadContext)
	}
}

// --- strings -----------------------------------------------------------

// WriteString writes str using the small/medium/large tiered length-prefix
// opcodes for the current context, falling back to a chunked encoding for
// strings beyond the large tier's limit.
func (s *Serializer) WriteString(str []byte) error {
	return s.do("write_string", func() error {
		parent := s.top()
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		if err := s.writeStringInContext(ctx, str); err != nil {
			return err
		}
		return s.accountForChild(parent)
	})
}

func (s *Serializer) stringTable(ctx CtxID) (*stringEncoding, error) {
	switch ctx {
	case CtxGlobal:
		return &GlobalString, nil
	case CtxUnsignedOrString:
		return &UISString, nil
	default:
		return nil, newErr("", BadContext)
	}
}

func (s *Serializer) writeStringInContext(ctx CtxID, str []byte) error {
	enc, err := s.stringTable(ctx)
	if err != nil {
		return err
	}
	n := len(str)
	switch {
	case n <= enc.smallLimit:
		if err := s.writeByte(enc.smallOpcode + byte(n)); err != nil {
			return err
		}
	case n <= enc.mediumLimit:
		if err := s.writeTiered2(enc.mediumOpcode, int64(n-enc.smallLimit-1)); err != nil {
			return err
		}
	case n <= enc.largeLimit:
		offset := n - enc.mediumLimit - 1
		if err := s.writeByte(enc.largeOpcode); err != nil {
			return err
		}
		if err := s.writeBytes([]byte{byte(offset >> 8), byte(offset)}); err != nil {
			return err
		}
	default:
		return s.writeChunkedString(enc.chunkedOpcode, str)
	}
	return s.writeBytes(str)
}

func (s *Serializer) writeChunkedString(chunkedOp byte, str []byte) error {
	if err := s.writeByte(chunkedOp); err != nil {
		return err
	}
	for len(str) > 0 {
		n := len(str)
		if n > chunkMaxPayload {
			n = chunkMaxPayload
		}
		if err := s.writeChunkFrame(str[:n]); err != nil {
			return err
		}
		str = str[n:]
	}
	return s.writeChunkFrame(nil)
}

func (s *Serializer) writeChunkFrame(data []byte) error {
	var hdr [2]byte
	putU16BE(hdr[:], 0, uint16(len(data)))
	if err := s.writeBytes(hdr[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return s.writeBytes(data)
}

// OpenChunked begins a streamed string/binary value whose total length
// isn't known up front. Only legal in GLOBAL or UNSIGNED_OR_STRING context.
// Follow with one or more WriteChunk calls and a matching Close.
func (s *Serializer) OpenChunked() error {
	return s.do("open_chunked", func() error {
		parent := s.top()
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		enc, err := s.stringTable(ctx)
		if err != nil {
			return err
		}
		if err := s.writeByte(enc.chunkedOpcode); err != nil {
			return err
		}
		if err := s.accountForChild(parent); err != nil {
			return err
		}
		return s.push(frame{kind: FChunked, ctxid: CtxChunked})
	})
}

// WriteChunk writes one chunk of an open chunked string. It may be called
// any number of times between OpenChunked and Close; each call splits data
// into ≤chunkMaxPayload pieces as needed.
func (s *Serializer) WriteChunk(data []byte) error {
	return s.do("write_chunk", func() error {
		f := s.top()
		if f.kind != FChunked {
			return newErr("", BadContext)
		}
		for len(data) > 0 {
			n := len(data)
			if n > chunkMaxPayload {
				n = chunkMaxPayload
			}
			if err := s.writeChunkFrame(data[:n]); err != nil {
				return err
			}
			data = data[n:]
		}
		return nil
	})
}

// --- containers ----------------------------------------------------------

// OpenList begins a list. length >= 0 declares a fixed element count;
// length < 0 begins a variable-length list closed by Close. elemCtxid
// selects the element context: CtxGlobal for heterogeneous elements
// (untyped), CtxNumber for a homogeneous numeric list (typed, smaller
// per-element opcodes) — no other element context is valid for a
// collection.
func (s *Serializer) OpenList(length int, elemCtxid CtxID) error {
	return s.do("open_list", func() error {
		return s.openCollection(length, elemCtxid, false)
	})
}

// OpenMap begins a map, analogous to OpenList but with key/value children:
// a fixed length declares the number of key/value pairs (2*length total
// children); keys are always written in UNSIGNED_OR_STRING context.
func (s *Serializer) OpenMap(length int, elemCtxid CtxID) error {
	return s.do("open_map", func() error {
		return s.openCollection(length, elemCtxid, true)
	})
}

func (s *Serializer) openCollection(length int, elemCtxid CtxID, isMap bool) error {
	parent := s.top()
	containerCtx, err := s.childCtx(parent)
	if err != nil {
		return err
	}
	var enc *collEncoding
	switch containerCtx {
	case CtxGlobal:
		if isMap {
			enc = &GlobalMap
		} else {
			enc = &GlobalList
		}
	case CtxListOrMap:
		if isMap {
			enc = &ListmapMap
		} else {
			enc = &ListmapList
		}
	default:
		return newErr("", BadContext)
	}
	var typed bool
	switch elemCtxid {
	case CtxGlobal:
		typed = false
	case CtxNumber:
		typed = true
	default:
		return newErr("", BadCtxID)
	}

	var kind FrameKind
	switch {
	case length == 0:
		if err := s.writeByte(enc.emptyOpcode); err != nil {
			return err
		}
		kind = enc.fixedKind
	case length < 0:
		op := enc.variableUntypedOpcode
		if typed {
			op = enc.variableTypedOpcode
		}
		if err := s.writeByte(op); err != nil {
			return err
		}
		kind = enc.variableKind
	case length <= enc.smallLimit:
		base := enc.smallUntypedOpcode
		if typed {
			base = enc.smallTypedOpcode
		}
		if err := s.writeByte(base + byte(length-1)); err != nil {
			return err
		}
		kind = enc.fixedKind
	default:
		op := enc.longUntypedOpcode
		if typed {
			op = enc.longTypedOpcode
		}
		if err := s.writeByte(op); err != nil {
			return err
		}
		if err := s.writeUnsigned(uint64(length)); err != nil {
			return err
		}
		kind = enc.fixedKind
	}

	if err := s.accountForChild(parent); err != nil {
		return err
	}
	missing := length
	if length < 0 {
		missing = -1
	} else if isMap {
		missing = length * 2
	}
	return s.push(frame{kind: kind, ctxid: elemCtxid, missing: missing, mapEven: true})
}

// Close ends the innermost open container (list, map, object, or chunked
// string). Fixed-size containers must have received exactly their declared
// number of children; variable-size ones write a closing null token first.
func (s *Serializer) Close() error {
	return s.do("close", func() error {
		f, err := s.pop()
		if err != nil {
			return err
		}
		switch f.kind {
		case FMap, FObject, FList, FClassDef:
			if f.missing != 0 {
				return newErr("", SizeMismatch)
			}
		case FZMap:
			if !f.mapEven {
				return newErr("", BadMap)
			}
			return s.writeNullToken(f.ctxid)
		case FZList:
			return s.writeNullToken(f.ctxid)
		case FChunked:
			return s.writeChunkFrame(nil)
		}
		return nil
	})
}

// --- objects and classes --------------------------------------------------

// OpenObject begins an instance of the class registered under classid. Only
// legal in GLOBAL context. Follow with exactly len(class.Fields) writes (in
// field order) and a matching Close.
func (s *Serializer) OpenObject(classid ClassID) error {
	return s.do("open_object", func() error {
		parent := s.top()
		ctx, err := s.childCtx(parent)
		if err != nil {
			return err
		}
		if ctx != CtxGlobal {
			return newErr("", BadContext)
		}
		class := s.classes.GetByID(classid)
		if class == nil {
			return newErr("", BadClassID)
		}
		if err := s.writeObjectOpcode(classid); err != nil {
			return err
		}
		if err := s.accountForChild(parent); err != nil {
			return err
		}
		return s.push(frame{kind: FObject, ctxid: CtxObject, missing: len(class.Fields), class: class})
	})
}

func (s *Serializer) writeObjectOpcode(id ClassID) error {
	if id <= objectShortMax {
		return s.writeByte(objectShortBase + byte(id))
	}
	if err := s.writeByte(objectLongOpcode); err != nil {
		return err
	}
	return s.writeUnsigned(uint64(id) - 16)
}

// DefineClass registers schema for later use by OpenObject. Unless internal
// is true, the schema is also emitted on the wire (named or unnamed form per
// schema.Name) so a peer decoder learns it too. Defining a class mid-
// container never counts as supplying one of that container's children,
// whether or not the definition is emitted.
func (s *Serializer) DefineClass(schema *Class, internal bool) error {
	return s.do("define_class", func() error {
		parent := s.top()
		if !internal {
			if err := s.emitClassDef(schema); err != nil {
				return err
			}
		}
		if parent.kind != FTop {
			s.compensateForClassDef(parent)
			if err := s.accountForChild(parent); err != nil {
				return err
			}
		}
		s.classes.InsertOrReplace(schema)
		return nil
	})
}

func (s *Serializer) emitClassDef(schema *Class) error {
	named := schema.Name != ""
	op := byte(classUnnamedOpcode)
	if named {
		op = classNamedOpcode
	}
	if err := s.writeByte(op); err != nil {
		return err
	}
	if err := s.writeUnsigned(uint64(schema.ID)); err != nil {
		return err
	}
	if named {
		if err := s.writeStringInContext(CtxUnsignedOrString, []byte(schema.Name)); err != nil {
			return err
		}
	}
	if err := s.writeUnsigned(uint64(len(schema.Fields))); err != nil {
		return err
	}
	for _, f := range schema.Fields {
		if named {
			if err := s.writeStringInContext(CtxUnsignedOrString, []byte(f.Name)); err != nil {
				return err
			}
		}
		if err := s.writeUnsigned(uint64(f.CtxID)); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw copies data verbatim onto the wire, bypassing all context
// dispatch, and accounts it as one child of the current container. Intended
// for replaying already-encoded cells (e.g. the staging table's read
// cursor feeding a prior row straight back out).
func (s *Serializer) WriteRaw(data []byte) error {
	return s.do("write_raw", func() error {
		parent := s.top()
		if err := s.writeBytes(data); err != nil {
			return err
		}
		return s.accountForChild(parent)
	})
}
