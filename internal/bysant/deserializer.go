package bysant

import (
	"fmt"
	"math"
)

// needMoreErr signals that Read needs at least Min additional bytes before
// it can make progress; the caller must retry with a larger buffer
// (typically the same bytes plus whatever newly arrived) rather than
// discarding what was already supplied.
type needMoreErr struct{ Min int }

func (e *needMoreErr) Error() string { return fmt.Sprintf("bysant: need %d more byte(s)", e.Min) }

func needMore(min int) error {
	if min < 1 {
		min = 1
	}
	return &needMoreErr{Min: min}
}

func isNeedMoreErr(err error) bool {
	_, ok := err.(*needMoreErr)
	return ok
}

// NeedMoreBytes reports whether err is a resumable "not enough input yet"
// condition and, if so, the minimum number of additional bytes required.
func NeedMoreBytes(err error) (int, bool) {
	if e, ok := err.(*needMoreErr); ok {
		return e.Min, true
	}
	return 0, false
}

// DataType classifies the event produced by one Deserializer.Read call.
type DataType int

const (
	TypeNull DataType = iota
	TypeInt
	TypeBool
	TypeDouble
	TypeString
	TypeChunkedString // chunked string/binary has started; TypeChunk/TypeClose events follow
	TypeChunk
	TypeList
	TypeZList
	TypeMap
	TypeZMap
	TypeObject
	TypeClassDef
	TypeClose // ends whichever container is innermost: list, map, object, or chunked value
)

// DataKind names the structural role the decoded value plays in its
// enclosing container, mirroring bsd_data_kind_t.
type DataKind int

const (
	KindTopLevel DataKind = iota
	KindListItem
	KindMapKey
	KindMapValue
	KindObjField
	KindChunk
	KindClose
)

// Data is one decoded event: exactly one of the Int/Bool/Double/Bytes/Class
// fields is meaningful, selected by Type.
type Data struct {
	Type   DataType
	Kind   DataKind
	Int    int64
	Bool   bool
	Double float64
	Bytes  []byte // owned copy; safe to retain past the next Read call
	Class  *Class // for TypeObject (the instance's schema) and TypeClassDef
	Length int    // declared child count for TypeList/TypeMap (-1 for ZList/ZMap)
}

// dframe is one entry of the deserializer's container stack, the decode-side
// mirror of the serializer's frame.
type dframe struct {
	kind    FrameKind
	ctxid   CtxID
	missing int
	mapEven bool
	class   *Class
}

// Deserializer decodes a Bysant byte stream into a sequence of Data events
// via repeated calls to Read. It is restartable: any Read call may return a
// needMoreErr (test with NeedMoreBytes) instead of consuming bytes, in which
// case the caller must supply a buffer with at least that many additional
// bytes and call Read again with the same unconsumed prefix.
type Deserializer struct {
	stack   []dframe
	classes *ClassRegistry
	broken  bool
}

// NewDeserializer returns a Deserializer positioned at the top level
// (GLOBAL context, empty container stack).
func NewDeserializer() *Deserializer {
	d := &Deserializer{classes: NewClassRegistry()}
	d.resetStack()
	return d
}

func (d *Deserializer) resetStack() {
	d.stack = []dframe{{kind: FTop, ctxid: CtxGlobal}}
}

// Reset returns the deserializer to its initial state, forgetting every
// registered class and any open containers.
func (d *Deserializer) Reset() {
	d.broken = false
	d.resetStack()
	d.classes.Reset()
}

// Depth reports how many containers are currently open.
func (d *Deserializer) Depth() int { return len(d.stack) - 1 }

// Broken reports whether a prior decode error has poisoned this context.
func (d *Deserializer) Broken() bool { return d.broken }

// DefineClass pre-registers schema without decoding anything, for classes
// the peer declared "internal" (known out of band, never sent on the
// wire). It is the decode-side counterpart of Serializer.DefineClass(s,
// true).
func (d *Deserializer) DefineClass(schema *Class) { d.classes.InsertOrReplace(schema) }

func (d *Deserializer) push(f dframe) error {
	if len(d.stack) >= stackSize {
		return newErr("", TooDeep)
	}
	d.stack = append(d.stack, f)
	logger.Debug("push frame", "kind", f.kind, "ctx", f.ctxid, "depth", len(d.stack)-1)
	return nil
}

func (d *Deserializer) pop() (dframe, error) {
	if len(d.stack) <= 1 {
		return dframe{}, newErr("", NoContainer)
	}
	f := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	logger.Debug("pop frame", "kind", f.kind, "depth", len(d.stack)-1)
	return f, nil
}

func (d *Deserializer) top() *dframe { return &d.stack[len(d.stack)-1] }

func (d *Deserializer) childCtx(parent *dframe) (CtxID, error) {
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
	default:
		return parent.ctxid, nil
	}
}

func (d *Deserializer) accountForChild(parent *dframe) error {
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
	default: // FObject, FList
		if parent.missing <= 0 {
			return newErr("", SizeMismatch)
		}
		parent.missing--
		return nil
	}
}

// Read decodes the next event starting at buf[0]. On success it returns how
// many leading bytes of buf the event consumed; the caller advances its
// cursor by that amount. On a needMoreErr, no bytes were consumed and the
// caller must retry with more data appended to the same buffer. Any other
// error leaves the Deserializer Broken.
func (d *Deserializer) Read(buf []byte) (int, Data, error) {
	if d.broken {
		return 0, Data{}, newErr("read", Broken)
	}
	parent := d.top()
	wasKey := parent.mapEven
	data, n, err := d.decodeValue(parent, buf)
	if err != nil {
		if isNeedMoreErr(err) {
			return 0, Data{}, err
		}
		d.broken = true
		return 0, Data{}, err
	}
	if data.Type == TypeClose {
		data.Kind = KindClose
		return n, data, nil
	}
	switch parent.kind {
	case FTop:
		data.Kind = KindTopLevel
	case FList, FZList:
		data.Kind = KindListItem
	case FMap, FZMap:
		if wasKey {
			data.Kind = KindMapKey
		} else {
			data.Kind = KindMapValue
		}
	case FObject:
		data.Kind = KindObjField
	case FChunked:
		data.Kind = KindChunk
	}
	if data.Type == TypeClassDef {
		return n, data, nil // a class definition is not a child of its container
	}
	if err := d.accountForChild(parent); err != nil {
		d.broken = true
		return 0, Data{}, err
	}
	return n, data, nil
}

// decodeValue handles the structural cases common to every context (synthetic
// zero-byte closes for exhausted fixed containers, null-token closes for
// variable containers and map keys, chunk framing) before falling through to
// the per-context opcode dispatch for an ordinary value.
func (d *Deserializer) decodeValue(parent *dframe, buf []byte) (Data, int, error) {
	switch parent.kind {
	case FChunked:
		return d.decodeChunk(buf)
	case FMap, FObject, FList:
		if parent.missing == 0 {
			return d.closeFixed()
		}
	}
	ctx, err := d.childCtx(parent)
	if err != nil {
		return Data{}, 0, err
	}
	closable := parent.kind == FZList || ((parent.kind == FMap || parent.kind == FZMap) && parent.mapEven)
	if closable {
		matched, n, err := d.tryNullClose(ctx, buf)
		if err != nil {
			return Data{}, 0, err
		}
		if matched {
			if _, perr := d.pop(); perr != nil {
				return Data{}, 0, perr
			}
			return Data{Type: TypeClose}, n, nil
		}
	}
	return d.decodeByContext(ctx, buf)
}

func (d *Deserializer) closeFixed() (Data, int, error) {
	if _, err := d.pop(); err != nil {
		return Data{}, 0, err
	}
	return Data{Type: TypeClose}, 0, nil
}

// tryNullClose checks for the exact null-token bytes of ctx. Every context in
// which a close can be ambiguous with a value (list elements, map keys) is
// restricted by this codec's collection design to GLOBAL, NUMBER, or
// UNSIGNED_OR_STRING, all of which use a single 0x00 byte as their null
// token, so there is no multi-byte ambiguity to resolve here.
func (d *Deserializer) tryNullClose(ctx CtxID, buf []byte) (bool, int, error) {
	if ctx != CtxGlobal && ctx != CtxNumber && ctx != CtxUnsignedOrString {
		return false, 0, nil
	}
	if len(buf) == 0 {
		return false, 0, needMore(1)
	}
	return buf[0] == 0x00, 1, nil
}

func (d *Deserializer) decodeChunk(buf []byte) (Data, int, error) {
	if len(buf) < 2 {
		return Data{}, 0, needMore(2 - len(buf))
	}
	length := int(readU16BE(buf, 0))
	if length == 0 {
		if _, err := d.pop(); err != nil {
			return Data{}, 0, err
		}
		return Data{Type: TypeClose}, 2, nil
	}
	if len(buf) < 2+length {
		return Data{}, 0, needMore(2 + length - len(buf))
	}
	cp := append([]byte(nil), buf[2:2+length]...)
	return Data{Type: TypeChunk, Bytes: cp}, 2 + length, nil
}

func (d *Deserializer) decodeByContext(ctx CtxID, buf []byte) (Data, int, error) {
	switch ctx {
	case CtxGlobal:
		return d.decodeGlobal(buf)
	case CtxNumber:
		return d.decodeNumber(buf)
	case CtxUnsignedOrString:
		return d.decodeUnsignedOrString(buf)
	case CtxInt32:
		return d.decodeInt32(buf)
	case CtxFloat:
		return d.decodeFloat32Ctx(buf)
	case CtxDouble:
		return d.decodeFloat64Ctx(buf)
	case CtxListOrMap:
		return d.decodeListOrMap(buf)
	default:
		return Data{}, 0, newErr("", BadCtxID)
	}
}

func (d *Deserializer) decodeGlobal(buf []byte) (Data, int, error) {
	if len(buf) == 0 {
		return Data{}, 0, needMore(1)
	}
	op := buf[0]
	switch op {
	case opGlobalNull:
		return Data{Type: TypeNull}, 1, nil
	case opGlobalBoolT:
		return Data{Type: TypeBool, Bool: true}, 1, nil
	case opGlobalBoolF:
		return Data{Type: TypeBool, Bool: false}, 1, nil
	case classNamedOpcode, classUnnamedOpcode:
		return d.decodeClassDef(buf)
	case objectLongOpcode:
		return d.decodeObject(buf, true)
	case opGlobalFloat32, opGlobalFloat64:
		return d.decodeFloatOpcode(buf, opGlobalFloat32, opGlobalFloat64)
	}
	if op >= objectShortBase && int(op) <= objectShortBase+objectShortMax {
		return d.decodeObject(buf, false)
	}
	if matchColl(&GlobalList, op) {
		return d.decodeCollOpen(&GlobalList, buf, false)
	}
	if matchColl(&GlobalMap, op) {
		return d.decodeCollOpen(&GlobalMap, buf, true)
	}
	if matchString(&GlobalString, op) {
		return d.decodeStringEvent(&GlobalString, buf)
	}
	x, n, err := decodeTieredInt(&GlobalInteger, buf)
	if err != nil {
		return Data{}, 0, err
	}
	return Data{Type: TypeInt, Int: x}, n, nil
}

func (d *Deserializer) decodeNumber(buf []byte) (Data, int, error) {
	if len(buf) == 0 {
		return Data{}, 0, needMore(1)
	}
	op := buf[0]
	if op == opNumberNull {
		return Data{Type: TypeNull}, 1, nil
	}
	if op == opNumberFloat32 || op == opNumberFloat64 {
		return d.decodeFloatOpcode(buf, opNumberFloat32, opNumberFloat64)
	}
	x, n, err := decodeTieredInt(&NumberInteger, buf)
	if err != nil {
		return Data{}, 0, err
	}
	return Data{Type: TypeInt, Int: x}, n, nil
}

func (d *Deserializer) decodeUnsignedOrString(buf []byte) (Data, int, error) {
	if len(buf) == 0 {
		return Data{}, 0, needMore(1)
	}
	op := buf[0]
	if op == 0x00 {
		return Data{Type: TypeNull}, 1, nil
	}
	if matchString(&UISString, op) {
		return d.decodeStringEvent(&UISString, buf)
	}
	x, n, err := decodeUnsignedBuf(buf)
	if err != nil {
		return Data{}, 0, err
	}
	return Data{Type: TypeInt, Int: int64(x)}, n, nil
}

func (d *Deserializer) decodeListOrMap(buf []byte) (Data, int, error) {
	if len(buf) == 0 {
		return Data{}, 0, needMore(1)
	}
	op := buf[0]
	if matchColl(&ListmapList, op) {
		return d.decodeCollOpen(&ListmapList, buf, false)
	}
	if matchColl(&ListmapMap, op) {
		return d.decodeCollOpen(&ListmapMap, buf, true)
	}
	return Data{}, 0, newErr("", Invalid)
}

func (d *Deserializer) decodeInt32(buf []byte) (Data, int, error) {
	if len(buf) < 4 {
		return Data{}, 0, needMore(4 - len(buf))
	}
	bits := readU32BE(buf, 0)
	if bits != 0x80000000 {
		return Data{Type: TypeInt, Int: int64(int32(bits))}, 4, nil
	}
	if len(buf) < 5 {
		return Data{}, 0, needMore(1)
	}
	if buf[4] == 0x00 {
		return Data{Type: TypeNull}, 5, nil
	}
	return Data{Type: TypeInt, Int: int64(int32(bits))}, 5, nil
}

func (d *Deserializer) decodeFloat32Ctx(buf []byte) (Data, int, error) {
	if len(buf) < 4 {
		return Data{}, 0, needMore(4 - len(buf))
	}
	bits := readU32BE(buf, 0)
	if bits != 0xFFFFFFFF {
		return Data{Type: TypeDouble, Double: float64(math.Float32frombits(bits))}, 4, nil
	}
	if len(buf) < 5 {
		return Data{}, 0, needMore(1)
	}
	if buf[4] == 0x00 {
		return Data{Type: TypeNull}, 5, nil
	}
	return Data{Type: TypeDouble, Double: float64(math.Float32frombits(bits))}, 5, nil
}

func (d *Deserializer) decodeFloat64Ctx(buf []byte) (Data, int, error) {
	if len(buf) < 8 {
		return Data{}, 0, needMore(8 - len(buf))
	}
	bits := readU64BE(buf, 0)
	if bits != 0xFFFFFFFFFFFFFFFF {
		return Data{Type: TypeDouble, Double: math.Float64frombits(bits)}, 8, nil
	}
	if len(buf) < 9 {
		return Data{}, 0, needMore(1)
	}
	if buf[8] == 0x00 {
		return Data{Type: TypeNull}, 9, nil
	}
	return Data{Type: TypeDouble, Double: math.Float64frombits(bits)}, 9, nil
}

func (d *Deserializer) decodeFloatOpcode(buf []byte, op32, op64 byte) (Data, int, error) {
	op := buf[0]
	if op == op32 {
		if len(buf) < 5 {
			return Data{}, 0, needMore(5 - len(buf))
		}
		return Data{Type: TypeDouble, Double: float64(math.Float32frombits(readU32BE(buf, 1)))}, 5, nil
	}
	if len(buf) < 9 {
		return Data{}, 0, needMore(9 - len(buf))
	}
	return Data{Type: TypeDouble, Double: math.Float64frombits(readU64BE(buf, 1))}, 9, nil
}

func (d *Deserializer) decodeStringEvent(enc *stringEncoding, buf []byte) (Data, int, error) {
	s, n, chunkedStart, err := decodeStringBuf(enc, buf)
	if err != nil {
		return Data{}, 0, err
	}
	if chunkedStart {
		if err := d.push(dframe{kind: FChunked, ctxid: CtxChunked}); err != nil {
			return Data{}, 0, err
		}
		return Data{Type: TypeChunkedString}, n, nil
	}
	cp := append([]byte(nil), s...)
	return Data{Type: TypeString, Bytes: cp}, n, nil
}

func (d *Deserializer) decodeCollOpen(enc *collEncoding, buf []byte, isMap bool) (Data, int, error) {
	length, typed, n, err := decodeCollBody(enc, buf)
	if err != nil {
		return Data{}, 0, err
	}
	elemCtx := CtxGlobal
	if typed {
		elemCtx = CtxNumber
	}
	var missing int
	var kind FrameKind
	var typ DataType
	switch {
	case length < 0:
		missing = -1
		if isMap {
			kind, typ = FZMap, TypeZMap
		} else {
			kind, typ = FZList, TypeZList
		}
	default:
		if isMap {
			missing, kind, typ = length*2, FMap, TypeMap
		} else {
			missing, kind, typ = length, FList, TypeList
		}
	}
	if err := d.push(dframe{kind: kind, ctxid: elemCtx, missing: missing, mapEven: true}); err != nil {
		return Data{}, 0, err
	}
	return Data{Type: typ, Length: length}, n, nil
}

func (d *Deserializer) decodeObject(buf []byte, long bool) (Data, int, error) {
	var id ClassID
	var n int
	if long {
		cid, m, err := decodeUnsignedBuf(buf[1:])
		if err != nil {
			return Data{}, 0, err
		}
		id = ClassID(cid) + 16
		n = 1 + m
	} else {
		id = ClassID(buf[0] - objectShortBase)
		n = 1
	}
	class := d.classes.GetByID(id)
	if class == nil {
		return Data{}, 0, newErr("", BadClassID)
	}
	if err := d.push(dframe{kind: FObject, ctxid: CtxObject, missing: len(class.Fields), class: class}); err != nil {
		return Data{}, 0, err
	}
	return Data{Type: TypeObject, Class: class}, n, nil
}

func (d *Deserializer) decodeClassDef(buf []byte) (Data, int, error) {
	named := buf[0] == classNamedOpcode
	off := 1
	id, n, err := decodeUnsignedBuf(buf[off:])
	if err != nil {
		return Data{}, 0, err
	}
	off += n

	var name string
	if named {
		s, n2, chunkedStart, err := decodeStringBuf(&UISString, buf[off:])
		if err != nil {
			return Data{}, 0, err
		}
		if chunkedStart {
			return Data{}, 0, newErr("", Invalid)
		}
		name = string(s)
		off += n2
	}

	nfields, n3, err := decodeUnsignedBuf(buf[off:])
	if err != nil {
		return Data{}, 0, err
	}
	off += n3

	fields := make([]Field, nfields)
	for i := range fields {
		if named {
			s, n4, chunkedStart, err := decodeStringBuf(&UISString, buf[off:])
			if err != nil {
				return Data{}, 0, err
			}
			if chunkedStart {
				return Data{}, 0, newErr("", Invalid)
			}
			fields[i].Name = string(s)
			off += n4
		}
		fctx, n5, err := decodeUnsignedBuf(buf[off:])
		if err != nil {
			return Data{}, 0, err
		}
		fields[i].CtxID = CtxID(fctx)
		off += n5
	}

	class := &Class{ID: ClassID(id), Name: name, Fields: fields}
	d.classes.InsertOrReplace(class)
	return Data{Type: TypeClassDef, Class: class}, off, nil
}

// --- shared tiered decoders, the exact inverse of the serializer's tiered
// encoders over the same tables --------------------------------------------

func matchString(enc *stringEncoding, op byte) bool {
	o := int(op)
	if o >= int(enc.smallOpcode) && o <= int(enc.smallOpcode)+enc.smallLimit {
		return true
	}
	if o >= int(enc.mediumOpcode) && o <= int(enc.mediumOpcode)+((enc.mediumLimit-enc.smallLimit-1)>>8) {
		return true
	}
	return o == int(enc.largeOpcode) || o == int(enc.chunkedOpcode)
}

func decodeStringBuf(enc *stringEncoding, buf []byte) ([]byte, int, bool, error) {
	if len(buf) == 0 {
		return nil, 0, false, needMore(1)
	}
	op := int(buf[0])
	switch {
	case op >= int(enc.smallOpcode) && op <= int(enc.smallOpcode)+enc.smallLimit:
		n := op - int(enc.smallOpcode)
		if len(buf) < 1+n {
			return nil, 0, false, needMore(1 + n - len(buf))
		}
		return buf[1 : 1+n], 1 + n, false, nil
	case op >= int(enc.mediumOpcode) && op <= int(enc.mediumOpcode)+((enc.mediumLimit-enc.smallLimit-1)>>8):
		if len(buf) < 2 {
			return nil, 0, false, needMore(2 - len(buf))
		}
		offset := (op-int(enc.mediumOpcode))<<8 | int(buf[1])
		n := enc.smallLimit + 1 + offset
		if len(buf) < 2+n {
			return nil, 0, false, needMore(2 + n - len(buf))
		}
		return buf[2 : 2+n], 2 + n, false, nil
	case op == int(enc.largeOpcode):
		if len(buf) < 3 {
			return nil, 0, false, needMore(3 - len(buf))
		}
		offset := int(buf[1])<<8 | int(buf[2])
		n := enc.mediumLimit + 1 + offset
		if len(buf) < 3+n {
			return nil, 0, false, needMore(3 + n - len(buf))
		}
		return buf[3 : 3+n], 3 + n, false, nil
	case op == int(enc.chunkedOpcode):
		return nil, 1, true, nil
	}
	return nil, 0, false, newErr("", Invalid)
}

func matchColl(enc *collEncoding, op byte) bool {
	if op == enc.emptyOpcode || op == enc.variableTypedOpcode || op == enc.variableUntypedOpcode ||
		op == enc.longTypedOpcode || op == enc.longUntypedOpcode {
		return true
	}
	if op >= enc.smallUntypedOpcode && int(op) <= int(enc.smallUntypedOpcode)+enc.smallLimit-1 {
		return true
	}
	if op >= enc.smallTypedOpcode && int(op) <= int(enc.smallTypedOpcode)+enc.smallLimit-1 {
		return true
	}
	return false
}

func decodeCollBody(enc *collEncoding, buf []byte) (length int, typed bool, consumed int, err error) {
	op := buf[0]
	switch {
	case op == enc.emptyOpcode:
		return 0, false, 1, nil
	case op == enc.variableUntypedOpcode:
		return -1, false, 1, nil
	case op == enc.variableTypedOpcode:
		return -1, true, 1, nil
	case op == enc.longUntypedOpcode || op == enc.longTypedOpcode:
		typed = op == enc.longTypedOpcode
		ln, n, err := decodeUnsignedBuf(buf[1:])
		if err != nil {
			return 0, false, 0, err
		}
		return int(ln), typed, 1 + n, nil
	case op >= enc.smallUntypedOpcode && int(op) <= int(enc.smallUntypedOpcode)+enc.smallLimit-1:
		return int(op-enc.smallUntypedOpcode) + 1, false, 1, nil
	case op >= enc.smallTypedOpcode && int(op) <= int(enc.smallTypedOpcode)+enc.smallLimit-1:
		return int(op-enc.smallTypedOpcode) + 1, true, 1, nil
	}
	return 0, false, 0, newErr("", Internal)
}

func decodeUnsignedBuf(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, needMore(1)
	}
	op := int(buf[0])
	switch {
	case op >= uisTinyBase && op <= uisTinyBase+uisTinyMax:
		return uint64(op - uisTinyBase), 1, nil
	case op >= uisSmallBase && op <= uisSmallBase+((uisSmallMax-uisTinyMax-1)>>8):
		if len(buf) < 2 {
			return 0, 0, needMore(2 - len(buf))
		}
		offset := uint64(op-uisSmallBase)<<8 | uint64(buf[1])
		return uint64(uisTinyMax) + 1 + offset, 2, nil
	case op >= uisMediumBase && op <= uisMediumBase+((uisMediumMax-uisSmallMax-1)>>16):
		if len(buf) < 3 {
			return 0, 0, needMore(3 - len(buf))
		}
		offset := uint64(op-uisMediumBase)<<16 | uint64(buf[1])<<8 | uint64(buf[2])
		return uint64(uisSmallMax) + 1 + offset, 3, nil
	case op >= uisLargeBase && op <= uisLargeBase+((uisLargeMax-uisMediumMax-1)>>24):
		if len(buf) < 4 {
			return 0, 0, needMore(4 - len(buf))
		}
		offset := uint64(op-uisLargeBase)<<24 | uint64(buf[1])<<16 | uint64(buf[2])<<8 | uint64(buf[3])
		return uint64(uisMediumMax) + 1 + offset, 4, nil
	case op == uisEscapeOpcode:
		if len(buf) < 5 {
			return 0, 0, needMore(5 - len(buf))
		}
		return uint64(readU32BE(buf, 1)), 5, nil
	}
	return 0, 0, newErr("", Invalid)
}

func decodeTieredInt(enc *integerEncoding, buf []byte) (int64, int, error) {
	if len(buf) == 0 {
		return 0, 0, needMore(1)
	}
	op := int(buf[0])

	tinyLo := int(enc.tinyZeroOpcode) + enc.tinyMin
	tinyHi := int(enc.tinyZeroOpcode) + enc.tinyMax
	if op >= tinyLo && op <= tinyHi {
		return int64(op - int(enc.tinyZeroOpcode)), 1, nil
	}

	posSmallHi := int(enc.smallPosOpcode) + ((enc.smallMax - enc.tinyMax - 1) >> 8)
	if op >= int(enc.smallPosOpcode) && op <= posSmallHi {
		if len(buf) < 2 {
			return 0, 0, needMore(2 - len(buf))
		}
		offset := int64(op-int(enc.smallPosOpcode))<<8 | int64(buf[1])
		return int64(enc.tinyMax) + 1 + offset, 2, nil
	}

	negSmallHi := int(enc.smallNegOpcode) + ((enc.tinyMin - 1 - enc.smallMin) >> 8)
	if op >= int(enc.smallNegOpcode) && op <= negSmallHi {
		if len(buf) < 2 {
			return 0, 0, needMore(2 - len(buf))
		}
		offset := int64(op-int(enc.smallNegOpcode))<<8 | int64(buf[1])
		return int64(enc.tinyMin) - 1 - offset, 2, nil
	}

	posMedHi := int(enc.mediumPosOpcode) + ((enc.mediumMax - enc.smallMax - 1) >> 16)
	if op >= int(enc.mediumPosOpcode) && op <= posMedHi {
		if len(buf) < 3 {
			return 0, 0, needMore(3 - len(buf))
		}
		offset := int64(op-int(enc.mediumPosOpcode))<<16 | int64(buf[1])<<8 | int64(buf[2])
		return int64(enc.smallMax) + 1 + offset, 3, nil
	}

	negMedHi := int(enc.mediumNegOpcode) + ((enc.smallMin - 1 - enc.mediumMin) >> 16)
	if op >= int(enc.mediumNegOpcode) && op <= negMedHi {
		if len(buf) < 3 {
			return 0, 0, needMore(3 - len(buf))
		}
		offset := int64(op-int(enc.mediumNegOpcode))<<16 | int64(buf[1])<<8 | int64(buf[2])
		return int64(enc.smallMin) - 1 - offset, 3, nil
	}

	posLargeHi := int(enc.largePosOpcode) + ((enc.largeMax - enc.mediumMax - 1) >> 24)
	if op >= int(enc.largePosOpcode) && op <= posLargeHi {
		if len(buf) < 4 {
			return 0, 0, needMore(4 - len(buf))
		}
		offset := int64(op-int(enc.largePosOpcode))<<24 | int64(buf[1])<<16 | int64(buf[2])<<8 | int64(buf[3])
		return int64(enc.mediumMax) + 1 + offset, 4, nil
	}

	negLargeHi := int(enc.largeNegOpcode) + ((enc.mediumMin - 1 - enc.largeMin) >> 24)
	if op >= int(enc.largeNegOpcode) && op <= negLargeHi {
		if len(buf) < 4 {
			return 0, 0, needMore(4 - len(buf))
		}
		offset := int64(op-int(enc.largeNegOpcode))<<24 | int64(buf[1])<<16 | int64(buf[2])<<8 | int64(buf[3])
		return int64(enc.mediumMin) - 1 - offset, 4, nil
	}

	if op == int(enc.int32Opcode) {
		if len(buf) < 5 {
			return 0, 0, needMore(5 - len(buf))
		}
		return int64(int32(readU32BE(buf, 1))), 5, nil
	}
	if op == int(enc.int64Opcode) {
		if len(buf) < 9 {
			return 0, 0, needMore(9 - len(buf))
		}
		return int64(readU64BE(buf, 1)), 9, nil
	}

	return 0, 0, newErr("", Invalid)
}
