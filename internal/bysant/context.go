package bysant

// CtxID identifies the decoding context in effect for the next value on the
// wire. The active context determines which opcode family is valid and how
// the next byte (or byte sequence) is interpreted.
type CtxID int

// Regular contexts occupy 0..LAST-1 so they can index directly into
// per-context constant tables. Internal pseudo-contexts are offset well past
// any regular context to guarantee no collision.
const (
	CtxGlobal CtxID = iota
	CtxUnsignedOrString
	CtxNumber
	CtxInt32
	CtxFloat
	CtxDouble
	CtxListOrMap
	ctxLast // sentinel, not a usable context

	// CtxChunked and CtxObject never appear in a public API call; they are
	// pushed internally for chunked-string and object-field dispatch.
	CtxChunked CtxID = 256 + iota
	CtxObject
)

func (c CtxID) String() string {
	switch c {
	case CtxGlobal:
		return "GLOBAL"
	case CtxUnsignedOrString:
		return "UNSIGNED_OR_STRING"
	case CtxNumber:
		return "NUMBER"
	case CtxInt32:
		return "INT32"
	case CtxFloat:
		return "FLOAT"
	case CtxDouble:
		return "DOUBLE"
	case CtxListOrMap:
		return "LIST_OR_MAP"
	case CtxChunked:
		return "CHUNKED"
	case CtxObject:
		return "OBJECT"
	default:
		return "UNKNOWN_CONTEXT"
	}
}

// FrameKind names the kind of container a stack frame represents.
type FrameKind int

const (
	FTop       FrameKind = iota // no open container: the base of the stack
	FMap                        // fixed-size map
	FZMap                       // variable-size map
	FObject                     // object instance
	FList                       // fixed-size list
	FZList                      // variable-size list
	FChunked                    // chunked string/binary
	FClassDef                   // class definition in progress
)

func (k FrameKind) String() string {
	switch k {
	case FTop:
		return "TOP"
	case FMap:
		return "MAP"
	case FZMap:
		return "ZMAP"
	case FObject:
		return "OBJECT"
	case FList:
		return "LIST"
	case FZList:
		return "ZLIST"
	case FChunked:
		return "CHUNKED"
	case FClassDef:
		return "CLASSDEF"
	default:
		return "UNKNOWN_FRAME"
	}
}

// stackSize bounds nested container depth for both serializer and
// deserializer, matching BSS_STACK_SIZE/BSD_STACK_SIZE in the original.
const stackSize = 16

// maxClasses is a per-context class limit that nothing in this package
// enforces; ClassRegistry accepts any number of classes.
const maxClasses = 16

// maxClassFields is a per-class field limit that nothing in this package
// enforces; class schemas may have any number of fields.
const maxClassFields = 32
