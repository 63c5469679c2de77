package bysant

// Wire-format constant tables. Every value here is part of the on-disk
// format; changing any of them changes what bytes a given value encodes to.
// They are reproduced bit-exact from the format's reference tables.

// integerEncoding describes the tiered opcode layout for signed integers in
// one context: tiny values collapse to a single opcode
// (tinyZeroOpcode + value), small/medium/large values use a
// signed-magnitude split (one opcode base for the whole non-negative half,
// another for the negative half, offset by |value - boundary|), and anything
// outside the large range escapes to a raw int32 or int64.
type integerEncoding struct {
	tinyMin, tinyMax             int
	tinyZeroOpcode               byte
	smallMin, smallMax           int
	smallNegOpcode, smallPosOpcode byte
	mediumMin, mediumMax         int
	mediumNegOpcode, mediumPosOpcode byte
	largeMin, largeMax           int
	largeNegOpcode, largePosOpcode byte
	lastLargeNegOpcode           byte
	int32Opcode, int64Opcode     byte
}

// GlobalInteger is the integer opcode table used in the GLOBAL context.
var GlobalInteger = integerEncoding{
	tinyMin: -31, tinyMax: 64, tinyZeroOpcode: 0x9F,
	smallMin: -2079, smallMax: 2112, smallNegOpcode: 0xE8, smallPosOpcode: 0xE0,
	mediumMin: -264223, mediumMax: 264256, mediumNegOpcode: 0xF4, mediumPosOpcode: 0xF0,
	largeMin: -33818655, largeMax: 33818688, largeNegOpcode: 0xFA, largePosOpcode: 0xF8,
	lastLargeNegOpcode: 0xFB,
	int32Opcode:        0xFC, int64Opcode: 0xFD,
}

// NumberInteger is the integer opcode table used in the NUMBER context.
var NumberInteger = integerEncoding{
	tinyMin: -97, tinyMax: 97, tinyZeroOpcode: 0x62,
	smallMin: -4193, smallMax: 4193, smallNegOpcode: 0xD4, smallPosOpcode: 0xC4,
	mediumMin: -528481, mediumMax: 528481, mediumNegOpcode: 0xEC, mediumPosOpcode: 0xE4,
	largeMin: -67637345, largeMax: 67637345, largeNegOpcode: 0xF8, largePosOpcode: 0xF4,
	lastLargeNegOpcode: 0xFB,
	int32Opcode:        0xFC, int64Opcode: 0xFD,
}

// Unsigned integer scale (UIS) opcode bases and thresholds: tiny values are
// offset from 0x3B; small/medium/large/escape use run lengths per §6.
const (
	uisTinyMax   = 139
	uisTinyBase  = 0x3B
	uisSmallMax  = 8331
	uisSmallBase = 0xC7
	uisMediumMax = 1056907
	uisMediumBase = 0xE7
	uisLargeMax  = 135274635
	uisLargeBase = 0xF7
	uisEscapeOpcode = 0xFF
)

// stringEncoding describes the tiered opcode layout for length-prefixed
// strings in one context, plus the opcode that begins a chunked (streamed)
// string when the value exceeds the large limit.
type stringEncoding struct {
	smallLimit   int
	smallOpcode  byte
	mediumLimit  int
	mediumOpcode byte
	largeLimit   int
	largeOpcode  byte
	chunkedOpcode byte
}

// GlobalString is the string opcode table used in the GLOBAL context.
var GlobalString = stringEncoding{
	smallLimit: 32, smallOpcode: 0x03,
	mediumLimit: 1056, mediumOpcode: 0x24,
	largeLimit: 66592, largeOpcode: 0x28,
	chunkedOpcode: 0x29,
}

// UISString is the string opcode table used in the UNSIGNED_OR_STRING
// context (map keys).
var UISString = stringEncoding{
	smallLimit: 47, smallOpcode: 0x01,
	mediumLimit: 2095, mediumOpcode: 0x31,
	largeLimit: 67631, largeOpcode: 0x39,
	chunkedOpcode: 0x3A,
}

// collEncoding describes the opcode layout for list/map containers in one
// context: a dedicated empty opcode, a small-count range with typed and
// untyped bases (the typed variants are emitted when the element context
// is CtxNumber, the untyped ones for heterogeneous CtxGlobal elements),
// long fixed-count forms, and variable-count forms
// closed by the context's null token.
type collEncoding struct {
	emptyOpcode          byte
	variableTypedOpcode  byte
	variableUntypedOpcode byte
	smallLimit           int
	smallTypedOpcode     byte
	smallUntypedOpcode   byte
	longTypedOpcode      byte
	longUntypedOpcode    byte
	fixedKind            FrameKind
	variableKind         FrameKind
}

// GlobalList is the list opcode table used in the GLOBAL context.
var GlobalList = collEncoding{
	emptyOpcode: 0x2A, variableTypedOpcode: 0x40, variableUntypedOpcode: 0x35,
	smallLimit: 9, smallTypedOpcode: 0x36, smallUntypedOpcode: 0x2B,
	longTypedOpcode: 0x3F, longUntypedOpcode: 0x34,
	fixedKind: FList, variableKind: FZList,
}

// GlobalMap is the map opcode table used in the GLOBAL context.
var GlobalMap = collEncoding{
	emptyOpcode: 0x41, variableTypedOpcode: 0x57, variableUntypedOpcode: 0x4C,
	smallLimit: 9, smallTypedOpcode: 0x4D, smallUntypedOpcode: 0x42,
	longTypedOpcode: 0x56, longUntypedOpcode: 0x4B,
	fixedKind: FMap, variableKind: FZMap,
}

// ListmapList is the list opcode table used in the LIST_OR_MAP context.
var ListmapList = collEncoding{
	emptyOpcode: 0x01, variableTypedOpcode: 0x7D, variableUntypedOpcode: 0x3F,
	smallLimit: 60, smallTypedOpcode: 0x40, smallUntypedOpcode: 0x02,
	longTypedOpcode: 0x7C, longUntypedOpcode: 0x3E,
	fixedKind: FList, variableKind: FZList,
}

// ListmapMap is the map opcode table used in the LIST_OR_MAP context.
var ListmapMap = collEncoding{
	emptyOpcode: 0x83, variableTypedOpcode: 0xFF, variableUntypedOpcode: 0xC1,
	smallLimit: 60, smallTypedOpcode: 0xC2, smallUntypedOpcode: 0x84,
	longTypedOpcode: 0xFE, longUntypedOpcode: 0xC0,
	fixedKind: FMap, variableKind: FZMap,
}

// Miscellaneous single-byte opcodes and per-context null tokens.
const (
	opGlobalNull    = 0x00
	opGlobalBoolT   = 0x01
	opGlobalBoolF   = 0x02
	opGlobalFloat32 = 0xFE
	opGlobalFloat64 = 0xFF

	opNumberNull    = 0x00
	opNumberFloat32 = 0xFE
	opNumberFloat64 = 0xFF

	objectShortBase = 0x60 // opcodes 0x60..0x6F, id = opcode-0x60
	objectShortMax  = 15
	objectLongOpcode = 0x70

	classNamedOpcode   = 0x71
	classUnnamedOpcode = 0x72
)

// chunkMaxPayload is the largest payload a single length-prefixed chunk may
// carry: the maximum of the 16-bit big-endian length field. A zero-length
// chunk is the terminator, which does not reduce the cap.
const chunkMaxPayload = 0xFFFF
