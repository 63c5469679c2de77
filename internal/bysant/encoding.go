package bysant

import "encoding/binary"

// Binary encoding helpers for big-endian integers and IEEE floats.
//
// Bysant is a big-endian wire format (INT32/FLOAT/DOUBLE contexts and the
// 16-bit chunk-length prefix are all big-endian). Rather than a
// process-wide byte-order flag, every call site picks
// the helper matching the byte order it needs; there is no mutable global
// state to get out of sync.

func putU16BE(b []byte, off int, v uint16) {
	binary.BigEndian.PutUint16(b[off:off+2], v)
}

func readU16BE(b []byte, off int) uint16 {
	return binary.BigEndian.Uint16(b[off : off+2])
}

func putU32BE(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:off+4], v)
}

func readU32BE(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}

func putU64BE(b []byte, off int, v uint64) {
	binary.BigEndian.PutUint64(b[off:off+8], v)
}

func readU64BE(b []byte, off int) uint64 {
	return binary.BigEndian.Uint64(b[off : off+8])
}
