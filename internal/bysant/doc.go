// Package bysant implements the Bysant binary serialization format: a
// context-sensitive, opcode-dense wire encoding with resumable streaming
// encode/decode, a small class/schema registry, and transactional
// (retry-safe) write semantics over a short-write-capable sink.
//
// The format has no self-describing type tags in the usual sense; instead,
// the meaning of the next byte depends on the current "context" — the
// decoding mode inherited from the enclosing container (list/map element
// type, object field type, map key vs value, ...). This lets small integers,
// short strings and common structural shapes collapse to a single opcode
// byte, at the cost of the codec needing to track context explicitly on a
// bounded stack.
package bysant
