// Package stagedb implements the staging database: an append-only columnar
// row store that accepts cells already encoded by the bysant serializer, and
// an emitter that, on flush, chooses per column among three wire encodings
// (a verbatim list, a delta vector, or a quasi-periodic vector) and streams
// the whole table out as a single bysant map.
//
// A Table moves through a small state machine: UNCONFIGURED until its
// columns are declared, then READING while cells are appended, then
// SERIALIZING for the duration of one flush, returning to READING when the
// flush completes or is canceled. BROKEN is terminal except for Close.
package stagedb
