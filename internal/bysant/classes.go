package bysant

import "sort"

// ClassID identifies a registered class schema. Ids below 16 get a
// single-byte "short form" object opcode; all others use the long form.
type ClassID uint32

// Field describes one member of a class schema: an optional name (used only
// when the schema is declared "named" on the wire) and the context that
// governs how the field's value is encoded/decoded.
type Field struct {
	Name  string
	CtxID CtxID
}

// Ownership controls who is responsible for a schema's lifetime once it has
// been handed to a registry.
type Ownership int

const (
	// Owned schemas are considered registry-managed: Reset/replace drops
	// the registry's reference and lets it be garbage collected like any
	// other Go value. This is the mode used for schemas decoded off the
	// wire (CLASSDEF events), mirroring BS_CLASS_MANAGED.
	Owned Ownership = iota
	// Borrowed schemas are registered by reference; the caller retains
	// ownership and may reuse the same *Class value across many
	// registries. This is the mode used for application-internal classes
	// declared once in Go source, mirroring BS_CLASS_EXTERNAL.
	Borrowed
)

// Class is a class schema: a unique id, an optional name, and an ordered
// field list whose contexts determine how instances are encoded/decoded.
type Class struct {
	ID     ClassID
	Name   string // empty for unnamed/short classes
	Fields []Field
	Mode   Ownership
}

// ClassRegistry is an ordered (by id, ascending), dense collection of class
// schemas, supporting insert-or-replace and lookup by id or name. Go's
// garbage collector makes the Owned/Borrowed distinction purely advisory —
// there is no explicit free to perform — but the field is kept because it
// is part of the registry's documented contract (spec.md §4.2) and a caller
// may still rely on it to decide whether to mutate a *Class after
// registering it.
type ClassRegistry struct {
	classes []*Class // kept sorted by ID
}

// NewClassRegistry returns an empty registry; no allocation occurs until the
// first insert.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{}
}

// InsertOrReplace adds schema to the registry, replacing any existing entry
// with the same id. The array remains ordered by id.
func (r *ClassRegistry) InsertOrReplace(schema *Class) {
	idx, found := r.search(schema.ID)
	if found {
		r.classes[idx] = schema
		return
	}
	r.classes = append(r.classes, nil)
	copy(r.classes[idx+1:], r.classes[idx:])
	r.classes[idx] = schema
}

// GetByID returns the schema registered under id, or nil if none.
func (r *ClassRegistry) GetByID(id ClassID) *Class {
	idx, found := r.search(id)
	if !found {
		return nil
	}
	return r.classes[idx]
}

// GetByName returns the first schema whose Name matches name, or nil.
// Linear in the number of registered classes; names need not be unique.
func (r *ClassRegistry) GetByName(name string) *Class {
	for _, c := range r.classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Reset drops every registered schema.
func (r *ClassRegistry) Reset() {
	r.classes = nil
}

// search returns the index schema.ID occupies (or would occupy) via binary
// search, and whether it is already present.
func (r *ClassRegistry) search(id ClassID) (int, bool) {
	idx := sort.Search(len(r.classes), func(i int) bool {
		return r.classes[i].ID >= id
	})
	if idx < len(r.classes) && r.classes[idx].ID == id {
		return idx, true
	}
	return idx, false
}
