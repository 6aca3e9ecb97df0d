package node

import (
	"github.com/roach88/cellgraph/internal/registry"
)

// SharedRef is the heap-resident, immutable snapshot of a stored cell
// value, tagged with its runtime value type id.
//
// The backend hands out the same *SharedRef to every reader of a settled
// cell, so concurrent reads share storage instead of copying. Contents
// must never be mutated after construction; any representation shrinking
// happens exactly once, before the SharedRef is built.
type SharedRef struct {
	typeID registry.TypeID
	value  any
}

// NewSharedRef builds a snapshot for a value of the given registered type.
func NewSharedRef(typeID registry.TypeID, value any) *SharedRef {
	return &SharedRef{typeID: typeID, value: value}
}

// TypeID returns the runtime value type id of the stored value.
func (r *SharedRef) TypeID() registry.TypeID {
	return r.typeID
}

// Value returns the stored value. Callers must treat it as immutable.
func (r *SharedRef) Value() any {
	return r.value
}

// Shrinkable is implemented by values that can normalize their
// representation. The backend invokes it once at cell creation, before the
// value becomes shared; it is never called again.
type Shrinkable interface {
	ShrinkToFit()
}
