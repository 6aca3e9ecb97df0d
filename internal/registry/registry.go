package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeID identifies a registered value type. IDs are assigned in
// registration order starting at 1; 0 is never a valid TypeID.
type TypeID uint32

// TraitID identifies a registered trait (capability interface).
// IDs are assigned in registration order starting at 1; 0 is never valid.
type TraitID uint32

// CellMode is the cell update policy a value type declares at registration.
//
// The cell layer dispatches to this policy when a value is written into a
// global cell; local cells ignore it (they are always fresh).
type CellMode int

const (
	// ModeNew allocates a fresh cell slot on every write.
	ModeNew CellMode = iota

	// ModeShared reuses an existing cell slot when the written value is
	// observably equal to a previously stored value of the same type.
	// Equality is content-hash based; see the value package.
	ModeShared
)

// String returns the mode name for diagnostics.
func (m CellMode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeShared:
		return "shared"
	default:
		return fmt.Sprintf("CellMode(%d)", int(m))
	}
}

// ValueType is a registry entry for a concrete value type.
type ValueType struct {
	ID     TypeID
	Name   string
	GoType reflect.Type
	Mode   CellMode
	traits map[TraitID]struct{}
}

// Implements reports whether this value type was registered as
// implementing the given trait.
func (vt *ValueType) Implements(trait TraitID) bool {
	_, ok := vt.traits[trait]
	return ok
}

// TraitType is a registry entry for a trait (capability interface).
type TraitType struct {
	ID     TraitID
	Name   string
	GoType reflect.Type // interface type
}

// registry holds both tables. A single RWMutex guards registration;
// after the startup phase all access is read-only.
type registry struct {
	mu          sync.RWMutex
	values      map[TypeID]*ValueType
	valuesByGo  map[reflect.Type]TypeID
	traits      map[TraitID]*TraitType
	traitsByGo  map[reflect.Type]TraitID
	nextValueID TypeID
	nextTraitID TraitID
}

// def is the process-wide registry instance.
var def = &registry{
	values:     make(map[TypeID]*ValueType),
	valuesByGo: make(map[reflect.Type]TypeID),
	traits:     make(map[TraitID]*TraitType),
	traitsByGo: make(map[reflect.Type]TraitID),
}

// RegisterTrait registers an interface type as a trait under a stable name.
// goType must be an interface type.
//
// Registering the same Go type twice is idempotent when the name matches;
// conflicting re-registration is an error.
func RegisterTrait(name string, goType reflect.Type) (TraitID, error) {
	if goType == nil || goType.Kind() != reflect.Interface {
		return 0, fmt.Errorf("register trait %q: type must be an interface, got %v", name, goType)
	}

	def.mu.Lock()
	defer def.mu.Unlock()

	if id, ok := def.traitsByGo[goType]; ok {
		if def.traits[id].Name != name {
			return 0, fmt.Errorf("register trait %q: type %v already registered as %q", name, goType, def.traits[id].Name)
		}
		return id, nil
	}

	def.nextTraitID++
	id := def.nextTraitID
	def.traits[id] = &TraitType{ID: id, Name: name, GoType: goType}
	def.traitsByGo[goType] = id
	return id, nil
}

// RegisterValueType registers a concrete value type under a stable name,
// with its cell update mode and the traits it implements.
//
// Each listed trait must already be registered, and goType (or a pointer to
// it) must satisfy the trait's interface - misdeclared capabilities are
// caught here rather than at cast time.
//
// Registering the same Go type twice is idempotent when the name and mode
// match; conflicting re-registration is an error.
func RegisterValueType(name string, goType reflect.Type, mode CellMode, traits ...TraitID) (TypeID, error) {
	if goType == nil {
		return 0, fmt.Errorf("register value type %q: nil type", name)
	}

	def.mu.Lock()
	defer def.mu.Unlock()

	if id, ok := def.valuesByGo[goType]; ok {
		existing := def.values[id]
		if existing.Name != name || existing.Mode != mode {
			return 0, fmt.Errorf("register value type %q: type %v already registered as %q (mode %s)",
				name, goType, existing.Name, existing.Mode)
		}
		return id, nil
	}

	traitSet := make(map[TraitID]struct{}, len(traits))
	for _, trait := range traits {
		tt, ok := def.traits[trait]
		if !ok {
			return 0, fmt.Errorf("register value type %q: unknown trait id %d", name, trait)
		}
		if !goType.Implements(tt.GoType) && !reflect.PointerTo(goType).Implements(tt.GoType) {
			return 0, fmt.Errorf("register value type %q: %v does not implement trait %q", name, goType, tt.Name)
		}
		traitSet[trait] = struct{}{}
	}

	def.nextValueID++
	id := def.nextValueID
	def.values[id] = &ValueType{ID: id, Name: name, GoType: goType, Mode: mode, traits: traitSet}
	def.valuesByGo[goType] = id
	return id, nil
}

// MustRegisterTrait is the generic, panicking form of RegisterTrait.
// K must be an interface type. Use during the startup registration phase,
// typically in a package-level var declaration.
func MustRegisterTrait[K any](name string) TraitID {
	id, err := RegisterTrait(name, reflect.TypeOf((*K)(nil)).Elem())
	if err != nil {
		panic(err)
	}
	return id
}

// MustRegisterValueType is the generic, panicking form of RegisterValueType.
// Use during the startup registration phase.
func MustRegisterValueType[T any](name string, mode CellMode, traits ...TraitID) TypeID {
	id, err := RegisterValueType(name, reflect.TypeOf((*T)(nil)).Elem(), mode, traits...)
	if err != nil {
		panic(err)
	}
	return id
}

// ValueTypeByID looks up a value type entry by id.
func ValueTypeByID(id TypeID) (*ValueType, bool) {
	def.mu.RLock()
	defer def.mu.RUnlock()
	vt, ok := def.values[id]
	return vt, ok
}

// TraitByID looks up a trait entry by id.
func TraitByID(id TraitID) (*TraitType, bool) {
	def.mu.RLock()
	defer def.mu.RUnlock()
	tt, ok := def.traits[id]
	return tt, ok
}

// TypeIDOf returns the TypeID registered for a Go type.
func TypeIDOf(goType reflect.Type) (TypeID, bool) {
	def.mu.RLock()
	defer def.mu.RUnlock()
	id, ok := def.valuesByGo[goType]
	return id, ok
}

// TraitIDOf returns the TraitID registered for a Go interface type.
func TraitIDOf(goType reflect.Type) (TraitID, bool) {
	def.mu.RLock()
	defer def.mu.RUnlock()
	id, ok := def.traitsByGo[goType]
	return id, ok
}

// TypeIDFor returns the TypeID registered for the concrete type T.
func TypeIDFor[T any]() (TypeID, bool) {
	return TypeIDOf(reflect.TypeOf((*T)(nil)).Elem())
}

// TraitIDFor returns the TraitID registered for the interface type K.
func TraitIDFor[K any]() (TraitID, bool) {
	return TraitIDOf(reflect.TypeOf((*K)(nil)).Elem())
}

// Implements reports whether the value type implements the trait.
// Unknown ids report false.
func Implements(id TypeID, trait TraitID) bool {
	def.mu.RLock()
	defer def.mu.RUnlock()
	vt, ok := def.values[id]
	if !ok {
		return false
	}
	_, ok = vt.traits[trait]
	return ok
}

// TypeName returns the registered name for a value type id, or a
// placeholder for unknown ids. Used for diagnostics.
func TypeName(id TypeID) string {
	if vt, ok := ValueTypeByID(id); ok {
		return vt.Name
	}
	return fmt.Sprintf("<unknown type %d>", id)
}
