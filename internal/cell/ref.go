package cell

import (
	"context"
	"fmt"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// Ref is a typed reference to a memoized computation result: either a
// stored cell or the not-yet-produced output of a task.
//
// Ref is a small comparable value. Copying it copies only the locator,
// and it can be used directly as a map key. The type parameter is a
// compile-time tag only; once resolved, the runtime value type of the
// target cell must match it or reads fail with a type mismatch.
type Ref[T any] struct {
	node node.Locator
}

// FromLocator wraps a raw locator in a typed handle. Used by trusted
// internals when deriving handles from backend-assigned locators; the
// caller asserts the type.
func FromLocator[T any](loc node.Locator) Ref[T] {
	return Ref[T]{node: loc}
}

// Locator exposes the underlying locator for trusted internals.
func (r Ref[T]) Locator() node.Locator {
	return r.node
}

// IsResolved reports whether the handle's locator is already settled.
func (r Ref[T]) IsResolved() bool {
	return r.node.IsSettled() && !r.node.IsLocal()
}

// IsLocal reports whether the handle points at an execution-scoped cell
// that has not yet been resolved into a crossable reference.
func (r Ref[T]) IsLocal() bool {
	return r.node.IsLocal()
}

// String formats the handle for logs. Not a stable identity; use
// DebugIdentifier for that.
func (r Ref[T]) String() string {
	return fmt.Sprintf("Ref(%s)", r.node)
}

// New stores v in a global cell owned by the current task and returns a
// handle to it. The value type T must be registered; its declared cell
// mode decides between a fresh slot and dedup-by-equality reuse.
//
// The value's representation is normalized (via node.Shrinkable) exactly
// once, before the cell becomes visible. Cell contents are immutable
// afterwards.
func New[T any](ctx context.Context, v T) (Ref[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[T]{}, node.ErrNoBackend
	}
	tid, ok := registry.TypeIDFor[T]()
	if !ok {
		return Ref[T]{}, fmt.Errorf("value type not registered: %T", v)
	}
	loc, err := b.CreateCell(ctx, tid, v)
	if err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{node: loc}, nil
}

// NewLocal stores v in a fresh cell scoped to the current execution.
// Local cells always get a new slot - there is no cross-execution notion
// of updating one - and they die with their execution unless resolution
// upgrades them into a crossable reference first.
func NewLocal[T any](ctx context.Context, v T) (Ref[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[T]{}, node.ErrNoBackend
	}
	tid, ok := registry.TypeIDFor[T]()
	if !ok {
		return Ref[T]{}, fmt.Errorf("value type not registered: %T", v)
	}
	loc, err := b.CreateLocalCell(ctx, tid, v)
	if err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{node: loc}, nil
}

// Upcast relabels a handle typed over T as one typed over the broader
// capability set K. Go cannot express "T satisfies K" as a constraint
// (a type parameter may not be used as a constraint), so the relation
// is not compiler-checked; the locator is untouched and no runtime work
// happens.
func Upcast[K any, T any](r Ref[T]) Ref[K] {
	return Ref[K]{node: r.node}
}

// Connect registers a dependency edge from the current execution to the
// node this handle points at.
func Connect[T any](ctx context.Context, r Ref[T]) error {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return node.ErrNoBackend
	}
	return b.Connect(ctx, r.node)
}

// DebugIdentifier resolves the handle and returns a stable diagnostic
// identifier of the form "{TypeName}#{index}: {task}".
//
// Resolution eliminates unsettled and local locators, so a resolved
// locator that is not a task cell is a defect and panics.
func DebugIdentifier[T any](ctx context.Context, r Ref[T]) (string, error) {
	resolved, err := Resolve(ctx, r)
	if err != nil {
		return "", err
	}
	loc := resolved.node
	if loc.Kind() != node.KindTaskCell {
		panic(fmt.Sprintf("cell: resolved locator is %v, not a task cell", loc.Kind()))
	}
	cid := loc.Cell()
	return fmt.Sprintf("%s#%d: %s", registry.TypeName(cid.Type), cid.Index, loc.Task()), nil
}
