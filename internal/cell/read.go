package cell

import (
	"context"
	"fmt"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// ReadRef is a borrow-like, immutable snapshot of a stored value.
// Multiple reads of the same settled cell share one underlying
// node.SharedRef; the snapshot involves no copy per read.
type ReadRef[T any] struct {
	shared *node.SharedRef
}

// Value returns the snapshot's value. The returned value must be treated
// as immutable.
func (r ReadRef[T]) Value() T {
	return r.shared.Value().(T)
}

// Shared exposes the underlying shared reference. Two ReadRefs of the
// same settled cell hold the same pointer.
func (r ReadRef[T]) Shared() *node.SharedRef {
	return r.shared
}

// Read materializes the handle into a snapshot of the stored value,
// resolving first if needed and suspending until the target cell holds a
// value. Subsequent concurrent readers of the same settled cell share the
// returned storage without contention.
//
// A runtime value type that does not match the handle's compile-time tag
// is a type mismatch failure.
func Read[T any](ctx context.Context, r Ref[T]) (ReadRef[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return ReadRef[T]{}, node.ErrNoBackend
	}
	shared, err := b.Read(ctx, r.node)
	if err != nil {
		return ReadRef[T]{}, err
	}
	return newReadRef[T](shared)
}

// ReadStronglyConsistent composes strongly consistent resolution with
// materialization: a stable identity and a race-free value in one step.
func ReadStronglyConsistent[T any](ctx context.Context, r Ref[T]) (ReadRef[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return ReadRef[T]{}, node.ErrNoBackend
	}
	shared, err := b.ReadStronglyConsistent(ctx, r.node)
	if err != nil {
		return ReadRef[T]{}, err
	}
	return newReadRef[T](shared)
}

func newReadRef[T any](shared *node.SharedRef) (ReadRef[T], error) {
	if _, ok := shared.Value().(T); !ok {
		return ReadRef[T]{}, fmt.Errorf("type mismatch: cell holds %s (%T), handle is typed %T",
			registry.TypeName(shared.TypeID()), shared.Value(), *new(T))
	}
	return ReadRef[T]{shared: shared}, nil
}
