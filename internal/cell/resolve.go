package cell

import (
	"context"

	"github.com/roach88/cellgraph/internal/node"
)

// Resolve converts the handle into one whose locator is settled and
// canonical. An already settled, non-local locator returns immediately.
//
// Resolving waits for the owning task to finish when the locator is an
// unsettled task output, and rethrows any fatal failure from that task
// verbatim. Resolution is required before two handles can be meaningfully
// compared: equality is locator-based, and unsettled or local locators are
// not canonical across differing paths to the same value.
//
// Resolution is idempotent: resolving an already resolved handle is a
// no-op returning the identical locator.
func Resolve[T any](ctx context.Context, r Ref[T]) (Ref[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[T]{}, node.ErrNoBackend
	}
	loc, err := b.Resolve(ctx, r.node)
	if err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{node: loc}, nil
}

// ResolveStronglyConsistent is Resolve plus a wait for the entire
// transitive subgraph reachable from the target to finish all outstanding
// work. Use it when a consumer needs a race-free snapshot across the
// whole subgraph (top-level queries); it suspends more broadly than
// Resolve.
func ResolveStronglyConsistent[T any](ctx context.Context, r Ref[T]) (Ref[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[T]{}, node.ErrNoBackend
	}
	loc, err := b.ResolveStronglyConsistent(ctx, r.node)
	if err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{node: loc}, nil
}

// Resolved is a handle proven by construction to carry a settled,
// canonical locator. It shares Ref's copy, equality and hash semantics
// but never needs re-resolution before being used as a cache or map key.
//
// The only way to obtain one is ToResolved.
type Resolved[T any] struct {
	ref Ref[T]
}

// ToResolved resolves the handle and wraps the result in the
// stronger-invariant type.
func ToResolved[T any](ctx context.Context, r Ref[T]) (Resolved[T], error) {
	resolved, err := Resolve(ctx, r)
	if err != nil {
		return Resolved[T]{}, err
	}
	return Resolved[T]{ref: resolved}, nil
}

// Ref returns the plain handle carrying the same canonical locator.
func (r Resolved[T]) Ref() Ref[T] {
	return r.ref
}

// Locator exposes the settled locator.
func (r Resolved[T]) Locator() node.Locator {
	return r.ref.node
}

// String formats the resolved handle for logs.
func (r Resolved[T]) String() string {
	return r.ref.String()
}
