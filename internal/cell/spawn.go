package cell

import (
	"context"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/value"
)

// Spawn schedules fn as a task on the backend and returns a typed handle
// to its eventual output. The invocation is memoized by name and args: an
// observably equal invocation reuses the cached task instead of running fn
// again, and the returned handles resolve to the same canonical locator.
//
// The returned handle is unsettled until resolved.
func Spawn[T any](ctx context.Context, name string, args value.Object, fn func(ctx context.Context) (Ref[T], error)) (Ref[T], error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[T]{}, node.ErrNoBackend
	}
	loc, err := b.Spawn(ctx, name, args, func(ctx context.Context) (node.Locator, error) {
		out, err := fn(ctx)
		if err != nil {
			return node.Locator{}, err
		}
		return out.node, nil
	})
	if err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{node: loc}, nil
}
