package cell

import (
	"context"
	"fmt"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// Emit attaches the handle to the current task as a collectible of
// capability K, to be aggregated upward to any ancestor holding a handle
// into this task's subgraph. K must be a registered trait the handle's
// value implements.
func Emit[K any](ctx context.Context, r Ref[K]) error {
	trait, found := registry.TraitIDFor[K]()
	if !found {
		return &ResolveTypeError{Requested: fmt.Sprintf("%T", *new(K))}
	}
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return node.ErrNoBackend
	}
	return b.EmitCollectible(ctx, trait, r.node)
}

// TakeCollectibles drains all collectibles of capability K emitted by the
// subgraph reachable from the handle's target, removing them from further
// aggregation upward. Ordering is irrelevant; the result is a set keyed
// by handle identity, deduplicated on post-resolution locators.
func TakeCollectibles[K any, T any](ctx context.Context, r Ref[T]) (map[Ref[K]]struct{}, error) {
	return collect[K](ctx, r.node, true)
}

// PeekCollectibles is TakeCollectibles without removal: the collectibles
// remain available to ancestors.
func PeekCollectibles[K any, T any](ctx context.Context, r Ref[T]) (map[Ref[K]]struct{}, error) {
	return collect[K](ctx, r.node, false)
}

func collect[K any](ctx context.Context, loc node.Locator, take bool) (map[Ref[K]]struct{}, error) {
	trait, found := registry.TraitIDFor[K]()
	if !found {
		return nil, &ResolveTypeError{Requested: fmt.Sprintf("%T", *new(K))}
	}
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return nil, node.ErrNoBackend
	}

	var (
		locators map[node.Locator]struct{}
		err      error
	)
	if take {
		locators, err = b.TakeCollectibles(ctx, loc, trait)
	} else {
		locators, err = b.PeekCollectibles(ctx, loc, trait)
	}
	if err != nil {
		return nil, err
	}

	set := make(map[Ref[K]]struct{}, len(locators))
	for l := range locators {
		set[Ref[K]{node: l}] = struct{}{}
	}
	return set, nil
}
