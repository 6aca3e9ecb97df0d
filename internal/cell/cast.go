package cell

import (
	"context"
	"fmt"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// ResolveTypeError reports that a dynamic cast's registry lookup could
// not be performed at all - for example, the requested capability was
// never registered. It is distinct from a simple "not this type" outcome
// (which is the ok=false return) so callers can tell "definitely not K"
// apart from "the lookup itself failed".
type ResolveTypeError struct {
	Requested string
}

func (e *ResolveTypeError) Error() string {
	return fmt.Sprintf("cannot resolve type: %s is not registered", e.Requested)
}

// TryResolveSidecast attempts to view a handle typed over capability set T
// as one typed over capability set K, with no static relationship required
// between the two. The handle is resolved as a side effect.
//
// ok=false means the underlying value type does not implement K - an
// ordinary outcome callers branch on, not an error. A non-nil error is
// either a *ResolveTypeError or an upstream fatal failure.
//
// If T is statically known to imply K, use Upcast followed by Resolve
// instead; that cannot fail.
func TryResolveSidecast[K any, T any](ctx context.Context, r Ref[T]) (Ref[K], bool, error) {
	trait, found := registry.TraitIDFor[K]()
	if !found {
		return Ref[K]{}, false, &ResolveTypeError{Requested: fmt.Sprintf("%T", *new(K))}
	}
	return resolveTrait[K](ctx, r.node, trait)
}

// TryResolveDowncast attempts to narrow a handle typed over capability set
// T to capability set K, where K statically implies T. The handle is
// resolved as a side effect; ok=false means the underlying value type
// does not implement K.
func TryResolveDowncast[K any, T any](ctx context.Context, r Ref[T]) (Ref[K], bool, error) {
	trait, found := registry.TraitIDFor[K]()
	if !found {
		return Ref[K]{}, false, &ResolveTypeError{Requested: fmt.Sprintf("%T", *new(K))}
	}
	return resolveTrait[K](ctx, r.node, trait)
}

// TryResolveDowncastType attempts to narrow a handle typed over capability
// set T to the concrete value type K. The handle is resolved as a side
// effect; ok=false means the underlying value is not exactly a K.
func TryResolveDowncastType[K any, T any](ctx context.Context, r Ref[T]) (Ref[K], bool, error) {
	typeID, found := registry.TypeIDFor[K]()
	if !found {
		return Ref[K]{}, false, &ResolveTypeError{Requested: fmt.Sprintf("%T", *new(K))}
	}
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[K]{}, false, node.ErrNoBackend
	}
	loc, ok, err := b.ResolveValue(ctx, r.node, typeID)
	if err != nil {
		return Ref[K]{}, false, err
	}
	if !ok {
		return Ref[K]{}, false, nil
	}
	return Ref[K]{node: loc}, true, nil
}

func resolveTrait[K any](ctx context.Context, loc node.Locator, trait registry.TraitID) (Ref[K], bool, error) {
	b, ok := node.BackendFrom(ctx)
	if !ok {
		return Ref[K]{}, false, node.ErrNoBackend
	}
	resolved, ok, err := b.ResolveTrait(ctx, loc, trait)
	if err != nil {
		return Ref[K]{}, false, err
	}
	if !ok {
		return Ref[K]{}, false, nil
	}
	return Ref[K]{node: resolved}, true, nil
}
