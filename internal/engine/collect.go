package engine

import (
	"context"
	"fmt"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// EmitCollectible attaches a resolved locator to the current task as a
// collectible of the given trait. The locator is resolved first so the
// attached value is settled and crossable; emitting a value that does
// not implement the trait is an error.
func (e *Engine) EmitCollectible(ctx context.Context, trait registry.TraitID, loc node.Locator) error {
	x, ok := e.currentExecution(ctx)
	if !ok {
		return ErrNoExecution
	}
	resolved, err := e.Resolve(ctx, loc)
	if err != nil {
		return err
	}
	if !registry.Implements(resolved.Cell().Type, trait) {
		name := fmt.Sprintf("trait-%d", trait)
		if tt, ok := registry.TraitByID(trait); ok {
			name = tt.Name
		}
		return fmt.Errorf("collectible %s does not implement trait %s", resolved, name)
	}
	x.task.addCollectible(trait, resolved)
	return nil
}

// TakeCollectibles aggregates the trait's collectibles emitted by every
// task in the transitive subgraph below loc's owning task, removes them
// from their owners, and returns the deduplicated set.
func (e *Engine) TakeCollectibles(ctx context.Context, loc node.Locator, trait registry.TraitID) (map[node.Locator]struct{}, error) {
	return e.gatherCollectibles(ctx, loc, trait, true)
}

// PeekCollectibles is TakeCollectibles without removal.
func (e *Engine) PeekCollectibles(ctx context.Context, loc node.Locator, trait registry.TraitID) (map[node.Locator]struct{}, error) {
	return e.gatherCollectibles(ctx, loc, trait, false)
}

// gatherCollectibles finds the root of the aggregation subgraph, waits
// for every task in it to settle (the caller's own task, if it appears,
// contributes its so-far emissions without a wait), then drains each
// task's per-trait set.
//
// The root is the task the locator names, not the owner of the finally
// resolved cell: a passthrough task's own emissions belong to its
// aggregate even though its output settles in another task's cell.
func (e *Engine) gatherCollectibles(ctx context.Context, loc node.Locator, trait registry.TraitID, take bool) (map[node.Locator]struct{}, error) {
	if loc.Kind() == node.KindLocalCell {
		resolved, err := e.Resolve(ctx, loc)
		if err != nil {
			return nil, err
		}
		loc = resolved
	}
	if loc.Kind() == node.KindInvalid {
		return nil, fmt.Errorf("cannot aggregate collectibles of an invalid locator")
	}
	root, ok := e.taskByID(loc.Task())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, loc.Task())
	}

	visited := make(map[node.TaskID]struct{})
	if err := e.waitSubgraph(ctx, root, visited); err != nil {
		return nil, err
	}

	out := make(map[node.Locator]struct{})
	for id := range visited {
		t, ok := e.taskByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
		}
		for _, l := range t.drainCollectibles(trait, take) {
			out[l] = struct{}{}
		}
	}
	return out, nil
}
