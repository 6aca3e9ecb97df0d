package engine

import (
	"context"
	"fmt"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// Resolve rewrites a locator until it is settled and canonical.
//
// TaskOutput locators wait for the owning task and follow its output;
// local cell locators from the current execution upgrade into a global
// cell of the current task; local locators from any other execution are a
// reportable ErrInvalidLocalRef. Task fatal failures are returned
// verbatim, never wrapped, so every transitive waiter observes the same
// failure value.
func (e *Engine) Resolve(ctx context.Context, loc node.Locator) (node.Locator, error) {
	for {
		switch loc.Kind() {
		case node.KindTaskCell:
			return loc, nil

		case node.KindLocalCell:
			x, ok := e.currentExecution(ctx)
			if !ok || x.id != loc.Execution() {
				return node.Locator{}, fmt.Errorf("%w: %s", ErrInvalidLocalRef, loc)
			}
			shared, err := x.local(loc.LocalCell())
			if err != nil {
				return node.Locator{}, err
			}
			upgraded, err := e.storeCell(ctx, x.task, shared.TypeID(), shared.Value())
			if err != nil {
				return node.Locator{}, err
			}
			loc = upgraded

		case node.KindTaskOutput:
			t, ok := e.taskByID(loc.Task())
			if !ok {
				return node.Locator{}, fmt.Errorf("%w: %s", ErrUnknownTask, loc.Task())
			}
			if err := e.waitTask(ctx, t); err != nil {
				return node.Locator{}, err
			}
			loc = t.output

		default:
			return node.Locator{}, fmt.Errorf("cannot resolve invalid locator")
		}
	}
}

// ResolveStronglyConsistent resolves the locator, then waits for the
// entire transitive subgraph below the owning task to finish all
// outstanding work before returning.
func (e *Engine) ResolveStronglyConsistent(ctx context.Context, loc node.Locator) (node.Locator, error) {
	resolved, err := e.Resolve(ctx, loc)
	if err != nil {
		return node.Locator{}, err
	}

	t, ok := e.taskByID(resolved.Task())
	if !ok {
		return node.Locator{}, fmt.Errorf("%w: %s", ErrUnknownTask, resolved.Task())
	}

	visited := make(map[node.TaskID]struct{})
	if err := e.waitSubgraph(ctx, t, visited); err != nil {
		return node.Locator{}, err
	}
	return resolved, nil
}

// ResolveTrait resolves the locator, then reports whether the underlying
// value type implements the trait. Absence is ok=false, not an error.
func (e *Engine) ResolveTrait(ctx context.Context, loc node.Locator, trait registry.TraitID) (node.Locator, bool, error) {
	resolved, err := e.Resolve(ctx, loc)
	if err != nil {
		return node.Locator{}, false, err
	}
	if !registry.Implements(resolved.Cell().Type, trait) {
		return node.Locator{}, false, nil
	}
	return resolved, true, nil
}

// ResolveValue resolves the locator, then reports whether the underlying
// value type is exactly typeID.
func (e *Engine) ResolveValue(ctx context.Context, loc node.Locator, typeID registry.TypeID) (node.Locator, bool, error) {
	resolved, err := e.Resolve(ctx, loc)
	if err != nil {
		return node.Locator{}, false, err
	}
	if resolved.Cell().Type != typeID {
		return node.Locator{}, false, nil
	}
	return resolved, true, nil
}

// waitTask suspends until the task settles or the context is cancelled.
// A settled task's fatal failure is returned verbatim.
func (e *Engine) waitTask(ctx context.Context, t *task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
	}
	return t.err
}

// waitSubgraph waits for t and every task transitively reachable below
// it, through both spawn children and dependency edges. Dependency edges
// carry the memoized reuse case: a cached task joins its caller's
// subgraph without ever appearing in the children list. Both edge sets
// are frozen once the task is done, so waiting the task before reading
// them sees the complete picture.
//
// The current execution's own task is not waited on (it is still running
// by definition); its edges are still followed.
func (e *Engine) waitSubgraph(ctx context.Context, t *task, visited map[node.TaskID]struct{}) error {
	if _, ok := visited[t.id]; ok {
		return nil
	}
	visited[t.id] = struct{}{}

	if !e.isCurrentTask(ctx, t) {
		if err := e.waitTask(ctx, t); err != nil {
			return err
		}
	}

	next := append(t.childSnapshot(), t.depSnapshot()...)

	for _, id := range next {
		ct, ok := e.taskByID(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTask, id)
		}
		if err := e.waitSubgraph(ctx, ct, visited); err != nil {
			return err
		}
	}
	return nil
}

// isCurrentTask reports whether t is the task of the context's execution.
func (e *Engine) isCurrentTask(ctx context.Context, t *task) bool {
	x, ok := e.currentExecution(ctx)
	return ok && x.task == t
}
