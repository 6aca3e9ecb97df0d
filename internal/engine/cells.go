package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
	"github.com/roach88/cellgraph/internal/value"
)

// CreateCell stores v as a global cell of the current task and returns
// its settled locator. Requires a current execution; top-level callers
// use RootContext.
func (e *Engine) CreateCell(ctx context.Context, typeID registry.TypeID, v any) (node.Locator, error) {
	x, ok := e.currentExecution(ctx)
	if !ok {
		return node.Locator{}, ErrNoExecution
	}
	return e.storeCell(ctx, x.task, typeID, v)
}

// CreateLocalCell stores v in the current execution's local table and
// returns an execution-scoped locator. The value is not hashed, not
// persisted and not visible to any other execution until upgraded.
func (e *Engine) CreateLocalCell(ctx context.Context, typeID registry.TypeID, v any) (node.Locator, error) {
	x, ok := e.currentExecution(ctx)
	if !ok {
		return node.Locator{}, ErrNoExecution
	}
	if _, ok := registry.ValueTypeByID(typeID); !ok {
		return node.Locator{}, fmt.Errorf("unregistered value type %d", typeID)
	}
	id := x.addLocal(node.NewSharedRef(typeID, v))
	return node.LocalCellOf(x.id, id), nil
}

// storeCell writes v into a cell of task t, honoring the value type's
// cell mode, and returns the cell's settled locator.
//
// In shared mode an existing cell with the same canonical content is
// reused, so observably equal values settle to identical locators.
// Values that cannot be canonicalized fall back to a fresh slot; they
// simply never deduplicate.
func (e *Engine) storeCell(ctx context.Context, t *task, typeID registry.TypeID, v any) (node.Locator, error) {
	vt, ok := registry.ValueTypeByID(typeID)
	if !ok {
		return node.Locator{}, fmt.Errorf("unregistered value type %d", typeID)
	}

	var ck contentKey
	var hashed bool
	if vt.Mode == registry.ModeShared {
		if hash, err := value.ContentHashAny(v); err == nil {
			ck = contentKey{typeID: typeID, hash: hash}
			hashed = true
		} else {
			slog.Debug("cell content not canonicalizable, skipping dedup",
				"type", vt.Name, "error", err)
		}
	}

	if s, ok := v.(node.Shrinkable); ok {
		s.ShrinkToFit()
	}

	t.mu.Lock()
	if hashed {
		if id, ok := t.byContent[ck]; ok {
			t.mu.Unlock()
			return node.CellOf(t.id, id), nil
		}
	}
	id := node.CellID{Type: typeID, Index: t.nextIndex[typeID]}
	t.nextIndex[typeID]++
	t.cells[id] = node.NewSharedRef(typeID, v)
	if hashed {
		t.byContent[ck] = id
	}
	t.mu.Unlock()

	if e.st != nil && hashed {
		payload, err := value.MarshalCanonicalAny(v)
		if err == nil {
			err = e.st.WriteCell(ctx, uint32(t.id), uint32(typeID), id.Index, ck.hash, payload)
		}
		if err != nil {
			slog.Error("persist cell failed", "task", t.id, "cell", id, "error", err)
		}
	}

	return node.CellOf(t.id, id), nil
}

// Read resolves the locator and returns the shared snapshot stored in
// the resulting cell.
func (e *Engine) Read(ctx context.Context, loc node.Locator) (*node.SharedRef, error) {
	resolved, err := e.Resolve(ctx, loc)
	if err != nil {
		return nil, err
	}
	return e.readCell(resolved)
}

// ReadStronglyConsistent is Read with subgraph-settling resolution.
func (e *Engine) ReadStronglyConsistent(ctx context.Context, loc node.Locator) (*node.SharedRef, error) {
	resolved, err := e.ResolveStronglyConsistent(ctx, loc)
	if err != nil {
		return nil, err
	}
	return e.readCell(resolved)
}

func (e *Engine) readCell(loc node.Locator) (*node.SharedRef, error) {
	t, ok := e.taskByID(loc.Task())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, loc.Task())
	}
	ref, ok := t.cell(loc.Cell())
	if !ok {
		return nil, fmt.Errorf("cell %s not populated", loc)
	}
	return ref, nil
}

// Connect registers a dependency edge from the current execution's task
// to the referenced node and resolves the locator, forcing its owning
// task to be scheduled and settled, without reading the cell contents.
func (e *Engine) Connect(ctx context.Context, loc node.Locator) error {
	if loc.Kind() == node.KindTaskOutput || loc.Kind() == node.KindTaskCell {
		if parent, ok := e.currentExecution(ctx); ok {
			e.connectTasks(ctx, parent, loc.Task())
		}
	}
	_, err := e.Resolve(ctx, loc)
	return err
}
