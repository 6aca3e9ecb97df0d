package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/value"
)

// Spawn schedules fn for execution, memoized by the content-addressed key
// of (name, args). If an observably equal invocation already exists its
// task is reused and fn never runs; otherwise a new task starts in its own
// goroutine. Either way the caller gets the unsettled locator of the
// task's output and a dependency edge from the current task (if any) to
// the spawned one.
func (e *Engine) Spawn(ctx context.Context, name string, args value.Object, fn node.TaskFunc) (node.Locator, error) {
	key, err := value.TaskKey(name, args)
	if err != nil {
		return node.Locator{}, fmt.Errorf("spawn %q: %w", name, err)
	}

	parent, _ := e.currentExecution(ctx)

	e.mu.Lock()
	if id, ok := e.byKey[key]; ok {
		e.mu.Unlock()
		slog.Debug("task memoized", "name", name, "task", id)
		e.record(TraceEvent{Kind: "task-memoized", Task: id.String(), Name: name})
		e.connectTasks(ctx, parent, id)
		return node.OutputOf(id), nil
	}
	t := e.newTaskLocked(name, key)
	e.mu.Unlock()

	// The task row must exist before the dependency edge below: the store
	// enforces a foreign key from deps to tasks.
	if e.st != nil {
		if err := e.st.WriteTask(ctx, uint32(t.id), key, name); err != nil {
			return node.Locator{}, fmt.Errorf("persist task %s: %w", t.id, err)
		}
	}

	if parent != nil {
		parent.task.addChild(t.id)
		e.connectTasks(ctx, parent, t.id)
	}

	slog.Debug("task started", "name", name, "task", t.id)
	e.record(TraceEvent{Kind: "task-started", Task: t.id.String(), Name: name})

	go e.runTask(t, fn)

	return node.OutputOf(t.id), nil
}

// runTask drives one task execution from start to settled output.
// The execution context is detached from the spawner's: a task outlives
// its caller and is cancelled only by its own fatal failure.
func (e *Engine) runTask(t *task, fn node.TaskFunc) {
	x := e.newExecution(t)
	defer e.dropExecution(x)

	ctx := e.executionContext(context.Background(), x)

	out, err := fn(ctx)
	if err != nil {
		slog.Error("task failed", "task", t.id, "name", t.name, "error", err)
		e.record(TraceEvent{Kind: "task-failed", Task: t.id.String(), Name: t.name, Detail: err.Error()})
		t.fail(err)
		return
	}

	// A local output must be upgraded into a crossable reference before it
	// becomes visible outside this execution.
	if out.IsLocal() {
		out, err = e.upgradeLocal(ctx, x, out)
		if err != nil {
			slog.Error("task output upgrade failed", "task", t.id, "error", err)
			e.record(TraceEvent{Kind: "task-failed", Task: t.id.String(), Name: t.name, Detail: err.Error()})
			t.fail(err)
			return
		}
	}
	if out.Kind() == node.KindInvalid {
		err = fmt.Errorf("task %s returned an invalid locator", t.id)
		e.record(TraceEvent{Kind: "task-failed", Task: t.id.String(), Name: t.name, Detail: err.Error()})
		t.fail(err)
		return
	}

	slog.Debug("task finished", "task", t.id, "name", t.name, "output", out)
	e.record(TraceEvent{Kind: "task-finished", Task: t.id.String(), Name: t.name, Detail: out.String()})
	t.finish(out)
}

// upgradeLocal converts a local cell locator owned by execution x into a
// global cell of x's task. This is the single path by which a local value
// crosses its execution boundary.
func (e *Engine) upgradeLocal(ctx context.Context, x *execution, loc node.Locator) (node.Locator, error) {
	if loc.Execution() != x.id {
		return node.Locator{}, fmt.Errorf("%w: %s held by %s", ErrInvalidLocalRef, loc, x.id)
	}
	shared, err := x.local(loc.LocalCell())
	if err != nil {
		return node.Locator{}, err
	}
	return e.storeCell(ctx, x.task, shared.TypeID(), shared.Value())
}

// Run spawns a root-level task, waits for it to settle and returns its
// output locator. Convenience entry point for CLI and tests.
func (e *Engine) Run(ctx context.Context, name string, args value.Object, fn node.TaskFunc) (node.Locator, error) {
	loc, err := e.Spawn(node.WithBackend(ctx, e), name, args, fn)
	if err != nil {
		return node.Locator{}, err
	}
	t, ok := e.taskByID(loc.Task())
	if !ok {
		return node.Locator{}, fmt.Errorf("%w: %s", ErrUnknownTask, loc.Task())
	}
	if err := e.waitTask(ctx, t); err != nil {
		return node.Locator{}, err
	}
	return t.output, nil
}

// connectTasks records a dependency edge from the spawning execution's
// task to the target task.
func (e *Engine) connectTasks(ctx context.Context, parent *execution, target node.TaskID) {
	if parent == nil {
		return
	}
	parent.task.mu.Lock()
	_, seen := parent.task.deps[target]
	parent.task.deps[target] = struct{}{}
	parent.task.mu.Unlock()

	if !seen && e.st != nil {
		if err := e.st.WriteDep(ctx, uint32(parent.task.id), uint32(target)); err != nil {
			slog.Error("persist dependency edge failed",
				"src", parent.task.id, "dst", target, "error", err)
		}
	}
}
