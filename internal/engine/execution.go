package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/cellgraph/internal/node"
)

// execution is one in-flight run of a task function. It owns the local
// cell table; local cells are addressed by their index in creation order
// and are never visible outside this execution.
type execution struct {
	id   node.ExecutionID
	task *task

	mu     sync.Mutex
	locals []*node.SharedRef
}

// addLocal appends a local cell and returns its id.
func (x *execution) addLocal(ref *node.SharedRef) node.LocalCellID {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.locals = append(x.locals, ref)
	return node.LocalCellID(len(x.locals) - 1)
}

// local returns the local cell at the given index.
func (x *execution) local(id node.LocalCellID) (*node.SharedRef, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if int(id) >= len(x.locals) {
		return nil, fmt.Errorf("local cell %d out of range (execution %s has %d)", id, x.id, len(x.locals))
	}
	return x.locals[id], nil
}

// newExecution registers a fresh execution for the task.
func (e *Engine) newExecution(t *task) *execution {
	x := &execution{id: e.idGen.Generate(), task: t}
	e.mu.Lock()
	e.executions[x.id] = x
	e.mu.Unlock()
	return x
}

// dropExecution removes a finished execution. Its local cells die with it;
// any surviving local locator becomes permanently unresolvable.
func (e *Engine) dropExecution(x *execution) {
	e.mu.Lock()
	delete(e.executions, x.id)
	e.mu.Unlock()
}

// currentExecution returns the execution the context is running in.
func (e *Engine) currentExecution(ctx context.Context) (*execution, bool) {
	id, ok := node.ExecutionFrom(ctx)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	x, ok := e.executions[id]
	return x, ok
}

// executionContext builds the context a task function (or root caller)
// runs under: backend plus current execution id.
func (e *Engine) executionContext(ctx context.Context, x *execution) context.Context {
	return node.WithExecution(node.WithBackend(ctx, e), x.id)
}

// RootContext returns a context for top-level callers that need to create
// cells and emit collectibles outside any spawned task. The returned
// cancel func releases the synthetic root execution; local cells created
// under this context die with it.
//
// Root tasks are not memoized and never produce an output; resolving a
// root task's output locator is a caller defect.
func (e *Engine) RootContext(ctx context.Context) (context.Context, func()) {
	e.mu.Lock()
	t := e.newTaskLocked("root", "")
	e.mu.Unlock()

	if e.st != nil {
		if err := e.st.WriteTask(ctx, uint32(t.id), "", t.name); err != nil {
			slog.Error("persist root task failed", "task", t.id, "error", err)
		}
	}

	x := e.newExecution(t)
	return e.executionContext(ctx, x), func() {
		e.dropExecution(x)
	}
}
