package engine

import (
	"sync"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/store"
)

// Engine is the in-process node.Backend: task scheduler, memoization
// cache and cell store in one.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - the task and execution tables are guarded by mu
//   - per-task mutable state is guarded by the task's own lock
//   - waiting happens on per-task done channels, never under a lock
type Engine struct {
	mu         sync.Mutex
	tasks      map[node.TaskID]*task
	byKey      map[string]node.TaskID
	executions map[node.ExecutionID]*execution
	nextTask   uint32

	st    *store.Store
	idGen ExecutionIDGenerator
	clock *Clock

	traceMu sync.Mutex
	trace   []TraceEvent
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore attaches a persistent cell cache. Global cells, task records
// and dependency edges are written through to it as they are created.
func WithStore(st *store.Store) Option {
	return func(e *Engine) {
		e.st = st
	}
}

// WithExecutionIDs overrides the execution id generator.
// Use NewFixedGenerator in tests for deterministic local cell locators.
func WithExecutionIDs(gen ExecutionIDGenerator) Option {
	return func(e *Engine) {
		e.idGen = gen
	}
}

// New creates an engine with no tasks. By default execution ids are
// UUIDv7 and no store is attached.
func New(opts ...Option) *Engine {
	e := &Engine{
		tasks:      make(map[node.TaskID]*task),
		byKey:      make(map[string]node.TaskID),
		executions: make(map[node.ExecutionID]*execution),
		idGen:      UUIDv7Generator{},
		clock:      NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// taskByID looks up a task. The second return is false for ids the engine
// never assigned.
func (e *Engine) taskByID(id node.TaskID) (*task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[id]
	return t, ok
}

// newTaskLocked allocates a task id and registers the task.
// Caller holds e.mu. An empty key skips memoization (root tasks).
func (e *Engine) newTaskLocked(name, key string) *task {
	e.nextTask++
	t := newTask(node.TaskID(e.nextTask), name, key)
	e.tasks[t.id] = t
	if key != "" {
		e.byKey[key] = t.id
	}
	return t
}
