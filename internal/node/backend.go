package node

import (
	"context"
	"errors"

	"github.com/roach88/cellgraph/internal/registry"
	"github.com/roach88/cellgraph/internal/value"
)

// ErrNoBackend is returned by handle operations invoked on a context that
// does not carry a Backend.
var ErrNoBackend = errors.New("no backend in context")

// TaskFunc is the body of a task run by the backend. It returns the
// locator of the task's output (typically a cell created during the run,
// or the unsettled output of a nested task).
type TaskFunc func(ctx context.Context) (Locator, error)

// Backend is the scheduler/cache collaborator the cell reference layer is
// built on. The engine package provides the in-process implementation;
// handle operations find the active Backend through the context.
//
// All methods are safe for concurrent use from many executions. Methods
// that wait do so cooperatively: they return early with the context's
// error on cancellation, and they surface a task's fatal failure verbatim
// to every waiter that transitively depends on it.
type Backend interface {
	// Resolve rewrites the locator until it is settled and canonical.
	// A settled locator is returned unchanged; an unsettled one waits for
	// the owning task. Local locators from a foreign execution are a
	// reportable error.
	Resolve(ctx context.Context, loc Locator) (Locator, error)

	// ResolveStronglyConsistent is Resolve plus a wait for the entire
	// transitive subgraph reachable from the target to finish.
	ResolveStronglyConsistent(ctx context.Context, loc Locator) (Locator, error)

	// ResolveTrait resolves the locator, then reports whether the
	// underlying value type implements the trait. ok=false is an ordinary
	// "not applicable" outcome, not an error.
	ResolveTrait(ctx context.Context, loc Locator, trait registry.TraitID) (resolved Locator, ok bool, err error)

	// ResolveValue resolves the locator, then reports whether the
	// underlying value type is exactly the given type.
	ResolveValue(ctx context.Context, loc Locator, typeID registry.TypeID) (resolved Locator, ok bool, err error)

	// Read resolves the locator if needed and returns the shared snapshot
	// of the target cell. Concurrent readers of the same settled cell
	// receive the same *SharedRef.
	Read(ctx context.Context, loc Locator) (*SharedRef, error)

	// ReadStronglyConsistent composes strongly consistent resolution with
	// a read.
	ReadStronglyConsistent(ctx context.Context, loc Locator) (*SharedRef, error)

	// CreateCell stores a value in a new or updated global cell owned by
	// the current task, honoring the value type's declared cell mode.
	CreateCell(ctx context.Context, typeID registry.TypeID, v any) (Locator, error)

	// CreateLocalCell stores a value in a fresh cell scoped to the current
	// execution. The cell mode policy is never consulted.
	CreateLocalCell(ctx context.Context, typeID registry.TypeID, v any) (Locator, error)

	// Connect registers a dependency edge from the current execution to
	// the referenced node.
	Connect(ctx context.Context, loc Locator) error

	// EmitCollectible attaches a collectible handle to the current task,
	// keyed by trait, for upward aggregation.
	EmitCollectible(ctx context.Context, trait registry.TraitID, loc Locator) error

	// TakeCollectibles drains the collectibles of the given trait emitted
	// by the subgraph reachable from loc's target, returning them as a set
	// keyed by resolved locator.
	TakeCollectibles(ctx context.Context, loc Locator, trait registry.TraitID) (map[Locator]struct{}, error)

	// PeekCollectibles is TakeCollectibles without removal.
	PeekCollectibles(ctx context.Context, loc Locator, trait registry.TraitID) (map[Locator]struct{}, error)

	// Spawn schedules a task for execution, memoized by name and args:
	// an equal invocation reuses the cached task. Returns the (typically
	// unsettled) locator of the task's output.
	Spawn(ctx context.Context, name string, args value.Object, fn TaskFunc) (Locator, error)
}

type ctxKey int

const (
	backendKey ctxKey = iota
	executionKey
)

// WithBackend returns a context carrying the backend.
func WithBackend(ctx context.Context, b Backend) context.Context {
	return context.WithValue(ctx, backendKey, b)
}

// BackendFrom extracts the backend from the context.
func BackendFrom(ctx context.Context) (Backend, bool) {
	b, ok := ctx.Value(backendKey).(Backend)
	return b, ok
}

// WithExecution returns a context carrying the current execution id.
// Set by the backend when it starts running a task function.
func WithExecution(ctx context.Context, id ExecutionID) context.Context {
	return context.WithValue(ctx, executionKey, id)
}

// ExecutionFrom extracts the current execution id from the context.
func ExecutionFrom(ctx context.Context) (ExecutionID, bool) {
	id, ok := ctx.Value(executionKey).(ExecutionID)
	return id, ok
}
