package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
	"github.com/roach88/cellgraph/internal/store"
	"github.com/roach88/cellgraph/internal/value"
)

type engDoc struct {
	S string
}

func (d engDoc) CanonicalValue() value.Value {
	return value.Object{"s": value.String(d.S)}
}

type engBlob struct {
	N int
}

type engMarker interface {
	CanonicalValue() value.Value
}

var (
	engTrait    = registry.MustRegisterTrait[engMarker]("engine-marker")
	engDocType  = registry.MustRegisterValueType[engDoc]("engine-doc", registry.ModeShared, engTrait)
	engBlobType = registry.MustRegisterValueType[engBlob]("engine-blob", registry.ModeNew)
)

func rootContext(t *testing.T, e *Engine) context.Context {
	t.Helper()
	ctx, release := e.RootContext(context.Background())
	t.Cleanup(release)
	return ctx
}

func TestSpawnMemoizesByNameAndArgs(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	var runs atomic.Int32
	fn := func(ctx context.Context) (node.Locator, error) {
		runs.Add(1)
		return e.CreateCell(ctx, engDocType, engDoc{S: "memo"})
	}

	args := value.Object{"n": value.Int(7)}
	a, err := e.Spawn(ctx, "memo", args, fn)
	require.NoError(t, err)
	b, err := e.Spawn(ctx, "memo", args, fn)
	require.NoError(t, err)

	ra, err := e.Resolve(ctx, a)
	require.NoError(t, err)
	rb, err := e.Resolve(ctx, b)
	require.NoError(t, err)

	assert.Equal(t, ra, rb)
	assert.Equal(t, int32(1), runs.Load())

	var started, memoized int
	for _, ev := range e.Trace() {
		switch ev.Kind {
		case "task-started":
			if ev.Name == "memo" {
				started++
			}
		case "task-memoized":
			if ev.Name == "memo" {
				memoized++
			}
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, memoized)
}

func TestSpawnDistinctArgsDistinctTasks(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	fn := func(ctx context.Context) (node.Locator, error) {
		return e.CreateCell(ctx, engBlobType, engBlob{N: 1})
	}

	a, err := e.Spawn(ctx, "distinct", value.Object{"n": value.Int(1)}, fn)
	require.NoError(t, err)
	b, err := e.Spawn(ctx, "distinct", value.Object{"n": value.Int(2)}, fn)
	require.NoError(t, err)

	assert.NotEqual(t, a.Task(), b.Task())
}

func TestRunSettlesOutput(t *testing.T) {
	e := New()

	loc, err := e.Run(context.Background(), "run-task", nil, func(ctx context.Context) (node.Locator, error) {
		return e.CreateCell(ctx, engDocType, engDoc{S: "done"})
	})
	require.NoError(t, err)

	assert.Equal(t, node.KindTaskCell, loc.Kind())

	shared, err := e.Read(node.WithBackend(context.Background(), e), loc)
	require.NoError(t, err)
	assert.Equal(t, engDoc{S: "done"}, shared.Value())
}

func TestResolveUnknownTask(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	_, err := e.Resolve(ctx, node.OutputOf(999))
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestResolveInvalidLocator(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	_, err := e.Resolve(ctx, node.Locator{})
	assert.Error(t, err)
}

func TestResolveRespectsCancellation(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	blocked := make(chan struct{})
	loc, err := e.Spawn(ctx, "blocked", nil, func(ctx context.Context) (node.Locator, error) {
		<-blocked
		return e.CreateCell(ctx, engDocType, engDoc{S: "late"})
	})
	require.NoError(t, err)
	defer close(blocked)

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = e.Resolve(cancelCtx, loc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStronglyConsistentWaitsSubgraph(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	var childDone atomic.Bool
	parent, err := e.Spawn(ctx, "sc-parent", nil, func(ctx context.Context) (node.Locator, error) {
		// Spawn a slow child but do not wait for it: the parent's output
		// settles while the child is still running.
		_, err := e.Spawn(ctx, "sc-child", nil, func(ctx context.Context) (node.Locator, error) {
			time.Sleep(30 * time.Millisecond)
			childDone.Store(true)
			return e.CreateCell(ctx, engBlobType, engBlob{N: 2})
		})
		if err != nil {
			return node.Locator{}, err
		}
		return e.CreateCell(ctx, engBlobType, engBlob{N: 1})
	})
	require.NoError(t, err)

	_, err = e.ResolveStronglyConsistent(ctx, parent)
	require.NoError(t, err)
	assert.True(t, childDone.Load(), "strong consistency waits for the child")
}

func TestStronglyConsistentWaitsMemoizedDependency(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	var grandDone atomic.Bool
	sharedFn := func(ctx context.Context) (node.Locator, error) {
		// Settle without waiting for the slow grandchild.
		_, err := e.Spawn(ctx, "sc-grand", nil, func(ctx context.Context) (node.Locator, error) {
			time.Sleep(30 * time.Millisecond)
			grandDone.Store(true)
			return e.CreateCell(ctx, engBlobType, engBlob{N: 3})
		})
		if err != nil {
			return node.Locator{}, err
		}
		return e.CreateCell(ctx, engBlobType, engBlob{N: 2})
	}

	first, err := e.Spawn(ctx, "sc-first", nil, func(ctx context.Context) (node.Locator, error) {
		if _, err := e.Spawn(ctx, "sc-shared", nil, sharedFn); err != nil {
			return node.Locator{}, err
		}
		return e.CreateCell(ctx, engBlobType, engBlob{N: 1})
	})
	require.NoError(t, err)
	_, err = e.Resolve(ctx, first)
	require.NoError(t, err)

	// The second caller gets "sc-shared" from the memoization cache, so
	// the shared task is a dependency of it but never a child.
	second, err := e.Spawn(ctx, "sc-second", nil, func(ctx context.Context) (node.Locator, error) {
		if _, err := e.Spawn(ctx, "sc-shared", nil, sharedFn); err != nil {
			return node.Locator{}, err
		}
		return e.CreateCell(ctx, engBlobType, engBlob{N: 1})
	})
	require.NoError(t, err)

	_, err = e.ResolveStronglyConsistent(ctx, second)
	require.NoError(t, err)
	assert.True(t, grandDone.Load(), "strong consistency covers subgraphs reached through memoized calls")
}

func TestTaskFailurePropagatesVerbatim(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	boom := errors.New("boom")
	loc, err := e.Spawn(ctx, "failing", nil, func(ctx context.Context) (node.Locator, error) {
		return node.Locator{}, boom
	})
	require.NoError(t, err)

	_, err = e.Resolve(ctx, loc)
	assert.ErrorIs(t, err, boom)

	// Every waiter observes the identical failure value.
	_, err = e.ResolveStronglyConsistent(ctx, loc)
	assert.ErrorIs(t, err, boom)
}

func TestChildFailureFailsStrongConsistency(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	boom := errors.New("child boom")
	parent, err := e.Spawn(ctx, "failing-parent", nil, func(ctx context.Context) (node.Locator, error) {
		_, err := e.Spawn(ctx, "failing-child", nil, func(ctx context.Context) (node.Locator, error) {
			return node.Locator{}, boom
		})
		if err != nil {
			return node.Locator{}, err
		}
		return e.CreateCell(ctx, engDocType, engDoc{S: "ok"})
	})
	require.NoError(t, err)

	// Plain resolution succeeds: the parent's own output is fine.
	_, err = e.Resolve(ctx, parent)
	require.NoError(t, err)

	// Strong consistency surfaces the child failure.
	_, err = e.ResolveStronglyConsistent(ctx, parent)
	assert.ErrorIs(t, err, boom)
}

func TestInvalidTaskOutputIsFailure(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	loc, err := e.Spawn(ctx, "no-output", nil, func(ctx context.Context) (node.Locator, error) {
		return node.Locator{}, nil
	})
	require.NoError(t, err)

	_, err = e.Resolve(ctx, loc)
	assert.ErrorContains(t, err, "invalid locator")
}

func TestSharedModeDedupWithinTask(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	a, err := e.CreateCell(ctx, engDocType, engDoc{S: "x"})
	require.NoError(t, err)
	b, err := e.CreateCell(ctx, engDocType, engDoc{S: "x"})
	require.NoError(t, err)
	c, err := e.CreateCell(ctx, engDocType, engDoc{S: "y"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNewModeFreshSlots(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	a, err := e.CreateCell(ctx, engBlobType, engBlob{N: 1})
	require.NoError(t, err)
	b, err := e.CreateCell(ctx, engBlobType, engBlob{N: 1})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a.Cell().Type, b.Cell().Type)
	assert.NotEqual(t, a.Cell().Index, b.Cell().Index)
}

func TestCreateCellUnregisteredType(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	_, err := e.CreateCell(ctx, registry.TypeID(9999), engDoc{S: "?"})
	assert.Error(t, err)
}

func TestLocalCellUpgradeTargetsOwningTask(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	loc, err := e.Spawn(ctx, "local-out", nil, func(ctx context.Context) (node.Locator, error) {
		return e.CreateLocalCell(ctx, engDocType, engDoc{S: "promoted"})
	})
	require.NoError(t, err)
	owner := loc.Task()

	resolved, err := e.Resolve(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, node.KindTaskCell, resolved.Kind())
	assert.Equal(t, owner, resolved.Task(), "upgrade lands in the producing task")
}

func TestLocalCellForeignExecutionRejected(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	_, err := e.Resolve(ctx, node.LocalCellOf("some-other-exec", 0))
	assert.ErrorIs(t, err, ErrInvalidLocalRef)
}

func TestFixedGeneratorSequenceAndExhaustion(t *testing.T) {
	gen := NewFixedGenerator("exec-a", "exec-b")

	assert.Equal(t, node.ExecutionID("exec-a"), gen.Generate())
	assert.Equal(t, node.ExecutionID("exec-b"), gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7GeneratorUnique(t *testing.T) {
	gen := UUIDv7Generator{}
	assert.NotEqual(t, gen.Generate(), gen.Generate())
}

func TestClockMonotonic(t *testing.T) {
	c := NewClock()

	prev := c.Next()
	for i := 0; i < 100; i++ {
		next := c.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
	assert.Equal(t, prev, c.Current())
}

func TestTraceSequenceOrdering(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	for i := 0; i < 5; i++ {
		n := i
		loc, err := e.Spawn(ctx, "trace-task", value.Object{"n": value.Int(int64(n))}, func(ctx context.Context) (node.Locator, error) {
			return e.CreateCell(ctx, engBlobType, engBlob{N: n})
		})
		require.NoError(t, err)
		_, err = e.Resolve(ctx, loc)
		require.NoError(t, err)
	}

	trace := e.Trace()
	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		assert.Greater(t, trace[i].Seq, trace[i-1].Seq, "trace events carry strictly increasing sequence numbers")
	}
}

func TestCollectiblesTakeRemoves(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	trait := engTrait
	parent, err := e.Spawn(ctx, "emit-parent", nil, func(ctx context.Context) (node.Locator, error) {
		loc, err := e.CreateCell(ctx, engDocType, engDoc{S: "emitted"})
		if err != nil {
			return node.Locator{}, err
		}
		if err := e.EmitCollectible(ctx, trait, loc); err != nil {
			return node.Locator{}, err
		}
		return loc, nil
	})
	require.NoError(t, err)

	peeked, err := e.PeekCollectibles(ctx, parent, trait)
	require.NoError(t, err)
	assert.Len(t, peeked, 1)

	taken, err := e.TakeCollectibles(ctx, parent, trait)
	require.NoError(t, err)
	assert.Len(t, taken, 1)

	after, err := e.PeekCollectibles(ctx, parent, trait)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestCollectiblesCrossMemoizedCall(t *testing.T) {
	e := New()
	ctx := rootContext(t, e)

	emitFn := func(ctx context.Context) (node.Locator, error) {
		loc, err := e.CreateCell(ctx, engDocType, engDoc{S: "memo-diag"})
		if err != nil {
			return node.Locator{}, err
		}
		if err := e.EmitCollectible(ctx, engTrait, loc); err != nil {
			return node.Locator{}, err
		}
		return loc, nil
	}

	first, err := e.Spawn(ctx, "memo-emitter", nil, emitFn)
	require.NoError(t, err)
	_, err = e.Resolve(ctx, first)
	require.NoError(t, err)

	// The caller reuses the emitter from the memoization cache; the
	// emitter is a dependency of the caller, not a child.
	caller, err := e.Spawn(ctx, "memo-emit-caller", nil, func(ctx context.Context) (node.Locator, error) {
		if _, err := e.Spawn(ctx, "memo-emitter", nil, emitFn); err != nil {
			return node.Locator{}, err
		}
		return e.CreateCell(ctx, engDocType, engDoc{S: "caller"})
	})
	require.NoError(t, err)

	got, err := e.PeekCollectibles(ctx, caller, engTrait)
	require.NoError(t, err)
	assert.Len(t, got, 1, "a memoized callee's emissions count toward the caller's aggregate")
}

func TestSpawnPersistsDependencyEdges(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cells.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := New(WithStore(st))
	ctx := rootContext(t, e)

	loc, err := e.Spawn(ctx, "persist-dep", nil, func(ctx context.Context) (node.Locator, error) {
		return e.CreateCell(ctx, engDocType, engDoc{S: "stored"})
	})
	require.NoError(t, err)
	_, err = e.Resolve(ctx, loc)
	require.NoError(t, err)

	deps, err := st.ReadDeps(context.Background())
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, uint32(loc.Task()), deps[0].Dst, "edge points from the root task to the spawned one")
}
