package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cellgraph/internal/node"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialExecutionIDs()

	assert.Equal(t, node.ExecutionID("exec-1"), g.Generate())
	assert.Equal(t, node.ExecutionID("exec-2"), g.Generate())
	assert.Equal(t, node.ExecutionID("exec-3"), g.Generate())
}

func TestSequentialIDsReset(t *testing.T) {
	g := NewSequentialExecutionIDs()
	g.Generate()
	g.Generate()

	g.Reset()
	assert.Equal(t, node.ExecutionID("exec-1"), g.Generate())
}

func TestSequentialIDsConcurrentUnique(t *testing.T) {
	g := NewSequentialExecutionIDs()

	const n = 50
	ids := make([]node.ExecutionID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = g.Generate()
		}(i)
	}
	wg.Wait()

	seen := make(map[node.ExecutionID]struct{}, n)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}
