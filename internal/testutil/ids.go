package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/cellgraph/internal/node"
)

// SequentialExecutionIDs generates "exec-1", "exec-2", ... in order.
//
// Unlike engine.FixedGenerator, which panics once its declared ids run
// out, this generator never exhausts: it suits tests that care about
// deterministic ids but not about the exact number of executions.
// Reset makes the same test scenario reusable with identical ids.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type SequentialExecutionIDs struct {
	mu   sync.Mutex
	next int
}

// NewSequentialExecutionIDs creates a generator starting at "exec-1".
func NewSequentialExecutionIDs() *SequentialExecutionIDs {
	return &SequentialExecutionIDs{}
}

// Generate returns the next sequential execution id.
//
// Implements engine.ExecutionIDGenerator.
func (g *SequentialExecutionIDs) Generate() node.ExecutionID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return node.ExecutionID(fmt.Sprintf("exec-%d", g.next))
}

// Reset rewinds the generator. The next Generate returns "exec-1" again.
func (g *SequentialExecutionIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = 0
}
