package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/cellgraph/internal/node"
)

// ExecutionIDGenerator produces unique execution ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
//
// Execution ids must not repeat while the execution is alive: local cell
// locators embed them, and a reused id would let a stale local locator
// alias a foreign execution's cells.
type ExecutionIDGenerator interface {
	Generate() node.ExecutionID
}

// UUIDv7Generator generates time-sortable UUIDv7 execution ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, which keeps ids
// sortable by creation time - helpful when reading trace output.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 id as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() node.ExecutionID {
	return node.ExecutionID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined execution ids for testing,
// enabling deterministic traces and golden comparisons.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []node.ExecutionID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
// Generate panics once all ids are consumed; that fail-fast catches tests
// that spawn more executions than they declared.
func NewFixedGenerator(ids ...node.ExecutionID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() node.ExecutionID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all execution ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
