package engine

import (
	"sync"

	"github.com/roach88/cellgraph/internal/node"
	"github.com/roach88/cellgraph/internal/registry"
)

// contentKey indexes a task's cells by value type and content hash for
// the dedup-by-equality update mode.
type contentKey struct {
	typeID registry.TypeID
	hash   string
}

// task is one memoized computation: a running or finished invocation of a
// task function, its output cells, its spawned children and its emitted
// collectibles.
//
// done is closed exactly once, after output or err is set; waiters only
// touch those fields after done, so they need no lock for them. All other
// mutable state is guarded by mu.
type task struct {
	id   node.TaskID
	name string
	key  string // memoization key; empty for root tasks

	done chan struct{}

	mu           sync.Mutex
	finished     bool
	output       node.Locator
	err          error
	cells        map[node.CellID]*node.SharedRef
	nextIndex    map[registry.TypeID]uint32
	byContent    map[contentKey]node.CellID
	children     []node.TaskID
	deps         map[node.TaskID]struct{}
	collectibles map[registry.TraitID]map[node.Locator]struct{}
}

func newTask(id node.TaskID, name, key string) *task {
	return &task{
		id:           id,
		name:         name,
		key:          key,
		done:         make(chan struct{}),
		cells:        make(map[node.CellID]*node.SharedRef),
		nextIndex:    make(map[registry.TypeID]uint32),
		byContent:    make(map[contentKey]node.CellID),
		deps:         make(map[node.TaskID]struct{}),
		collectibles: make(map[registry.TraitID]map[node.Locator]struct{}),
	}
}

// finish records the task's settled output and wakes all waiters.
func (t *task) finish(output node.Locator) {
	t.mu.Lock()
	t.finished = true
	t.output = output
	t.mu.Unlock()
	close(t.done)
}

// fail records the task's fatal failure and wakes all waiters. The error
// is stored verbatim and re-surfaced by every dependent operation.
func (t *task) fail(err error) {
	t.mu.Lock()
	t.finished = true
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// addChild records a task spawned during this task's execution.
// The children list is frozen once the task is done.
func (t *task) addChild(id node.TaskID) {
	t.mu.Lock()
	t.children = append(t.children, id)
	t.mu.Unlock()
}

// childSnapshot copies the children list.
func (t *task) childSnapshot() []node.TaskID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]node.TaskID, len(t.children))
	copy(out, t.children)
	return out
}

// depSnapshot copies the dependency edge set.
func (t *task) depSnapshot() []node.TaskID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]node.TaskID, 0, len(t.deps))
	for id := range t.deps {
		out = append(out, id)
	}
	return out
}

// cell returns the shared snapshot stored at the given cell id.
func (t *task) cell(id node.CellID) (*node.SharedRef, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref, ok := t.cells[id]
	return ref, ok
}

// addCollectible attaches a collectible locator under the given trait.
func (t *task) addCollectible(trait registry.TraitID, loc node.Locator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.collectibles[trait]
	if !ok {
		set = make(map[node.Locator]struct{})
		t.collectibles[trait] = set
	}
	set[loc] = struct{}{}
}

// drainCollectibles copies this task's collectible set for a trait,
// removing the entries when take is true.
func (t *task) drainCollectibles(trait registry.TraitID, take bool) []node.Locator {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.collectibles[trait]
	if len(set) == 0 {
		return nil
	}
	out := make([]node.Locator, 0, len(set))
	for loc := range set {
		out = append(out, loc)
	}
	if take {
		delete(t.collectibles, trait)
	}
	return out
}
