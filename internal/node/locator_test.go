package node

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cellgraph/internal/registry"
)

func TestLocatorEquality(t *testing.T) {
	cell := CellID{Type: 1, Index: 0}

	assert.Equal(t, OutputOf(7), OutputOf(7))
	assert.NotEqual(t, OutputOf(7), OutputOf(8))

	assert.Equal(t, CellOf(7, cell), CellOf(7, cell))
	assert.NotEqual(t, CellOf(7, cell), CellOf(7, CellID{Type: 1, Index: 1}))

	// Settled and unsettled locators for the same task are distinct.
	assert.NotEqual(t, OutputOf(7), CellOf(7, cell))
}

func TestLocatorAsMapKey(t *testing.T) {
	seen := map[Locator]int{}
	seen[OutputOf(1)]++
	seen[OutputOf(1)]++
	seen[CellOf(1, CellID{Type: 2, Index: 3})]++

	assert.Equal(t, 2, seen[OutputOf(1)])
	assert.Len(t, seen, 2)
}

func TestLocatorKinds(t *testing.T) {
	out := OutputOf(1)
	cell := CellOf(1, CellID{Type: 1, Index: 0})
	local := LocalCellOf("exec-1", 0)
	var zero Locator

	assert.Equal(t, KindTaskOutput, out.Kind())
	assert.False(t, out.IsSettled())
	assert.False(t, out.IsLocal())

	assert.Equal(t, KindTaskCell, cell.Kind())
	assert.True(t, cell.IsSettled())
	assert.False(t, cell.IsLocal())

	assert.Equal(t, KindLocalCell, local.Kind())
	assert.True(t, local.IsSettled())
	assert.True(t, local.IsLocal())

	assert.Equal(t, KindInvalid, zero.Kind())
	assert.False(t, zero.IsSettled())
}

func TestLocatorAccessors(t *testing.T) {
	cell := CellOf(4, CellID{Type: 2, Index: 1})
	assert.Equal(t, TaskID(4), cell.Task())
	assert.Equal(t, CellID{Type: 2, Index: 1}, cell.Cell())

	local := LocalCellOf("exec-9", 5)
	assert.Equal(t, ExecutionID("exec-9"), local.Execution())
	assert.Equal(t, LocalCellID(5), local.LocalCell())
}

func TestLocatorAccessorPanics(t *testing.T) {
	assert.Panics(t, func() { OutputOf(1).Cell() })
	assert.Panics(t, func() { OutputOf(1).Execution() })
	assert.Panics(t, func() { LocalCellOf("exec-1", 0).Task() })
	assert.Panics(t, func() { CellOf(1, CellID{}).LocalCell() })
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "output(task-3)", OutputOf(3).String())
	assert.Equal(t, "local(exec-1, 2)", LocalCellOf("exec-1", 2).String())
	assert.Equal(t, "invalid", Locator{}.String())
}

func TestSharedRef(t *testing.T) {
	ref := NewSharedRef(registry.TypeID(3), "payload")
	assert.Equal(t, registry.TypeID(3), ref.TypeID())
	assert.Equal(t, "payload", ref.Value())
}
