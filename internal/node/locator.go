package node

import (
	"fmt"

	"github.com/roach88/cellgraph/internal/registry"
)

// TaskID identifies a task known to the backend.
type TaskID uint32

// String formats the id for logs and debug identifiers.
func (id TaskID) String() string {
	return fmt.Sprintf("task-%d", uint32(id))
}

// ExecutionID identifies one in-flight task execution. Execution ids must
// not be reused while the execution is alive; the in-process engine uses
// UUIDv7 strings.
type ExecutionID string

// LocalCellID indexes a cell within one execution's local cell table.
type LocalCellID uint32

// CellID addresses one cell within a task's output set. Cells are grouped
// by value type; Index counts cells of that type in creation order.
type CellID struct {
	Type  registry.TypeID
	Index uint32
}

// String formats the cell id for diagnostics.
func (c CellID) String() string {
	return fmt.Sprintf("%s#%d", registry.TypeName(c.Type), c.Index)
}

// Kind discriminates the Locator variants.
type Kind int

const (
	// KindInvalid is the zero Locator. It never identifies a node.
	KindInvalid Kind = iota

	// KindTaskOutput is an unsettled reference to the eventual output of a
	// task. Resolution rewrites it to a settled variant.
	KindTaskOutput

	// KindTaskCell is a settled reference to a cell owned by a task.
	KindTaskCell

	// KindLocalCell is a settled reference to a cell scoped to one
	// in-flight execution. Never persisted, never valid outside its
	// originating execution.
	KindLocalCell
)

// Locator identifies either a storage location or the pending output of a
// task. It is a comparable value type: handles derive their equality and
// hash from it, and copying it involves no heap traffic.
type Locator struct {
	kind      Kind
	task      TaskID
	cell      CellID
	execution ExecutionID
	localCell LocalCellID
}

// OutputOf returns an unsettled locator for the eventual output of task.
func OutputOf(task TaskID) Locator {
	return Locator{kind: KindTaskOutput, task: task}
}

// CellOf returns a settled locator for a cell owned by task.
func CellOf(task TaskID, cell CellID) Locator {
	return Locator{kind: KindTaskCell, task: task, cell: cell}
}

// LocalCellOf returns a settled locator for a cell local to one execution.
func LocalCellOf(execution ExecutionID, id LocalCellID) Locator {
	return Locator{kind: KindLocalCell, execution: execution, localCell: id}
}

// Kind returns the variant tag.
func (l Locator) Kind() Kind {
	return l.kind
}

// IsSettled reports whether the locator points at an actual cell rather
// than a pending task output.
func (l Locator) IsSettled() bool {
	return l.kind == KindTaskCell || l.kind == KindLocalCell
}

// IsLocal reports whether the locator is scoped to a single execution.
func (l Locator) IsLocal() bool {
	return l.kind == KindLocalCell
}

// Task returns the owning task id.
// Panics if the variant carries no task (a defect, not a runtime condition).
func (l Locator) Task() TaskID {
	if l.kind != KindTaskOutput && l.kind != KindTaskCell {
		panic(fmt.Sprintf("node: Task called on %v locator", l.kind))
	}
	return l.task
}

// Cell returns the cell id of a KindTaskCell locator.
// Panics on any other variant.
func (l Locator) Cell() CellID {
	if l.kind != KindTaskCell {
		panic(fmt.Sprintf("node: Cell called on %v locator", l.kind))
	}
	return l.cell
}

// Execution returns the owning execution id of a KindLocalCell locator.
// Panics on any other variant.
func (l Locator) Execution() ExecutionID {
	if l.kind != KindLocalCell {
		panic(fmt.Sprintf("node: Execution called on %v locator", l.kind))
	}
	return l.execution
}

// LocalCell returns the local cell index of a KindLocalCell locator.
// Panics on any other variant.
func (l Locator) LocalCell() LocalCellID {
	if l.kind != KindLocalCell {
		panic(fmt.Sprintf("node: LocalCell called on %v locator", l.kind))
	}
	return l.localCell
}

// String formats the locator for logs and error text.
func (l Locator) String() string {
	switch l.kind {
	case KindTaskOutput:
		return fmt.Sprintf("output(%s)", l.task)
	case KindTaskCell:
		return fmt.Sprintf("cell(%s, %s)", l.task, l.cell)
	case KindLocalCell:
		return fmt.Sprintf("local(%s, %d)", l.execution, l.localCell)
	default:
		return "invalid"
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTaskOutput:
		return "task-output"
	case KindTaskCell:
		return "task-cell"
	case KindLocalCell:
		return "local-cell"
	default:
		return "invalid"
	}
}
