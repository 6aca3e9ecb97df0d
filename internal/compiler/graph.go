// Package compiler parses CUE computation-graph definitions into the
// specs the harness executes on the engine.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Op is a task operation kind.
type Op string

const (
	// OpLiteral produces a constant value (int or string).
	OpLiteral Op = "literal"
	// OpSum adds its integer inputs.
	OpSum Op = "sum"
	// OpConcat joins its string inputs in declaration order.
	OpConcat Op = "concat"
	// OpEmit passes its single input through and attaches it as a
	// diagnostic collectible.
	OpEmit Op = "emit"
)

// TaskSpec is one declared task of a computation graph.
type TaskSpec struct {
	Name   string   `json:"name"`
	Op     Op       `json:"op"`
	Inputs []string `json:"inputs,omitempty"`

	// Literal payload; exactly one of these is set for OpLiteral.
	IntValue  *int64  `json:"int_value,omitempty"`
	TextValue *string `json:"text_value,omitempty"`
}

// GraphSpec is a compiled computation graph: a named DAG of tasks.
type GraphSpec struct {
	Name  string     `json:"name"`
	Tasks []TaskSpec `json:"tasks"`
}

// Task returns the spec with the given name.
func (g *GraphSpec) Task(name string) (TaskSpec, bool) {
	for _, t := range g.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskSpec{}, false
}

// CompileSource compiles CUE source text into a GraphSpec.
// The document must contain a top-level graph struct:
//
//	graph: {
//		name: "demo"
//		tasks: [
//			{name: "a", op: "literal", value: 1},
//			{name: "b", op: "sum", inputs: ["a", "a"]},
//		]
//	}
func CompileSource(filename, src string) (*GraphSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileGraph(v.LookupPath(cue.ParsePath("graph")))
}

// CompileGraph parses a CUE value into a GraphSpec.
// The CUE value should be the graph struct itself.
func CompileGraph(v cue.Value) (*GraphSpec, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "graph",
			Message: "graph struct is required",
			Pos:     v.Pos(),
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &GraphSpec{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Name = name

	tasksVal := v.LookupPath(cue.ParsePath("tasks"))
	if !tasksVal.Exists() {
		return nil, &CompileError{
			Field:   "tasks",
			Message: "at least one task is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := tasksVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		task, err := parseTask(iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Tasks = append(spec.Tasks, task)
	}
	if len(spec.Tasks) == 0 {
		return nil, &CompileError{
			Field:   "tasks",
			Message: "at least one task is required",
			Pos:     tasksVal.Pos(),
		}
	}

	return spec, nil
}

// parseTask parses a single task struct.
func parseTask(v cue.Value) (TaskSpec, error) {
	var task TaskSpec

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return task, &CompileError{
			Field:   "tasks.name",
			Message: "task name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return task, formatCUEError(err)
	}
	task.Name = name

	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return task, &CompileError{
			Field:   fmt.Sprintf("tasks.%s.op", name),
			Message: "op is required",
			Pos:     v.Pos(),
		}
	}
	op, err := opVal.String()
	if err != nil {
		return task, formatCUEError(err)
	}
	task.Op = Op(op)

	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if inputsVal.Exists() {
		inIter, err := inputsVal.List()
		if err != nil {
			return task, formatCUEError(err)
		}
		for inIter.Next() {
			in, err := inIter.Value().String()
			if err != nil {
				return task, formatCUEError(err)
			}
			task.Inputs = append(task.Inputs, in)
		}
	}

	// A literal's value may be an int or a string; which one decides the
	// cell type the harness creates.
	valueVal := v.LookupPath(cue.ParsePath("value"))
	if valueVal.Exists() {
		if n, err := valueVal.Int64(); err == nil {
			task.IntValue = &n
		} else if s, err := valueVal.String(); err == nil {
			task.TextValue = &s
		} else {
			return task, &CompileError{
				Field:   fmt.Sprintf("tasks.%s.value", name),
				Message: "value must be an int or a string",
				Pos:     valueVal.Pos(),
			}
		}
	}

	return task, nil
}

// CompileError is a graph definition error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
