package compiler

import (
	"fmt"
	"strings"
)

// Validation error codes (E100-E199)
const (
	ErrGraphNameEmpty  = "E100" // graph name is required
	ErrGraphNoTasks    = "E101" // at least one task required
	ErrDuplicateTask   = "E102" // duplicate task name
	ErrUnknownOp       = "E103" // op not in the supported set
	ErrUnknownInput    = "E104" // input references an undeclared task
	ErrLiteralValue    = "E105" // literal needs a value, others must not carry one
	ErrInputArity      = "E106" // wrong number of inputs for op
	ErrDependencyCycle = "E107" // task graph is not a DAG
	ErrSelfReference   = "E108" // task lists itself as an input
)

// ValidationError represents a graph validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled graph against structural rules.
// Returns all errors found (does not fail-fast).
func Validate(spec *GraphSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "graph name is required and must be non-empty",
			Code:    ErrGraphNameEmpty,
		})
	}

	if len(spec.Tasks) == 0 {
		errs = append(errs, ValidationError{
			Field:   "tasks",
			Message: "at least one task is required",
			Code:    ErrGraphNoTasks,
		})
		return errs
	}

	declared := make(map[string]bool)
	for i, task := range spec.Tasks {
		if declared[task.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tasks[%d].name", i),
				Message: fmt.Sprintf("duplicate task name: %q", task.Name),
				Code:    ErrDuplicateTask,
			})
		}
		declared[task.Name] = true
	}

	for i, task := range spec.Tasks {
		errs = append(errs, validateTask(i, task, declared)...)
	}

	errs = append(errs, validateAcyclic(spec)...)

	return errs
}

// validateTask checks one task's op, arity and input references.
func validateTask(i int, task TaskSpec, declared map[string]bool) []ValidationError {
	var errs []ValidationError
	field := func(sub string) string {
		return fmt.Sprintf("tasks[%d].%s", i, sub)
	}

	switch task.Op {
	case OpLiteral:
		if task.IntValue == nil && task.TextValue == nil {
			errs = append(errs, ValidationError{
				Field:   field("value"),
				Message: fmt.Sprintf("literal task %q must carry a value", task.Name),
				Code:    ErrLiteralValue,
			})
		}
		if len(task.Inputs) != 0 {
			errs = append(errs, ValidationError{
				Field:   field("inputs"),
				Message: fmt.Sprintf("literal task %q must not have inputs", task.Name),
				Code:    ErrInputArity,
			})
		}
	case OpSum, OpConcat:
		if len(task.Inputs) == 0 {
			errs = append(errs, ValidationError{
				Field:   field("inputs"),
				Message: fmt.Sprintf("%s task %q needs at least one input", task.Op, task.Name),
				Code:    ErrInputArity,
			})
		}
	case OpEmit:
		if len(task.Inputs) != 1 {
			errs = append(errs, ValidationError{
				Field:   field("inputs"),
				Message: fmt.Sprintf("emit task %q needs exactly one input", task.Name),
				Code:    ErrInputArity,
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   field("op"),
			Message: fmt.Sprintf("unknown op %q (want literal, sum, concat or emit)", task.Op),
			Code:    ErrUnknownOp,
		})
	}

	if task.Op != OpLiteral && (task.IntValue != nil || task.TextValue != nil) {
		errs = append(errs, ValidationError{
			Field:   field("value"),
			Message: fmt.Sprintf("%s task %q must not carry a value", task.Op, task.Name),
			Code:    ErrLiteralValue,
		})
	}

	for j, in := range task.Inputs {
		if in == task.Name {
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf("inputs[%d]", j)),
				Message: fmt.Sprintf("task %q lists itself as an input", task.Name),
				Code:    ErrSelfReference,
			})
			continue
		}
		if !declared[in] {
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf("inputs[%d]", j)),
				Message: fmt.Sprintf("input %q is not a declared task", in),
				Code:    ErrUnknownInput,
			})
		}
	}

	return errs
}
