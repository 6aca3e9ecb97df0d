package engine

import "errors"

// ErrInvalidLocalRef is returned when a local cell locator is used from an
// execution other than the one that created it. Local cells are valid
// only within their originating execution; crossing an execution boundary
// requires the resolution upgrade path.
var ErrInvalidLocalRef = errors.New("local cell referenced from foreign execution")

// ErrNoExecution is returned by operations that require a current task
// execution (cell creation, collectible emission) when the context does
// not carry one.
var ErrNoExecution = errors.New("no task execution in context")

// ErrUnknownTask is returned when a locator references a task id the
// engine has never assigned.
var ErrUnknownTask = errors.New("unknown task")
