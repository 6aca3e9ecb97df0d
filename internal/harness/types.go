package harness

import (
	"fmt"

	"github.com/roach88/cellgraph/internal/registry"
	"github.com/roach88/cellgraph/internal/value"
)

// Diagnostic is the trait emitted tasks attach their values under.
// Aggregated upward through the task subgraph via collectibles.
type Diagnostic interface {
	Message() string
}

// Number is an integer cell value. Shared mode: writing an equal number
// into a task's cells reuses the existing slot.
type Number struct {
	Value int64
}

// CanonicalValue implements value.Canonicalizer.
func (n Number) CanonicalValue() value.Value {
	return value.Object{"number": value.Int(n.Value)}
}

// Message implements Diagnostic.
func (n Number) Message() string {
	return fmt.Sprintf("number %d", n.Value)
}

// Text is a string cell value. Shared mode, like Number.
type Text struct {
	Value string
}

// CanonicalValue implements value.Canonicalizer.
func (t Text) CanonicalValue() value.Value {
	return value.Object{"text": value.String(t.Value)}
}

// Message implements Diagnostic.
func (t Text) Message() string {
	return fmt.Sprintf("text %q", t.Value)
}

// Registered ids for the demo vocabulary. Registration happens at
// package init; importing the harness is enough to make the types
// available to the registry-driven cast and collectible paths.
var (
	DiagnosticTrait = registry.MustRegisterTrait[Diagnostic]("diagnostic")
	NumberType      = registry.MustRegisterValueType[Number]("number", registry.ModeShared, DiagnosticTrait)
	TextType        = registry.MustRegisterValueType[Text]("text", registry.ModeShared, DiagnosticTrait)
)
