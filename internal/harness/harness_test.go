package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellgraph/internal/compiler"
	"github.com/roach88/cellgraph/internal/engine"
)

func compile(t *testing.T, src string) *compiler.GraphSpec {
	t.Helper()
	spec, err := compiler.CompileSource("test.cue", src)
	require.NoError(t, err)
	return spec
}

func TestExecuteDemoGraph(t *testing.T) {
	spec := compile(t, `
graph: {
	name: "demo"
	tasks: [
		{name: "one", op: "literal", value: 1},
		{name: "two", op: "literal", value: 2},
		{name: "total", op: "sum", inputs: ["one", "two"]},
		{name: "hello", op: "literal", value: "hello "},
		{name: "world", op: "literal", value: "world"},
		{name: "greeting", op: "concat", inputs: ["hello", "world"]},
	]
}
`)

	result, err := Execute(context.Background(), engine.New(), spec)
	require.NoError(t, err)

	assert.Equal(t, "demo", result.Graph)
	assert.Equal(t, map[string]any{
		"one":      int64(1),
		"two":      int64(2),
		"total":    int64(3),
		"hello":    "hello ",
		"world":    "world",
		"greeting": "hello world",
	}, result.Outputs)
	assert.Empty(t, result.Diagnostics)
}

func TestExecuteEmitCollectsDiagnostics(t *testing.T) {
	spec := compile(t, `
graph: {
	name: "diag"
	tasks: [
		{name: "n", op: "literal", value: 7},
		{name: "s", op: "literal", value: "warn"},
		{name: "report_n", op: "emit", inputs: ["n"]},
		{name: "report_s", op: "emit", inputs: ["s"]},
	]
}
`)

	result, err := Execute(context.Background(), engine.New(), spec)
	require.NoError(t, err)

	// Emit passes its input through unchanged.
	assert.Equal(t, int64(7), result.Outputs["report_n"])
	assert.Equal(t, "warn", result.Outputs["report_s"])

	assert.Equal(t, []string{`number 7`, `text "warn"`}, result.Diagnostics)
}

func TestExecuteDiagnosticsDeduplicate(t *testing.T) {
	// The same value emitted through two paths yields one diagnostic.
	spec := compile(t, `
graph: {
	name: "dedup"
	tasks: [
		{name: "n", op: "literal", value: 5},
		{name: "a", op: "emit", inputs: ["n"]},
		{name: "b", op: "emit", inputs: ["n"]},
	]
}
`)

	result, err := Execute(context.Background(), engine.New(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"number 5"}, result.Diagnostics)
}

func TestExecuteSharedInputRunsOnce(t *testing.T) {
	spec := compile(t, `
graph: {
	name: "shared"
	tasks: [
		{name: "base", op: "literal", value: 10},
		{name: "double", op: "sum", inputs: ["base", "base"]},
		{name: "triple", op: "sum", inputs: ["base", "base", "base"]},
	]
}
`)

	eng := engine.New()
	result, err := Execute(context.Background(), eng, spec)
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.Outputs["double"])
	assert.Equal(t, int64(30), result.Outputs["triple"])

	var started int
	for _, ev := range eng.Trace() {
		if ev.Kind == "task-started" && ev.Name == "shared.base" {
			started++
		}
	}
	assert.Equal(t, 1, started, "a task referenced from several places runs once")
}

func TestExecuteInvalidGraphFails(t *testing.T) {
	spec := &compiler.GraphSpec{Name: "bad", Tasks: []compiler.TaskSpec{
		{Name: "a", Op: compiler.OpSum, Inputs: []string{"ghost"}},
	}}

	_, err := Execute(context.Background(), engine.New(), spec)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid graph")
}

func TestExecuteMixedKindSumFails(t *testing.T) {
	spec := compile(t, `
graph: {
	name: "mixed"
	tasks: [
		{name: "n", op: "literal", value: 1},
		{name: "s", op: "literal", value: "x"},
		{name: "bad", op: "sum", inputs: ["n", "s"]},
	]
}
`)

	_, err := Execute(context.Background(), engine.New(), spec)
	require.Error(t, err)
	assert.ErrorContains(t, err, "is not a number")
}

func TestExecuteEmitOfEmit(t *testing.T) {
	spec := compile(t, `
graph: {
	name: "chain"
	tasks: [
		{name: "n", op: "literal", value: 3},
		{name: "inner", op: "emit", inputs: ["n"]},
		{name: "outer", op: "emit", inputs: ["inner"]},
	]
}
`)

	result, err := Execute(context.Background(), engine.New(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Outputs["outer"])
	assert.Equal(t, []string{"number 3"}, result.Diagnostics)
}

func TestNumberAndTextMessages(t *testing.T) {
	assert.Equal(t, "number 42", Number{Value: 42}.Message())
	assert.Equal(t, `text "hi"`, Text{Value: "hi"}.Message())
}

func TestRegisteredVocabulary(t *testing.T) {
	assert.NotZero(t, DiagnosticTrait)
	assert.NotZero(t, NumberType)
	assert.NotZero(t, TextType)
}
