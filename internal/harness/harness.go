package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/cellgraph/internal/cell"
	"github.com/roach88/cellgraph/internal/compiler"
	"github.com/roach88/cellgraph/internal/engine"
	"github.com/roach88/cellgraph/internal/value"
)

// Result is the outcome of executing a graph: one rendered output per
// declared task plus the deduplicated diagnostic messages aggregated
// from the whole run.
type Result struct {
	Graph       string         `json:"graph"`
	Outputs     map[string]any `json:"outputs"`
	Diagnostics []string       `json:"diagnostics"`
}

// kind is a task's statically inferred result type.
type kind int

const (
	kindNumber kind = iota
	kindText
)

// Execute runs a compiled graph on the engine and collects its outputs.
// The graph is validated first; every declared task becomes a memoized
// engine task, so tasks referenced from several places run once.
func Execute(ctx context.Context, eng *engine.Engine, spec *compiler.GraphSpec) (*Result, error) {
	if verrs := compiler.Validate(spec); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("invalid graph %q: %w", spec.Name, errors.Join(errs...))
	}

	kinds, err := inferKinds(spec)
	if err != nil {
		return nil, err
	}

	ctx, release := eng.RootContext(ctx)
	defer release()

	r := &runner{spec: spec}
	result := &Result{
		Graph:       spec.Name,
		Outputs:     make(map[string]any, len(spec.Tasks)),
		Diagnostics: []string{},
	}
	seen := make(map[string]struct{})

	for _, t := range spec.Tasks {
		slog.Debug("executing graph task", "graph", spec.Name, "task", t.Name)
		switch kinds[t.Name] {
		case kindNumber:
			ref, err := r.number(ctx, t.Name)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
			rr, err := cell.ReadStronglyConsistent(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
			result.Outputs[t.Name] = rr.Value().Value
			if err := peekDiagnostics(ctx, ref, seen); err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
		case kindText:
			ref, err := r.text(ctx, t.Name)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
			rr, err := cell.ReadStronglyConsistent(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
			result.Outputs[t.Name] = rr.Value().Value
			if err := peekDiagnostics(ctx, ref, seen); err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Name, err)
			}
		}
	}

	for msg := range seen {
		result.Diagnostics = append(result.Diagnostics, msg)
	}
	sort.Strings(result.Diagnostics)

	slog.Info("graph executed",
		"graph", spec.Name, "tasks", len(spec.Tasks), "diagnostics", len(result.Diagnostics))
	return result, nil
}

// runner executes one graph's tasks against the backend in the context.
type runner struct {
	spec *compiler.GraphSpec
}

// taskArgs builds the canonical spawn arguments for a task, which double
// as its memoization identity.
func (r *runner) taskArgs(name string) value.Object {
	return value.Object{
		"graph": value.String(r.spec.Name),
		"task":  value.String(name),
	}
}

// number spawns the engine task computing a number-kinded graph task.
func (r *runner) number(ctx context.Context, name string) (cell.Ref[Number], error) {
	t, ok := r.spec.Task(name)
	if !ok {
		return cell.Ref[Number]{}, fmt.Errorf("undeclared task %q", name)
	}
	spawnName := r.spec.Name + "." + name
	return cell.Spawn(ctx, spawnName, r.taskArgs(name), func(ctx context.Context) (cell.Ref[Number], error) {
		switch t.Op {
		case compiler.OpLiteral:
			return cell.New(ctx, Number{Value: *t.IntValue})
		case compiler.OpSum:
			var total int64
			for _, in := range t.Inputs {
				ref, err := r.number(ctx, in)
				if err != nil {
					return cell.Ref[Number]{}, err
				}
				rr, err := cell.Read(ctx, ref)
				if err != nil {
					return cell.Ref[Number]{}, err
				}
				total += rr.Value().Value
			}
			return cell.New(ctx, Number{Value: total})
		case compiler.OpEmit:
			ref, err := r.number(ctx, t.Inputs[0])
			if err != nil {
				return cell.Ref[Number]{}, err
			}
			if err := cell.Emit(ctx, cell.Upcast[Diagnostic](ref)); err != nil {
				return cell.Ref[Number]{}, err
			}
			return ref, nil
		default:
			return cell.Ref[Number]{}, fmt.Errorf("op %q cannot produce a number", t.Op)
		}
	})
}

// text spawns the engine task computing a text-kinded graph task.
func (r *runner) text(ctx context.Context, name string) (cell.Ref[Text], error) {
	t, ok := r.spec.Task(name)
	if !ok {
		return cell.Ref[Text]{}, fmt.Errorf("undeclared task %q", name)
	}
	spawnName := r.spec.Name + "." + name
	return cell.Spawn(ctx, spawnName, r.taskArgs(name), func(ctx context.Context) (cell.Ref[Text], error) {
		switch t.Op {
		case compiler.OpLiteral:
			return cell.New(ctx, Text{Value: *t.TextValue})
		case compiler.OpConcat:
			var joined string
			for _, in := range t.Inputs {
				ref, err := r.text(ctx, in)
				if err != nil {
					return cell.Ref[Text]{}, err
				}
				rr, err := cell.Read(ctx, ref)
				if err != nil {
					return cell.Ref[Text]{}, err
				}
				joined += rr.Value().Value
			}
			return cell.New(ctx, Text{Value: joined})
		case compiler.OpEmit:
			ref, err := r.text(ctx, t.Inputs[0])
			if err != nil {
				return cell.Ref[Text]{}, err
			}
			if err := cell.Emit(ctx, cell.Upcast[Diagnostic](ref)); err != nil {
				return cell.Ref[Text]{}, err
			}
			return ref, nil
		default:
			return cell.Ref[Text]{}, fmt.Errorf("op %q cannot produce text", t.Op)
		}
	})
}

// peekDiagnostics merges the diagnostic messages visible below ref into
// seen. Peek (not take) keeps the collectibles in place so every
// declared task observes the same aggregate.
func peekDiagnostics[T any](ctx context.Context, ref cell.Ref[T], seen map[string]struct{}) error {
	set, err := cell.PeekCollectibles[Diagnostic](ctx, ref)
	if err != nil {
		return err
	}
	for d := range set {
		rd, err := cell.Read(ctx, d)
		if err != nil {
			return err
		}
		seen[rd.Value().Message()] = struct{}{}
	}
	return nil
}

// inferKinds computes the result kind of every declared task. Emit
// tasks inherit the kind of their single input; literal kind follows
// the carried value. The graph is already validated, so unknown inputs
// and cycles cannot occur here.
func inferKinds(spec *compiler.GraphSpec) (map[string]kind, error) {
	kinds := make(map[string]kind, len(spec.Tasks))
	var infer func(name string) (kind, error)
	infer = func(name string) (kind, error) {
		if k, ok := kinds[name]; ok {
			return k, nil
		}
		t, ok := spec.Task(name)
		if !ok {
			return 0, fmt.Errorf("undeclared task %q", name)
		}
		var k kind
		switch t.Op {
		case compiler.OpLiteral:
			if t.IntValue != nil {
				k = kindNumber
			} else {
				k = kindText
			}
		case compiler.OpSum:
			for _, in := range t.Inputs {
				ik, err := infer(in)
				if err != nil {
					return 0, err
				}
				if ik != kindNumber {
					return 0, fmt.Errorf("sum task %q: input %q is not a number", name, in)
				}
			}
			k = kindNumber
		case compiler.OpConcat:
			for _, in := range t.Inputs {
				ik, err := infer(in)
				if err != nil {
					return 0, err
				}
				if ik != kindText {
					return 0, fmt.Errorf("concat task %q: input %q is not text", name, in)
				}
			}
			k = kindText
		case compiler.OpEmit:
			ik, err := infer(t.Inputs[0])
			if err != nil {
				return 0, err
			}
			k = ik
		default:
			return 0, fmt.Errorf("unknown op %q", t.Op)
		}
		kinds[name] = k
		return k, nil
	}
	for _, t := range spec.Tasks {
		if _, err := infer(t.Name); err != nil {
			return nil, err
		}
	}
	return kinds, nil
}
