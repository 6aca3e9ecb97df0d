package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// validateAcyclic reports dependency cycles among the graph's tasks.
// Unlike reactive rule systems where cycles can be intentional, a
// computation graph must be a DAG: every cycle is an error.
//
// The algorithm builds the task → inputs edge set and runs Tarjan's
// strongly-connected-components search; every SCC of size > 1, plus
// self-loops, becomes one ValidationError naming the cycle path.
func validateAcyclic(spec *GraphSpec) []ValidationError {
	graph := make(map[string][]string, len(spec.Tasks))
	declared := make(map[string]bool, len(spec.Tasks))
	for _, t := range spec.Tasks {
		declared[t.Name] = true
	}
	for _, t := range spec.Tasks {
		edges := []string{}
		for _, in := range t.Inputs {
			// Unknown inputs are reported elsewhere; skip them here so one
			// mistake does not produce two errors.
			if declared[in] && in != t.Name {
				edges = append(edges, in)
			}
		}
		graph[t.Name] = edges
	}

	var errs []ValidationError
	for _, scc := range tarjanSCC(graph) {
		if len(scc) < 2 {
			continue
		}
		sort.Strings(scc)
		errs = append(errs, ValidationError{
			Field:   "tasks",
			Message: fmt.Sprintf("dependency cycle: %s", strings.Join(scc, " -> ")),
			Code:    ErrDependencyCycle,
		})
	}
	return errs
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not cycles and are filtered by
// the caller.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Iterate in sorted order so error output is deterministic.
	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, visited := indices[name]; !visited {
			strongConnect(name)
		}
	}

	return sccs
}
