package graph

import (
	"fmt"
	"strings"
)

// DiagnosticKind classifies a problem found by [Check].
type DiagnosticKind string

const (
	DiagDuplicateID DiagnosticKind = "duplicate_id"
	DiagDangling    DiagnosticKind = "dangling_edge"
	DiagSelfLoop    DiagnosticKind = "self_loop"
	DiagCycle       DiagnosticKind = "cycle"
)

// Diagnostic is an informational finding about a description.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Nodes   []string       `json:"nodes,omitempty"`
	Edge    *Edge          `json:"edge,omitempty"`
}

func (d Diagnostic) String() string { return string(d.Kind) + ": " + d.Message }

// Check inspects g and reports semantic problems. The layout engine accepts
// every description regardless of the result.
func Check(g Graph) []Diagnostic {
	var out []Diagnostic

	declared := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		declared[n.ID]++
		if declared[n.ID] == 2 {
			out = append(out, Diagnostic{
				Kind:    DiagDuplicateID,
				Message: fmt.Sprintf("node %q is declared more than once", n.ID),
				Nodes:   []string{n.ID},
			})
		}
	}

	for i := range g.Edges {
		e := g.Edges[i]
		if e.From == e.To {
			out = append(out, Diagnostic{
				Kind:    DiagSelfLoop,
				Message: fmt.Sprintf("edge %s points at its own source", e),
				Nodes:   []string{e.From},
				Edge:    &e,
			})
		}
		for _, id := range []string{e.From, e.To} {
			if declared[id] == 0 {
				out = append(out, Diagnostic{
					Kind:    DiagDangling,
					Message: fmt.Sprintf("edge %s references undeclared node %q", e, id),
					Nodes:   []string{id},
					Edge:    &e,
				})
				break
			}
		}
	}

	for _, cycle := range findCycles(g) {
		out = append(out, Diagnostic{
			Kind:    DiagCycle,
			Message: "cycle " + strings.Join(cycle, " → "),
			Nodes:   cycle,
		})
	}
	return out
}

// HasCycle reports whether the edges of g contain a cycle of length > 1.
func HasCycle(g Graph) bool { return len(findCycles(g)) > 0 }

// findCycles runs a coloured DFS over declared nodes in declaration order and
// returns one path per back edge. Self loops are reported separately.
func findCycles(g Graph) [][]string {
	const (
		white = iota
		grey
		black
	)
	ids := g.IDs()
	declared := make(map[string]bool, len(ids))
	for _, id := range ids {
		declared[id] = true
	}
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		if e.From == e.To || !declared[e.From] || !declared[e.To] {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
	}

	color := make(map[string]int, len(ids))
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range adj[id] {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				cycle := append([]string{}, stack[start:]...)
				cycles = append(cycles, append(cycle, next))
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}
