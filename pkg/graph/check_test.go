package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		g     Graph
		kinds []DiagnosticKind
	}{
		{
			name: "Clean",
			g: Graph{
				Nodes: []Node{{ID: "a"}, {ID: "b"}},
				Edges: []Edge{{From: "a", To: "b"}},
			},
		},
		{
			name: "Duplicate",
			g: Graph{
				Nodes: []Node{{ID: "a"}, {ID: "a"}, {ID: "a"}},
			},
			kinds: []DiagnosticKind{DiagDuplicateID},
		},
		{
			name: "Dangling",
			g: Graph{
				Nodes: []Node{{ID: "a"}},
				Edges: []Edge{{From: "a", To: "ghost"}, {From: "ghost", To: "a"}},
			},
			kinds: []DiagnosticKind{DiagDangling, DiagDangling},
		},
		{
			name: "SelfLoop",
			g: Graph{
				Nodes: []Node{{ID: "a"}},
				Edges: []Edge{{From: "a", To: "a"}},
			},
			kinds: []DiagnosticKind{DiagSelfLoop},
		},
		{
			name: "Cycle",
			g: Graph{
				Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
				Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}},
			},
			kinds: []DiagnosticKind{DiagCycle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var kinds []DiagnosticKind
			for _, d := range Check(tt.g) {
				kinds = append(kinds, d.Kind)
			}
			if diff := cmp.Diff(tt.kinds, kinds); diff != "" {
				t.Errorf("Check() kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckCyclePath(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "in"}, {ID: "a"}, {ID: "b"}},
		Edges: []Edge{{From: "in", To: "a"}, {From: "a", To: "b"}, {From: "b", To: "a"}},
	}
	diags := Check(g)
	if len(diags) != 1 {
		t.Fatalf("Check() = %v, want one cycle", diags)
	}
	if diff := cmp.Diff([]string{"a", "b", "a"}, diags[0].Nodes); diff != "" {
		t.Errorf("cycle path mismatch:\n%s", diff)
	}
	if !HasCycle(g) {
		t.Error("HasCycle() = false")
	}
}
