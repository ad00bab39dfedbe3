package presets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
)

func TestKeys(t *testing.T) {
	want := []string{"roadvision", "mlp", "cnn", "vit", "auto"}
	if diff := cmp.Diff(want, Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if Keys()[0] != Default {
		t.Errorf("Default = %q, want first key", Default)
	}
}

func TestGetRoadVision(t *testing.T) {
	g, err := Get("roadvision")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.Name != "Road_Vision" {
		t.Errorf("Name = %q", g.Name)
	}
	wantIDs := []string{"input", "cnn", "gap", "gru", "mlp", "softmax"}
	if diff := cmp.Diff(wantIDs, g.IDs()); diff != "" {
		t.Errorf("IDs mismatch:\n%s", diff)
	}
	first := g.Nodes[0]
	if first.Shape != "(T×5×224×224)" || first.Note != "RGB+edge+mask (5‑ch)" {
		t.Errorf("input node = %+v", first)
	}
	if len(g.Edges) != 5 || g.Edges[4] != (graph.Edge{From: "mlp", To: "softmax"}) {
		t.Errorf("edges = %v", g.Edges)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	g, _ := Get("mlp")
	g.Nodes[0].ID = "mutated"
	g.Edges = g.Edges[:0]

	again, _ := Get("mlp")
	if again.Nodes[0].ID != "x" || len(again.Edges) != 3 {
		t.Errorf("catalog was mutated through Get: %+v", again)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("resnet")
	if !errors.Is(err, errors.ErrCodeUnknownPreset) {
		t.Errorf("Get(resnet) error = %v, want UNKNOWN_PRESET", err)
	}
	if _, err := Text("resnet"); err == nil {
		t.Error("Text(resnet) = nil error")
	}
}

func TestTextMatchesCanonical(t *testing.T) {
	for _, key := range Keys() {
		t.Run(key, func(t *testing.T) {
			g, err := Get(key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			text, err := Text(key)
			if err != nil {
				t.Fatalf("Text: %v", err)
			}
			canonical, _ := graph.Marshal(g)
			if text != string(canonical) {
				t.Errorf("Text differs from Marshal(Get)")
			}

			parsed, err := graph.Parse([]byte(text))
			if err != nil {
				t.Fatalf("Parse(Text): %v", err)
			}
			if diff := cmp.Diff(g, parsed); diff != "" {
				t.Errorf("preset round trip mismatch:\n%s", diff)
			}

			again, _ := Text(key)
			if again != text {
				t.Error("Text is not stable across calls")
			}
		})
	}
}

func TestTextMLP(t *testing.T) {
	text, err := Text("mlp")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := `{
  "name": "MLP",
  "nodes": [
    {
      "id": "x",
      "type": "Input",
      "shape": "(N×D)"
    },
    {
      "id": "h1",
      "type": "Dense+ReLU",
      "shape": "(N×128)"
    },
    {
      "id": "h2",
      "type": "Dense+ReLU",
      "shape": "(N×64)"
    },
    {
      "id": "y",
      "type": "Dense+Softmax",
      "shape": "(N×K)"
    }
  ],
  "edges": [
    [
      "x",
      "h1"
    ],
    [
      "h1",
      "h2"
    ],
    [
      "h2",
      "y"
    ]
  ]
}`
	if diff := cmp.Diff(want, text); diff != "" {
		t.Errorf("Text(mlp) mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Syntax", `[[preset]` + "\n"},
		{"BadKey", "[[preset]]\nkey = \"Bad Key\"\nname = \"x\"\n"},
		{"Duplicate", "[[preset]]\nkey = \"a\"\n[[preset]]\nkey = \"a\"\n"},
		{"EdgeArity", "[[preset]]\nkey = \"a\"\nedges = [[\"x\"]]\n"},
		{"UnknownField", "[[preset]]\nkey = \"a\"\ncolour = \"red\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.doc)); err == nil {
				t.Error("Load() = nil error")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	user, err := Load([]byte(`
[[preset]]
key = "mlp"
name = "My MLP"
edges = []

[[preset]]
key = "lstm"
name = "LSTM"
edges = [["x", "h"]]

  [[preset.nodes]]
  id = "x"
  type = "Input"

  [[preset.nodes]]
  id = "h"
  type = "LSTM"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	merged := Builtin().Merge(user)
	want := []string{"roadvision", "mlp", "cnn", "vit", "auto", "lstm"}
	if diff := cmp.Diff(want, merged.Keys()); diff != "" {
		t.Errorf("merged keys mismatch:\n%s", diff)
	}
	g, _ := merged.Get("mlp")
	if g.Name != "My MLP" {
		t.Errorf("mlp not replaced: %q", g.Name)
	}
	if orig, _ := Get("mlp"); orig.Name != "MLP" {
		t.Errorf("builtin catalog modified by Merge: %q", orig.Name)
	}
	e, err := merged.Lookup("lstm")
	if err != nil || len(e.Graph.Nodes) != 2 {
		t.Errorf("Lookup(lstm) = %+v, %v", e, err)
	}
}
