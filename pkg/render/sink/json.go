package sink

import (
	"encoding/json"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	timing      *animate.Timing
	diagnostics []graph.Diagnostic
}

// WithJSONTiming records the pulse schedule for the emitted connectors.
func WithJSONTiming(t animate.Timing) JSONOption {
	return func(r *jsonRenderer) { r.timing = &t }
}

// WithJSONDiagnostics records the findings of [graph.Check].
func WithJSONDiagnostics(d []graph.Diagnostic) JSONOption {
	return func(r *jsonRenderer) { r.diagnostics = d }
}

// Export builds the serialized layout of a scene: positions from l, node
// data from g, and connector paths from sc.
func Export(sc *diagram.Scene, l layout.Layout, g graph.Graph, opts ...JSONOption) graph.Layout {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := l.Export(g)
	for _, c := range sc.Connectors {
		out.Edges[c.Edge].Path = c.Path
	}
	if r.timing != nil {
		n := len(sc.Connectors)
		out.Pulse = &graph.PulseTiming{
			StaggerMS:  r.timing.Stagger.Milliseconds(),
			DurationMS: r.timing.Duration.Milliseconds(),
			TotalMS:    r.timing.Total(n).Milliseconds(),
		}
	}
	out.Issues = r.diagnostics
	return out
}

// RenderJSON writes [Export] as indented JSON.
func RenderJSON(sc *diagram.Scene, l layout.Layout, g graph.Graph, opts ...JSONOption) ([]byte, error) {
	return json.MarshalIndent(Export(sc, l, g, opts...), "", "  ")
}
