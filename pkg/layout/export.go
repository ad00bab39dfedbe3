package layout

import (
	"fmt"

	"github.com/matzehuels/nnviz/pkg/graph"
)

// Export converts the layout into its serialization form. Nodes and edges
// keep the declaration order of g; duplicate node declarations are dropped.
func (l Layout) Export(g graph.Graph) graph.Layout {
	out := graph.Layout{
		Name:   g.Name,
		Width:  l.Frame.Width,
		Height: l.Frame.Height,
		PadX:   l.Frame.PadX,
		PadY:   l.Frame.PadY,
		Layers: make([][]string, len(l.Layers)),
		Nodes:  make([]graph.PlacedNode, 0, len(g.Nodes)),
		Edges:  make([]graph.PlacedEdge, len(g.Edges)),
	}
	for i, ids := range l.Layers {
		out.Layers[i] = append([]string{}, ids...)
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		p, ok := l.Positions[n.ID]
		if !ok || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out.Nodes = append(out.Nodes, graph.PlacedNode{
			Node:  n,
			Layer: l.Column[n.ID],
			X:     p.X,
			Y:     p.Y,
		})
	}
	for i, e := range g.Edges {
		out.Edges[i] = graph.PlacedEdge{From: e.From, To: e.To}
	}
	return out
}

// Parse rebuilds a Layout and its graph from the serialization form.
func Parse(gl graph.Layout) (Layout, graph.Graph, error) {
	f := Frame{Width: gl.Width, Height: gl.Height, PadX: gl.PadX, PadY: gl.PadY}
	if err := f.Validate(); err != nil {
		return Layout{}, graph.Graph{}, err
	}

	l := Layout{
		Frame:     f,
		Layers:    make(Layers, len(gl.Layers)),
		Positions: make(map[string]Point, len(gl.Nodes)),
		Column:    make(map[string]int, len(gl.Nodes)),
	}
	for i, ids := range gl.Layers {
		l.Layers[i] = append([]string{}, ids...)
	}
	for _, n := range gl.Nodes {
		if n.Layer < 0 || n.Layer >= len(gl.Layers) {
			return Layout{}, graph.Graph{}, fmt.Errorf("node %q: layer %d out of range", n.ID, n.Layer)
		}
		l.Positions[n.ID] = Point{X: n.X, Y: n.Y}
		l.Column[n.ID] = n.Layer
	}
	return l, gl.Graph(), nil
}
