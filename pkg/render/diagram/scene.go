package diagram

import (
	"strconv"
	"strings"

	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/layout"
)

// CurveFactor is the share of the horizontal distance used as the control
// point offset of a connector.
const CurveFactor = 0.6

// Style holds node box dimensions.
type Style struct {
	NodeWidth  float64 `json:"node_width" koanf:"width"`
	NodeHeight float64 `json:"node_height" koanf:"height"`
	Radius     float64 `json:"radius" koanf:"radius"`
}

// DefaultStyle is a 160x54 box with a corner radius of 10.
var DefaultStyle = Style{NodeWidth: 160, NodeHeight: 54, Radius: 10}

// Rect is an axis-aligned rectangle given by its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p layout.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Box is a node drawn as a rounded rectangle centred on its layout point.
type Box struct {
	ID       string
	Rect     Rect
	R        float64
	Center   layout.Point
	Label    string // node type, drawn at Center.Y-4
	Sublabel string // node shape, drawn at Center.Y+14
	Note     string
}

// LabelY returns the baseline of the primary label.
func (b Box) LabelY() float64 { return b.Center.Y - 4 }

// SublabelY returns the baseline of the secondary label.
func (b Box) SublabelY() float64 { return b.Center.Y + 14 }

// Connector is an edge drawn as a cubic Bezier between two node centres.
type Connector struct {
	Index int // position in emission order
	Edge  int // position in the graph's edge list
	From  string
	To    string
	A, B  layout.Point
	Path  string
}

// Touches reports whether id is the source or target of c.
func (c Connector) Touches(id string) bool { return c.From == id || c.To == id }

// Scene is the full set of primitives for one render.
type Scene struct {
	Name       string
	Frame      layout.Frame
	Style      Style
	Boxes      []Box
	Connectors []Connector
	Regions    map[string]Rect

	nodes map[string]graph.Node
}

// Build emits a Scene from g and its layout. Connectors follow edge
// declaration order and skip edges with an unplaced endpoint. Boxes follow
// node declaration order; repeated ids are drawn once.
func Build(g graph.Graph, l layout.Layout, s Style) *Scene {
	sc := &Scene{
		Name:    g.Name,
		Frame:   l.Frame,
		Style:   s,
		Regions: make(map[string]Rect, len(g.Nodes)),
		nodes:   make(map[string]graph.Node, len(g.Nodes)),
	}

	for i, e := range g.Edges {
		a, okA := l.Position(e.From)
		b, okB := l.Position(e.To)
		if !okA || !okB {
			continue
		}
		sc.Connectors = append(sc.Connectors, Connector{
			Index: len(sc.Connectors),
			Edge:  i,
			From:  e.From,
			To:    e.To,
			A:     a,
			B:     b,
			Path:  CurvePath(a, b),
		})
	}

	for _, n := range g.Nodes {
		if _, dup := sc.nodes[n.ID]; dup {
			continue
		}
		p, ok := l.Position(n.ID)
		if !ok {
			continue
		}
		sc.nodes[n.ID] = n
		r := Rect{X: p.X - s.NodeWidth/2, Y: p.Y - s.NodeHeight/2, W: s.NodeWidth, H: s.NodeHeight}
		sc.Regions[n.ID] = r
		sc.Boxes = append(sc.Boxes, Box{
			ID:       n.ID,
			Rect:     r,
			R:        s.Radius,
			Center:   p,
			Label:    n.Type,
			Sublabel: n.Shape,
			Note:     n.Note,
		})
	}
	return sc
}

// CurvePath returns the SVG path data of the connector from a to b:
// "M ax ay C ax+dx ay, bx-dx by, bx by" with dx = (bx-ax)*CurveFactor.
func CurvePath(a, b layout.Point) string {
	dx := (b.X - a.X) * CurveFactor
	var sb strings.Builder
	sb.WriteString("M ")
	sb.WriteString(num(a.X) + " " + num(a.Y))
	sb.WriteString(" C ")
	sb.WriteString(num(a.X+dx) + " " + num(a.Y) + ", ")
	sb.WriteString(num(b.X-dx) + " " + num(b.Y) + ", ")
	sb.WriteString(num(b.X) + " " + num(b.Y))
	return sb.String()
}

// num formats like a JavaScript number: shortest round-trip form, no exponent
// for the magnitudes a canvas uses.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Node returns the description of a drawn node.
func (s *Scene) Node(id string) (graph.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Box returns the box drawn for id.
func (s *Scene) Box(id string) (Box, bool) {
	for _, b := range s.Boxes {
		if b.ID == id {
			return b, true
		}
	}
	return Box{}, false
}

// HitTest returns the node under p. Later boxes are drawn on top, so they win.
func (s *Scene) HitTest(p layout.Point) (string, bool) {
	for i := len(s.Boxes) - 1; i >= 0; i-- {
		if s.Boxes[i].Rect.Contains(p) {
			return s.Boxes[i].ID, true
		}
	}
	return "", false
}

// Incident returns every connector whose source or target is id, in
// emission order.
func (s *Scene) Incident(id string) []Connector {
	var out []Connector
	for _, c := range s.Connectors {
		if c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}
