package layout

import (
	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
)

// Frame is the logical canvas and its padding.
type Frame struct {
	Width  float64 `json:"width" koanf:"width"`
	Height float64 `json:"height" koanf:"height"`
	PadX   float64 `json:"pad_x" koanf:"pad_x"`
	PadY   float64 `json:"pad_y" koanf:"pad_y"`
}

// DefaultFrame is a 1200x675 canvas with 80/70 padding.
var DefaultFrame = Frame{Width: 1200, Height: 675, PadX: 80, PadY: 70}

// Validate checks that the frame has a positive drawable area.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidFrame, "frame must be positive, got %gx%g", f.Width, f.Height)
	}
	if f.PadX < 0 || f.PadY < 0 {
		return errors.New(errors.ErrCodeInvalidFrame, "padding must not be negative, got %g/%g", f.PadX, f.PadY)
	}
	if 2*f.PadX >= f.Width || 2*f.PadY >= f.Height {
		return errors.New(errors.ErrCodeInvalidFrame, "padding %g/%g leaves no room in %gx%g", f.PadX, f.PadY, f.Width, f.Height)
	}
	return nil
}

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout is the positioned result of [Place].
type Layout struct {
	Frame     Frame
	Layers    Layers
	Positions map[string]Point
	Column    map[string]int
}

// Position returns the centre point of id.
func (l Layout) Position(id string) (Point, bool) {
	p, ok := l.Positions[id]
	return p, ok
}

// ColumnSpacing returns the horizontal distance between adjacent columns.
func (l Layout) ColumnSpacing() float64 {
	return spacing(l.Frame.Width, l.Frame.PadX, len(l.Layers))
}

// Place computes the centre point of every id in layers.
func Place(layers Layers, f Frame) Layout {
	l := Layout{
		Frame:     f,
		Layers:    layers,
		Positions: make(map[string]Point, layers.Count()),
		Column:    make(map[string]int, layers.Count()),
	}

	colStep := spacing(f.Width, f.PadX, len(layers))
	for i, ids := range layers {
		x := f.PadX + float64(i)*colStep
		rowStep := spacing(f.Height, f.PadY, len(ids))
		for j, id := range ids {
			l.Positions[id] = Point{X: x, Y: f.PadY + float64(j)*rowStep}
			l.Column[id] = i
		}
	}
	return l
}

// Compute runs [Assign] then [Place].
func Compute(g graph.Graph, f Frame) Layout {
	return Place(Assign(g), f)
}

// spacing divides the padded extent into n-1 gaps; one item or none has no gap.
func spacing(extent, pad float64, n int) float64 {
	if n <= 1 {
		return 0
	}
	return (extent - 2*pad) / float64(n-1)
}
