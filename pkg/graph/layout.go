package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// Layout is the serialization format for a positioned diagram.
// It is what the JSON sink writes and what the pipeline caches between the
// layout and render stages.
type Layout struct {
	Name   string  `json:"name,omitempty" bson:"name,omitempty"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	PadX   float64 `json:"pad_x" bson:"pad_x"`
	PadY   float64 `json:"pad_y" bson:"pad_y"`

	Layers [][]string   `json:"layers" bson:"layers"`
	Nodes  []PlacedNode `json:"nodes" bson:"nodes"`
	Edges  []PlacedEdge `json:"edges" bson:"edges"`
	Pulse  *PulseTiming `json:"pulse,omitempty" bson:"pulse,omitempty"`
	Issues []Diagnostic `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`
}

// PlacedNode is a node with its column and centre point.
type PlacedNode struct {
	Node  `bson:",inline"`
	Layer int     `json:"layer" bson:"layer"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
}

// PlacedEdge is an edge with its drawn path. Path is empty for edges whose
// endpoints were not placed.
type PlacedEdge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
	Path string `json:"path,omitempty" bson:"path,omitempty"`
}

// PulseTiming is the forward-pulse schedule in milliseconds.
type PulseTiming struct {
	StaggerMS  int64 `json:"stagger_ms" bson:"stagger_ms"`
	DurationMS int64 `json:"duration_ms" bson:"duration_ms"`
	TotalMS    int64 `json:"total_ms" bson:"total_ms"`
}

// Graph rebuilds the description a layout was computed from.
func (l Layout) Graph() Graph {
	g := Graph{
		Name:  l.Name,
		Nodes: make([]Node, len(l.Nodes)),
		Edges: make([]Edge, len(l.Edges)),
	}
	for i, n := range l.Nodes {
		g.Nodes[i] = n.Node
	}
	for i, e := range l.Edges {
		g.Edges[i] = Edge{From: e.From, To: e.To}
	}
	return g
}

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("layout must have a positive frame, got %gx%g", l.Width, l.Height)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
