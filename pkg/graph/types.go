package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Graph is the canonical description of a network architecture.
// Nodes and Edges keep their declaration order.
type Graph struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one layer of the network.
type Node struct {
	ID    string `json:"id" bson:"id"`
	Type  string `json:"type" bson:"type"`
	Shape string `json:"shape,omitempty" bson:"shape,omitempty"`
	Note  string `json:"note,omitempty" bson:"note,omitempty"`
}

// Edge is a directed connection from one node id to another.
// On the wire it is a two-element array: ["from", "to"].
type Edge struct {
	From string `bson:"from"`
	To   string `bson:"to"`
}

// MarshalJSON encodes the edge as a two-element array.
func (e Edge) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([2]string{e.From, e.To}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a two-element array of strings.
// Any other arity or element type is an error.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("edge must be a [source, target] array: %v", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("edge must have exactly 2 elements, got %d", len(pair))
	}
	var from, to string
	if err := json.Unmarshal(pair[0], &from); err != nil {
		return fmt.Errorf("edge source must be a string: %v", err)
	}
	if err := json.Unmarshal(pair[1], &to); err != nil {
		return fmt.Errorf("edge target must be a string: %v", err)
	}
	e.From, e.To = from, to
	return nil
}

// String returns "from→to".
func (e Edge) String() string { return e.From + "→" + e.To }

// NodeCount returns the number of declared nodes, duplicates included.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of declared edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// Node returns the first node declared with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// IDs returns the distinct node ids in declaration order.
func (g Graph) IDs() []string {
	seen := make(map[string]bool, len(g.Nodes))
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		ids = append(ids, n.ID)
	}
	return ids
}

// Parents returns, for every edge target, the sources of all edges pointing at
// it in declaration order.
func (g Graph) Parents() map[string][]string {
	parents := make(map[string][]string)
	for _, e := range g.Edges {
		parents[e.To] = append(parents[e.To], e.From)
	}
	return parents
}

// Children returns the targets of edges leaving id in declaration order.
func (g Graph) Children(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// DisplayName returns the graph name, or "untitled" when none is set.
func (g Graph) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return "untitled"
}
