package diagram

import "strings"

// Placeholder is shown in the info panel for an empty field.
const Placeholder = "-"

// NodeInfo is what the info panel and the tooltip display for a node.
type NodeInfo struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Shape   string `json:"shape"`
	Note    string `json:"note"`
	Tooltip string `json:"tooltip"`
}

// Rows returns the info panel rows in display order.
func (i NodeInfo) Rows() [][2]string {
	return [][2]string{{"Shape", i.Shape}, {"Note", i.Note}}
}

// Info returns the hover information for id.
func (s *Scene) Info(id string) (NodeInfo, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return NodeInfo{}, false
	}
	info := NodeInfo{
		ID:    n.ID,
		Title: n.Type + " — " + n.ID,
		Shape: orPlaceholder(n.Shape),
		Note:  orPlaceholder(n.Note),
	}

	lines := []string{n.Type}
	if n.Shape != "" {
		lines = append(lines, n.Shape)
	}
	if n.Note != "" {
		lines = append(lines, n.Note)
	}
	info.Tooltip = strings.Join(lines, "\n")
	return info, true
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
