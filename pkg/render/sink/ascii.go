package sink

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// RenderASCII draws one table column per layout column, top to bottom in
// row order, followed by the connector list. The output carries no colour.
func RenderASCII(sc *diagram.Scene, columns [][]string) string {
	headers := make([]string, len(columns))
	rows := 0
	for i, col := range columns {
		headers[i] = fmt.Sprintf("L%d", i)
		rows = max(rows, len(col))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for j := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if j < len(col) {
				cells[i] = cell(sc, col[j])
			}
		}
		t.Row(cells...)
	}

	var sb strings.Builder
	if sc.Name != "" {
		sb.WriteString(sc.Name + "\n")
	}
	if len(columns) > 0 {
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}
	for _, c := range sc.Connectors {
		fmt.Fprintf(&sb, "  %s → %s\n", c.From, c.To)
	}
	return sb.String()
}

func cell(sc *diagram.Scene, id string) string {
	b, ok := sc.Box(id)
	if !ok {
		return id
	}
	label := b.Label
	if label == "" {
		label = id
	} else if label != id {
		label += " (" + id + ")"
	}
	if b.Sublabel != "" {
		label += "\n" + b.Sublabel
	}
	return label
}
