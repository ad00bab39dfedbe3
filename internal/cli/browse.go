package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	paneStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore presets interactively in the terminal",
		Long: `Browse the preset catalog: pick a preset to see its layered table, step
through its nodes to inspect shapes, notes and connectors, and press p to
play the forward pulse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) {
				return fmt.Errorf("browse needs an interactive terminal")
			}
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			m := NewBrowseModel(cmd.Context(), cat, c.Config.Preset, c.Config.Pulse, c.renderFunc(runner))
			defer m.Close()
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// renderFunc draws through runner with the configured geometry. Pipeline
// logging is discarded while the alternate screen is active.
func (c *CLI) renderFunc(runner *pipeline.Runner) RenderFunc {
	return func(ctx context.Context, key, text string) (*pipeline.Result, error) {
		opts := c.pipelineOptions(key)
		opts.Formats = []string{pipeline.FormatASCII}
		opts.Logger = nil
		return runner.Execute(ctx, []byte(text), opts)
	}
}

// =============================================================================
// BrowseModel - Interactive preset browser
// =============================================================================

// RenderFunc draws the description text of a preset.
type RenderFunc func(ctx context.Context, key, text string) (*pipeline.Result, error)

type browseFocus int

const (
	focusPresets browseFocus = iota
	focusNodes
)

// renderedMsg carries a finished render.
type renderedMsg struct {
	key string
	res *pipeline.Result
	err error
}

// pulseMsg reports a highlight change of pulse run. A negative index clears
// all highlights.
type pulseMsg struct {
	run   int
	index int
	on    bool
}

// pulseDoneMsg reports the end of pulse run.
type pulseDoneMsg struct{ run int }

// BrowseModel is the bubbletea model of the preset browser.
type BrowseModel struct {
	ctx     context.Context
	cat     *presets.Catalog
	entries []presets.Entry
	render  RenderFunc

	Cursor int // selected preset
	Node   int // selected box of the current scene
	Focus  browseFocus

	Key    string
	Result *pipeline.Result
	Err    error

	Lit map[int]bool // connectors highlighted by the pulse

	ctrl   *animate.Controller
	run    int
	events chan tea.Msg
}

// NewBrowseModel creates a browser over cat with selected preselected.
func NewBrowseModel(ctx context.Context, cat *presets.Catalog, selected string, t animate.Timing, render RenderFunc) *BrowseModel {
	m := &BrowseModel{
		ctx:     ctx,
		cat:     cat,
		entries: cat.Entries(),
		render:  render,
		Lit:     map[int]bool{},
		ctrl:    animate.NewController(t),
		events:  make(chan tea.Msg, 64),
	}
	for i, e := range m.entries {
		if e.Key == selected {
			m.Cursor = i
		}
	}
	return m
}

// Close stops a running pulse.
func (m *BrowseModel) Close() {
	m.ctrl.Cancel()
}

func (m *BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitPulse())
}

// load renders the preset under the cursor.
func (m *BrowseModel) load() tea.Cmd {
	if len(m.entries) == 0 {
		return nil
	}
	key := m.entries[m.Cursor].Key
	render, ctx, cat := m.render, m.ctx, m.cat
	return func() tea.Msg {
		text, err := cat.Text(key)
		if err != nil {
			return renderedMsg{key: key, err: err}
		}
		res, err := render(ctx, key, text)
		return renderedMsg{key: key, res: res, err: err}
	}
}

// waitPulse delivers the next pulse event. Exactly one waiter is pending
// while the program runs.
func (m *BrowseModel) waitPulse() tea.Cmd {
	events := m.events
	return func() tea.Msg { return <-events }
}

func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case renderedMsg:
		if len(m.entries) == 0 || msg.key != m.entries[m.Cursor].Key {
			return m, nil
		}
		m.Key, m.Result, m.Err = msg.key, msg.res, msg.err
		m.Node = 0
		if m.scene() == nil || len(m.scene().Boxes) == 0 {
			m.Focus = focusPresets
		}
		clear(m.Lit)
	case pulseMsg:
		if msg.run == m.run {
			switch {
			case msg.index < 0:
				clear(m.Lit)
			case msg.on:
				m.Lit[msg.index] = true
			default:
				delete(m.Lit, msg.index)
			}
		}
		return m, m.waitPulse()
	case pulseDoneMsg:
		if msg.run == m.run {
			clear(m.Lit)
		}
		return m, m.waitPulse()
	}
	return m, nil
}

func (m *BrowseModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.Close()
		return tea.Quit
	case "tab":
		if sc := m.scene(); m.Focus == focusPresets && sc != nil && len(sc.Boxes) > 0 {
			m.Focus = focusNodes
		} else {
			m.Focus = focusPresets
		}
	case "up", "k":
		return m.move(-1)
	case "down", "j":
		return m.move(1)
	case "p":
		m.pulse()
	}
	return nil
}

// move shifts the cursor of the focused pane.
func (m *BrowseModel) move(delta int) tea.Cmd {
	if m.Focus == focusNodes {
		if sc := m.scene(); sc != nil && len(sc.Boxes) > 0 {
			m.Node = clamp(m.Node+delta, 0, len(sc.Boxes)-1)
		}
		return nil
	}
	if len(m.entries) == 0 {
		return nil
	}
	next := clamp(m.Cursor+delta, 0, len(m.entries)-1)
	if next == m.Cursor {
		return nil
	}
	m.Cursor = next
	m.Close()
	m.run++
	clear(m.Lit)
	return m.load()
}

// pulse starts a forward pulse over the current scene, cancelling the
// previous one.
func (m *BrowseModel) pulse() {
	sc := m.scene()
	if sc == nil || len(sc.Connectors) == 0 {
		return
	}
	m.ctrl.Cancel()
	m.run++
	clear(m.Lit)
	sink := &chanSink{run: m.run, events: m.events}
	done := m.ctrl.Start(m.ctx, len(sc.Connectors), sink)
	go func() {
		<-done
		sink.send(pulseDoneMsg{run: sink.run})
	}()
}

func (m *BrowseModel) scene() *diagram.Scene {
	if m.Result == nil {
		return nil
	}
	return m.Result.Scene
}

func (m *BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("nnviz presets"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab switch pane  p pulse  q quit"))
	b.WriteString("\n\n")

	left := m.presetList()
	right := m.diagramView()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(left), " ", right))
	b.WriteString("\n")
	if info := m.nodeView(); info != "" {
		b.WriteString(paneStyle.Render(info))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *BrowseModel) presetList() string {
	var b strings.Builder
	for i, e := range m.entries {
		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
			if m.Focus != focusPresets {
				style = style.Foreground(colorGray)
			}
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-12s", cursor, e.Key)))
		b.WriteString(listDimStyle.Render(" " + e.Graph.DisplayName()))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("[%d/%d]", min(m.Cursor+1, len(m.entries)), len(m.entries))))
	return b.String()
}

// diagramView shows the layered table with the pulse state of every
// connector.
func (m *BrowseModel) diagramView() string {
	switch {
	case m.Err != nil:
		return StyleWarning.Render(fmt.Sprintf("%s %v", iconWarning, m.Err))
	case m.Result == nil:
		return listDimStyle.Render("rendering…")
	}

	var b strings.Builder
	b.WriteString(tableOnly(string(m.Result.Artifacts[pipeline.FormatASCII])))
	b.WriteString("\n")
	selected := m.selectedID()
	for _, c := range m.Result.Scene.Connectors {
		mark, style := "○", listDimStyle
		switch {
		case m.Lit[c.Index]:
			mark, style = "●", stylePulse
		case m.Focus == focusNodes && c.Touches(selected):
			mark, style = "◆", StyleHighlight
		}
		b.WriteString(style.Render(fmt.Sprintf("%s %s %s %s", mark, c.From, iconArrow, c.To)))
		b.WriteString("\n")
	}
	return b.String()
}

// nodeView shows the hover panel for the selected node.
func (m *BrowseModel) nodeView() string {
	if m.Focus != focusNodes {
		return ""
	}
	sc := m.scene()
	if sc == nil {
		return ""
	}
	info, ok := sc.Info(m.selectedID())
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(info.Title))
	b.WriteString("\n")
	for _, row := range info.Rows() {
		b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-6s", row[0])), StyleValue.Render(row[1])))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *BrowseModel) selectedID() string {
	sc := m.scene()
	if sc == nil || m.Node >= len(sc.Boxes) {
		return ""
	}
	return sc.Boxes[m.Node].ID
}

// tableOnly strips the connector list RenderASCII appends after the table.
func tableOnly(ascii string) string {
	lines := strings.Split(strings.TrimRight(ascii, "\n"), "\n")
	end := len(lines)
	for end > 0 && strings.HasPrefix(lines[end-1], "  ") {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

// chanSink forwards highlight changes of one pulse run to the program.
type chanSink struct {
	run    int
	events chan<- tea.Msg
}

func (s *chanSink) On(i int)  { s.send(pulseMsg{run: s.run, index: i, on: true}) }
func (s *chanSink) Off(i int) { s.send(pulseMsg{run: s.run, index: i}) }
func (s *chanSink) Clear()    { s.send(pulseMsg{run: s.run, index: -1}) }

// send drops the message when nobody reads, e.g. after the program quit.
func (s *chanSink) send(msg tea.Msg) {
	select {
	case s.events <- msg:
	default:
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
