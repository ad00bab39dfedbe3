package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
)

func newTestBrowser(t *testing.T, selected string, timing animate.Timing) *BrowseModel {
	t.Helper()
	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
	render := func(ctx context.Context, key, text string) (*pipeline.Result, error) {
		return runner.Execute(ctx, []byte(text), pipeline.Options{
			Source:  key,
			Formats: []string{pipeline.FormatASCII},
		})
	}
	m := NewBrowseModel(context.Background(), presets.Builtin(), selected, timing, render)
	t.Cleanup(m.Close)
	return m
}

// step runs cmd synchronously and feeds its message back into m.
func step(t *testing.T, m *BrowseModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseLoadsSelectedPreset(t *testing.T) {
	m := newTestBrowser(t, "vit", animate.DefaultTiming)
	step(t, m, m.load())

	if m.Key != "vit" || m.Err != nil {
		t.Fatalf("loaded %q, err %v", m.Key, m.Err)
	}
	view := m.View()
	if !strings.Contains(view, "Patchify+Linear") {
		t.Errorf("view missing the vit table:\n%s", view)
	}
	if !strings.Contains(view, "img → patch") {
		t.Errorf("view missing connectors:\n%s", view)
	}
}

func TestBrowseNavigatesPresets(t *testing.T) {
	m := newTestBrowser(t, presets.Default, animate.DefaultTiming)
	step(t, m, m.load())

	_, cmd := m.Update(key("down"))
	step(t, m, cmd)
	if want := presets.Keys()[1]; m.Key != want {
		t.Errorf("after down: %q, want %q", m.Key, want)
	}

	_, cmd = m.Update(key("up"))
	step(t, m, cmd)
	if m.Key != presets.Default {
		t.Errorf("after up: %q, want %q", m.Key, presets.Default)
	}

	if _, cmd = m.Update(key("up")); cmd != nil {
		t.Error("moving above the first preset should do nothing")
	}
}

func TestBrowseStaleRenderIgnored(t *testing.T) {
	m := newTestBrowser(t, presets.Default, animate.DefaultTiming)
	stale := m.load()
	_, cmd := m.Update(key("down"))

	m.Update(stale())
	if m.Result != nil {
		t.Fatal("render of a preset no longer selected was applied")
	}
	step(t, m, cmd)
	if m.Result == nil {
		t.Fatal("current render was not applied")
	}
}

func TestBrowseNodeDetails(t *testing.T) {
	m := newTestBrowser(t, presets.Default, animate.DefaultTiming)
	step(t, m, m.load())

	m.Update(key("tab"))
	if m.Focus != focusNodes {
		t.Fatal("tab should focus the nodes pane")
	}
	for range 3 {
		m.Update(key("j"))
	}
	if got := m.selectedID(); got != "gru" {
		t.Fatalf("selected %q, want gru", got)
	}

	view := m.View()
	for _, want := range []string{"GRU — gru", "temporal modeling", "(T×H)", "◆ gap → gru", "◆ gru → mlp"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	for range 10 {
		m.Update(key("down"))
	}
	if got := m.selectedID(); got != "softmax" {
		t.Errorf("node cursor should stop at the last box, got %q", got)
	}

	m.Update(key("tab"))
	if m.Focus != focusPresets || strings.Contains(m.View(), "◆") {
		t.Error("tab should return to the presets pane and drop the node panel")
	}
}

func TestBrowsePulse(t *testing.T) {
	m := newTestBrowser(t, "mlp", animate.Timing{Stagger: time.Millisecond, Duration: 3 * time.Millisecond})
	step(t, m, m.load())

	m.Update(key("p"))
	wait := m.waitPulse()
	lit := 0
	deadline := time.After(2 * time.Second)
	for {
		msgs := make(chan tea.Msg, 1)
		go func() { msgs <- wait() }()
		var msg tea.Msg
		select {
		case msg = <-msgs:
		case <-deadline:
			t.Fatal("pulse did not finish")
		}
		if p, ok := msg.(pulseMsg); ok && p.on {
			lit++
		}
		m.Update(msg)
		if _, ok := msg.(pulseDoneMsg); ok {
			break
		}
	}
	if lit != len(m.Result.Scene.Connectors) {
		t.Errorf("lit %d connectors, want %d", lit, len(m.Result.Scene.Connectors))
	}
	if len(m.Lit) != 0 {
		t.Errorf("highlights left after the pulse: %v", m.Lit)
	}
}

func TestBrowseQuit(t *testing.T) {
	m := newTestBrowser(t, presets.Default, animate.DefaultTiming)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestTableOnly(t *testing.T) {
	in := "Name\n┌──┐\n│a │\n└──┘\n  a → b\n  b → c\n"
	if got, want := tableOnly(in), "Name\n┌──┐\n│a │\n└──┘"; got != want {
		t.Errorf("tableOnly() = %q, want %q", got, want)
	}
}
