package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// presetScene renders a built-in preset without caching.
func presetScene(t *testing.T, key string) *diagram.Scene {
	t.Helper()
	text, err := presets.Text(key)
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
	res, err := runner.Execute(context.Background(), []byte(text), pipeline.Options{
		Formats: []string{pipeline.FormatASCII},
	})
	if err != nil {
		t.Fatal(err)
	}
	return res.Scene
}

func TestScheduleTable(t *testing.T) {
	sc := presetScene(t, "roadvision")
	out := scheduleTable(sc, animate.DefaultTiming)

	for _, want := range []string{"input → cnn", "mlp → softmax", "320ms", "920ms", "total 920ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("schedule table missing %q:\n%s", want, out)
		}
	}
}

func TestLineSink(t *testing.T) {
	sc := presetScene(t, "mlp")
	var buf bytes.Buffer
	s := newLineSink(sc, &buf)

	s.On(0)
	s.Off(0)
	s.Clear()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "●") || !strings.Contains(lines[0], "x → h1") {
		t.Errorf("on line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "○") {
		t.Errorf("off line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "cancelled") {
		t.Errorf("clear line = %q", lines[2])
	}
}

func TestPlayPulse(t *testing.T) {
	sc := presetScene(t, "mlp")
	var buf bytes.Buffer
	timing := animate.Timing{Stagger: time.Millisecond, Duration: 2 * time.Millisecond}

	if err := playPulse(context.Background(), sc, timing, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if got := strings.Count(out, "●"); got != len(sc.Connectors) {
		t.Errorf("got %d highlights, want %d:\n%s", got, len(sc.Connectors), out)
	}
	if got := strings.Count(out, "○"); got != len(sc.Connectors) {
		t.Errorf("got %d releases, want %d", got, len(sc.Connectors))
	}
}

func TestPlayPulseCancelled(t *testing.T) {
	sc := presetScene(t, "mlp")
	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := playPulse(ctx, sc, animate.Timing{Stagger: time.Second, Duration: time.Second}, &buf)
	if err == nil {
		t.Fatal("expected the context error")
	}
	if !strings.Contains(buf.String(), "cancelled") {
		t.Errorf("cancelled run should clear its highlights:\n%s", buf.String())
	}
}

func TestAnimateCommandNeedsInput(t *testing.T) {
	c := newTestCLI(t)
	if _, err := execute(t, c, "animate"); err == nil {
		t.Error("expected an error without file or preset")
	}
}
