package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/observability"
	"github.com/matzehuels/nnviz/pkg/presets"
	"github.com/matzehuels/nnviz/pkg/render"
)

const chain = `{
  "name": "chain",
  "nodes": [
    {"id": "x", "type": "Input", "shape": "(N×D)"},
    {"id": "h", "type": "Dense", "note": "hidden"},
    {"id": "y", "type": "Softmax"}
  ],
  "edges": [["x", "h"], ["h", "y"]]
}`

func newTestRunner() (*Runner, *cache.MemoryCache) {
	c := cache.NewMemoryCache()
	return NewRunner(c, nil, log.NewWithOptions(&bytes.Buffer{}, log.Options{})), c
}

func TestExecute(t *testing.T) {
	r, _ := newTestRunner()
	res, err := r.Execute(context.Background(), []byte(chain), Options{
		Formats: []string{FormatSVG, FormatJSON, FormatDOT, FormatASCII},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 2 || res.Stats.LayerCount != 3 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Scene.Connectors) != 2 || len(res.Scene.Boxes) != 3 {
		t.Errorf("scene has %d connectors, %d boxes", len(res.Scene.Connectors), len(res.Scene.Boxes))
	}
	for _, f := range []string{FormatSVG, FormatJSON, FormatDOT, FormatASCII} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("artifact %s is empty", f)
		}
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), `class="nnviz"`) {
		t.Error("svg artifact is not an nnviz diagram")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), "rankdir=LR") {
		t.Error("dot artifact lacks rankdir")
	}

	gl, err := graph.UnmarshalLayout(res.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if gl.Pulse == nil || gl.Pulse.TotalMS != 680 {
		t.Errorf("pulse = %+v, want total 680ms for two connectors", gl.Pulse)
	}
	if gl.Edges[0].Path != "M 80 70 C 392 70, 288 70, 600 70" {
		t.Errorf("first connector path = %q", gl.Edges[0].Path)
	}
}

func TestExecuteParseError(t *testing.T) {
	r, c := newTestRunner()
	_, err := r.Execute(context.Background(), []byte(`{"nodes": [`), Options{})

	var pe *graph.ParseError
	if !stderrors.As(err, &pe) {
		t.Fatalf("error = %v, want *graph.ParseError", err)
	}
	if c.Len() != 0 {
		t.Error("a failed parse must not write to the cache")
	}
}

func TestExecuteCaches(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()
	opts := Options{Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, []byte(chain), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	// Reformatted text is the same description.
	compact := strings.Join(strings.Fields(chain), " ")
	second, err := r.Execute(ctx, []byte(compact), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash || second.LayoutHash != first.LayoutHash {
		t.Error("hashes differ for the same description")
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}

	// A new format on the same layout renders only what is missing.
	third, err := r.Execute(ctx, []byte(chain), Options{Formats: []string{FormatSVG, FormatASCII}})
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("partial hit: %+v", third.CacheInfo)
	}

	refreshed, err := r.Execute(ctx, []byte(chain), Options{Formats: []string{FormatSVG}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LayoutHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass reads: %+v", refreshed.CacheInfo)
	}
}

func TestExecuteFrameChangesLayout(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()

	a, err := r.Execute(ctx, []byte(chain), Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(ctx, []byte(chain), Options{Frame: a.Layout.Frame})
	if err != nil {
		t.Fatal(err)
	}
	if !b.CacheInfo.LayoutHit {
		t.Error("same frame should hit")
	}

	wide := a.Layout.Frame
	wide.Width = 2000
	c, err := r.Execute(ctx, []byte(chain), Options{Frame: wide})
	if err != nil {
		t.Fatal(err)
	}
	if c.CacheInfo.LayoutHit {
		t.Error("different frame should miss")
	}
	if p, _ := c.Layout.Position("y"); p.X != 1920 {
		t.Errorf("y.X = %v, want 1920", p.X)
	}
}

func TestExecuteDiagnostics(t *testing.T) {
	r, _ := newTestRunner()
	text := `{"nodes":[{"id":"a","type":"A"},{"id":"b","type":"B"}],"edges":[["a","b"],["b","a"],["a","ghost"]]}`
	res, err := r.Execute(context.Background(), []byte(text), Options{
		Formats:     []string{FormatJSON},
		Diagnostics: true,
	})
	if err != nil {
		t.Fatalf("malformed graphs must still render: %v", err)
	}
	kinds := map[graph.DiagnosticKind]bool{}
	for _, d := range res.Diagnostics {
		kinds[d.Kind] = true
	}
	if !kinds[graph.DiagCycle] || !kinds[graph.DiagDangling] {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"diagnostics"`) {
		t.Error("json artifact should carry diagnostics")
	}
}

func TestExecutePresets(t *testing.T) {
	r, _ := newTestRunner()
	for _, key := range presets.Keys() {
		text, err := presets.Text(key)
		if err != nil {
			t.Fatal(err)
		}
		res, err := r.Execute(context.Background(), []byte(text), Options{Source: key})
		if err != nil {
			t.Errorf("%s: %v", key, err)
			continue
		}
		if len(res.Scene.Boxes) != res.Stats.NodeCount {
			t.Errorf("%s: %d boxes for %d nodes", key, len(res.Scene.Boxes), res.Stats.NodeCount)
		}
	}
}

func TestExecuteRasterWithoutConverter(t *testing.T) {
	if render.ConverterAvailable() {
		t.Skip("rsvg-convert is installed")
	}
	r, _ := newTestRunner()
	_, err := r.Execute(context.Background(), []byte(chain), Options{Formats: []string{FormatPNG}})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("error = %v, want UNSUPPORTED", err)
	}
}

func TestSceneStore(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()

	res, err := r.Execute(ctx, []byte(chain), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.StoreScene(ctx, res); err != nil {
		t.Fatalf("StoreScene: %v", err)
	}

	sc, err := r.LoadScene(ctx, res.LayoutHash, res.Scene.Style)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	want, _ := res.Scene.Info("h")
	got, ok := sc.Info("h")
	if !ok || got != want {
		t.Errorf("Info(h) = %+v, want %+v", got, want)
	}
	if n := len(sc.Incident("h")); n != 2 {
		t.Errorf("Incident(h) = %d connectors, want 2", n)
	}
	if sc.Connectors[1].Path != res.Scene.Connectors[1].Path {
		t.Error("reloaded connector paths differ")
	}

	if _, err := r.LoadScene(ctx, "unknown", res.Scene.Style); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("LoadScene(unknown) = %v, want NOT_FOUND", err)
	}
	if _, err := r.LoadScene(ctx, "", res.Scene.Style); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("LoadScene(\"\") = %v, want NOT_FOUND", err)
	}
}

type hookRecorder struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *hookRecorder) add(s string) {
	h.mu.Lock()
	h.events = append(h.events, s)
	h.mu.Unlock()
}

func (h *hookRecorder) OnParseComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	if err != nil {
		h.add("parse:err")
		return
	}
	h.add("parse")
}
func (h *hookRecorder) OnLayoutComplete(context.Context, int, time.Duration, error) { h.add("layout") }
func (h *hookRecorder) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.add("render")
}
func (h *hookRecorder) OnCacheHit(_ context.Context, kind string)  { h.add("hit:" + kind) }
func (h *hookRecorder) OnCacheMiss(_ context.Context, kind string) { h.add("miss:" + kind) }

func TestExecuteHooks(t *testing.T) {
	rec := &hookRecorder{}
	observability.SetPipelineHooks(rec)
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	r, _ := newTestRunner()
	ctx := context.Background()
	if _, err := r.Execute(ctx, []byte(chain), Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Execute(ctx, []byte(chain), Options{}); err != nil {
		t.Fatal(err)
	}
	_, _ = r.Execute(ctx, []byte("{"), Options{})

	want := []string{
		"parse", "miss:layout", "layout", "miss:artifact", "render",
		"parse", "hit:layout", "layout", "hit:artifact", "render",
		"parse:err",
	}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Errorf("events =\n  %v\nwant\n  %v", rec.events, want)
	}
}

type ttlRecorder struct {
	*cache.MemoryCache
	ttls []time.Duration
}

func (c *ttlRecorder) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.ttls = append(c.ttls, ttl)
	return c.MemoryCache.Set(ctx, key, data, ttl)
}

func TestRunnerTTL(t *testing.T) {
	rec := &ttlRecorder{MemoryCache: cache.NewMemoryCache()}
	r := NewRunner(rec, nil, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))

	if _, err := r.Execute(context.Background(), []byte(chain), Options{}); err != nil {
		t.Fatal(err)
	}
	want := []time.Duration{cache.TTLLayout, cache.TTLArtifact}
	if len(rec.ttls) != 2 || rec.ttls[0] != want[0] || rec.ttls[1] != want[1] {
		t.Fatalf("default ttls = %v, want %v", rec.ttls, want)
	}

	rec.ttls = nil
	r.TTL = time.Hour
	if _, err := r.Execute(context.Background(), []byte(chain), Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	for _, ttl := range rec.ttls {
		if ttl != time.Hour {
			t.Errorf("ttl = %v, want 1h", ttl)
		}
	}
	if len(rec.ttls) != 2 {
		t.Errorf("got %d sets, want 2", len(rec.ttls))
	}
}
