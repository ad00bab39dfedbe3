package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/observability"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and the TUI share it to avoid duplicating caching
// logic.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL replaces the per-kind cache lifetimes when positive.
	TTL time.Duration
}

func (r *Runner) ttl(kind time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return kind
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
// A malformed description fails with a *graph.ParseError before anything is
// rendered; semantic problems never fail and end up in Result.Diagnostics.
func (r *Runner) Execute(ctx context.Context, text []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Parse
	parseStart := time.Now()
	g, err := r.Parse(ctx, opts.Source, text)
	if err != nil {
		return nil, err
	}
	parseTime := time.Since(parseStart)

	result, err := r.ExecuteGraph(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.ParseTime = parseTime
	return result, nil
}

// ExecuteGraph runs layout and render for an already parsed description.
func (r *Runner) ExecuteGraph(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Graph:       g,
		GraphHash:   GraphHash(g),
		Diagnostics: graph.Check(g),
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	for _, d := range result.Diagnostics {
		r.Logger.Debug("diagnostic", "kind", d.Kind, "msg", d.Message)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.LayoutHash = LayoutHash(l, g)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.LayerCount = l.Layers.Len()
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Debug("computed layout",
		"layers", l.Layers.Len(),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	result.Scene = diagram.Build(g, l, opts.Style)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse decodes a description and reports the stage to the hooks.
func (r *Runner) Parse(ctx context.Context, source string, text []byte) (graph.Graph, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, source, len(text))
	start := time.Now()

	g, err := graph.Parse(text)
	hooks.OnParseComplete(ctx, source, g.NodeCount(), time.Since(start), err)
	if err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

// LayoutWithCacheInfo computes the layout of g with caching and returns
// cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (layout.Layout, bool, error) {
	opts.SetLayoutDefaults()
	if err := opts.Frame.Validate(); err != nil {
		return layout.Layout{}, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.NodeCount())
	start := time.Now()

	cacheKey := r.Keyer.LayoutKey(GraphHash(g), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if gl, err := graph.UnmarshalLayout(data); err == nil {
				if cached, _, err := layout.Parse(gl); err == nil {
					observability.Cache().OnCacheHit(ctx, "layout")
					hooks.OnLayoutComplete(ctx, cached.Layers.Len(), time.Since(start), nil)
					return cached, true, nil
				}
			}
			// Undecodable entries fall through to recompute.
		} else if err != nil {
			r.Logger.Warn("cache read failed", "kind", "layout", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	l := layout.Compute(g, opts.Frame)

	if data, err := graph.MarshalLayout(l.Export(g)); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLLayout)); err != nil {
			r.Logger.Warn("cache write failed", "kind", "layout", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	hooks.OnLayoutComplete(ctx, l.Layers.Len(), time.Since(start), nil)
	return l, false, nil
}

// Layout is a convenience wrapper that discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, g graph.Graph, opts Options) (layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo renders every requested format of res with caching.
// It reports a hit only when all formats came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	layoutHash := res.LayoutHash
	if layoutHash == "" {
		layoutHash = LayoutHash(res.Layout, res.Graph)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, res, renderOpts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "kind", "artifact", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// GraphHash returns the content hash of g's normalized JSON form, so
// descriptions differing only in whitespace or key order share a hash.
func GraphHash(g graph.Graph) string {
	data, err := graph.Marshal(g)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// LayoutHash returns the content hash of the exported layout of g.
func LayoutHash(l layout.Layout, g graph.Graph) string {
	data, err := graph.MarshalLayout(l.Export(g))
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
