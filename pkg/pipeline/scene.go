package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/observability"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
	"github.com/matzehuels/nnviz/pkg/render/sink"
)

// StoreScene keeps the exported layout of res under its layout hash so that
// hover lookups can be answered without the description text.
func (r *Runner) StoreScene(ctx context.Context, res *Result) error {
	data, err := graph.MarshalLayout(sink.Export(res.Scene, res.Layout, res.Graph))
	if err != nil {
		return fmt.Errorf("serialize scene: %w", err)
	}
	if err := r.Cache.Set(ctx, r.Keyer.SceneKey(res.LayoutHash), data, r.ttl(cache.TTLScene)); err != nil {
		return fmt.Errorf("store scene: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, "scene", len(data))
	return nil
}

// LoadScene rebuilds the scene stored by [Runner.StoreScene]. A missing or
// expired entry is reported as NOT_FOUND.
func (r *Runner) LoadScene(ctx context.Context, layoutHash string, style diagram.Style) (*diagram.Scene, error) {
	if layoutHash == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "nothing rendered yet")
	}
	data, hit, err := r.Cache.Get(ctx, r.Keyer.SceneKey(layoutHash))
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "scene")
		return nil, errors.New(errors.ErrCodeNotFound, "scene %s expired", layoutHash)
	}
	observability.Cache().OnCacheHit(ctx, "scene")

	gl, err := graph.UnmarshalLayout(data)
	if err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	l, g, err := layout.Parse(gl)
	if err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if style == (diagram.Style{}) {
		style = diagram.DefaultStyle
	}
	return diagram.Build(g, l, style), nil
}
