// Package pipeline provides the parse → layout → render pipeline of nnviz.
//
// The CLI, the HTTP server and the terminal browser all render through this
// package, so a description produces byte-identical artifacts whichever
// entry point it came from.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: decode the JSON description into a [graph.Graph]
//  2. Layout: assign columns and centre points ([layout.Compute])
//  3. Render: build the [diagram.Scene] and write each requested format
//
// Layouts and artifacts are cached by content hash; parsing is cheap and
// always runs.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, text, pipeline.Options{
//	    Source:  "model.json",
//	    Formats: []string{pipeline.FormatSVG, pipeline.FormatJSON},
//	})
//	if err != nil {
//	    var pe *graph.ParseError
//	    if errors.As(err, &pe) {
//	        // keep the previous diagram
//	    }
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// Format constants for output formats.
const (
	FormatSVG    = "svg"    // interactive diagram
	FormatJSON   = "json"   // positioned layout with connector paths
	FormatDOT    = "dot"    // Graphviz source
	FormatDOTSVG = "dotsvg" // Graphviz-rendered SVG
	FormatPNG    = "png"
	FormatPDF    = "pdf"
	FormatASCII  = "ascii" // terminal table
)

// Formats lists every supported format in display order.
var Formats = []string{FormatSVG, FormatJSON, FormatDOT, FormatDOTSVG, FormatPNG, FormatPDF, FormatASCII}

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// Options contains all configuration for one pipeline run.
// Zero values select the defaults.
type Options struct {
	// Source names the input in logs and hooks (file path, preset key).
	Source string `json:"-"`

	// Layout options
	Frame layout.Frame `json:"frame"`

	// Render options
	Style       diagram.Style  `json:"style"`
	Timing      animate.Timing `json:"timing"`
	Formats     []string       `json:"formats,omitempty"`
	Static      bool           `json:"static,omitempty"`      // SVG without script
	Detailed    bool           `json:"detailed,omitempty"`    // notes in DOT labels
	Scale       float64        `json:"scale,omitempty"`       // PNG scale factor
	Diagnostics bool           `json:"diagnostics,omitempty"` // include graph.Check in JSON
	Refresh     bool           `json:"refresh,omitempty"`     // bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the parsed description.
	Graph graph.Graph

	// GraphHash is the content hash of the normalized description.
	GraphHash string

	// Layout is the column assignment and positions.
	Layout layout.Layout

	// LayoutHash is the content hash of the exported layout; it keys
	// artifacts and the server's scene store.
	LayoutHash string

	// Scene holds the emitted primitives and hit regions.
	Scene *diagram.Scene

	// Diagnostics are the findings of graph.Check.
	Diagnostics []graph.Diagnostic

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayerCount int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list. Empty input selects
// SVG; duplicates are dropped.
func ParseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{FormatSVG}, nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ValidateAndSetDefaults applies defaults and validates the options.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := o.Frame.Validate(); err != nil {
		return err
	}
	if err := o.Timing.Validate(); err != nil {
		return err
	}
	if o.Style.NodeWidth <= 0 || o.Style.NodeHeight <= 0 || o.Style.Radius < 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"node box must be positive, got %gx%g radius %g", o.Style.NodeWidth, o.Style.NodeHeight, o.Style.Radius)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Frame == (layout.Frame{}) {
		o.Frame = layout.DefaultFrame
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == (diagram.Style{}) {
		o.Style = diagram.DefaultStyle
	}
	if o.Timing == (animate.Timing{}) {
		o.Timing = animate.DefaultTiming
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:  o.Frame.Width,
		Height: o.Frame.Height,
		PadX:   o.Frame.PadX,
		PadY:   o.Frame.PadY,
	}
}

// ArtifactKeyOpts returns cache key options for one format. Options that do
// not affect a format are left out so unrelated changes keep its entry.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		k.NodeWidth, k.NodeHeight, k.Radius = o.Style.NodeWidth, o.Style.NodeHeight, o.Style.Radius
		k.StaggerMS, k.DurationMS = o.Timing.Stagger.Milliseconds(), o.Timing.Duration.Milliseconds()
		k.Static = o.Static || format != FormatSVG
		if format == FormatPNG {
			k.Scale = o.Scale
		}
	case FormatJSON:
		k.StaggerMS, k.DurationMS = o.Timing.Stagger.Milliseconds(), o.Timing.Duration.Milliseconds()
		k.Diagnostics = o.Diagnostics
	case FormatDOT, FormatDOTSVG:
		k.Detailed = o.Detailed
	}
	return k
}
