package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/nnviz/pkg/render"
	"github.com/matzehuels/nnviz/pkg/render/nodelink"
	"github.com/matzehuels/nnviz/pkg/render/sink"
)

// Render generates output artifacts in the requested formats from a result
// whose Graph, Layout and Scene are set.
func Render(ctx context.Context, res *Result, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	if res.Scene == nil {
		return nil, fmt.Errorf("render: result has no scene")
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var static []byte // shared input of png and pdf

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(res.Scene, svgOptions(opts, opts.Static)...)
		case FormatJSON:
			var jsonOpts []sink.JSONOption
			jsonOpts = append(jsonOpts, sink.WithJSONTiming(opts.Timing))
			if opts.Diagnostics {
				jsonOpts = append(jsonOpts, sink.WithJSONDiagnostics(res.Diagnostics))
			}
			data, err = sink.RenderJSON(res.Scene, res.Layout, res.Graph, jsonOpts...)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(res.Graph, dotOptions(res, opts)))
		case FormatDOTSVG:
			data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(res.Graph, dotOptions(res, opts)))
		case FormatPNG, FormatPDF:
			if static == nil {
				static = sink.RenderSVG(res.Scene, svgOptions(opts, true)...)
			}
			if format == FormatPNG {
				data, err = render.ToPNG(ctx, static, opts.Scale)
			} else {
				data, err = render.ToPDF(ctx, static)
			}
		case FormatASCII:
			data = []byte(sink.RenderASCII(res.Scene, res.Layout.Layers))
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func svgOptions(opts Options, static bool) []sink.SVGOption {
	svgOpts := []sink.SVGOption{sink.WithTiming(opts.Timing)}
	if static {
		svgOpts = append(svgOpts, sink.WithStatic())
	}
	return svgOpts
}

func dotOptions(res *Result, opts Options) nodelink.Options {
	return nodelink.Options{Detailed: opts.Detailed, Layers: res.Layout.Layers}
}
