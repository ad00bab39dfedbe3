// Package render converts rendered diagrams between output formats.
//
// # Overview
//
// Diagrams are drawn as SVG by [sink]. This package turns that SVG into PDF
// or PNG using the external rsvg-convert tool (from librsvg):
//
//	svg := sink.RenderSVG(scene)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// Without rsvg-convert on PATH both functions fail with an UNSUPPORTED error.
//
// Subpackages:
//   - [diagram]: boxes, connectors, hit regions and hover state
//   - [sink]: SVG, JSON and ASCII output
//   - [nodelink]: Graphviz DOT export and Graphviz-drawn SVG
//
// [diagram]: github.com/matzehuels/nnviz/pkg/render/diagram
// [sink]: github.com/matzehuels/nnviz/pkg/render/sink
// [nodelink]: github.com/matzehuels/nnviz/pkg/render/nodelink
package render
