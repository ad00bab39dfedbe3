// Package nodelink exports architecture graphs to Graphviz.
//
// # Overview
//
// The native nnviz diagram is drawn by the sink package. This package is the
// alternative for users who want Graphviz: [ToDOT] writes DOT source and
// [RenderSVG] lays it out in-process.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Layers: layout.Assign(g)})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Passing the nnviz column assignment as Options.Layers keeps nodes in the
// same columns as the native diagram; Graphviz then only orders rows.
//
// # DOT Format
//
// The generated DOT uses left-to-right ranks (rankdir=LR) with rounded box
// nodes labelled "type\nshape". Node notes become Graphviz tooltips.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
