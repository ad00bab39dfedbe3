// Package pkg provides the core libraries of nnviz, a neural network
// architecture visualizer.
//
// # Overview
//
// nnviz draws a JSON description of a network (layers as nodes, data flow as
// edges) as a left-to-right diagram. Every node is a rounded box in the
// column given by its topological depth; connectors are smooth cubic curves.
// The pkg directory is organized into these areas:
//
//  1. [graph] - the description format: parsing, pretty-printing and checks
//  2. [layout] - column assignment and node placement
//  3. [render] - scene building and the SVG, JSON, Graphviz and text sinks
//  4. [animate] - the forward-pulse schedule and its controller
//  5. [pipeline] - orchestration (parse → layout → render) with caching
//  6. [presets] - the built-in architecture catalog
//  7. [cache], [session] - storage backends for artifacts and server sessions
//  8. [errors], [observability], [buildinfo] - shared plumbing
//
// # Architecture
//
// The typical data flow:
//
//	JSON description or preset
//	         ↓
//	    [graph] package (parse and check)
//	         ↓
//	    [layout] package (columns and positions)
//	         ↓
//	    [render/diagram] package (boxes, connectors, hit regions)
//	         ↓
//	    [render/sink] and [render/nodelink] (SVG, JSON, DOT, PNG, PDF, text)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/nnviz/pkg/cache"
//	    "github.com/matzehuels/nnviz/pkg/pipeline"
//	    "github.com/matzehuels/nnviz/pkg/presets"
//	)
//
//	text, _ := presets.Text("vit")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(context.Background(), []byte(text), pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// The command-line interface and the HTTP server live under internal/ and
// are thin layers over [pipeline].
package pkg
