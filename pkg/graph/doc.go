// Package graph provides the description format for network architecture diagrams.
//
// This package defines the canonical wire format for nnviz: the JSON document a
// user edits, the preset catalog seeds, and the HTTP API accepts.
//
// # Core Types
//
//   - [Graph]: Ordered nodes and directed edges, plus an optional display name
//   - [Node]: A layer of the network (id, type, optional shape and note)
//   - [Edge]: A directed connection, serialized as a two-element array
//   - [Layout]: Serialized positions of a rendered diagram
//
// # Description Format
//
//	{
//	  "name": "MLP",
//	  "nodes": [
//	    {"id": "x", "type": "Input", "shape": "(N×D)"},
//	    {"id": "y", "type": "Dense+Softmax", "shape": "(N×K)"}
//	  ],
//	  "edges": [["x", "y"]]
//	}
//
// Declaration order is meaningful: it is the tie-break order within a layout
// column and the emission order of connectors.
//
// # Parsing
//
// [Parse] returns a *[ParseError] carrying the line and column of the failure.
// Callers that follow the "keep the previous diagram" policy simply discard the
// error; nothing in this package panics on malformed input.
//
//	g, err := graph.Parse(text)
//	var perr *graph.ParseError
//	if errors.As(err, &perr) {
//	    // line perr.Line, column perr.Column
//	}
//
// # Pretty-Printing
//
// [Marshal] renders a Graph with two-space indentation. [Pretty] re-indents
// arbitrary JSON text without interpreting it, so unknown keys survive.
//
// # Diagnostics
//
// [Check] reports duplicate ids, dangling edges, self loops and cycles. These
// are informational: the layout engine absorbs all of them.
package graph
