package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "x", Type: "Input"}, {ID: "y", Type: "Dense"}},
		Edges: []graph.Edge{{From: "x", To: "y"}},
	}
	fmt.Print(nodelink.ToDOT(g, nodelink.Options{}))
	// Output:
	// digraph "G" {
	//   rankdir=LR;
	//   bgcolor="transparent";
	//   node [shape=box, style="rounded,filled", fillcolor=white, fontname="Helvetica", fontsize=14, margin="0.2,0.1"];
	//   edge [color="#94a3b8", penwidth=2];
	//   ranksep=0.8;
	//   nodesep=0.3;
	//
	//   "x" [label="Input"];
	//   "y" [label="Dense"];
	//
	//   "x" -> "y";
	// }
}
