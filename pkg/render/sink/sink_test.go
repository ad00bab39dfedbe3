package sink

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

func testGraph() graph.Graph {
	return graph.Graph{
		Name: "fan <out>",
		Nodes: []graph.Node{
			{ID: "a", Type: "Input", Shape: "(N×D)", Note: "x & y"},
			{ID: "b", Type: "Dense"},
			{ID: "c", Type: "Dense", Shape: "(N×K)"},
		},
		Edges: []graph.Edge{{From: "a", To: "b"}, {From: "a", To: "ghost"}, {From: "a", To: "c"}},
	}
}

func scene(g graph.Graph) (*diagram.Scene, layout.Layout) {
	l := layout.Compute(g, layout.DefaultFrame)
	return diagram.Build(g, l, diagram.DefaultStyle), l
}

func TestRenderSVG(t *testing.T) {
	sc, _ := scene(testGraph())
	svg := string(RenderSVG(sc))

	wants := []string{
		`<svg xmlns="http://www.w3.org/2000/svg" class="nnviz" viewBox="0 0 1200 675" width="1200" height="675" data-stagger="80" data-duration="600">`,
		`<title>fan &lt;out&gt;</title>`,
		`<path class="edge" d="M 80 70 C 704 70, 496 70, 1120 70" data-u="a" data-v="b" data-index="0"/>`,
		`<path class="edge" d="M 80 70 C 704 70, 496 605, 1120 605" data-u="a" data-v="c" data-index="1"/>`,
		`data-title="Input — a" data-shape="(N×D)" data-note="x &amp; y" data-tooltip="Input&#xA;(N×D)&#xA;x &amp; y"`,
		`<rect x="0" y="43" width="160" height="54" rx="10"/>`,
		`<text x="80" y="66" text-anchor="middle">Input</text>`,
		`<text x="80" y="84" text-anchor="middle" class="small">(N×D)</text>`,
		`data-id="b" data-title="Dense — b" data-shape="-" data-note="-" data-tooltip="Dense"`,
		"<![CDATA[",
		"</svg>\n",
	}
	for _, want := range wants {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if strings.Contains(svg, "ghost") {
		t.Error("SVG contains the dangling edge")
	}
	if strings.Index(svg, `class="edge"`) > strings.Index(svg, `class="node"`) {
		t.Error("connectors must be drawn before nodes")
	}
}

func TestRenderSVGOptions(t *testing.T) {
	sc, _ := scene(testGraph())
	svg := string(RenderSVG(sc,
		WithStatic(),
		WithTitle("custom"),
		WithTiming(animate.Timing{Stagger: 10 * time.Millisecond, Duration: 50 * time.Millisecond}),
	))

	if strings.Contains(svg, "<script") {
		t.Error("static SVG contains a script")
	}
	if !strings.Contains(svg, `data-stagger="10" data-duration="50"`) {
		t.Error("timing attributes not applied")
	}
	if !strings.Contains(svg, "<title>custom</title>") {
		t.Error("title not applied")
	}
}

func TestRenderJSON(t *testing.T) {
	g := testGraph()
	sc, l := scene(g)

	data, err := RenderJSON(sc, l, g, WithJSONTiming(animate.DefaultTiming), WithJSONDiagnostics(graph.Check(g)))
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	out, err := graph.UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}

	if diff := cmp.Diff([][]string{{"a"}, {"b", "c"}}, out.Layers); diff != "" {
		t.Errorf("layers mismatch:\n%s", diff)
	}
	wantEdges := []graph.PlacedEdge{
		{From: "a", To: "b", Path: "M 80 70 C 704 70, 496 70, 1120 70"},
		{From: "a", To: "ghost"},
		{From: "a", To: "c", Path: "M 80 70 C 704 70, 496 605, 1120 605"},
	}
	if diff := cmp.Diff(wantEdges, out.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if out.Pulse == nil || out.Pulse.TotalMS != 680 {
		t.Errorf("pulse = %+v, want total 680ms over 2 connectors", out.Pulse)
	}
	if len(out.Issues) != 1 || out.Issues[0].Kind != graph.DiagDangling {
		t.Errorf("diagnostics = %+v", out.Issues)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	node := raw["nodes"].([]any)[2].(map[string]any)
	if node["id"] != "c" || node["x"] != 1120.0 || node["y"] != 605.0 || node["layer"] != 1.0 {
		t.Errorf("node c = %v", node)
	}
}

func TestRenderASCII(t *testing.T) {
	sc, l := scene(testGraph())
	out := RenderASCII(sc, l.Layers)

	for _, want := range []string{"fan <out>", "L0", "L1", "Input (a)", "(N×D)", "Dense (b)", "Dense (c)", "a → b", "a → c"} {
		if !strings.Contains(out, want) {
			t.Errorf("ASCII output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ghost") {
		t.Errorf("ASCII output lists the dangling edge:\n%s", out)
	}
}

func TestRenderASCIIEmpty(t *testing.T) {
	sc, l := scene(graph.Graph{})
	if out := RenderASCII(sc, l.Layers); out != "" {
		t.Errorf("RenderASCII(empty) = %q", out)
	}
}

func TestEscapeXML(t *testing.T) {
	if got := EscapeXML(`<a href="x">&</a>`); got != "&lt;a href=&#34;x&#34;&gt;&amp;&lt;/a&gt;" {
		t.Errorf("EscapeXML = %q", got)
	}
}
