package sink

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

// DiagramCSS styles connectors and node boxes. Highlighted connectors carry
// the edge-hi class.
const DiagramCSS = `
    .edge { fill: none; stroke: #94a3b8; stroke-width: 2; transition: stroke 0.15s ease, stroke-width 0.15s ease; }
    .edge-hi { stroke: #f59e0b; stroke-width: 3.5; }
    .node { cursor: default; }
    .node rect { fill: #ffffff; stroke: #334155; stroke-width: 1.5; }
    .node:hover rect { stroke: #f59e0b; }
    .node text { font-family: ui-sans-serif, system-ui, -apple-system, "Segoe UI", sans-serif; font-size: 14px; fill: #0f172a; pointer-events: none; }
    .node text.small { font-size: 11px; fill: #475569; }`

// InteractionJS binds hover highlighting and the pulse player to every
// svg.nnviz element. It dispatches nnviz:hover and nnviz:leave events so a
// host page can drive its info panel and tooltip. Starting a pulse cancels
// the timers of the previous one.
const InteractionJS = `
(function () {
  function bind(root) {
    if (root.getAttribute('data-bound')) return;
    root.setAttribute('data-bound', '1');
    var edges = Array.prototype.slice.call(root.querySelectorAll('.edge'));
    function unhighlight() {
      Array.prototype.forEach.call(root.querySelectorAll('.edge-hi'), function (p) { p.classList.remove('edge-hi'); });
    }
    function highlight(id) {
      unhighlight();
      edges.forEach(function (p) {
        if (p.getAttribute('data-u') === id || p.getAttribute('data-v') === id) p.classList.add('edge-hi');
      });
    }
    Array.prototype.forEach.call(root.querySelectorAll('.node'), function (g) {
      g.addEventListener('mousemove', function (e) {
        var id = g.getAttribute('data-id');
        highlight(id);
        root.dispatchEvent(new CustomEvent('nnviz:hover', { bubbles: true, detail: {
          id: id,
          title: g.getAttribute('data-title'),
          shape: g.getAttribute('data-shape'),
          note: g.getAttribute('data-note'),
          tooltip: g.getAttribute('data-tooltip'),
          x: e.clientX, y: e.clientY
        }}));
      });
      g.addEventListener('mouseleave', function () {
        unhighlight();
        root.dispatchEvent(new CustomEvent('nnviz:leave', { bubbles: true }));
      });
    });
    var timers = [];
    root.nnvizPulse = function () {
      timers.forEach(clearTimeout);
      timers = [];
      unhighlight();
      var stagger = +root.getAttribute('data-stagger'), duration = +root.getAttribute('data-duration');
      edges.forEach(function (p, i) {
        timers.push(setTimeout(function () { p.classList.add('edge-hi'); }, i * stagger));
        timers.push(setTimeout(function () { p.classList.remove('edge-hi'); }, i * stagger + duration));
      });
    };
    root.addEventListener('dblclick', root.nnvizPulse);
  }
  window.nnvizBind = bind;
  Array.prototype.forEach.call(document.querySelectorAll('svg.nnviz'), bind);
})();`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	timing      animate.Timing
	interactive bool
	title       string
}

// WithTiming sets the pulse schedule embedded in the SVG.
func WithTiming(t animate.Timing) SVGOption { return func(r *svgRenderer) { r.timing = t } }

// WithStatic omits the script; hover and pulse are disabled.
func WithStatic() SVGOption { return func(r *svgRenderer) { r.interactive = false } }

// WithTitle overrides the document title (defaults to the scene name).
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// RenderSVG draws connectors first, then node groups, so boxes cover curve ends.
func RenderSVG(sc *diagram.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{timing: animate.DefaultTiming, interactive: true, title: sc.Name}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := sc.Frame.Width, sc.Frame.Height
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" class="nnviz" viewBox="0 0 %s %s" width="%s" height="%s" data-stagger="%d" data-duration="%d">`+"\n",
		num(w), num(h), num(w), num(h), r.timing.Stagger.Milliseconds(), r.timing.Duration.Milliseconds())
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(r.title))
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", DiagramCSS)

	for _, c := range sc.Connectors {
		renderConnector(&buf, c)
	}
	for _, b := range sc.Boxes {
		info, _ := sc.Info(b.ID)
		renderBox(&buf, b, info)
	}

	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", InteractionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderConnector(buf *bytes.Buffer, c diagram.Connector) {
	fmt.Fprintf(buf, `  <path class="edge" d="%s" data-u="%s" data-v="%s" data-index="%d"/>`+"\n",
		c.Path, EscapeXML(c.From), EscapeXML(c.To), c.Index)
}

func renderBox(buf *bytes.Buffer, b diagram.Box, info diagram.NodeInfo) {
	fmt.Fprintf(buf, `  <g class="node" data-id="%s" data-title="%s" data-shape="%s" data-note="%s" data-tooltip="%s">`+"\n",
		EscapeXML(b.ID), EscapeXML(info.Title), EscapeXML(info.Shape), EscapeXML(info.Note), EscapeXML(info.Tooltip))
	fmt.Fprintf(buf, "    <title>%s</title>\n", EscapeXML(info.Tooltip))
	fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" rx="%s"/>`+"\n",
		num(b.Rect.X), num(b.Rect.Y), num(b.Rect.W), num(b.Rect.H), num(b.R))
	fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="middle">%s</text>`+"\n",
		num(b.Center.X), num(b.LabelY()), EscapeXML(b.Label))
	fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="middle" class="small">%s</text>`+"\n",
		num(b.Center.X), num(b.SublabelY()), EscapeXML(b.Sublabel))
	buf.WriteString("  </g>\n")
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
