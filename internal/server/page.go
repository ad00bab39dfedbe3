package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/matzehuels/nnviz/pkg/buildinfo"
	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/render/sink"
)

type pageOption struct {
	Key      string
	Name     string
	Selected bool
}

type pageData struct {
	Version string
	Presets []pageOption
	Text    string
	SVG     template.HTML
	Script  template.JS
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// handlePage serves the editor with the session's preset rendered.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	text, err := s.catalog.Text(sess.Preset)
	if err != nil {
		sess.SelectPreset(s.opts.Preset)
		if text, err = s.catalog.Text(sess.Preset); err != nil {
			writeError(w, err)
			return
		}
	}

	opts := s.pipelineOptions(sess.Preset)
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Static = true
	res, err := s.render(r, []byte(text), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	data := pageData{
		Version: buildinfo.Version,
		Text:    text,
		SVG:     template.HTML(res.Artifacts[pipeline.FormatSVG]),
		Script:  template.JS(sink.InteractionJS),
	}
	for _, e := range s.catalog.Entries() {
		data.Presets = append(data.Presets, pageOption{
			Key:      e.Key,
			Name:     e.Graph.DisplayName(),
			Selected: e.Key == sess.Preset,
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>nnviz</title>
<style>
  * { box-sizing: border-box; }
  body { margin: 0; font-family: ui-sans-serif, system-ui, -apple-system, "Segoe UI", sans-serif; color: #0f172a; background: #f8fafc; }
  header { display: flex; gap: 8px; align-items: center; padding: 10px 16px; background: #0f172a; color: #e2e8f0; }
  header h1 { font-size: 16px; margin: 0 12px 0 0; }
  header .version { margin-left: auto; font-size: 12px; color: #94a3b8; }
  button, select { font: inherit; padding: 4px 10px; border-radius: 6px; border: 1px solid #475569; background: #1e293b; color: #e2e8f0; cursor: pointer; }
  main { display: grid; grid-template-columns: 360px 1fr 260px; gap: 12px; padding: 12px; height: calc(100vh - 52px); }
  textarea { width: 100%; height: 100%; font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12px; border: 1px solid #cbd5e1; border-radius: 8px; padding: 8px; resize: none; }
  #stage { background: #fff; border: 1px solid #cbd5e1; border-radius: 8px; overflow: auto; }
  #stage svg { width: 100%; height: auto; display: block; }
  aside { background: #fff; border: 1px solid #cbd5e1; border-radius: 8px; padding: 12px; }
  aside h2 { font-size: 14px; margin: 0 0 8px; }
  #kv { display: grid; grid-template-columns: 64px 1fr; gap: 4px 8px; font-size: 13px; }
  #kv div:nth-child(odd) { color: #64748b; }
  #tooltip { position: fixed; pointer-events: none; white-space: pre; background: #0f172a; color: #f8fafc; font-size: 12px; padding: 6px 8px; border-radius: 6px; opacity: 0; transform: translate(12px, 12px); transition: opacity 0.1s; }
</style>
</head>
<body>
<header>
  <h1>nnviz</h1>
  <select id="preset">{{range .Presets}}
    <option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>{{end}}
  </select>
  <button id="render">Render</button>
  <button id="pretty">Pretty</button>
  <button id="animate">Animate</button>
  <button id="reset">Reset</button>
  <span class="version">{{.Version}}</span>
</header>
<main>
  <textarea id="modelJson" spellcheck="false">{{.Text}}</textarea>
  <div id="stage">{{.SVG}}</div>
  <aside>
    <h2 id="layerTitle">Hover a layer</h2>
    <div id="kv"></div>
  </aside>
</main>
<div id="tooltip"></div>
<script>{{.Script}}</script>
<script>
(function () {
  var stage = document.getElementById('stage');
  var ta = document.getElementById('modelJson');
  var presetSel = document.getElementById('preset');
  var tooltip = document.getElementById('tooltip');
  var kv = document.getElementById('kv');
  var layerTitle = document.getElementById('layerTitle');
  var hovered = '';

  function call(method, url, body) {
    return fetch(url, { method: method, body: body, credentials: 'same-origin' });
  }
  function bindStage() {
    var svg = stage.querySelector('svg.nnviz');
    if (svg) window.nnvizBind(svg);
    return svg;
  }
  function show(r) {
    if (!r.ok) return;
    return r.json().then(function (s) { ta.value = s.text; stage.innerHTML = s.svg; bindStage(); });
  }

  document.getElementById('render').onclick = function () {
    call('POST', '/api/render?static=1', ta.value).then(function (r) {
      if (!r.ok) return;
      return r.text().then(function (svg) { stage.innerHTML = svg; bindStage(); });
    });
  };
  document.getElementById('pretty').onclick = function () {
    call('POST', '/api/pretty', ta.value).then(function (r) {
      if (!r.ok) return;
      return r.text().then(function (text) { ta.value = text; });
    });
  };
  document.getElementById('animate').onclick = function () {
    call('POST', '/api/animate', ta.value).then(function (r) {
      if (!r.ok) return;
      var svg = stage.querySelector('svg.nnviz');
      if (svg && svg.nnvizPulse) svg.nnvizPulse();
    });
  };
  document.getElementById('reset').onclick = function () {
    call('POST', '/api/session/reset').then(show);
  };
  presetSel.onchange = function () {
    call('PUT', '/api/session/preset/' + encodeURIComponent(presetSel.value)).then(show);
  };

  stage.addEventListener('nnviz:hover', function (e) {
    var d = e.detail;
    layerTitle.textContent = d.title;
    kv.innerHTML = '';
    [['Shape', d.shape], ['Note', d.note]].forEach(function (row) {
      row.forEach(function (v) { var c = document.createElement('div'); c.textContent = v; kv.appendChild(c); });
    });
    tooltip.textContent = d.tooltip;
    tooltip.style.left = d.x + 'px';
    tooltip.style.top = d.y + 'px';
    tooltip.style.opacity = 1;
    if (d.id !== hovered) {
      hovered = d.id;
      call('GET', '/api/nodes/' + encodeURIComponent(d.id));
    }
  });
  stage.addEventListener('nnviz:leave', function () {
    tooltip.style.opacity = 0;
    hovered = '';
    call('DELETE', '/api/hover');
  });
  bindStage();
})();
</script>
</body>
</html>
`
