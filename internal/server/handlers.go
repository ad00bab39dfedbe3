package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
	"github.com/matzehuels/nnviz/pkg/session"
)

// Response headers of /api/render.
const (
	HeaderLayoutHash  = "X-Nnviz-Layout-Hash"
	HeaderCache       = "X-Nnviz-Cache"
	HeaderDiagnostics = "X-Nnviz-Diagnostics"
)

type presetView struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
}

// stateView answers preset selection and reset: the text the editor shows
// and the diagram rendered from it.
type stateView struct {
	Session     *session.Session   `json:"session"`
	Text        string             `json:"text"`
	SVG         string             `json:"svg"`
	LayoutHash  string             `json:"layout_hash"`
	Diagnostics []graph.Diagnostic `json:"diagnostics,omitempty"`
}

type stepView struct {
	Index int    `json:"index"`
	From  string `json:"from"`
	To    string `json:"to"`
	OnMS  int64  `json:"on_ms"`
	OffMS int64  `json:"off_ms"`
}

type animateView struct {
	LayoutHash string     `json:"layout_hash"`
	StaggerMS  int64      `json:"stagger_ms"`
	DurationMS int64      `json:"duration_ms"`
	TotalMS    int64      `json:"total_ms"`
	Steps      []stepView `json:"steps"`
}

type edgeView struct {
	Index int    `json:"index"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type nodeView struct {
	diagram.NodeInfo
	Rows  [][2]string `json:"rows"`
	Edges []edgeView  `json:"edges"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	entries := s.catalog.Entries()
	out := make([]presetView, 0, len(entries))
	for _, e := range entries {
		out = append(out, presetView{
			Key:     e.Key,
			Name:    e.Graph.DisplayName(),
			Summary: e.Summary,
			Nodes:   e.Graph.NodeCount(),
			Edges:   e.Graph.EdgeCount(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	text, err := s.catalog.Text(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(text))
}

func (s *Server) handlePretty(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := graph.Pretty(body)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()))
}

// handleRender renders the request body. A parse failure leaves the
// session's last render in place.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}

	opts := s.pipelineOptions("request")
	opts.Formats = []string{format}
	opts.Static = queryBool(r, "static")
	opts.Detailed = queryBool(r, "detailed")
	opts.Diagnostics = queryBool(r, "diagnostics")

	res, err := s.render(r, body, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	cacheState := "miss"
	if res.CacheInfo.RenderHit {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set(HeaderLayoutHash, res.LayoutHash)
	w.Header().Set(HeaderCache, cacheState)
	w.Header().Set(HeaderDiagnostics, strconv.Itoa(len(res.Diagnostics)))
	_, _ = w.Write(res.Artifacts[format])
}

// handleAnimate validates the body like a render and returns the pulse
// schedule for its connectors. The browser replays it on the diagram it
// already shows.
func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := s.pipelineOptions("request")
	opts.Formats = []string{pipeline.FormatJSON}
	res, err := s.runner.Execute(r.Context(), body, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	timing := opts.Timing
	if timing == (animate.Timing{}) {
		timing = animate.DefaultTiming
	}
	n := len(res.Scene.Connectors)
	view := animateView{
		LayoutHash: res.LayoutHash,
		StaggerMS:  timing.Stagger.Milliseconds(),
		DurationMS: timing.Duration.Milliseconds(),
		TotalMS:    timing.Total(n).Milliseconds(),
		Steps:      make([]stepView, 0, n),
	}
	for _, st := range animate.Schedule(n, timing) {
		c := res.Scene.Connectors[st.Index]
		view.Steps = append(view.Steps, stepView{
			Index: st.Index,
			From:  c.From,
			To:    c.To,
			OnMS:  st.On.Milliseconds(),
			OffMS: st.Off.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	s.selectPreset(w, r, sess, sess.Preset)
}

func (s *Server) handleSelectPreset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := errors.ValidatePresetKey(key); err != nil {
		writeError(w, err)
		return
	}
	s.selectPreset(w, r, sessionFrom(r.Context()), key)
}

// selectPreset loads the preset text into the editor and renders it.
func (s *Server) selectPreset(w http.ResponseWriter, r *http.Request, sess *session.Session, key string) {
	text, err := s.catalog.Text(key)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.SelectPreset(key)

	opts := s.pipelineOptions(key)
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Static = true
	res, err := s.render(r, []byte(text), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateView{
		Session:     sess,
		Text:        text,
		SVG:         string(res.Artifacts[pipeline.FormatSVG]),
		LayoutHash:  res.LayoutHash,
		Diagnostics: res.Diagnostics,
	})
}

// handleNode answers a hover: the info panel content and the incident
// connectors of id in the session's last render.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	// chi matches on the escaped path, so ids holding "/" or ":" arrive encoded.
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed node id"))
		return
	}
	if err := errors.ValidateNodeID(id); err != nil {
		writeError(w, err)
		return
	}
	sc, err := s.runner.LoadScene(r.Context(), sess.LastHash, s.opts.Style)
	if err != nil {
		writeError(w, err)
		return
	}
	info, ok := sc.Info(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "node %q is not in the diagram", id))
		return
	}
	sess.Hover = id

	view := nodeView{NodeInfo: info, Rows: info.Rows(), Edges: []edgeView{}}
	for _, c := range sc.Incident(id) {
		view.Edges = append(view.Edges, edgeView{Index: c.Index, From: c.From, To: c.To})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).Hover = ""
	w.WriteHeader(http.StatusNoContent)
}

// render runs the pipeline and records the result on the session.
func (s *Server) render(r *http.Request, text []byte, opts pipeline.Options) (*pipeline.Result, error) {
	ctx := r.Context()
	res, err := s.runner.Execute(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	if err := s.runner.StoreScene(ctx, res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "store scene")
	}
	sessionFrom(ctx).Rendered(res.LayoutHash)
	return res, nil
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
