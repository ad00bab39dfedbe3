package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/observability"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
	"github.com/matzehuels/nnviz/pkg/session"
)

const chain = `{
  "nodes": [
    {"id": "x", "type": "Input"},
    {"id": "h", "type": "Dense", "shape": "(N×64)"},
    {"id": "y", "type": "Softmax"}
  ],
  "edges": [["x", "h"], ["h", "y"]]
}`

type testClient struct {
	t         *testing.T
	handler   http.Handler
	sessionID string
	store     *session.MemoryStore
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{})
	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, logger)
	store := session.NewMemoryStore()
	srv := New(runner, store, nil, Options{}, logger)
	return &testClient{t: t, handler: srv.Handler(), store: store}
}

func (c *testClient) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if id := rec.Header().Get(SessionHeader); id != "" {
		c.sessionID = id
	}
	return rec
}

func (c *testClient) session() *session.Session {
	c.t.Helper()
	require.NotEmpty(c.t, c.sessionID)
	sess, err := c.store.Get(context.Background(), c.sessionID)
	require.NoError(c.t, err)
	require.NotNil(c.t, sess)
	return sess
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.Empty(t, c.sessionID, "health checks do not start sessions")
}

func TestPresets(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]presetView](t, rec)
	require.Len(t, list, len(presets.Keys()))
	assert.Equal(t, "roadvision", list[0].Key)
	assert.Equal(t, "Road_Vision", list[0].Name)
	assert.Equal(t, 6, list[0].Nodes)
	assert.Equal(t, 5, list[0].Edges)

	rec = c.do(http.MethodGet, "/api/presets/mlp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	want, err := presets.Text("mlp")
	require.NoError(t, err)
	assert.Equal(t, want, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/presets/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_PRESET", string(decode[errorBody](t, rec).Code))
}

func TestPretty(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/pretty", `{"nodes":[{"id":"a"}],"edges":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\n  \"nodes\": [")

	rec = c.do(http.MethodPost, "/api/pretty", "{\n  \"nodes\": [\n}")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "INVALID_JSON", string(body.Code))
	assert.Equal(t, 3, body.Line)
	assert.Positive(t, body.Column)
}

func TestRender(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/render", chain)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get(HeaderCache))
	assert.Equal(t, "0", rec.Header().Get(HeaderDiagnostics))
	assert.Contains(t, rec.Body.String(), `class="nnviz"`)
	assert.Contains(t, rec.Body.String(), "<script")

	hash := rec.Header().Get(HeaderLayoutHash)
	require.NotEmpty(t, hash)
	assert.Equal(t, hash, c.session().LastHash)

	rec = c.do(http.MethodPost, "/api/render?static=1", chain)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script")

	rec = c.do(http.MethodPost, "/api/render", chain)
	assert.Equal(t, "hit", rec.Header().Get(HeaderCache))
}

func TestRenderParseErrorKeepsLastRender(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/render", chain)
	require.Equal(t, http.StatusOK, rec.Code)
	hash := c.session().LastHash

	rec = c.do(http.MethodPost, "/api/render", `{"nodes": [`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_JSON", string(decode[errorBody](t, rec).Code))
	assert.Equal(t, hash, c.session().LastHash)
}

func TestRenderFormats(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/render?format=json&diagnostics=1", `{"nodes":[{"id":"a"}],"edges":[["a","ghost"]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get(HeaderDiagnostics))
	assert.Contains(t, rec.Body.String(), "dangling_edge")

	rec = c.do(http.MethodPost, "/api/render?format=ascii", chain)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Softmax")

	rec = c.do(http.MethodPost, "/api/render?format=gif", chain)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", string(decode[errorBody](t, rec).Code))
}

func TestRenderBodyLimit(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodPost, "/api/render", strings.Repeat(" ", maxBodyBytes+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnimate(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/animate", chain)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[animateView](t, rec)
	assert.Equal(t, int64(80), view.StaggerMS)
	assert.Equal(t, int64(600), view.DurationMS)
	assert.Equal(t, int64(680), view.TotalMS)
	assert.Equal(t, []stepView{
		{Index: 0, From: "x", To: "h", OnMS: 0, OffMS: 600},
		{Index: 1, From: "h", To: "y", OnMS: 80, OffMS: 680},
	}, view.Steps)

	rec = c.do(http.MethodPost, "/api/animate", "not json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSelectPresetAndReset(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPut, "/api/session/preset/mlp", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[stateView](t, rec)
	want, err := presets.Text("mlp")
	require.NoError(t, err)
	assert.Equal(t, want, state.Text)
	assert.Contains(t, state.SVG, `data-id="h1"`)
	assert.Equal(t, "mlp", c.session().Preset)
	assert.Equal(t, state.LayoutHash, c.session().LastHash)

	rec = c.do(http.MethodPost, "/api/render", chain)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/api/session/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decode[stateView](t, rec)
	assert.Equal(t, want, reset.Text)
	assert.Equal(t, state.LayoutHash, reset.LayoutHash)

	rec = c.do(http.MethodPut, "/api/session/preset/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "mlp", c.session().Preset)
}

func TestNodeHover(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/api/nodes/gru", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing rendered yet")

	rec = c.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/nodes/gru", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[nodeView](t, rec)
	assert.Equal(t, "GRU — gru", view.Title)
	assert.Equal(t, "(T×H)", view.Shape)
	assert.Equal(t, "temporal modeling", view.Note)
	assert.Equal(t, []edgeView{
		{Index: 2, From: "gap", To: "gru"},
		{Index: 3, From: "gru", To: "mlp"},
	}, view.Edges)
	assert.Equal(t, "gru", c.session().Hover)

	rec = c.do(http.MethodDelete, "/api/hover", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, c.session().Hover)

	rec = c.do(http.MethodGet, "/api/nodes/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

const reservedIDs = `{
  "nodes": [
    {"id": "enc/1", "type": "Encoder", "shape": "(N×D)"},
    {"id": "conv:2", "type": "Conv"},
    {"id": "a b", "type": "Dense", "note": "spaced"},
    {"id": "出力", "type": "Softmax"}
  ],
  "edges": [["enc/1", "conv:2"], ["conv:2", "a b"], ["a b", "出力"]]
}`

func TestNodeHoverEscapedIDs(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/api/render", reservedIDs)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svg := rec.Body.String()
	for _, id := range []string{"enc/1", "conv:2", "a b", "出力"} {
		assert.Contains(t, svg, `data-id="`+id+`"`)
	}

	tests := []struct {
		path  string
		id    string
		title string
		edges []edgeView
	}{
		{"/api/nodes/enc%2F1", "enc/1", "Encoder — enc/1", []edgeView{{Index: 0, From: "enc/1", To: "conv:2"}}},
		{"/api/nodes/conv%3A2", "conv:2", "Conv — conv:2", []edgeView{
			{Index: 0, From: "enc/1", To: "conv:2"},
			{Index: 1, From: "conv:2", To: "a b"},
		}},
		{"/api/nodes/a%20b", "a b", "Dense — a b", []edgeView{
			{Index: 1, From: "conv:2", To: "a b"},
			{Index: 2, From: "a b", To: "出力"},
		}},
		{"/api/nodes/%E5%87%BA%E5%8A%9B", "出力", "Softmax — 出力", []edgeView{{Index: 2, From: "a b", To: "出力"}}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec := c.do(http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			view := decode[nodeView](t, rec)
			assert.Equal(t, tt.title, view.Title)
			assert.Equal(t, tt.edges, view.Edges)
			assert.Equal(t, tt.id, c.session().Hover)
		})
	}

	// An invalid escape cannot pass through httptest.NewRequest, so it is
	// placed on the raw path chi routes on.
	req := httptest.NewRequest(http.MethodGet, "/api/nodes/bad", nil)
	req.URL.RawPath = "/api/nodes/bad%zz"
	req.Header.Set(SessionHeader, c.sessionID)
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", string(decode[errorBody](t, rec).Code))
}

func TestPage(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `<option value="roadvision" selected>Road_Vision</option>`)
	assert.Contains(t, body, `<svg xmlns="http://www.w3.org/2000/svg" class="nnviz"`)
	assert.Contains(t, body, "window.nnvizBind")
	assert.Contains(t, body, "&#34;nodes&#34;", "editor text is escaped")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, c.sessionID, cookies[0].Value)
}

func TestSessionCookie(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPut, "/api/session/preset/cnn", "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := c.sessionID

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[session.Session](t, rec)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, "cnn", sess.Preset)
}

func TestSessionMalformedIDStartsFresh(t *testing.T) {
	c := newTestClient(t)
	c.sessionID = "../../etc/passwd"

	rec := c.do(http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[session.Session](t, rec)
	assert.NotEqual(t, "../../etc/passwd", sess.ID)
	assert.Equal(t, presets.Default, sess.Preset)
	assert.Equal(t, 1, c.store.Len())
}

type serverHookRecorder struct {
	observability.NoopServerHooks
	mu     sync.Mutex
	routes []string
}

func (h *serverHookRecorder) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route+" "+http.StatusText(status))
}

func TestServerHooks(t *testing.T) {
	rec := &serverHookRecorder{}
	observability.SetServerHooks(rec)
	t.Cleanup(observability.Reset)

	c := newTestClient(t)
	c.do(http.MethodGet, "/api/presets/mlp", "")
	c.do(http.MethodGet, "/api/presets/nope", "")

	assert.Equal(t, []string{
		"GET /api/presets/{key} OK",
		"GET /api/presets/{key} Not Found",
	}, rec.routes)
}
