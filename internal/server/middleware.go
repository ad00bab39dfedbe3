package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/observability"
	"github.com/matzehuels/nnviz/pkg/session"
)

// Session transport.
const (
	SessionCookie = "nnviz_session"
	SessionHeader = "X-Nnviz-Session"
)

type sessionKey struct{}

// logRequests logs each request through the server logger and reports it
// to the server hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, dur)

		logFn := s.logger.Debug
		if status >= http.StatusInternalServerError {
			logFn = s.logger.Error
		}
		logFn(r.Method+" "+route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", dur.Round(time.Microsecond),
			"req", middleware.GetReqID(r.Context()))
	})
}

// withSession loads the caller's session, or starts one, and saves it
// after the handler ran.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := s.loadSession(ctx, sessionID(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if sess == nil {
			sess = session.New(s.opts.Preset, s.opts.SessionTTL)
			s.logger.Debug("session started", "id", sess.ID)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(s.opts.SessionTTL.Seconds()),
		})
		w.Header().Set(SessionHeader, sess.ID)

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, sess)))

		sess.Touch(s.opts.SessionTTL)
		if err := s.sessions.Set(ctx, sess); err != nil {
			s.logger.Warn("save session failed", "id", sess.ID, "err", err)
		}
	})
}

// loadSession returns nil for an unknown, expired or malformed id so the
// caller starts a fresh session.
func (s *Server) loadSession(ctx context.Context, id string) (*session.Session, error) {
	if id == "" || errors.ValidateSessionID(id) != nil {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	return sess, nil
}

func sessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}
