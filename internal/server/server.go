// Package server implements nnviz serve: the interactive page and its JSON
// API on top of the shared render pipeline.
//
// Each browser is a [session.Session] identified by a cookie. The session
// records the selected preset and the hash of its last successful render;
// descriptions themselves are never stored. Hover lookups rebuild the scene
// from the pipeline's scene store.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/layout"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
	"github.com/matzehuels/nnviz/pkg/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures rendering and sessions.
type Options struct {
	Frame      layout.Frame
	Style      diagram.Style
	Timing     animate.Timing
	Preset     string        // selected by new sessions
	SessionTTL time.Duration // idle lifetime of a session
}

// Server serves the page and the API.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	catalog  *presets.Catalog
	opts     Options
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. A nil catalog selects the built-in presets.
func New(runner *pipeline.Runner, sessions session.Store, catalog *presets.Catalog, opts Options, logger *log.Logger) *Server {
	if catalog == nil {
		catalog = presets.Builtin()
	}
	if logger == nil {
		logger = log.Default()
	}
	if opts.Preset == "" {
		opts.Preset = presets.Default
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	s := &Server{
		runner:   runner,
		sessions: sessions,
		catalog:  catalog,
		opts:     opts,
		logger:   logger.WithPrefix("http"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/presets", s.handlePresets)
	r.Get("/api/presets/{key}", s.handlePreset)
	r.Post("/api/pretty", s.handlePretty)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", s.handlePage)
		r.Get("/api/session", s.handleSession)
		r.Post("/api/render", s.handleRender)
		r.Post("/api/animate", s.handleAnimate)
		r.Post("/api/session/reset", s.handleReset)
		r.Put("/api/session/preset/{key}", s.handleSelectPreset)
		r.Get("/api/nodes/{id}", s.handleNode)
		r.Delete("/api/hover", s.handleLeave)
	})
	return r
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := s.sessions.Cleanup(ctx); err != nil {
					s.logger.Warn("session cleanup failed", "err", err)
				}
			}
		}
	})
	return g.Wait()
}

func (s *Server) pipelineOptions(source string) pipeline.Options {
	return pipeline.Options{
		Source: source,
		Frame:  s.opts.Frame,
		Style:  s.opts.Style,
		Timing: s.opts.Timing,
		Logger: s.logger,
	}
}
