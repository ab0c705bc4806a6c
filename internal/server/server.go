// Package server exposes the resolver over HTTP.
//
// Routes:
//
//	GET  /healthz                  liveness and build information
//	POST /v1/resolve               resolve a manifest
//	GET  /v1/gems/{name}/versions  published versions of a gem
//
// Finished resolutions are cached under a key derived from every input that
// can change the result, so identical requests within the TTL skip solving.
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

	"github.com/matzehuels/gemlock/pkg/cache"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// Defaults for Config fields left at their zero value.
const (
	DefaultAddr      = "127.0.0.1:9292"
	DefaultResultTTL = 10 * time.Minute
	maxBodyBytes     = 1 << 20
)

// Config configures a Server.
type Config struct {
	Addr      string         // listen address (default: 127.0.0.1:9292)
	Source    resolve.Source // gem metadata
	Registry  string         // registry URL, part of the resolution cache key
	Cache     cache.Cache    // resolution cache (default: none)
	Keyer     cache.Keyer    // resolution cache key layout
	ResultTTL time.Duration  // lifetime of cached resolutions (default: 10m)
	Options   resolve.Options
	Logger    *log.Logger
}

// Server serves resolution requests.
type Server struct {
	cfg    Config
	router chi.Router
	logger *log.Logger
}

// New creates a Server. Config.Source is required.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = DefaultResultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Get("/gems/{name}/versions", s.handleVersions)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Warm fetches metadata for names concurrently so the first requests hit
// a populated cache. Gems the registry does not know are skipped.
func (s *Server) Warm(ctx context.Context, names []string) error {
	workers := s.cfg.Options.Workers
	if workers <= 0 {
		workers = resolve.DefaultWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range names {
		g.Go(func() error {
			cands, err := s.cfg.Source.Fetch(ctx, name)
			if errors.Is(err, resolve.ErrNotFound) {
				s.logger.Warn("warm: unknown gem", "gem", name)
				return nil
			}
			if err != nil {
				return err
			}
			s.logger.Debug("warmed", "gem", name, "candidates", len(cands))
			return nil
		})
	}
	return g.Wait()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
