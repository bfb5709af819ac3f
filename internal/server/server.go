// Package server exposes the layout service over HTTP.
//
// Routes:
//
//	GET    /healthz                          build info and liveness
//	GET    /v1/modes                         view modes with descriptions
//	GET    /v1/catalogs                      catalog listing
//	GET    /v1/catalogs/{name}/layout        layout of a stored catalog
//	POST   /v1/layouts                       layout of posted objects
//	DELETE /v1/cache                         invalidate cached layouts
//	GET    /v1/stats                         calculation and cache statistics
//	GET    /metrics                          Prometheus metrics
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/pipeline"
)

// Defaults applied by Options.ValidateAndSetDefaults.
const (
	DefaultAddr              = ":8080"
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 40
	DefaultMaxBodyBytes      = 4 << 20

	shutdownTimeout = 10 * time.Second
)

// =============================================================================
// Options
// =============================================================================

// Options configures a Server.
type Options struct {
	Addr string

	// AllowedOrigins lists CORS origins; empty allows any origin.
	AllowedOrigins []string

	// RequestsPerSecond and Burst bound each client's request rate. A
	// negative RequestsPerSecond disables rate limiting.
	RequestsPerSecond float64
	Burst             int

	// MaxBodyBytes caps POST bodies.
	MaxBodyBytes int64

	// Registry collects metrics; nil creates a private registry.
	Registry *prometheus.Registry

	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.RequestsPerSecond == 0 {
		o.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = DefaultBurst
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Server
// =============================================================================

// Server serves layouts computed by a pipeline.Service from catalogs in a
// catalog.Store.
type Server struct {
	svc     *pipeline.Service
	store   catalog.Store
	opts    Options
	logger  *log.Logger
	metrics *Metrics
	router  chi.Router
}

// New creates a server. Its metrics are registered with opts.Registry and
// installed as the process-wide observability hooks.
func New(svc *pipeline.Service, store catalog.Store, opts Options) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	s := &Server{
		svc:     svc,
		store:   store,
		opts:    opts,
		logger:  opts.Logger,
		metrics: NewMetrics(opts.Registry),
	}
	s.metrics.Install()
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.metrics.Middleware)
	r.Use(s.cors().Handler)
	r.Use(newRateLimiter(s.opts.RequestsPerSecond, s.opts.Burst, s.logger).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/modes", s.handleModes)
		r.Get("/catalogs", s.handleCatalogs)
		r.Get("/catalogs/{name}/layout", s.handleCatalogLayout)
		r.Post("/layouts", s.handleLayout)
		r.Delete("/cache", s.handleInvalidate)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) cors() *cors.Cors {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
