// Package web provides the HTTP API and preview pages of the listing service.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/listingbridge/internal/config"
	"github.com/JonMunkholm/listingbridge/internal/product"
	"github.com/JonMunkholm/listingbridge/internal/transform"
	"github.com/JonMunkholm/listingbridge/internal/web/middleware"
)

// ProductSource loads canonical products by SKU.
type ProductSource interface {
	GetBySKU(ctx context.Context, sku string) (product.Source, error)
	GetBySKUs(ctx context.Context, skus []string) (found []product.Source, missing []string, err error)
}

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the listing service.
type Server struct {
	engine   *transform.Engine
	products ProductSource
	limiter  *ExportLimiter
	checks   map[string]Pinger
	cfg      *config.Config
	logger   *slog.Logger

	router *chi.Mux
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithProducts enables SKU lookups.
func WithProducts(ps ProductSource) Option {
	return func(s *Server) { s.products = ps }
}

// WithHealthCheck adds a named dependency to /healthz.
func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Server) { s.checks[name] = p }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server. Without WithProducts requests must carry full
// product records.
func NewServer(engine *transform.Engine, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		limiter: NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime),
		checks:  map[string]Pinger{},
		cfg:     cfg,
		logger:  slog.Default(),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		rl := middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		rl.OnLimit = func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, r, errRateLimited)
		}
		s.router.Use(rl.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
		r.Get("/preview/{platform}/{sku}", s.handlePreview)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

		r.Get("/platforms", s.handleListPlatforms)
		r.Get("/platforms/{platform}", s.handleGetPlatform)
		r.Get("/platforms/{platform}/fields", s.handlePlatformFields)
		r.Post("/platforms/{platform}/validate", s.handleValidateFields)

		r.Post("/transform", s.handleTransform)

		r.Get("/export/status", s.handleExportStatus)
		r.Post("/export/{platform}", s.handleExport)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown waits for running exports, then stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if active := s.limiter.ActiveCount(); active > 0 {
		s.logger.Info("waiting for exports to complete", "active", active)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			s.logger.Warn("exports did not complete in time", "error", err)
		}
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// Preview pages load product images from marketplace CDNs.
			h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'")
		}
		next.ServeHTTP(w, r)
	})
}
