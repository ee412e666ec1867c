// Package server provides the HTTP server setup and wiring.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pendergraft/abiscout/internal/chainrpc"
	"github.com/pendergraft/abiscout/internal/config"
	"github.com/pendergraft/abiscout/internal/explorer"
	"github.com/pendergraft/abiscout/internal/fourbyte"
	"github.com/pendergraft/abiscout/internal/middleware/logging"
	"github.com/pendergraft/abiscout/internal/middleware/ratelimit"
	"github.com/pendergraft/abiscout/internal/middleware/realip"
	"github.com/pendergraft/abiscout/internal/middleware/security"
	"github.com/pendergraft/abiscout/internal/observability/metrics"
	"github.com/pendergraft/abiscout/internal/resolution/domain"
	"github.com/pendergraft/abiscout/internal/resolution/transport"
)

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *chi.Mux

	resolutionSvc domain.Service
	rateLimiter   *ratelimit.RateLimiter
}

// New creates a new server
func New(cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: chi.NewRouter(),
	}

	metrics.Init(cfg.Metrics.Enabled)

	explorerClient := explorer.NewClient(cfg.Explorer, logger)
	rpcClient := chainrpc.New(cfg.RPC, logger)
	signatures := fourbyte.New(cfg.SignatureDB, logger)

	svc := domain.NewService(explorerClient, rpcClient, signatures, logger)
	s.resolutionSvc = domain.LoggingMiddleware(logger)(svc)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

// Close releases server-owned background resources. Safe to call after
// the HTTP listener has shut down.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) setupMiddleware() {
	// Order matters: realip must run first so rate limiting and logging
	// see the actual client address.
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))

	s.router.Use(security.FilterMiddleware(s.cfg.Security.FilterEnabled))

	limitMW, limiter := ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	})
	s.rateLimiter = limiter
	s.router.Use(limitMW)

	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// CORS: the API is read-only and unauthenticated, so any origin may
	// call it.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleHealth)

	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", metrics.Handler())
	}

	resolutionHandler := transport.NewHandler(s.resolutionSvc)
	resolutionHandler.RegisterRoutes(s.router)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
