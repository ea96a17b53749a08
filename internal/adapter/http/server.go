package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-daemon/internal/observability"
)

// HealthSource reports artifact freshness and daemon diagnostics.
type HealthSource interface {
	Health() observability.HealthReport
	Metrics() observability.MetricsReport
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the /health and /metrics monitoring endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a monitoring server. Unknown paths and methods get a JSON 404.
func NewServer(addr string, health HealthSource, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth(health))
	r.Get("/metrics", handleMetrics(health, promhttp.Handler()))
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleNotFound)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("health server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleHealth(health HealthSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := health.Health()
		sharedobs.WriteJSON(w, report.HTTPStatus(), report)
	}
}

// handleMetrics serves JSON diagnostics, or the Prometheus exposition with
// ?format=prometheus.
func handleMetrics(health HealthSource, prom http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") == "prometheus" {
			prom.ServeHTTP(w, r)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, health.Metrics())
	}
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}
