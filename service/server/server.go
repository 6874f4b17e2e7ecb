package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/centavo/service/config"
	"github.com/brojonat/centavo/service/gateway"
	"github.com/brojonat/centavo/service/ledger"
	"github.com/brojonat/centavo/service/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server for the payment service.
type Server struct {
	addr     string
	cfg      *config.Config
	ledger   *ledger.Ledger
	gateway  *gateway.Client
	renderer *TemplateRenderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The gateway is used directly only for card validation; payments go through
// the ledger. The metrics is optional - if nil, the metrics endpoint won't be
// available.
func New(addr string, cfg *config.Config, l *ledger.Ledger, gw *gateway.Client, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		cfg:     cfg,
		ledger:  l,
		gateway: gw,
		metrics: m,
		logger:  logger,
	}
}

// WithTemplates adds template rendering support to the server using embedded files
func (s *Server) WithTemplates() error {
	renderer, err := NewTemplateRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}
	s.renderer = renderer
	s.logger.Info("HTML templates loaded from embedded files")
	return nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	withMetrics := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	// Payment routes
	mux.Handle("POST /api/payments", withMetrics("/api/payments", handleCreatePayment(s.ledger, s.logger)))
	mux.Handle("GET /api/payments/stats", withMetrics("/api/payments/stats", handleGetStats(s.ledger, s.logger)))
	mux.Handle("GET /api/payments/history", withMetrics("/api/payments/history", handleGetHistory(s.ledger, s.logger)))
	mux.Handle("GET /api/payments/{id}", withMetrics("/api/payments/{id}", handleGetPayment(s.ledger, s.logger)))

	// Card routes
	mux.Handle("POST /api/cards/validate", withMetrics("/api/cards/validate", handleValidateCard(s.gateway, s.logger)))

	// Health check endpoint
	mux.Handle("GET /api/health", handleHealth())

	// HTML pages (if template renderer is configured)
	if s.renderer != nil {
		mux.HandleFunc("GET /{$}", handleIndexPage(s.renderer))
		s.logger.Info("HTML page endpoints enabled")
	}

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	handler := corsMiddleware(mux)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers for all requests
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Pass through to next handler
		next.ServeHTTP(w, r)
	})
}
