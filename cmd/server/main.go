package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/centavo/service/config"
	"github.com/brojonat/centavo/service/events"
	"github.com/brojonat/centavo/service/gateway"
	"github.com/brojonat/centavo/service/ledger"
	"github.com/brojonat/centavo/service/mailer"
	"github.com/brojonat/centavo/service/metrics"
	"github.com/brojonat/centavo/service/server"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"gateway_url", cfg.GatewayBaseURL,
	)

	// Initialize metrics
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.NewMetrics(nil)
	}

	// Initialize payment gateway client
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, m, logger,
		gateway.WithTimeouts(cfg.ChargeTimeout, cfg.ValidateTimeout))
	logger.Info("initialized payment gateway client", "url", cfg.GatewayBaseURL)

	// Initialize receipt mailer. Without credentials it runs in logged
	// no-op mode, which is fine for local development.
	sender := mailer.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPUseTLS, m, logger)
	if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		logger.Warn("SMTP credentials not configured, receipts will be logged instead of sent")
	}

	// Initialize payment event publisher (optional)
	var publisher events.Publisher
	if cfg.EventsEnabled() {
		p, err := events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to initialize NATS publisher", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Info("NATS_URL not set, payment event publishing disabled")
	}

	// Initialize the transaction ledger
	l := ledger.New(gw, sender, publisher, m, logger)

	// Initialize HTTP server
	httpServer := server.New(cfg.ServerAddr, cfg, l, gw, m, logger)
	if err := httpServer.WithTemplates(); err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
