// Package cli provides common initialization utilities shared by
// cmd/moneybook, cmd/moneybook-worker and cmd/oauth-init.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"moneybook/internal/config"
	"moneybook/internal/history"
	"moneybook/internal/log"
)

// SetupLogger initializes structured logging for the given component and
// installs it as the default logger. LOG_LEVEL and LOG_FORMAT override the
// defaults.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = format
	}

	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenJournal opens the submission journal at the given path.
// Returns the store or exits the process on failure.
func OpenJournal(logger *log.Logger, dbPath string) *history.Store {
	journal, err := history.Open(dbPath)
	if err != nil {
		logger.Error("Failed to open submission journal", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return journal
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that is cancelled on SIGINT/SIGTERM, and a channel that
// closes when the cleanup function has run.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
		close(done)
	}()

	return ctx, done
}
