// Package cli provides common CLI initialization utilities.
// This package consolidates the initialization shared by
// cmd/expense-tracker and cmd/expense-sync-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger at the configured level and
// installs it as the slog default. An unknown level falls back to info.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	if lvl, err := applog.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// ResolveLocation picks the store location from the configured directory
// and the temp-dir fallback chain. It never fails; a fallback is logged.
func ResolveLocation(logger *applog.Logger, cfg *config.Config) storage.Location {
	loc := storage.Resolve(
		storage.DefaultCandidates(cfg.DBDir, os.Getenv),
		storage.InstallDir(),
		cfg.DBFile,
	)
	if loc.Fallback {
		logger.Warn("No writable data directory found, using install directory",
			applog.FieldDBPath, loc.Path)
	} else {
		logger.Info("Resolved database location", applog.FieldDBPath, loc.Path)
	}
	return loc
}

// InitRepository opens the store at loc, exiting the process on failure.
func InitRepository(ctx context.Context, logger *applog.Logger, loc storage.Location) *storage.Repository {
	repo, err := storage.NewRepository(ctx, loc.Path)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, applog.FieldDBPath, loc.Path)
		os.Exit(1)
	}
	return repo
}

// ConnectAMQP returns a client when AMQP is configured, or nil. With
// required unset a connection failure is logged and nil returned, so the
// server keeps running without notifications.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config, required bool) *amqp.Client {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		if required {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Warn("AMQP unavailable, continuing without change notifications", applog.FieldError, err)
		return nil
	}

	logger.Info("AMQP client connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
