package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/tools"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	loc := cli.ResolveLocation(logger, cfg)
	repo := cli.InitRepository(ctx, logger, loc)

	var publisher services.ChangePublisher
	if amqpClient := cli.ConnectAMQP(logger, cfg, false); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	svc := services.NewExpenseService(repo, publisher, loc)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close store", applog.FieldError, err)
		}
	}()

	mcp := tools.NewServer("expense-tracker", version, tools.New(svc, logger))
	srv := apphttp.NewServer(apphttp.Options{
		Addr:      cfg.Addr(),
		Endpoint:  cfg.Endpoint,
		RateLimit: cfg.RateLimit,
		Ready:     repo.Ping,
	}, mcp, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker MCP server",
			applog.FieldOperation, applog.OpStartup, "addr", cfg.Addr(), "endpoint", cfg.Endpoint, applog.FieldDBPath, loc.Path, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down MCP server", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
