package main

import (
	"context"
	"errors"
	"os"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/sheets/memory"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting expense-sync-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	loc := cli.ResolveLocation(logger, cfg)
	repo := cli.InitRepository(ctx, logger, loc)
	defer repo.Close()

	mirror, err := newMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient := cli.ConnectAMQP(logger, cfg, true)
	defer amqpClient.Close()
	amqpClient.SetPrefetch(cfg.SyncBatchSize)

	syncWorker := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize)

	// Messages published while the worker was down are lost, so the mirror
	// is rebuilt from the store before consuming.
	logger.Info("Performing startup backfill...")
	if n, err := syncWorker.Backfill(ctx); err != nil {
		logger.Error("Startup backfill failed", applog.FieldError, err)
	} else {
		logger.Info("Startup backfill completed", applog.FieldCount, n)
	}

	err = amqpClient.ConsumeExpenseChanges(ctx, syncWorker.HandleChange)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Sync worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}

func newMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.ExpenseMirror, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
		return memory.New(), nil
	}

	creds, err := gsheet.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
