package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	if !cfg.MirrorEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker consumes events; it never publishes them.
	backendCfg.AMQPURL = ""

	startCtx := context.Background()
	result, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	mirror, err := gsheet.NewMirror(startCtx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", "error", err)
		os.Exit(1)
	}
	if err := mirror.EnsureHeader(startCtx); err != nil {
		logger.Error("Failed to write mirror header", "error", err)
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	syncWorker := worker.NewSyncWorker(result.Backend, mirror, cfg.SyncBatchSize)
	poller := worker.NewPoller(syncWorker, cfg.SyncInterval)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP consumer, relying on periodic sync", "error", err)
			consumer = nil
		}
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := poller.Stop(ctx); err != nil {
			logger.Error("Failed to stop sync poller", "error", err)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("Failed to close AMQP consumer", "error", err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Failed to cleanup backend", "error", err)
			}
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if err := poller.Start(ctx); err != nil {
		logger.Error("Failed to start sync poller", "error", err)
		os.Exit(1)
	}
	logger.Info("Periodic sync started", "interval", cfg.SyncInterval, "batch_size", cfg.SyncBatchSize)

	if consumer != nil {
		go func() {
			err := consumer.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption stopped", "error", err)
			}
		}()
		logger.Info("Consuming transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP not configured, relying on periodic sync")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
