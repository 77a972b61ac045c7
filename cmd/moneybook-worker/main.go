package main

import (
	"context"
	"errors"
	"os"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/cli"
	applog "moneybook/internal/log"
	gsheet "moneybook/internal/sheets/google"
	"moneybook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting moneybook-worker")

	journal := cli.OpenJournal(logger, cfg.SQLiteDBPath)
	defer journal.Close()

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}
	sheetClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(journal, sheetClient, cfg.ExportBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Drain any submissions recorded while the worker was down.
	if err := exportWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
	}

	// Consume batch-recorded events, reconnecting on broker hiccups.
	go func() {
		for {
			err := amqpClient.ConsumeBatchRecorded(ctx, func(msg *amqp.BatchRecordedMessage) error {
				return exportWorker.HandleBatchRecorded(ctx, msg)
			})
			if err == nil || errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("Message consumption failed", "error", err)

			if err := amqpClient.Reconnect(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("AMQP reconnect failed, stopping consumer", "error", err)
				}
				return
			}
			logger.Info("AMQP connection reestablished")
		}
	}()

	// Periodic sweep for submissions whose events were lost.
	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	}()

	<-ctx.Done()
	<-done
	logger.Info("Worker stopped gracefully")
}
