package main

import (
	"context"
	"os"

	"salarydash/internal/cli"
	applog "salarydash/internal/log"
	"salarydash/internal/metrics"
	"salarydash/internal/sheets"
	gsheet "salarydash/internal/sheets/google"
	"salarydash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting salarydash-worker")
	metrics.Init()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	res := cli.OpenBackend(context.Background(), logger, cfg)
	if res.Events == nil {
		logger.Error("AMQP broker unreachable", "url_set", cfg.AMQPURL != "")
		_ = res.Cleanup()
		os.Exit(1)
	}

	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			_ = res.Cleanup()
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled, events are consumed and dropped")
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	w := worker.NewSyncWorker(res.Store, ledger)
	if err := w.Run(ctx, res.Events, cfg.WorkerPrefetch); err != nil {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
