package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development
	envErr := cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout).WithComponent(log.ComponentWorker)
	if envErr != nil {
		logger.Warn("Ignoring .env file", log.FieldError, envErr)
	}

	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		os.Exit(1)
	}
	if cfg.DataBackend != backend.SQLiteBackend.String() {
		logger.Error("The worker mirrors the SQLite ledger and cannot run against another backend",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The worker only reads the ledger; it must not announce anything itself.
	backendCfg.AMQPURL = ""

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	if err := run(ctx, cfg, backendCfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker shutdown complete")
}

// run wires the store, the sheet and the broker, then consumes events and
// resyncs the mirror until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, backendCfg backend.Config, logger *log.Logger) error {
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer result.Cleanup()

	mirror, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(result.Backend, mirror, cfg.ListWindowMonths)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, mirrorWorker.HandleEvent)
	})
	g.Go(func() error {
		return mirrorWorker.RunResync(gctx, cfg.ResyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
