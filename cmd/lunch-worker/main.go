package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"lunchreports/internal/amqp"
	"lunchreports/internal/backend"
	"lunchreports/internal/cli"
	"lunchreports/internal/log"
	"lunchreports/internal/services"
	gsheet "lunchreports/internal/sheets/google"
	"lunchreports/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.MustLoadConfig(bootLogger)
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("component", log.ComponentWorker)

	logger.Info("Starting lunch-worker")

	if !cfg.HasAMQP() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to create backend config", "error", err)
		os.Exit(1)
	}
	// The worker only reads; it consumes exports instead of publishing them.
	backendConfig.AMQPURL = ""

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	}()

	var exporter worker.Exporter
	if cfg.HasSheets() {
		sheets, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = sheets
		logger.Info("Exporting to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		exporter = worker.PDFDirExporter{Dir: cfg.ExportDir}
		logger.Info("No spreadsheet configured, exporting PDFs", "dir", cfg.ExportDir)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	appLogger := log.New(log.Config{Component: log.ComponentWorker, Handler: logger.Handler()})
	reports := services.NewReportService(result.Backend, appLogger)
	exportWorker := worker.NewExportWorker(reports, exporter, cfg.ExportTimeout)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeWithReconnect(gctx, exportWorker.HandleExport)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	if ctx.Err() == nil {
		logger.Warn("Export consumer stopped")
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
