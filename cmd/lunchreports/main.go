package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"lunchreports/internal/backend"
	"lunchreports/internal/cli"
	apphttp "lunchreports/internal/http"
	"lunchreports/internal/log"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.MustLoadConfig(bootLogger)
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to create backend config", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	appLogger := log.New(log.Config{Component: log.ComponentApp, Handler: logger.Handler()})
	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, apphttp.Options{
		Logger:          appLogger,
		Publisher:       result.Publisher,
		ReportCacheSize: cfg.ReportCacheSize,
		ReportCacheTTL:  cfg.ReportCacheTTL,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting lunchreports server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"exports", result.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
