package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/reports/internal/application"
	"github.com/JonMunkholm/reports/internal/config"
	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/logging"
	"github.com/JonMunkholm/reports/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logFile, err := logging.SetupWithFile(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Dir)
	if err != nil {
		slog.Error("failed to open log file", "error", core.Wrap(core.LogAccessFailure, err), "code", core.LogAccessFailure.Code())
		os.Exit(1)
	}
	defer logFile.Close()

	slog.Info("configuration loaded", "config", cfg.String())

	app, err := application.New(cfg)
	if err != nil {
		slog.Error("failed to build report engine", "error", err)
		os.Exit(1)
	}

	// The data source may come up later; requests fail with
	// DataAccessFailure until it does.
	if err := app.Ping(context.Background()); err != nil {
		slog.Warn("default data source unreachable", "error", err)
	} else {
		slog.Info("connected to data source", "driver", cfg.DataSource.Driver)
	}

	server := web.NewServer(web.Options{
		Service:  app.Service,
		Catalog:  app.Catalog,
		Server:   cfg.Server,
		Security: cfg.Security,
		Checks: map[string]web.HealthCheck{
			"datasource": app.Ping,
		},
		Status: func() any { return app.Limiter.Status() },
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := app.Close(shutdownCtx); err != nil {
			slog.Error("close error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
