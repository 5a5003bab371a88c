// Package application assembles the report engine from configuration.
// Both the HTTP server and the command-line tool start here.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/reports/internal/catalog"
	"github.com/JonMunkholm/reports/internal/config"
	"github.com/JonMunkholm/reports/internal/convert"
	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/datasource"
	"github.com/JonMunkholm/reports/internal/markup"
	"github.com/JonMunkholm/reports/internal/reports"
)

// App is a fully wired engine.
type App struct {
	Config    *config.Config
	Catalog   *catalog.Catalog
	Registry  *core.Registry
	Connector datasource.Connector
	Converter *convert.Converter
	Printer   *convert.Printer
	Service   *core.Service
	Limiter   *convert.Limiter
}

// New builds the engine described by cfg. The data source is not
// contacted; use Ping to verify it.
func New(cfg *config.Config) (*App, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	reg := core.NewRegistry()
	reports.Register(reg, reports.Options{
		Templates: markup.NewRenderer(markup.NewDirStore(cfg.Catalog.TemplateDir)),
		FontSize:  float64(cfg.Render.FontSize),
	})
	if err := cat.Check(reg); err != nil {
		return nil, err
	}

	loc, err := cfg.Render.Location()
	if err != nil {
		return nil, fmt.Errorf("render time zone: %w", err)
	}

	conn, err := datasource.Open(cfg.DataSource)
	if err != nil {
		return nil, err
	}

	// Converter and printer share one limit on external processes.
	limiter := convert.NewLimiter(cfg.Convert.MaxConcurrent, cfg.Convert.MaxWaitTime)
	conv := convert.New(convert.Config{
		ChromePath:      cfg.Convert.ChromePath,
		LibreOfficePath: cfg.Convert.LibreOfficePath,
		TempDir:         cfg.Convert.TempDir,
		Limiter:         limiter,
	})
	printer := convert.NewPrinter(convert.PrinterConfig{
		Command:       cfg.Convert.PrintCommand,
		Args:          cfg.Convert.PrintArgs,
		StatusCommand: cfg.Convert.StatusCommand,
		StatusArgs:    cfg.Convert.StatusArgs,
		TempDir:       cfg.Convert.TempDir,
		Limiter:       limiter,
	})

	svc, err := core.NewService(core.ServiceConfig{
		Registry:          reg,
		Catalog:           cat,
		Connector:         conn,
		Converter:         conv,
		Printer:           printer,
		Margins:           core.UniformMargins(cfg.Render.Margin),
		DefaultDataSource: cfg.DataSource.URL,
		ManifestProcedure: cfg.DataSource.ManifestProcedure,
		Location:          loc,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("report engine ready",
		"reports", cat.Len(),
		"driver", cfg.DataSource.Driver,
		"templates", cfg.Catalog.TemplateDir,
		"max_conversions", cfg.Convert.MaxConcurrent,
	)

	return &App{
		Config:    cfg,
		Catalog:   cat,
		Registry:  reg,
		Connector: conn,
		Converter: conv,
		Printer:   printer,
		Service:   svc,
		Limiter:   limiter,
	}, nil
}

// Ping verifies that the default data source is reachable.
func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Config.DataSource.ConnectTimeout)
	defer cancel()
	return datasource.Ping(ctx, a.Connector, a.Config.DataSource.URL)
}

// Close waits for running conversions until ctx is done and releases the
// data source pools.
func (a *App) Close(ctx context.Context) error {
	if active := a.Limiter.ActiveCount(); active > 0 {
		slog.Info("waiting for conversions to complete", "active", active)
		if err := a.Limiter.WaitForDrain(ctx); err != nil {
			slog.Warn("conversions did not complete in time", "error", err)
		}
	}
	return a.Connector.Close()
}
