package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reports/internal/application"
	"github.com/JonMunkholm/reports/internal/config"
	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/logging"
)

type GenerateCmd struct {
	reportID   string
	manifestID string
	format     string
	params     []string
	print      bool
	printer    string
	user       string
	dataSource string
	out        string
	timeout    time.Duration
}

func NewGenerateCmd() *cobra.Command {
	gc := &GenerateCmd{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report and write it to a file",
		Example: `  reportctl generate --report R2470 --manifest 1234 --param ConsignmentID=77
  reportctl generate --report SUMentries9 --manifest 1234 --param FromDate=2024-01-01 --param ToDate=2024-01-31 --format pdf`,
		RunE: gc.run,
	}

	cmd.Flags().StringVar(&gc.reportID, "report", "", "Report id (see reportctl list)")
	cmd.Flags().StringVar(&gc.manifestID, "manifest", "", "Manifest id")
	cmd.Flags().StringVar(&gc.format, "format", "", "Output format: xlsx, html or pdf (default: the report's own)")
	cmd.Flags().StringArrayVarP(&gc.params, "param", "p", nil, "Report parameter as key=value; repeat in order")
	cmd.Flags().BoolVar(&gc.print, "print", false, "Send the report to --printer")
	cmd.Flags().StringVar(&gc.printer, "printer", "", "Printer name")
	cmd.Flags().StringVar(&gc.user, "user", os.Getenv("USER"), "User shown on the report")
	cmd.Flags().StringVar(&gc.dataSource, "datasource", "", "Data source locator (default: DATABASE_URL)")
	cmd.Flags().StringVarP(&gc.out, "out", "o", "", "Output file (default: <report>_<manifest>_<id>.<ext>)")
	cmd.Flags().DurationVar(&gc.timeout, "timeout", 2*time.Minute, "Maximum time for generation and conversion")

	_ = cmd.MarkFlagRequired("report")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, args []string) error {
	req, err := gc.request()
	if err != nil {
		return err
	}

	// The locator flag satisfies the required DATABASE_URL setting.
	if gc.dataSource != "" && os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_URL") == "" {
		os.Setenv("DATABASE_URL", gc.dataSource)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logFile, err := logging.SetupWithFile(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Dir)
	if err != nil {
		return core.Wrap(core.LogAccessFailure, err)
	}
	defer logFile.Close()

	app, err := application.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), gc.timeout)
	defer cancel()
	ctx = core.ContextWithUser(ctx, req.User)

	doc, err := app.Service.Execute(ctx, req)
	if err != nil {
		return err
	}

	path := gc.out
	if path == "" {
		path = outputName(req, doc)
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", path, len(doc.Data))
	return nil
}

// request builds the engine request from the flags.
func (gc *GenerateCmd) request() (*core.Request, error) {
	params, err := parseParams(gc.params)
	if err != nil {
		return nil, err
	}
	return &core.Request{
		ReportID:    core.ReportID(gc.reportID),
		ManifestID:  gc.manifestID,
		Format:      gc.format,
		Parameters:  params,
		IsPrint:     gc.print,
		PrinterName: gc.printer,
		User:        gc.user,
		DataSource:  gc.dataSource,
	}, nil
}

// parseParams reads key=value pairs, keeping their order. Values stay
// strings; the data source converts them.
func parseParams(pairs []string) (core.Params, error) {
	var p core.Params
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return core.Params{}, core.Errorf(core.InvalidInput, "parameter %q is not key=value", kv)
		}
		p = p.With(k, v)
	}
	return p, nil
}

func outputName(req *core.Request, doc *core.Document) string {
	parts := []string{}
	for _, id := range []string{string(req.ReportID), req.ManifestID} {
		if p := pathElement(id); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, uuid.NewString()[:8])
	return strings.Join(parts, "_") + doc.Extension()
}

// pathElement keeps the last element of id so it cannot leave the working
// directory.
func pathElement(id string) string {
	p := filepath.Base(strings.TrimSpace(id))
	switch p {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return p
}
