// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, and optionally mirrors every
// entry into a per-day log file next to the console output.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, level, format)))
}

// SetupWithFile configures the global logger to write to stdout and to a
// daily file under dir. The returned closer releases the file.
// An empty dir behaves like Setup.
func SetupWithFile(level, format, dir string) (io.Closer, error) {
	if dir == "" {
		Setup(level, format)
		return nopCloser{}, nil
	}

	fw, err := NewDailyFile(dir)
	if err != nil {
		return nil, err
	}

	w := io.MultiWriter(os.Stdout, fw)
	slog.SetDefault(slog.New(newHandler(w, level, format)))
	return fw, nil
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns a logger enriched with request context.
//
// When called with a request context that contains a chi RequestID,
// the returned logger automatically includes request_id in all log entries.
//
// Usage:
//
//	func handleGenerate(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("generating report", "report_id", id)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	reportLogger := logging.WithFields(ctx,
//	    logging.ReportFields(id, manifestID, user, params)...,
//	)
//	reportLogger.Info("report requested")
//	// ... later ...
//	reportLogger.Info("report generated", "bytes", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ReportFields returns the correlation attributes carried by every log
// line about one report request.
func ReportFields(reportID, manifestID, user, params string) []any {
	return []any{
		slog.String("report_id", reportID),
		slog.String("manifest_id", manifestID),
		slog.String("user", user),
		slog.String("params", params),
	}
}

// ErrLogAccess is returned when the log file sink cannot be opened.
var ErrLogAccess = errors.New("log access failure")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
