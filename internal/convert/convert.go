// Package convert turns rendered documents into PDF and submits them to
// printers by running external programs: a headless Chrome for HTML, a
// headless LibreOffice for spreadsheets and the system print spooler.
//
// Every call stages its files in a fresh temporary directory that is
// removed before the call returns.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/logging"
)

// Runner runs an external program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run runs name with args, killing it when ctx is done.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Config configures a Converter.
type Config struct {
	ChromePath      string
	LibreOfficePath string
	TempDir         string // empty uses os.TempDir
	Limiter         *Limiter
	Runner          Runner
}

// Converter implements core.Converter.
type Converter struct {
	chrome  string
	soffice string
	tempDir string
	limiter *Limiter
	runner  Runner
}

// New returns a converter. A nil Runner runs real programs and a nil
// Limiter applies the default limits.
func New(cfg Config) *Converter {
	c := &Converter{
		chrome:  cfg.ChromePath,
		soffice: cfg.LibreOfficePath,
		tempDir: cfg.TempDir,
		limiter: cfg.Limiter,
		runner:  cfg.Runner,
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	if c.limiter == nil {
		c.limiter = NewLimiter(DefaultMaxConcurrent, DefaultMaxWaitTime)
	}
	return c
}

// Limiter returns the limiter shared by conversions, for shutdown and
// health reporting.
func (c *Converter) Limiter() *Limiter { return c.limiter }

// ConvertToFixedLayout converts doc to PDF. PDF input is returned as is.
func (c *Converter) ConvertToFixedLayout(ctx context.Context, doc *core.Document, margins core.Margins) ([]byte, error) {
	switch doc.Format {
	case core.DocPDF:
		return doc.Data, nil
	case core.DocHTML:
		return c.run(ctx, doc, func(dir, in, out string) []string {
			return []string{
				"--headless=new",
				"--disable-gpu",
				"--no-sandbox",
				"--no-pdf-header-footer",
				"--print-to-pdf=" + out,
				"file://" + in,
			}
		}, c.chrome, withPageMargins(doc.Data, margins))
	case core.DocXLSX:
		return c.run(ctx, doc, func(dir, in, _ string) []string {
			return []string{"--headless", "--convert-to", "pdf", "--outdir", dir, in}
		}, c.soffice, doc.Data)
	}
	return nil, fmt.Errorf("cannot convert %s documents", doc.Format)
}

// run stages data, runs program with the arguments built by args and
// reads the PDF it writes next to the input.
func (c *Converter) run(ctx context.Context, doc *core.Document, args func(dir, in, out string) []string, program string, data []byte) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.limiter.Release()

	dir, err := os.MkdirTemp(c.tempDir, "report-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	name := uuid.NewString()
	in := filepath.Join(dir, name+doc.Extension())
	out := filepath.Join(dir, name+".pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("stage document: %w", err)
	}

	start := time.Now()
	if _, err := c.runner.Run(ctx, program, args(dir, in, out)...); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("document converted",
		"program", filepath.Base(program),
		"format", string(doc.Format),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	pdf, err := os.ReadFile(out)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s produced no output", filepath.Base(program))
		}
		return nil, fmt.Errorf("read converted document: %w", err)
	}
	return pdf, nil
}

// withPageMargins injects an @page rule so the browser prints with the
// configured margins.
func withPageMargins(html []byte, m core.Margins) []byte {
	if m == (core.Margins{}) {
		return html
	}
	style := fmt.Sprintf("<style>@page { margin: %s %s %s %s; }</style>", m.Top, m.Right, m.Bottom, m.Left)

	if i := bytes.Index(bytes.ToLower(html), []byte("<head>")); i >= 0 {
		at := i + len("<head>")
		out := make([]byte, 0, len(html)+len(style))
		out = append(out, html[:at]...)
		out = append(out, style...)
		return append(out, html[at:]...)
	}
	return append([]byte(style), html...)
}
