package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/logging"
)

// Placeholders substituted in printer command arguments.
const (
	PrinterPlaceholder = "{printer}"
	FilePlaceholder    = "{file}"
)

// printerName accepts spooler queue names; anything else never reaches a
// command line.
var printerName = regexp.MustCompile(`^[\p{L}\p{N}_.@:/\\-][\p{L}\p{N} _.@:/\\-]*$`)

// notReady marks status output of a printer that cannot take jobs.
var notReady = []string{"disabled", "not accepting", "unknown", "invalid", "does not exist"}

// PrinterConfig configures a Printer.
type PrinterConfig struct {
	Command       string
	Args          []string
	StatusCommand string // empty skips the status check
	StatusArgs    []string
	TempDir       string
	Limiter       *Limiter
	Runner        Runner
}

// Printer implements core.Printer with the system spooler.
type Printer struct {
	cfg PrinterConfig
}

// NewPrinter returns a printer. A nil Runner runs real programs.
func NewPrinter(cfg PrinterConfig) *Printer {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewLimiter(DefaultMaxConcurrent, DefaultMaxWaitTime)
	}
	return &Printer{cfg: cfg}
}

// Status checks that device exists and accepts jobs.
func (p *Printer) Status(ctx context.Context, device string) error {
	if !printerName.MatchString(device) {
		return core.Errorf(core.DeviceUnavailable, "invalid printer name %q", device)
	}
	if p.cfg.StatusCommand == "" {
		return nil
	}

	out, err := p.cfg.Runner.Run(ctx, p.cfg.StatusCommand, substitute(p.cfg.StatusArgs, device, "")...)
	if err != nil {
		return core.Errorf(core.DeviceUnavailable, "printer %q: %w", device, err)
	}
	status := strings.ToLower(string(out))
	for _, s := range notReady {
		if strings.Contains(status, s) {
			return core.Errorf(core.DeviceUnavailable, "printer %q: %s", device, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

// Submit checks the printer and spools pdf to it.
func (p *Printer) Submit(ctx context.Context, pdf []byte, device string) error {
	if err := p.Status(ctx, device); err != nil {
		return err
	}

	if err := p.cfg.Limiter.Acquire(ctx); err != nil {
		return err
	}
	defer p.cfg.Limiter.Release()

	dir, err := os.MkdirTemp(p.cfg.TempDir, "print-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, uuid.NewString()+".pdf")
	if err := os.WriteFile(file, pdf, 0o600); err != nil {
		return fmt.Errorf("stage print job: %w", err)
	}

	if _, err := p.cfg.Runner.Run(ctx, p.cfg.Command, substitute(p.cfg.Args, device, file)...); err != nil {
		return fmt.Errorf("print to %q: %w", device, err)
	}
	logging.FromContext(ctx).Info("print job submitted", "printer", device, "bytes", len(pdf))
	return nil
}

func substitute(args []string, device, file string) []string {
	r := strings.NewReplacer(PrinterPlaceholder, device, FilePlaceholder, file)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}
