package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFile is an io.Writer appending to reports_YYYYMMDD.log under a
// directory, switching files when the local date changes.
type DailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyFile creates dir if needed and opens today's file.
// Errors wrap ErrLogAccess.
func NewDailyFile(dir string) (*DailyFile, error) {
	return newDailyFile(dir, time.Now)
}

func newDailyFile(dir string, now func() time.Time) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrLogAccess, dir, err)
	}
	d := &DailyFile{dir: dir, now: now}
	if err := d.rotate(d.now().Format("20060102")); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the file currently written to.
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pathFor(d.day)
}

func (d *DailyFile) pathFor(day string) string {
	return filepath.Join(d.dir, "reports_"+day+".log")
}

// rotate must be called with mu held or before d is shared.
func (d *DailyFile) rotate(day string) error {
	f, err := os.OpenFile(d.pathFor(day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogAccess, err)
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = f
	d.day = day
	return nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if day := d.now().Format("20060102"); day != d.day {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// Close closes the current file.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
