package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const dailyLayout = "2006-01-02"

// DailyFile is an io.Writer that appends to <dir>/<prefix>-YYYY-MM-DD.log and
// switches files at local midnight. Each switch prunes files older than the
// retention window.
type DailyFile struct {
	mu            sync.Mutex
	dir           string
	prefix        string
	retentionDays int
	now           func() time.Time

	day  string
	file *os.File
}

// OpenDailyFile opens today's log file, creating dir if needed, and prunes
// files outside the retention window.
func OpenDailyFile(dir, prefix string, retentionDays int) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	d := &DailyFile{dir: dir, prefix: prefix, retentionDays: retentionDays, now: time.Now}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(d.now()); err != nil {
		return nil, err
	}
	return d, nil
}

// Write appends p to the current day's file, rotating first when the date changed.
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if d.file == nil || now.Format(dailyLayout) != d.day {
		if err := d.rotateLocked(now); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// Path returns the file currently being written.
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pathFor(d.day)
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

func (d *DailyFile) pathFor(day string) string {
	return filepath.Join(d.dir, d.prefix+"-"+day+".log")
}

func (d *DailyFile) rotateLocked(now time.Time) error {
	day := now.Format(dailyLayout)
	path := d.pathFor(day)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.day = day
	CleanupOldLogs(nil, d.retentionDays, RetentionTarget{
		Dir:     d.dir,
		Pattern: d.prefix + "-*.log",
		Exclude: []string{path},
		now:     now,
	})
	return nil
}
