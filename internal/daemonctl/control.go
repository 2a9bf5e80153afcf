// Package daemonctl inspects and stops a running agent through its lock and
// PID files.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"drivemover/internal/config"
)

// ErrNotRunning reports that no agent holds the lock.
var ErrNotRunning = errors.New("drivemover agent is not running")

// Status describes the agent process as seen from the data directory.
type Status struct {
	Running  bool
	PID      int
	LockPath string
	PIDPath  string
}

// Inspect reports whether an agent holds the lock and, if so, its PID.
func Inspect(cfg *config.Config) (Status, error) {
	if cfg == nil {
		return Status{}, errors.New("config is required")
	}
	status := Status{LockPath: cfg.LockFile(), PIDPath: cfg.PIDFile()}

	if _, err := os.Stat(status.LockPath); errors.Is(err, os.ErrNotExist) {
		return status, nil
	}
	lock := flock.New(status.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return status, fmt.Errorf("probe lock: %w", err)
	}
	if locked {
		_ = lock.Unlock()
		return status, nil
	}

	status.Running = true
	pid, err := readPID(status.PIDPath)
	if err != nil {
		return status, err
	}
	status.PID = pid
	return status, nil
}

// Stop sends SIGTERM to the running agent and waits for it to release the lock.
func Stop(cfg *config.Config, timeout time.Duration) error {
	status, err := Inspect(cfg)
	if err != nil {
		return err
	}
	if !status.Running {
		return ErrNotRunning
	}
	if status.PID <= 0 {
		return fmt.Errorf("agent holds %s but no pid was recorded in %s", status.LockPath, status.PIDPath)
	}
	proc, err := os.FindProcess(status.PID)
	if err != nil {
		return fmt.Errorf("find process %d: %w", status.PID, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal process %d: %w", status.PID, err)
	}
	return WaitForShutdown(cfg, timeout)
}

// WaitForShutdown polls until no agent holds the lock.
func WaitForShutdown(cfg *config.Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := Inspect(cfg)
		if err == nil && !status.Running {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("agent %d still running", status.PID)
		}
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("agent did not stop: %w", lastErr)
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pid, nil
}
