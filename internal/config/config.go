package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directories used by the agent.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Remote contains connection settings for the drive account.
type Remote struct {
	Cookie     string `toml:"cookie"`
	BaseURL    string `toml:"base_url"`
	AccountURL string `toml:"account_url"`
	UserAgent  string `toml:"user_agent"`
}

// PathMapping is one declared source -> target rule.
type PathMapping struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// String renders the mapping the way it is written in PATH_MAPPINGS.
func (m PathMapping) String() string {
	return m.Source + "->" + m.Target
}

// Filter contains the candidate selection rules.
type Filter struct {
	MinFileSize       string   `toml:"min_file_size"`
	ExcludeExtensions []string `toml:"exclude_extensions"`
}

// Schedule contains cycle timing settings.
type Schedule struct {
	CheckIntervalMinutes int `toml:"check_interval_minutes"`
	SessionCheckCycles   int `toml:"session_check_cycles"`
	MovePauseMillis      int `toml:"move_pause_ms"`
}

// Retry contains the process-wide remote call policy.
type Retry struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	Count          int `toml:"count"`
	BackoffSeconds int `toml:"backoff_seconds"`
}

// Notifications contains the optional alert and callback endpoints.
type Notifications struct {
	AlertURL       string `toml:"alert_url"`
	CallbackURL    string `toml:"callback_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for drivemover.
//
// Configuration sections by subsystem:
//   - Paths: data (credential cache, lock) and log directories
//   - Remote: drive API endpoints and the session cookie
//   - Mappings / MappingList: the source -> target rules
//   - Filter: minimum size and excluded extensions
//   - Schedule: cycle interval, session check cadence, move pacing
//   - Retry: per-call timeout, attempts, and backoff
//   - Notifications: alert and post-cycle callback endpoints
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Remote        Remote        `toml:"remote"`
	Mappings      []PathMapping `toml:"mappings"`
	MappingList   string        `toml:"mapping_list"`
	Filter        Filter        `toml:"filter"`
	Schedule      Schedule      `toml:"schedule"`
	Retry         Retry         `toml:"retry"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`

	// MinFileSizeBytes is Filter.MinFileSize parsed during normalization.
	MinFileSizeBytes int64 `toml:"-"`
	// Warnings collects adjustments made while normalizing so the daemon can
	// log them once the logger exists.
	Warnings []string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// variables are applied on top of the file. The returned config has all path
// fields expanded and mappings normalized. Mapping presence is left to
// Validate so browsing commands work before any mapping exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.validateCore(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("drivemover.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CookieFile returns the path of the persisted session cookie.
func (c *Config) CookieFile() string {
	return filepath.Join(c.Paths.DataDir, cookieFileName)
}

// LockFile returns the path of the single-instance lock.
func (c *Config) LockFile() string {
	return filepath.Join(c.Paths.DataDir, "drivemover.lock")
}

// PIDFile returns the path where a running agent records its process ID.
func (c *Config) PIDFile() string {
	return filepath.Join(c.Paths.DataDir, "drivemover.pid")
}

// CheckInterval returns the pause between cycles.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Schedule.CheckIntervalMinutes) * time.Minute
}

// MovePause returns the pause enforced between individual move calls.
func (c *Config) MovePause() time.Duration {
	return time.Duration(c.Schedule.MovePauseMillis) * time.Millisecond
}

// CallTimeout returns the per-attempt remote call budget.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Retry.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the base backoff between retry attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Retry.BackoffSeconds) * time.Second
}

// NotificationTimeout returns the request budget for alerts and callbacks.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
