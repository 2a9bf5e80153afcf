package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"drivemover/internal/config"
)

// LogFilePrefix names the daily log files written to the log directory.
const LogFilePrefix = "drivemover"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Writer receives terminal output; nil means stdout.
	Writer io.Writer
	// File optionally receives a copy of every record in the same format.
	File        io.Writer
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	build := func(w io.Writer) (slog.Handler, error) {
		switch format {
		case "json":
			return newJSONHandler(w, levelVar, addSource), nil
		case "console":
			return newPrettyHandler(w, levelVar, addSource), nil
		default:
			return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
		}
	}

	primary, err := build(writer)
	if err != nil {
		return nil, err
	}
	if opts.File == nil {
		return slog.New(primary), nil
	}
	file, err := build(opts.File)
	if err != nil {
		return nil, err
	}
	return slog.New(newFanoutHandler(primary, file)), nil
}

// NewFromConfig creates a logger that writes to stdout and to a daily rotating
// file in the configured log directory. The caller owns the returned file.
func NewFromConfig(cfg *config.Config) (*slog.Logger, *DailyFile, error) {
	if cfg == nil {
		logger, err := New(Options{Level: "info", Format: "console"})
		return logger, nil, err
	}

	opts := Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}

	var daily *DailyFile
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		var err error
		daily, err = OpenDailyFile(cfg.Paths.LogDir, LogFilePrefix, cfg.Logging.RetentionDays)
		if err != nil {
			return nil, nil, err
		}
		opts.File = daily
	}

	logger, err := New(opts)
	if err != nil {
		if daily != nil {
			_ = daily.Close()
		}
		return nil, nil, err
	}
	return logger, daily, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
