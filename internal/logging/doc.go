// Package logging assembles structured slog loggers and formatting helpers used
// across drivemover.
//
// It owns the configurable console/JSON handlers, the daily rotating log file,
// and retention pruning. Context-aware helpers tag log lines with the current
// cycle, mapping, and correlation ID so a single cycle can be followed through
// resolver, scanner, and mover output. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
