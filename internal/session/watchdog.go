package session

import (
	"context"
	"log/slog"

	"drivemover/internal/logging"
	"drivemover/internal/remote"
	"drivemover/internal/retry"
)

// DefaultEvery is the default number of cycles between session checks.
const DefaultEvery = 10

// Watchdog probes the account endpoint to confirm the session is still valid.
type Watchdog struct {
	client remote.Client
	exec   *retry.Executor
	every  int
	logger *slog.Logger
}

// NewWatchdog builds a watchdog that is due every `every` cycles.
func NewWatchdog(client remote.Client, exec *retry.Executor, every int, logger *slog.Logger) *Watchdog {
	if every < 1 {
		every = DefaultEvery
	}
	return &Watchdog{
		client: client,
		exec:   exec,
		every:  every,
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// Due reports whether cycle should start with a session check. The first
// cycle never does; startup validation already covered it.
func (w *Watchdog) Due(cycle int) bool {
	return cycle > 1 && cycle%w.every == 0
}

// Identity returns the account identity through the retry executor.
func (w *Watchdog) Identity(ctx context.Context) (remote.Identity, error) {
	return retry.Execute(ctx, w.exec, "account identity", w.client.AccountIdentity)
}

// IsValid reports whether the session is usable. Any failure counts as invalid.
func (w *Watchdog) IsValid(ctx context.Context) bool {
	logger := logging.WithContext(ctx, w.logger)
	identity, err := w.Identity(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "session check failed", "session_invalid",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, RemediationHint),
		)
		return false
	}
	if !identity.Success {
		logging.ErrorWithContext(logger, "session check rejected", "session_invalid",
			logging.String(logging.FieldErrorHint, RemediationHint),
		)
		return false
	}
	logger.Info("session valid",
		logging.String("user", identity.UserName),
		logging.String("user_id", identity.UserID),
	)
	return true
}
