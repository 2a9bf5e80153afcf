package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/mover"
	"drivemover/internal/notifications"
	"drivemover/internal/remote"
	"drivemover/internal/remote/drive115"
	"drivemover/internal/retry"
	"drivemover/internal/services"
	"drivemover/internal/session"
)

// ErrAlreadyRunning reports that another agent holds the data directory lock.
var ErrAlreadyRunning = errors.New("another drivemover agent is already running")

// Options configures agent process runtime behavior.
type Options struct {
	// Once runs a single cycle and exits.
	Once bool
	// LogLevel overrides the configured level when set.
	LogLevel string
	// Logger replaces the configured stdout and daily file logger.
	Logger *slog.Logger
	// NewClient builds the drive client; defaults to the 115 web API client.
	NewClient func(cfg *config.Config, cookie string) remote.Client
	// Notifier replaces the configured dispatcher.
	Notifier notifications.Dispatcher
	// MoverOptions are passed through to the orchestrator.
	MoverOptions []mover.Option
}

// Run starts the agent and blocks until it stops. Configuration problems and
// lock contention are returned as errors; session expiry and interruption are
// reported through the result.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (mover.Result, error) {
	if cfg == nil {
		return mover.Result{}, fmt.Errorf("%w: config is required", services.ErrConfiguration)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger := opts.Logger
	if logger == nil {
		var daily *logging.DailyFile
		var err error
		logger, daily, err = logging.NewFromConfig(cfg)
		if err != nil {
			return mover.Result{}, fmt.Errorf("init logger: %w", err)
		}
		if daily != nil {
			defer daily.Close()
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: logging.LogFilePrefix + "-*.log",
				Exclude: []string{daily.Path()},
			})
		}
	}
	logger = logger.With(logging.String("session_id", uuid.NewString()))
	logger = logging.NewComponentLogger(logger, "agent")

	for _, warning := range cfg.Warnings {
		logging.WarnWithContext(logger, warning, "config_adjusted",
			logging.String(logging.FieldErrorHint, "fix the value in the config file or environment"),
			logging.String(logging.FieldImpact, "a default or clamped value is used"),
		)
	}
	if err := cfg.Validate(); err != nil {
		logging.ErrorWithContext(logger, "invalid configuration", "config_invalid",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set PATH_MAPPINGS like /Downloads->/Media,/Other->/Archive"),
		)
		return mover.Result{}, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return mover.Result{}, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return mover.Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return mover.Result{}, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockFile())
	}
	defer func() { _ = lock.Unlock() }()

	pidPath := cfg.PIDFile()
	if err := writePIDFile(pidPath); err != nil {
		return mover.Result{}, fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store := session.NewFileStore(cfg.CookieFile())
	cred, err := session.ResolveCredential(cfg.Remote.Cookie, store)
	if err != nil {
		logging.ErrorWithContext(logger, "no session credential", "credential_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, session.RemediationHint),
		)
		return mover.Result{}, err
	}

	newClient := opts.NewClient
	if newClient == nil {
		newClient = func(cfg *config.Config, cookie string) remote.Client {
			return drive115.NewFromConfig(cfg, cookie)
		}
	}
	client := newClient(cfg, cred.Cookie)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewDispatcher(cfg, logger)
	}
	exec := retry.New(retry.PolicyFromConfig(cfg), logger, retry.WithAlerter(notifier))

	logger.Info("drivemover agent starting",
		logging.Int("mappings", len(cfg.Mappings)),
		logging.String("min_file_size", config.FormatSize(cfg.MinFileSizeBytes)),
		logging.Duration("check_interval", cfg.CheckInterval()),
		logging.Bool("fresh_credential", cred.Fresh),
		logging.Bool("once", opts.Once),
	)

	watchdog := session.NewWatchdog(client, exec, cfg.Schedule.SessionCheckCycles, logger)
	if !watchdog.IsValid(signalCtx) {
		if signalCtx.Err() != nil {
			return mover.Result{Reason: mover.ReasonInterrupted}, nil
		}
		notifier.Alert(signalCtx, "drivemover - Session expired",
			"The drive session was rejected at startup. "+session.RemediationHint, notifications.UrgencyUrgent)
		return mover.Result{Reason: mover.ReasonSessionExpired}, nil
	}
	if saved, err := session.Persist(cred, store); err != nil {
		logging.WarnWithContext(logger, "unable to persist session credential", "credential_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
			logging.String(logging.FieldImpact, "COOKIE must be supplied again on next start"),
		)
	} else if saved {
		logger.Info("session credential saved", logging.String("path", store.Path()))
	}

	orch := mover.New(client, exec, notifier, logger, mover.OptionsFromConfig(cfg), opts.MoverOptions...)
	var result mover.Result
	if opts.Once {
		result, err = orch.RunOnce(signalCtx)
	} else {
		result, err = orch.Run(signalCtx)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "agent cannot start", "startup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the mapping folders exist on the drive"),
		)
		return result, err
	}
	logger.Info("drivemover agent shutting down", logging.String("reason", string(result.Reason)))
	return result, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
