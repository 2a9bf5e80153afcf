package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/notifications"
	"drivemover/internal/remote"
	"drivemover/internal/services"
)

// Policy bounds how remote calls are attempted.
type Policy struct {
	MaxAttempts int
	Timeout     time.Duration
	BaseBackoff time.Duration
}

// PolicyFromConfig derives the policy from normalized configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		MaxAttempts: cfg.Retry.Count,
		Timeout:     cfg.CallTimeout(),
		BaseBackoff: cfg.RetryBackoff(),
	}
}

// Alerter receives the exhaustion alert.
type Alerter interface {
	Alert(ctx context.Context, title, body string, urgency notifications.Urgency)
}

// Option customizes an Executor.
type Option func(*Executor)

// WithAlerter sets the alert sink used when attempts are exhausted.
func WithAlerter(alerter Alerter) Option {
	return func(e *Executor) {
		e.alerter = alerter
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(e *Executor) {
		e.sleeper = sleeper
	}
}

// Executor applies a Policy to operations.
type Executor struct {
	policy  Policy
	logger  *slog.Logger
	alerter Alerter
	sleeper func(time.Duration)
}

// New constructs an executor. MaxAttempts below one is treated as one.
func New(policy Policy, logger *slog.Logger, opts ...Option) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	e := &Executor{
		policy: policy,
		logger: logging.NewComponentLogger(logger, "retry"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the executor's policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Do runs op under the retry policy.
func (e *Executor) Do(ctx context.Context, label string, op func(context.Context) error) error {
	_, err := Execute(ctx, e, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Execute runs op under the executor's policy and returns its value.
//
// Authentication failures return at once, tagged with services.ErrAuth.
// Other failures and attempt timeouts are retried, sleeping attempt×BaseBackoff
// between tries. Exhaustion returns the last error tagged with
// services.ErrTransient and fires an alert. Cancellation of ctx returns
// immediately without alerting.
func Execute[T any](ctx context.Context, e *Executor, label string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	logger := logging.WithContext(ctx, e.logger).With(logging.String("operation", label))
	maxAttempts := e.policy.MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		logger.Debug("attempt started",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", maxAttempts),
		)
		value, err := runAttempt(ctx, e.policy.Timeout, label, op)
		if err == nil {
			if attempt > 1 {
				logger.Info("operation recovered after retry", logging.Int("attempt", attempt))
			}
			return value, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if remote.IsAuth(err) {
			logging.ErrorWithContext(logger, "authentication rejected; not retrying", "auth_failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "refresh the COOKIE value and restart"),
			)
			if !errors.Is(err, services.ErrAuth) {
				err = services.Wrap(services.ErrAuth, "retry", label, "authentication rejected", err)
			}
			return zero, err
		}

		lastErr = err
		logging.WarnWithContext(logger, "attempt failed", "attempt_failed",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", maxAttempts),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient drive or network fault; will retry"),
			logging.String(logging.FieldImpact, "operation delayed"),
		)
		if attempt == maxAttempts {
			break
		}

		delay := time.Duration(attempt) * e.policy.BaseBackoff
		logger.Info("backing off before retry",
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
		)
		if err := e.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	wrapped := services.Wrap(services.ErrTransient, "retry", label, fmt.Sprintf("failed after %d attempts", maxAttempts), lastErr)
	logging.ErrorWithContext(logger, "retries exhausted", "retries_exhausted",
		logging.Int("max_attempts", maxAttempts),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "check drive availability and network connectivity"),
	)
	if e.alerter != nil {
		e.alerter.Alert(ctx, "drivemover - Operation failed",
			fmt.Sprintf("%s failed after %d attempts: %v", label, maxAttempts, lastErr),
			notifications.UrgencyHigh)
	}
	return zero, wrapped
}

// runAttempt runs op on its own goroutine and waits at most timeout for it.
// The result channel is buffered so an abandoned attempt can still finish.
func runAttempt[T any](ctx context.Context, timeout time.Duration, label string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := op(attemptCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !remote.IsAuth(out.err) {
			return zero, timeoutError(label, timeout, out.err)
		}
		return out.value, out.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, timeoutError(label, timeout, nil)
	}
}

// timeoutError carries a transient kind so auth classification never falls
// back to reading the label, which may hold file names.
func timeoutError(label string, timeout time.Duration, cause error) error {
	err := services.ErrTimeout
	if cause != nil {
		err = fmt.Errorf("%w: %w", services.ErrTimeout, cause)
	}
	return &remote.Error{
		Kind:    remote.KindTransient,
		Op:      label,
		Message: fmt.Sprintf("exceeded %s", timeout),
		Err:     err,
	}
}

func (e *Executor) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if e.sleeper != nil {
		e.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
