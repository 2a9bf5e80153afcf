package mover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/notifications"
	"drivemover/internal/remote"
	"drivemover/internal/resolver"
	"drivemover/internal/retry"
	"drivemover/internal/scan"
	"drivemover/internal/services"
	"drivemover/internal/session"
)

// Options configures a run.
type Options struct {
	Mappings     []config.PathMapping
	Rules        scan.Rules
	Interval     time.Duration
	MovePause    time.Duration
	SessionEvery int
}

// OptionsFromConfig derives run options from normalized configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mappings:     cfg.Mappings,
		Rules:        scan.RulesFromConfig(cfg),
		Interval:     cfg.CheckInterval(),
		MovePause:    cfg.MovePause(),
		SessionEvery: cfg.Schedule.SessionCheckCycles,
	}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper overrides the inter-cycle sleep (useful for tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithIDGenerator overrides how cycle correlation IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// Orchestrator drives resolution, scanning, and moving.
type Orchestrator struct {
	client   remote.Client
	exec     *retry.Executor
	resolver *resolver.Resolver
	scanner  *scan.Scanner
	watchdog *session.Watchdog
	notifier notifications.Dispatcher
	opts     Options
	logger   *slog.Logger
	limiter  *rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error
	newID    func() string

	state      stateHolder
	active     []Mapping
	dropped    []DroppedMapping
	totals     CycleStats
	perMapping map[string]CycleStats
}

// New wires an orchestrator. All remote calls go through exec.
func New(client remote.Client, exec *retry.Executor, notifier notifications.Dispatcher, logger *slog.Logger, opts Options, extra ...Option) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewDispatcher(nil, logger)
	}
	limit := rate.Inf
	if opts.MovePause > 0 {
		limit = rate.Every(opts.MovePause)
	}
	o := &Orchestrator{
		client:     client,
		exec:       exec,
		resolver:   resolver.New(client, exec, logger),
		scanner:    scan.New(client, exec, logger),
		watchdog:   session.NewWatchdog(client, exec, opts.SessionEvery, logger),
		notifier:   notifier,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "mover"),
		limiter:    rate.NewLimiter(limit, 1),
		sleep:      sleepContext,
		newID:      uuid.NewString,
		perMapping: make(map[string]CycleStats),
	}
	for _, opt := range extra {
		opt(o)
	}
	return o
}

// State reports the current lifecycle phase.
func (o *Orchestrator) State() State {
	return o.state.get()
}

// Run resolves mappings and cycles until ctx is cancelled, the session
// expires, or authentication fails. Only configuration problems are returned
// as errors; every other stop is described by Result.Reason.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if reason, err := o.resolveAll(ctx); err != nil || reason != "" {
		return o.finish(ctx, reason, 0, nil), err
	}

	var last *CycleReport
	for cycle := 1; ; cycle++ {
		o.state.set(StateRunning)
		report, reason := o.runCycle(ctx, cycle)
		last = &report
		if reason != "" {
			return o.finish(ctx, reason, cycle, last), nil
		}

		o.state.set(StateSleeping)
		o.logger.Info("sleeping until next cycle",
			logging.Int(logging.FieldCycle, cycle),
			logging.Duration("interval", o.opts.Interval),
			logging.String("next_check", time.Now().Add(o.opts.Interval).Format(time.DateTime)),
		)
		if err := o.sleep(ctx, o.opts.Interval); err != nil {
			return o.finish(ctx, ReasonInterrupted, cycle, last), nil
		}
	}
}

// RunOnce resolves mappings and executes a single cycle.
func (o *Orchestrator) RunOnce(ctx context.Context) (Result, error) {
	if reason, err := o.resolveAll(ctx); err != nil || reason != "" {
		return o.finish(ctx, reason, 0, nil), err
	}
	o.state.set(StateRunning)
	report, reason := o.runCycle(ctx, 1)
	if reason == "" {
		reason = ReasonCompleted
	}
	return o.finish(ctx, reason, 1, &report), nil
}

// resolveAll fills the active set. It returns a stop reason for interruption
// or authentication failure and an error when no mapping survives.
func (o *Orchestrator) resolveAll(ctx context.Context) (StopReason, error) {
	o.state.set(StateResolving)
	o.active = o.active[:0]
	o.dropped = o.dropped[:0]

	for _, pm := range o.opts.Mappings {
		mctx := services.WithMapping(ctx, pm.String())
		logger := logging.WithContext(mctx, o.logger)

		mapping, err := o.resolveMapping(mctx, pm)
		if err == nil {
			o.active = append(o.active, mapping)
			logger.Info("mapping active",
				logging.String("source", pm.Source),
				logging.String("target", pm.Target),
				logging.String("source_id", string(mapping.SourceID)),
				logging.String("target_id", string(mapping.TargetID)),
			)
			continue
		}
		if ctx.Err() != nil {
			return ReasonInterrupted, nil
		}
		if services.IsAuth(err) {
			o.reportAuthStop(mctx, "authentication rejected while resolving mappings", err)
			return ReasonAuthFailure, nil
		}
		o.dropped = append(o.dropped, DroppedMapping{Mapping: pm, Err: err})
		hint := "check the mapping paths exist on the drive"
		var missing *resolver.MissingSegmentError
		if errors.As(err, &missing) {
			hint = fmt.Sprintf("create folder %q under %s or fix the mapping", missing.Segment, missing.ParentID)
		}
		logging.WarnWithContext(logger, "mapping dropped", "mapping_dropped",
			logging.Alert("mapping_unresolved"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "mapping is ignored until restart"),
		)
	}

	if len(o.active) == 0 {
		return "", fmt.Errorf("%w: none of %d mappings could be resolved", services.ErrConfiguration, len(o.opts.Mappings))
	}
	o.logger.Info("mappings resolved",
		logging.Int("active", len(o.active)),
		logging.Int("dropped", len(o.dropped)),
	)
	return "", nil
}

func (o *Orchestrator) resolveMapping(ctx context.Context, pm config.PathMapping) (Mapping, error) {
	sourceID, err := o.resolver.Resolve(ctx, pm.Source, remote.RootID)
	if err != nil {
		return Mapping{}, fmt.Errorf("source: %w", err)
	}
	targetID, err := o.resolver.Resolve(ctx, pm.Target, remote.RootID)
	if err != nil {
		return Mapping{}, fmt.Errorf("target: %w", err)
	}
	return Mapping{PathMapping: pm, SourceID: sourceID, TargetID: targetID}, nil
}

// runCycle executes one cycle and returns a non-empty reason when the run must stop.
func (o *Orchestrator) runCycle(ctx context.Context, cycle int) (CycleReport, StopReason) {
	report := CycleReport{Cycle: cycle, CorrelationID: o.newID()}
	ctx = services.WithCycle(ctx, cycle)
	ctx = services.WithRequestID(ctx, report.CorrelationID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("cycle started", logging.Int("mappings", len(o.active)))

	if o.watchdog.Due(cycle) && !o.watchdog.IsValid(ctx) {
		if ctx.Err() != nil {
			return report, ReasonInterrupted
		}
		o.reportAuthStop(ctx, "session expired", nil)
		return report, ReasonSessionExpired
	}

	var reason StopReason
	for _, mapping := range o.active {
		if ctx.Err() != nil {
			reason = ReasonInterrupted
			break
		}
		mctx := services.WithMapping(ctx, mapping.String())
		mreport, err := o.processMapping(mctx, mapping)
		report.Mappings = append(report.Mappings, mreport)
		report.Stats.Add(mreport.Stats)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			reason = ReasonInterrupted
			break
		}
		if services.IsAuth(err) {
			o.reportAuthStop(mctx, "authentication rejected during cycle", err)
			reason = ReasonAuthFailure
			break
		}
	}

	o.record(report)
	logger.Info("cycle complete",
		logging.Int("moved", report.Stats.Moved),
		logging.Int("failed", report.Stats.Failed),
		logging.Int("total_moved", o.totals.Moved),
		logging.Int("total_failed", o.totals.Failed),
	)
	if report.Stats.Moved > 0 && ctx.Err() == nil {
		o.notifier.Callback(ctx, o.summary(report))
	}
	return report, reason
}

// processMapping scans one mapping and moves its candidates. A returned error
// means the mapping was cut short; per-file failures are only counted.
func (o *Orchestrator) processMapping(ctx context.Context, mapping Mapping) (MappingReport, error) {
	logger := logging.WithContext(ctx, o.logger)
	report := MappingReport{Mapping: mapping.PathMapping}

	result, err := o.scanner.Scan(ctx, mapping.SourceID, o.opts.Rules)
	if err != nil {
		report.Skipped = true
		if ctx.Err() == nil && !services.IsAuth(err) {
			logging.WarnWithContext(logger, "scan failed; mapping skipped this cycle", "scan_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the drive may be unavailable; the mapping is retried next cycle"),
				logging.String(logging.FieldImpact, "files in this mapping wait for the next cycle"),
			)
		}
		return report, err
	}
	report.Scan = result.Stats

	for _, candidate := range result.Candidates {
		if err := o.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			return report, err
		}
		if err := o.moveOne(ctx, mapping, candidate); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Stats.Failed++
			if services.IsAuth(err) {
				return report, err
			}
			continue
		}
		report.Stats.Moved++
	}
	return report, nil
}

func (o *Orchestrator) moveOne(ctx context.Context, mapping Mapping, candidate scan.FileCandidate) error {
	logger := logging.WithContext(ctx, o.logger).With(
		logging.String("file", candidate.Path),
		logging.Int64("size", candidate.Size),
	)

	result, err := retry.Execute(ctx, o.exec, "move file "+candidate.ID, func(ctx context.Context) (remote.MoveResult, error) {
		return o.client.MoveItems(ctx, []string{candidate.ID}, mapping.TargetID)
	})
	if err != nil {
		if ctx.Err() == nil && !services.IsAuth(err) {
			logging.WarnWithContext(logger, "move failed", "move_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the file stays in the source folder and is retried next cycle"),
				logging.String(logging.FieldImpact, "file not moved"),
			)
		}
		return err
	}
	if !result.Success {
		if result.IsAuthFailure() {
			return services.Wrap(services.ErrAuth, "mover", "move", fmt.Sprintf("code %d: %s", result.ErrorCode, result.ErrorMessage), nil)
		}
		logging.WarnWithContext(logger, "move rejected by drive", "move_rejected",
			logging.Int("error_code", result.ErrorCode),
			logging.String("error", result.ErrorMessage),
			logging.String(logging.FieldErrorHint, "check that the target folder still exists and the file is not locked"),
			logging.String(logging.FieldImpact, "file not moved"),
		)
		return fmt.Errorf("move %s rejected: code %d: %s", candidate.Path, result.ErrorCode, result.ErrorMessage)
	}

	logger.Info("file moved",
		logging.String("target", mapping.Target),
		logging.String("size_human", config.FormatSize(candidate.Size)),
	)
	return nil
}

func (o *Orchestrator) record(report CycleReport) {
	o.totals.Add(report.Stats)
	for _, m := range report.Mappings {
		key := m.Mapping.String()
		stats := o.perMapping[key]
		stats.Add(m.Stats)
		o.perMapping[key] = stats
	}
}

func (o *Orchestrator) summary(report CycleReport) notifications.Summary {
	mappings := make([]notifications.MappingSummary, 0, len(report.Mappings))
	for _, m := range report.Mappings {
		mappings = append(mappings, notifications.MappingSummary{
			Source: m.Mapping.Source,
			Target: m.Mapping.Target,
			Moved:  m.Stats.Moved,
			Failed: m.Stats.Failed,
		})
	}
	return notifications.Summary{
		Cycle:         report.Cycle,
		CorrelationID: report.CorrelationID,
		Moved:         report.Stats.Moved,
		Failed:        report.Stats.Failed,
		TotalMoved:    o.totals.Moved,
		TotalFailed:   o.totals.Failed,
		Mappings:      mappings,
	}
}

func (o *Orchestrator) reportAuthStop(ctx context.Context, message string, err error) {
	attrs := []logging.Attr{
		logging.Alert("session_expired"),
		logging.String(logging.FieldErrorHint, session.RemediationHint),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.ErrorWithContext(logging.WithContext(ctx, o.logger), message+"; stopping", "session_expired", attrs...)
	o.notifier.Alert(ctx, "drivemover - Session expired", message+". "+session.RemediationHint, notifications.UrgencyUrgent)
}

func (o *Orchestrator) finish(ctx context.Context, reason StopReason, cycles int, last *CycleReport) Result {
	o.state.set(StateStopped)
	perMapping := make(map[string]CycleStats, len(o.perMapping))
	for k, v := range o.perMapping {
		perMapping[k] = v
	}
	result := Result{
		Reason:     reason,
		Cycles:     cycles,
		Totals:     o.totals,
		PerMapping: perMapping,
		Active:     append([]Mapping(nil), o.active...),
		Dropped:    append([]DroppedMapping(nil), o.dropped...),
		LastCycle:  last,
	}
	if reason == "" {
		return result
	}
	logging.WithContext(ctx, o.logger).Info("agent stopped",
		logging.String("reason", string(reason)),
		logging.Int("cycles", cycles),
		logging.Int("total_moved", o.totals.Moved),
		logging.Int("total_failed", o.totals.Failed),
		logging.Any("per_mapping", perMapping),
	)
	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
