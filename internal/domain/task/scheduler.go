package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/infrastructure/metrics"
	"github.com/janhq/media-janitor/internal/infrastructure/observability"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"

	DefaultTickSchedule = "* * * * *"
	DefaultRunTimeout   = 30 * time.Minute
)

// SchedulerOptions tunes the polling loop.
type SchedulerOptions struct {
	// TickSchedule is a crontab expression for the polling timer.
	TickSchedule string
	// RunTimeout bounds a single handler invocation.
	RunTimeout time.Duration
	// StuckAfter is how long a record may stay running before the watchdog
	// marks it failed. Zero disables the watchdog.
	StuckAfter time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Scheduler polls task records on a fixed tick and runs due tasks serially.
type Scheduler struct {
	repo     Repository
	registry *Registry
	calc     NextRunCalculator
	opts     SchedulerOptions
	log      zerolog.Logger
	now      func() time.Time

	tickMu sync.Mutex
	ctab   *crontab.Crontab
}

func NewScheduler(repo Repository, registry *Registry, calc NextRunCalculator, opts SchedulerOptions, log zerolog.Logger) *Scheduler {
	if opts.TickSchedule == "" {
		opts.TickSchedule = DefaultTickSchedule
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Scheduler{
		repo:     repo,
		registry: registry,
		calc:     calc,
		opts:     opts,
		log:      log.With().Str("component", "task-scheduler").Logger(),
		now:      opts.Clock,
		ctab:     crontab.New(),
	}
}

// Run checks for due tasks once, then on every tick until ctx is cancelled.
// It waits for an in-flight tick to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Str("tick", s.opts.TickSchedule).Dur("run_timeout", s.opts.RunTimeout).Msg("scheduler started")

	// execute once on start
	s.Tick(ctx)

	if err := s.ctab.AddJob(s.opts.TickSchedule, func() { s.Tick(ctx) }); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerWorker, err, "failed to add scheduler tick job")
	}

	<-ctx.Done()
	s.ctab.Shutdown()

	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

// Tick runs the watchdog and then every due task, one after another. A tick
// that fires while the previous one is still working is skipped. Errors are
// logged and never stop later ticks.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.log.Warn().Msg("previous tick still running, skipping")
		metrics.RecordTick("skipped")
		return
	}
	defer s.tickMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("scheduler tick panicked")
			metrics.RecordTick("error")
		}
	}()

	now := s.now()
	s.recoverStuck(ctx, now)

	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list due tasks")
		metrics.RecordTick("error")
		return
	}

	for _, t := range due {
		if ctx.Err() != nil {
			break
		}
		s.execute(ctx, t, TriggerSchedule)
	}
	metrics.RecordTick("ok")
}

// RunTaskManually runs a task immediately regardless of next_run_at and
// returns once the handler completes. Failures, including a missing task or a
// task that is already running, come back as an unsuccessful Result.
func (s *Scheduler) RunTaskManually(ctx context.Context, id string) *Result {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			err = fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		s.log.Warn().Err(err).Str("task_id", id).Msg("manual run rejected")
		return FailureResult(err, 0)
	}
	return s.execute(ctx, t, TriggerManual)
}

func (s *Scheduler) execute(ctx context.Context, t *Task, trigger string) *Result {
	log := s.log.With().Str("task_id", t.ID).Str("task_type", t.Type.String()).Str("trigger", trigger).Logger()

	startedAt := s.now()
	started, err := s.repo.TryStart(ctx, t.ID, startedAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to claim task")
		return FailureResult(err, 0)
	}
	if !started {
		log.Info().Msg("task already running, not started")
		return FailureResult(ErrAlreadyRunning, 0)
	}

	ctx, span := observability.StartTaskSpan(ctx, t.ID, t.Type.String(), trigger)
	defer span.End()
	observability.AddStatusTransition(span, t.Status.String(), StatusRunning.String())

	log.Info().Msg("task started")
	begin := time.Now()
	result := s.invoke(ctx, t)
	elapsed := time.Since(begin)
	result.DurationMs = elapsed.Milliseconds()

	final := StatusCompleted
	if !result.Success {
		final = StatusFailed
		observability.RecordError(span, fmt.Errorf("%s", result.Message))
	}
	observability.AddStatusTransition(span, StatusRunning.String(), final.String())

	finishedAt := s.now()
	// The outcome is persisted even when ctx was cancelled mid-run.
	if err := s.repo.Finish(context.WithoutCancel(ctx), t.ID, final, result, finishedAt, s.nextRun(t, finishedAt)); err != nil {
		log.Error().Err(err).Msg("failed to store task result")
	}
	metrics.RecordTaskRun(t.Type.String(), trigger, result.Success, elapsed.Seconds())

	log.Info().
		Bool("success", result.Success).
		Int64("duration_ms", result.DurationMs).
		Str("message", result.Message).
		Msg("task finished")
	return result
}

func (s *Scheduler) invoke(ctx context.Context, t *Task) (result *Result) {
	handler, err := s.registry.Lookup(t.Type)
	if err != nil {
		return FailureResult(err, 0)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			result = &Result{Success: false, Message: fmt.Sprintf("task panicked: %v", r)}
		}
	}()

	outcome, err := handler.Execute(runCtx, t)
	if err != nil {
		return &Result{Success: false, Message: err.Error(), Details: outcome.Details}
	}
	return &Result{Success: true, Message: outcome.Message, Details: outcome.Details}
}

// recoverStuck fails records left running longer than StuckAfter, typically
// by a crashed process.
func (s *Scheduler) recoverStuck(ctx context.Context, now time.Time) {
	if s.opts.StuckAfter <= 0 {
		return
	}
	stuck, err := s.repo.ListStuck(ctx, now.Add(-s.opts.StuckAfter))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list stuck tasks")
		return
	}
	for _, t := range stuck {
		result := &Result{
			Success: false,
			Message: fmt.Sprintf("run exceeded %s and was marked failed", s.opts.StuckAfter),
		}
		if err := s.repo.Finish(ctx, t.ID, StatusFailed, result, now, s.nextRun(t, now)); err != nil {
			s.log.Error().Err(err).Str("task_id", t.ID).Msg("failed to fail stuck task")
			continue
		}
		metrics.StuckTasksRecovered.Inc()
		s.log.Warn().Str("task_id", t.ID).Str("task_type", t.Type.String()).Msg("stuck task marked failed")
	}
}

// nextRun returns nil only for disabled tasks. An enabled task whose
// expression cannot be evaluated is retried a day later instead of being
// parked with no next run.
func (s *Scheduler) nextRun(t *Task, from time.Time) *time.Time {
	if !t.Enabled {
		return nil
	}
	next, err := s.calc.Next(t.CronExpression, from)
	if err != nil {
		next = from.Add(24 * time.Hour)
		s.log.Error().Err(err).Str("task_id", t.ID).Time("fallback_next_run_at", next).Msg("failed to compute next run")
	}
	return &next
}
