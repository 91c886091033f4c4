package task_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/domain/task/tasktest"
)

var testNow = time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)

type countingHandler struct {
	calls atomic.Int32
	fn    func(ctx context.Context, t *task.Task) (task.Outcome, error)
}

func (h *countingHandler) Execute(ctx context.Context, t *task.Task) (task.Outcome, error) {
	h.calls.Add(1)
	if h.fn != nil {
		return h.fn(ctx, t)
	}
	return task.Outcome{Message: "ok"}, nil
}

func newScheduler(t *testing.T, repo task.Repository, gc, users task.Handler, opts task.SchedulerOptions) *task.Scheduler {
	t.Helper()
	registry, err := task.NewRegistry(map[task.Type]task.Handler{
		task.TypeCleanupUnusedImages: gc,
		task.TypeUpdateInactiveUsers: users,
	})
	require.NoError(t, err)
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return testNow }
	}
	return task.NewScheduler(repo, registry, task.ReducedCalculator{}, opts, zerolog.Nop())
}

func ptr(v time.Time) *time.Time { return &v }

func record(id string, taskType task.Type, status task.Status, next time.Time) *task.Task {
	return &task.Task{
		ID:             id,
		Name:           id,
		Type:           taskType,
		CronExpression: "0 2 * * *",
		Enabled:        true,
		Status:         status,
		NextRunAt:      ptr(next),
	}
}

func TestTick_SelectsDueAndSkipsRunning(t *testing.T) {
	due := record("task_due", task.TypeCleanupUnusedImages, task.StatusIdle, testNow.Add(-time.Second))
	running := record("task_running", task.TypeUpdateInactiveUsers, task.StatusRunning, testNow.Add(-time.Second))
	running.RunStartedAt = ptr(testNow.Add(-time.Minute))
	repo := tasktest.NewRepository(due, running)

	gc, users := &countingHandler{}, &countingHandler{}
	s := newScheduler(t, repo, gc, users, task.SchedulerOptions{})

	s.Tick(context.Background())

	assert.Equal(t, int32(1), gc.calls.Load())
	assert.Equal(t, int32(0), users.calls.Load())

	after := repo.Snapshot("task_due")
	assert.Equal(t, task.StatusCompleted, after.Status)
	require.NotNil(t, after.LastResult)
	assert.True(t, after.LastResult.Success)
	assert.Equal(t, testNow, *after.LastRunAt)
	assert.Equal(t, time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC), *after.NextRunAt)
	assert.Nil(t, after.RunStartedAt)

	assert.Equal(t, task.StatusRunning, repo.Snapshot("task_running").Status)
}

func TestTick_HandlerErrorMarksFailedAndContinues(t *testing.T) {
	first := record("task_a", task.TypeCleanupUnusedImages, task.StatusIdle, testNow.Add(-time.Hour))
	second := record("task_b", task.TypeUpdateInactiveUsers, task.StatusCompleted, testNow.Add(-time.Hour))
	repo := tasktest.NewRepository(first, second)

	gc := &countingHandler{fn: func(context.Context, *task.Task) (task.Outcome, error) {
		return task.Outcome{}, errors.New("registry unreachable")
	}}
	users := &countingHandler{}
	s := newScheduler(t, repo, gc, users, task.SchedulerOptions{})

	s.Tick(context.Background())

	failed := repo.Snapshot("task_a")
	assert.Equal(t, task.StatusFailed, failed.Status)
	assert.False(t, failed.LastResult.Success)
	assert.Equal(t, "registry unreachable", failed.LastResult.Message)
	assert.NotNil(t, failed.NextRunAt)

	assert.Equal(t, int32(1), users.calls.Load())
	assert.Equal(t, task.StatusCompleted, repo.Snapshot("task_b").Status)
}

func TestTick_HandlerPanicIsContained(t *testing.T) {
	repo := tasktest.NewRepository(record("task_p", task.TypeCleanupUnusedImages, task.StatusIdle, testNow))
	gc := &countingHandler{fn: func(context.Context, *task.Task) (task.Outcome, error) {
		panic("boom")
	}}
	s := newScheduler(t, repo, gc, &countingHandler{}, task.SchedulerOptions{})

	assert.NotPanics(t, func() { s.Tick(context.Background()) })

	after := repo.Snapshot("task_p")
	assert.Equal(t, task.StatusFailed, after.Status)
	assert.Contains(t, after.LastResult.Message, "boom")
}

type brokenCalculator struct{}

func (brokenCalculator) Validate(string) error { return nil }

func (brokenCalculator) Next(expr string, _ time.Time) (time.Time, error) {
	return time.Time{}, errors.New("cannot evaluate " + expr)
}

func TestTick_CalculatorErrorKeepsEnabledTaskScheduled(t *testing.T) {
	repo := tasktest.NewRepository(record("task_c", task.TypeCleanupUnusedImages, task.StatusIdle, testNow.Add(-time.Minute)))
	gc := &countingHandler{}
	registry, err := task.NewRegistry(map[task.Type]task.Handler{
		task.TypeCleanupUnusedImages: gc,
		task.TypeUpdateInactiveUsers: &countingHandler{},
	})
	require.NoError(t, err)
	s := task.NewScheduler(repo, registry, brokenCalculator{}, task.SchedulerOptions{
		Clock: func() time.Time { return testNow },
	}, zerolog.Nop())

	s.Tick(context.Background())

	after := repo.Snapshot("task_c")
	assert.Equal(t, int32(1), gc.calls.Load())
	assert.Equal(t, task.StatusCompleted, after.Status)
	require.NotNil(t, after.NextRunAt, "an enabled task must stay schedulable")
	assert.Equal(t, testNow.Add(24*time.Hour), *after.NextRunAt)
}

func TestTick_UnknownTypeFailsOnlyThatRecord(t *testing.T) {
	legacy := record("task_legacy", task.Type("sendDigest"), task.StatusIdle, testNow.Add(-time.Second))
	known := record("task_known", task.TypeUpdateInactiveUsers, task.StatusIdle, testNow.Add(-time.Second))
	repo := tasktest.NewRepository(legacy, known)
	users := &countingHandler{}
	s := newScheduler(t, repo, &countingHandler{}, users, task.SchedulerOptions{})

	s.Tick(context.Background())

	after := repo.Snapshot("task_legacy")
	assert.Equal(t, task.StatusFailed, after.Status)
	assert.Contains(t, after.LastResult.Message, task.ErrUnknownTaskType.Error())
	assert.Equal(t, int32(1), users.calls.Load())
}

func TestTick_ListFailureIsSwallowed(t *testing.T) {
	repo := tasktest.NewRepository()
	repo.ListDueErr = errors.New("connection refused")
	s := newScheduler(t, repo, &countingHandler{}, &countingHandler{}, task.SchedulerOptions{})

	assert.NotPanics(t, func() { s.Tick(context.Background()) })

	repo.ListDueErr = nil
	rec := record("task_x", task.TypeCleanupUnusedImages, task.StatusIdle, testNow)
	require.NoError(t, repo.Create(context.Background(), rec))
	s.Tick(context.Background())
	assert.Equal(t, task.StatusCompleted, repo.Snapshot("task_x").Status)
}

func TestTick_RunTimeoutCancelsHandler(t *testing.T) {
	repo := tasktest.NewRepository(record("task_slow", task.TypeCleanupUnusedImages, task.StatusIdle, testNow))
	gc := &countingHandler{fn: func(ctx context.Context, _ *task.Task) (task.Outcome, error) {
		<-ctx.Done()
		return task.Outcome{}, ctx.Err()
	}}
	s := newScheduler(t, repo, gc, &countingHandler{}, task.SchedulerOptions{RunTimeout: 20 * time.Millisecond})

	s.Tick(context.Background())

	after := repo.Snapshot("task_slow")
	assert.Equal(t, task.StatusFailed, after.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), after.LastResult.Message)
}

func TestTick_WatchdogFailsStuckRecords(t *testing.T) {
	stuck := record("task_stuck", task.TypeCleanupUnusedImages, task.StatusRunning, testNow.Add(24*time.Hour))
	stuck.RunStartedAt = ptr(testNow.Add(-2 * time.Hour))
	fresh := record("task_fresh", task.TypeUpdateInactiveUsers, task.StatusRunning, testNow.Add(24*time.Hour))
	fresh.RunStartedAt = ptr(testNow.Add(-10 * time.Minute))
	repo := tasktest.NewRepository(stuck, fresh)

	s := newScheduler(t, repo, &countingHandler{}, &countingHandler{}, task.SchedulerOptions{StuckAfter: time.Hour})

	s.Tick(context.Background())

	after := repo.Snapshot("task_stuck")
	assert.Equal(t, task.StatusFailed, after.Status)
	assert.False(t, after.LastResult.Success)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC).Add(24*time.Hour), *after.NextRunAt)

	assert.Equal(t, task.StatusRunning, repo.Snapshot("task_fresh").Status)
}

func TestTick_OverlappingTickIsSkipped(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	repo := tasktest.NewRepository(record("task_block", task.TypeCleanupUnusedImages, task.StatusIdle, testNow))
	gc := &countingHandler{fn: func(context.Context, *task.Task) (task.Outcome, error) {
		close(entered)
		<-release
		return task.Outcome{}, nil
	}}
	s := newScheduler(t, repo, gc, &countingHandler{}, task.SchedulerOptions{})

	done := make(chan struct{})
	go func() {
		s.Tick(context.Background())
		close(done)
	}()
	<-entered

	s.Tick(context.Background())
	close(release)
	<-done

	assert.Equal(t, int32(1), gc.calls.Load())
}

func TestRunTaskManually_NotFound(t *testing.T) {
	s := newScheduler(t, tasktest.NewRepository(), &countingHandler{}, &countingHandler{}, task.SchedulerOptions{})

	result := s.RunTaskManually(context.Background(), "task_missing")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, task.ErrTaskNotFound.Error())
}

func TestRunTaskManually_IgnoresNextRunAndDisabled(t *testing.T) {
	rec := record("task_manual", task.TypeUpdateInactiveUsers, task.StatusIdle, testNow.Add(48*time.Hour))
	rec.Enabled = false
	repo := tasktest.NewRepository(rec)
	users := &countingHandler{fn: func(context.Context, *task.Task) (task.Outcome, error) {
		return task.Outcome{Message: "updated 3 users", Details: map[string]any{"updated_count": 3}}, nil
	}}
	s := newScheduler(t, repo, &countingHandler{}, users, task.SchedulerOptions{})

	result := s.RunTaskManually(context.Background(), "task_manual")

	assert.True(t, result.Success)
	assert.Equal(t, "updated 3 users", result.Message)
	after := repo.Snapshot("task_manual")
	assert.Equal(t, task.StatusCompleted, after.Status)
	assert.Nil(t, after.NextRunAt)
}

func TestRunTaskManually_AlreadyRunning(t *testing.T) {
	rec := record("task_busy", task.TypeCleanupUnusedImages, task.StatusRunning, testNow)
	rec.RunStartedAt = ptr(testNow)
	repo := tasktest.NewRepository(rec)
	gc := &countingHandler{}
	s := newScheduler(t, repo, gc, &countingHandler{}, task.SchedulerOptions{})

	result := s.RunTaskManually(context.Background(), "task_busy")

	assert.False(t, result.Success)
	assert.Equal(t, task.ErrAlreadyRunning.Error(), result.Message)
	assert.Equal(t, int32(0), gc.calls.Load())
	assert.Equal(t, task.StatusRunning, repo.Snapshot("task_busy").Status)
}

func TestRunTaskManually_RacingTickRunsOnce(t *testing.T) {
	repo := tasktest.NewRepository(record("task_race", task.TypeCleanupUnusedImages, task.StatusIdle, testNow))
	gc := &countingHandler{}
	s := newScheduler(t, repo, gc, &countingHandler{}, task.SchedulerOptions{})

	// A tick claims the record between the manual trigger's read and its start.
	repo.OnTryStart = func(id string) {
		repo.OnTryStart = nil
		_, err := repo.TryStart(context.Background(), id, testNow)
		require.NoError(t, err)
	}

	result := s.RunTaskManually(context.Background(), "task_race")

	assert.False(t, result.Success)
	assert.Equal(t, int32(0), gc.calls.Load())
}
