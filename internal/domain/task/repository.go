package task

import (
	"context"
	"time"
)

// Repository defines persistence for scheduled task records.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	// GetByID returns a not-found platform error when the record is missing.
	GetByID(ctx context.Context, id string) (*Task, error)
	// FindByType and FindByName return nil, nil when nothing matches.
	FindByType(ctx context.Context, taskType Type) (*Task, error)
	FindByName(ctx context.Context, name string) (*Task, error)
	List(ctx context.Context) ([]*Task, error)
	CountByType(ctx context.Context, taskType Type) (int64, error)

	// ListDue returns enabled, non-running records whose next_run_at <= now.
	ListDue(ctx context.Context, now time.Time) ([]*Task, error)
	// ListStuck returns running records whose run started before startedBefore.
	ListStuck(ctx context.Context, startedBefore time.Time) ([]*Task, error)

	// TryStart atomically moves a non-running record to running. It reports
	// false when the record is already running or does not exist.
	TryStart(ctx context.Context, id string, startedAt time.Time) (bool, error)
	// Finish stores the outcome of a run and schedules the next one.
	Finish(ctx context.Context, id string, status Status, result *Result, finishedAt time.Time, nextRunAt *time.Time) error
	// UpdateDefinition persists name, cron expression, enabled, config and next_run_at.
	UpdateDefinition(ctx context.Context, task *Task) error
}
