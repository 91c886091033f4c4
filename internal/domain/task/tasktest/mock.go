// Package tasktest provides an in-memory task.Repository for tests.
package tasktest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

var _ task.Repository = (*Repository)(nil)

// Repository stores task records in memory.
type Repository struct {
	mu    sync.Mutex
	tasks map[string]*task.Task

	// ListDueErr, when set, is returned by ListDue.
	ListDueErr error
	// OnTryStart runs before TryStart inspects the record.
	OnTryStart func(id string)
}

func NewRepository(tasks ...*task.Task) *Repository {
	r := &Repository{tasks: make(map[string]*task.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = clone(t)
	}
	return r
}

func (r *Repository) Create(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return errors.New("duplicate task id")
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.tasks[t.ID] = clone(t)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"task not found", nil, "tasktest-not-found")
	}
	return clone(t), nil
}

func (r *Repository) FindByType(_ context.Context, taskType task.Type) (*task.Task, error) {
	return r.find(func(t *task.Task) bool { return t.Type == taskType }), nil
}

func (r *Repository) FindByName(_ context.Context, name string) (*task.Task, error) {
	return r.find(func(t *task.Task) bool { return t.Name == name }), nil
}

func (r *Repository) List(_ context.Context) ([]*task.Task, error) {
	return r.filter(func(*task.Task) bool { return true }), nil
}

func (r *Repository) CountByType(_ context.Context, taskType task.Type) (int64, error) {
	return int64(len(r.filter(func(t *task.Task) bool { return t.Type == taskType }))), nil
}

func (r *Repository) ListDue(_ context.Context, now time.Time) ([]*task.Task, error) {
	if r.ListDueErr != nil {
		return nil, r.ListDueErr
	}
	return r.filter(func(t *task.Task) bool { return t.IsDue(now) }), nil
}

func (r *Repository) ListStuck(_ context.Context, startedBefore time.Time) ([]*task.Task, error) {
	return r.filter(func(t *task.Task) bool {
		return t.Status == task.StatusRunning && t.RunStartedAt != nil && t.RunStartedAt.Before(startedBefore)
	}), nil
}

func (r *Repository) TryStart(_ context.Context, id string, startedAt time.Time) (bool, error) {
	if r.OnTryStart != nil {
		r.OnTryStart(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.Status == task.StatusRunning {
		return false, nil
	}
	t.Status = task.StatusRunning
	t.RunStartedAt = &startedAt
	return true, nil
}

func (r *Repository) Finish(_ context.Context, id string, status task.Status, result *task.Result, finishedAt time.Time, nextRunAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return errors.New("task not found")
	}
	t.Status = status
	t.LastResult = result
	t.LastRunAt = &finishedAt
	t.NextRunAt = nextRunAt
	t.RunStartedAt = nil
	return nil
}

func (r *Repository) UpdateDefinition(_ context.Context, updated *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[updated.ID]
	if !ok {
		return errors.New("task not found")
	}
	t.Name = updated.Name
	t.CronExpression = updated.CronExpression
	t.Enabled = updated.Enabled
	t.Config = updated.Config
	t.NextRunAt = updated.NextRunAt
	return nil
}

// Snapshot returns a copy of the stored record, or nil.
func (r *Repository) Snapshot(id string) *task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil
	}
	return clone(t)
}

func (r *Repository) find(match func(*task.Task) bool) *task.Task {
	found := r.filter(match)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func (r *Repository) filter(match func(*task.Task) bool) []*task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Task
	for _, t := range r.tasks {
		if match(t) {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clone(t *task.Task) *task.Task {
	copied := *t
	return &copied
}
