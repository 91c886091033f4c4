package taskrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/infrastructure/database/entities"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// Repository persists scheduled task records.
type Repository struct {
	db  *gorm.DB
	log zerolog.Logger
}

var _ domain.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log.With().Str("component", "task-repository").Logger()}
}

func (r *Repository) Create(ctx context.Context, t *domain.Task) error {
	entity, err := toEntity(t)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeValidation,
			"failed to encode task", err, "taskrepo-create-encode")
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create task", err, "taskrepo-create")
	}
	t.CreatedAt = entity.CreatedAt
	t.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	t, err := r.first(ctx, r.db.WithContext(ctx).Where("id = ?", id), "taskrepo-get")
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"task not found", domain.ErrTaskNotFound, "taskrepo-get-not-found")
	}
	return t, nil
}

func (r *Repository) FindByType(ctx context.Context, taskType domain.Type) (*domain.Task, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("task_type = ?", taskType.String()), "taskrepo-find-type")
}

func (r *Repository) FindByName(ctx context.Context, name string) (*domain.Task, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("name = ?", name), "taskrepo-find-name")
}

func (r *Repository) List(ctx context.Context) ([]*domain.Task, error) {
	return r.find(ctx, r.db.WithContext(ctx).Order("name ASC"), "taskrepo-list")
}

func (r *Repository) CountByType(ctx context.Context, taskType domain.Type) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.ScheduledTask{}).Where("task_type = ?", taskType.String()).Count(&count).Error
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to count tasks", err, "taskrepo-count-type")
	}
	return count, nil
}

func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("status <> ?", domain.StatusRunning.String()).
		Where("next_run_at IS NOT NULL AND next_run_at <= ?", now).
		Order("next_run_at ASC, id ASC")
	return r.find(ctx, query, "taskrepo-list-due")
}

func (r *Repository) ListStuck(ctx context.Context, startedBefore time.Time) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusRunning.String()).
		Where("run_started_at IS NOT NULL AND run_started_at < ?", startedBefore).
		Order("run_started_at ASC")
	return r.find(ctx, query, "taskrepo-list-stuck")
}

// TryStart flips the record to running only when it is not running already.
// The single conditional UPDATE is what keeps two callers from both starting it.
func (r *Repository) TryStart(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.ScheduledTask{}).
		Where("id = ? AND status <> ?", id, domain.StatusRunning.String()).
		Updates(map[string]interface{}{
			"status":         domain.StatusRunning.String(),
			"run_started_at": startedAt,
		})
	if result.Error != nil {
		return false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to start task", result.Error, "taskrepo-try-start")
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) Finish(ctx context.Context, id string, status domain.Status, res *domain.Result, finishedAt time.Time, nextRunAt *time.Time) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeValidation,
			"failed to encode task result", err, "taskrepo-finish-encode")
	}
	return r.update(ctx, id, map[string]interface{}{
		"status":         status.String(),
		"last_result":    datatypes.JSON(raw),
		"last_run_at":    finishedAt,
		"next_run_at":    nextRunAt,
		"run_started_at": nil,
	}, "taskrepo-finish")
}

func (r *Repository) UpdateDefinition(ctx context.Context, t *domain.Task) error {
	config, err := encodeConfig(t.Config)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeValidation,
			"failed to encode task config", err, "taskrepo-update-encode")
	}
	return r.update(ctx, t.ID, map[string]interface{}{
		"name":            t.Name,
		"cron_expression": t.CronExpression,
		"enabled":         t.Enabled,
		"config":          config,
		"next_run_at":     t.NextRunAt,
	}, "taskrepo-update")
}

func (r *Repository) update(ctx context.Context, id string, values map[string]interface{}, code string) error {
	result := r.db.WithContext(ctx).Model(&entities.ScheduledTask{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update task", result.Error, code)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"task not found", domain.ErrTaskNotFound, code)
	}
	return nil
}

func (r *Repository) first(ctx context.Context, query *gorm.DB, code string) (*domain.Task, error) {
	var entity entities.ScheduledTask
	if err := query.Order("created_at ASC").First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to load task", err, code)
	}
	return r.toDomain(&entity), nil
}

func (r *Repository) find(ctx context.Context, query *gorm.DB, code string) ([]*domain.Task, error) {
	var rows []entities.ScheduledTask
	if err := query.Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list tasks", err, code)
	}
	out := make([]*domain.Task, 0, len(rows))
	for i := range rows {
		out = append(out, r.toDomain(&rows[i]))
	}
	return out, nil
}
