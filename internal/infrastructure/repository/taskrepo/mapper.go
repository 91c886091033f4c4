package taskrepo

import (
	"encoding/json"

	"gorm.io/datatypes"

	domain "github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/infrastructure/database/entities"
)

func toEntity(t *domain.Task) (*entities.ScheduledTask, error) {
	config, err := encodeConfig(t.Config)
	if err != nil {
		return nil, err
	}
	entity := &entities.ScheduledTask{
		ID:             t.ID,
		Name:           t.Name,
		TaskType:       t.Type.String(),
		CronExpression: t.CronExpression,
		Enabled:        t.Enabled,
		Status:         t.Status.String(),
		Config:         config,
		LastRunAt:      t.LastRunAt,
		NextRunAt:      t.NextRunAt,
		RunStartedAt:   t.RunStartedAt,
	}
	if entity.Status == "" {
		entity.Status = domain.StatusIdle.String()
	}
	if t.LastResult != nil {
		raw, err := json.Marshal(t.LastResult)
		if err != nil {
			return nil, err
		}
		entity.LastResult = raw
	}
	return entity, nil
}

func encodeConfig(config map[string]any) (datatypes.JSON, error) {
	if config == nil {
		config = map[string]any{}
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// toDomain logs and drops JSON columns that do not decode into the domain shape.
func (r *Repository) toDomain(entity *entities.ScheduledTask) *domain.Task {
	t := &domain.Task{
		ID:             entity.ID,
		Name:           entity.Name,
		Type:           domain.Type(entity.TaskType),
		CronExpression: entity.CronExpression,
		Enabled:        entity.Enabled,
		Status:         domain.Status(entity.Status),
		LastRunAt:      entity.LastRunAt,
		NextRunAt:      entity.NextRunAt,
		RunStartedAt:   entity.RunStartedAt,
		CreatedAt:      entity.CreatedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
	if len(entity.Config) > 0 {
		if err := json.Unmarshal(entity.Config, &t.Config); err != nil {
			r.log.Warn().Err(err).Str("task_id", entity.ID).Msg("ignoring malformed task config")
		}
	}
	if len(entity.LastResult) > 0 && string(entity.LastResult) != "null" {
		var result domain.Result
		if err := json.Unmarshal(entity.LastResult, &result); err != nil {
			r.log.Warn().Err(err).Str("task_id", entity.ID).Msg("ignoring malformed task result")
		} else {
			t.LastResult = &result
		}
	}
	return t
}
