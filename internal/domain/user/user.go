// Package user holds the user-status sweep run by the scheduler.
package user

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/domain/task"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	DefaultInactiveDays = 90
)

// User is a profile whose avatar and bio may embed media.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Avatar       string     `json:"avatar,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Status       string     `json:"status"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Repository is the persistence the sweep needs.
type Repository interface {
	// MarkInactiveBefore flips active users last seen before cutoff to inactive.
	MarkInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweepConfig is the config stored on an updateInactiveUsers task.
type SweepConfig struct {
	InactiveDays int `json:"inactive_days"`
}

// SweepReport is attached to the task result.
type SweepReport struct {
	UpdatedCount int64     `json:"updated_count"`
	Cutoff       time.Time `json:"cutoff"`
	InactiveDays int       `json:"inactive_days"`
}

// InactiveSweeper marks users inactive after a period without activity.
type InactiveSweeper struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

var (
	_ task.Handler         = (*InactiveSweeper)(nil)
	_ task.ConfigValidator = (*InactiveSweeper)(nil)
)

func NewInactiveSweeper(repo Repository, log zerolog.Logger) *InactiveSweeper {
	return &InactiveSweeper{
		repo: repo,
		log:  log.With().Str("component", "inactive-user-sweeper").Logger(),
		now:  time.Now,
	}
}

func decodeSweepConfig(t *task.Task) (SweepConfig, error) {
	cfg := SweepConfig{InactiveDays: DefaultInactiveDays}
	if err := t.DecodeConfig(&cfg); err != nil {
		return cfg, err
	}
	if cfg.InactiveDays <= 0 {
		return cfg, fmt.Errorf("inactive_days must be positive, got %d", cfg.InactiveDays)
	}
	return cfg, nil
}

func (s *InactiveSweeper) ValidateConfig(config map[string]any) error {
	_, err := decodeSweepConfig(&task.Task{Config: config})
	return err
}

func (s *InactiveSweeper) Execute(ctx context.Context, t *task.Task) (task.Outcome, error) {
	cfg, err := decodeSweepConfig(t)
	if err != nil {
		return task.Outcome{}, err
	}

	cutoff := s.now().Add(-time.Duration(cfg.InactiveDays) * 24 * time.Hour)
	updated, err := s.repo.MarkInactiveBefore(ctx, cutoff)
	if err != nil {
		return task.Outcome{}, err
	}

	s.log.Info().Int64("updated", updated).Time("cutoff", cutoff).Msg("inactive users updated")
	return task.Outcome{
		Message: fmt.Sprintf("marked %d users inactive", updated),
		Details: SweepReport{UpdatedCount: updated, Cutoff: cutoff, InactiveDays: cfg.InactiveDays},
	}, nil
}
