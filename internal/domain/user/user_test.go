package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/media-janitor/internal/domain/task"
)

type repoFunc func(ctx context.Context, cutoff time.Time) (int64, error)

func (f repoFunc) MarkInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f(ctx, cutoff)
}

func TestInactiveSweeper_UsesConfiguredDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var gotCutoff time.Time
	sweeper := NewInactiveSweeper(repoFunc(func(_ context.Context, cutoff time.Time) (int64, error) {
		gotCutoff = cutoff
		return 4, nil
	}), zerolog.Nop())
	sweeper.now = func() time.Time { return now }

	outcome, err := sweeper.Execute(context.Background(), &task.Task{Config: map[string]any{"inactive_days": 30}})
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, -30), gotCutoff)
	assert.Equal(t, "marked 4 users inactive", outcome.Message)
	assert.Equal(t, int64(4), outcome.Details.(SweepReport).UpdatedCount)
}

func TestInactiveSweeper_DefaultsTo90Days(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var gotCutoff time.Time
	sweeper := NewInactiveSweeper(repoFunc(func(_ context.Context, cutoff time.Time) (int64, error) {
		gotCutoff = cutoff
		return 0, nil
	}), zerolog.Nop())
	sweeper.now = func() time.Time { return now }

	_, err := sweeper.Execute(context.Background(), &task.Task{})
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, -90), gotCutoff)
}

func TestInactiveSweeper_Errors(t *testing.T) {
	failing := NewInactiveSweeper(repoFunc(func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("db down")
	}), zerolog.Nop())
	_, err := failing.Execute(context.Background(), &task.Task{})
	assert.EqualError(t, err, "db down")

	_, err = failing.Execute(context.Background(), &task.Task{Config: map[string]any{"inactive_days": 0}})
	assert.Error(t, err)
}

func TestInactiveSweeper_ValidateConfig(t *testing.T) {
	sweeper := NewInactiveSweeper(repoFunc(func(context.Context, time.Time) (int64, error) {
		t.Fatal("validation must not touch the repository")
		return 0, nil
	}), zerolog.Nop())

	assert.NoError(t, sweeper.ValidateConfig(nil))
	assert.NoError(t, sweeper.ValidateConfig(map[string]any{"inactive_days": 30}))
	assert.Error(t, sweeper.ValidateConfig(map[string]any{"inactive_days": -1}))
	assert.Error(t, sweeper.ValidateConfig(map[string]any{"inactive_days": "ninety"}))
}
