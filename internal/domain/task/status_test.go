package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		expected bool
	}{
		{"idle to running", StatusIdle, StatusRunning, true},
		{"running to completed", StatusRunning, StatusCompleted, true},
		{"running to failed", StatusRunning, StatusFailed, true},
		{"completed to running", StatusCompleted, StatusRunning, true},
		{"failed to running", StatusFailed, StatusRunning, true},
		{"running to running", StatusRunning, StatusRunning, false},
		{"idle to completed", StatusIdle, StatusCompleted, false},
		{"completed to idle", StatusCompleted, StatusIdle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_TransitionTo(t *testing.T) {
	got, err := StatusIdle.TransitionTo(StatusRunning)
	assert.NoError(t, err)
	assert.Equal(t, StatusRunning, got)

	got, err = StatusRunning.TransitionTo(StatusIdle)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusRunning, got)
}

func TestTask_IsDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	tests := []struct {
		name     string
		task     Task
		expected bool
	}{
		{"idle and overdue", Task{Enabled: true, Status: StatusIdle, NextRunAt: &past}, true},
		{"exactly now", Task{Enabled: true, Status: StatusCompleted, NextRunAt: &now}, true},
		{"failed and overdue", Task{Enabled: true, Status: StatusFailed, NextRunAt: &past}, true},
		{"running", Task{Enabled: true, Status: StatusRunning, NextRunAt: &past}, false},
		{"disabled", Task{Enabled: false, Status: StatusIdle, NextRunAt: &past}, false},
		{"not yet", Task{Enabled: true, Status: StatusIdle, NextRunAt: &future}, false},
		{"never scheduled", Task{Enabled: true, Status: StatusIdle}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.IsDue(now))
		})
	}
}

func TestTask_DecodeConfig(t *testing.T) {
	var cfg struct {
		DryRun       bool `json:"dry_run"`
		InactiveDays int  `json:"inactive_days"`
	}
	task := Task{Config: map[string]any{"dry_run": true, "inactive_days": 30}}

	assert.NoError(t, task.DecodeConfig(&cfg))
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 30, cfg.InactiveDays)

	empty := Task{}
	assert.NoError(t, empty.DecodeConfig(&cfg))
}
