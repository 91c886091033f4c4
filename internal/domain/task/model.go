package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type identifies the handler that executes a task.
type Type string

const (
	TypeCleanupUnusedImages Type = "cleanupUnusedImages"
	TypeUpdateInactiveUsers Type = "updateInactiveUsers"
)

// AllTypes lists every task type the registry must serve.
var AllTypes = []Type{TypeCleanupUnusedImages, TypeUpdateInactiveUsers}

func (t Type) String() string {
	return string(t)
}

// Valid reports whether t is one of AllTypes.
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrUnknownTaskType = errors.New("unknown task type")
	ErrAlreadyRunning  = errors.New("task is already running")
)

// Task is a persisted job definition together with its run state.
type Task struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           Type           `json:"task_type"`
	CronExpression string         `json:"cron_expression"`
	Enabled        bool           `json:"enabled"`
	Status         Status         `json:"status"`
	Config         map[string]any `json:"config,omitempty"`
	LastRunAt      *time.Time     `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time     `json:"next_run_at,omitempty"`
	RunStartedAt   *time.Time     `json:"run_started_at,omitempty"`
	LastResult     *Result        `json:"last_result,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsDue reports whether the scheduler may select the task at now.
func (t *Task) IsDue(now time.Time) bool {
	return t.Enabled &&
		t.NextRunAt != nil &&
		!t.NextRunAt.After(now) &&
		!t.Status.IsRunning()
}

// DecodeConfig copies the task's free-form config into a typed struct.
func (t *Task) DecodeConfig(into any) error {
	if len(t.Config) == 0 {
		return nil
	}
	raw, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("encode task config: %w", err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode task config: %w", err)
	}
	return nil
}

// Result is attached to a task after each run and overwritten by the next one.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// FailureResult builds an unsuccessful result from err.
func FailureResult(err error, duration time.Duration) *Result {
	return &Result{
		Success:    false,
		Message:    err.Error(),
		DurationMs: duration.Milliseconds(),
	}
}
