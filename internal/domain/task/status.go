package task

import "errors"

// Status is the run state of a scheduled task record.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// ValidTransitions defines allowed status transitions. Terminal run states
// become eligible for running again once next_run_at is reached.
var ValidTransitions = map[Status][]Status{
	StatusIdle:      {StatusRunning},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRunning},
	StatusFailed:    {StatusRunning},
}

func (s Status) String() string {
	return string(s)
}

// IsRunning reports whether the record is currently claimed by a run.
func (s Status) IsRunning() bool {
	return s == StatusRunning
}

// CanTransitionTo checks whether moving from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target when the transition is allowed.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}
