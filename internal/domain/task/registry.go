package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Outcome is what a handler reports for a successful run.
type Outcome struct {
	Message string
	Details any
}

// Handler executes one task type.
type Handler interface {
	Execute(ctx context.Context, task *Task) (Outcome, error)
}

// ConfigValidator is implemented by handlers that can check a task config
// before it is stored.
type ConfigValidator interface {
	ValidateConfig(config map[string]any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task *Task) (Outcome, error)

func (f HandlerFunc) Execute(ctx context.Context, task *Task) (Outcome, error) {
	return f(ctx, task)
}

// Registry maps every task type to its handler.
type Registry struct {
	handlers map[Type]Handler
}

// NewRegistry fails unless handlers covers exactly AllTypes.
func NewRegistry(handlers map[Type]Handler) (*Registry, error) {
	var missing, unknown []string
	for _, t := range AllTypes {
		if handlers[t] == nil {
			missing = append(missing, t.String())
		}
	}
	for t := range handlers {
		if !t.Valid() {
			unknown = append(unknown, t.String())
		}
	}
	sort.Strings(unknown)

	if len(missing) > 0 {
		return nil, fmt.Errorf("task registry: no handler for %s", strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("task registry: %w: %s", ErrUnknownTaskType, strings.Join(unknown, ", "))
	}

	copied := make(map[Type]Handler, len(handlers))
	for t, h := range handlers {
		copied[t] = h
	}
	return &Registry{handlers: copied}, nil
}

// Lookup returns the handler for t. Records loaded from storage may carry a
// type this binary does not know.
func (r *Registry) Lookup(t Type) (Handler, error) {
	h, ok := r.handlers[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, t)
	}
	return h, nil
}

// ValidateConfig checks config with the handler for t. Handlers that do not
// implement ConfigValidator accept any config.
func (r *Registry) ValidateConfig(t Type, config map[string]any) error {
	h, err := r.Lookup(t)
	if err != nil {
		return err
	}
	if v, ok := h.(ConfigValidator); ok {
		return v.ValidateConfig(config)
	}
	return nil
}
