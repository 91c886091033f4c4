package task

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// UpdateRequest changes a task definition. Nil fields are left untouched.
type UpdateRequest struct {
	Name           *string        `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	CronExpression *string        `json:"cron_expression,omitempty" validate:"omitempty,min=9,max=128"`
	Enabled        *bool          `json:"enabled,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
}

// Runner executes a task on demand.
type Runner interface {
	RunTaskManually(ctx context.Context, id string) *Result
}

// Service exposes task definitions to the admin surface. When registry is
// set, config updates are checked by the task type's handler.
type Service struct {
	repo     Repository
	calc     NextRunCalculator
	runner   Runner
	registry *Registry
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, calc NextRunCalculator, runner Runner, registry *Registry, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		calc:     calc,
		runner:   runner,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With().Str("component", "task-service").Logger(),
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*Task, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

// Run triggers a task immediately and waits for its result.
func (s *Service) Run(ctx context.Context, id string) *Result {
	return s.runner.RunTaskManually(ctx, id)
}

// Update applies req to the task and recomputes next_run_at when the schedule
// or the enabled flag changes.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Task, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid task update", err, "task-update-invalid")
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reschedule := false
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.CronExpression != nil {
		expr := strings.Join(strings.Fields(*req.CronExpression), " ")
		if err := s.calc.Validate(expr); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				err.Error(), err, "task-update-cron")
		}
		reschedule = reschedule || expr != t.CronExpression
		t.CronExpression = expr
	}
	if req.Enabled != nil {
		reschedule = reschedule || *req.Enabled != t.Enabled
		t.Enabled = *req.Enabled
	}
	if req.Config != nil {
		if s.registry != nil {
			if err := s.registry.ValidateConfig(t.Type, req.Config); err != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
					err.Error(), err, "task-update-config")
			}
		}
		t.Config = req.Config
	}

	if reschedule {
		t.NextRunAt = nil
		if t.Enabled {
			next, err := s.calc.Next(t.CronExpression, s.now())
			if err != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
					err.Error(), err, "task-update-next-run")
			}
			t.NextRunAt = &next
		}
	}

	if err := s.repo.UpdateDefinition(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("task_id", t.ID).Bool("enabled", t.Enabled).Str("cron", t.CronExpression).Msg("task definition updated")
	return t, nil
}
