package task

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/utils/idgen"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// DefaultTask describes a canonical task record seeded at start up.
type DefaultTask struct {
	Name           string
	Type           Type
	CronExpression string
	Config         map[string]any
}

// DefaultTasks are created disabled; an operator enables them explicitly.
var DefaultTasks = []DefaultTask{
	{
		Name:           "Cleanup unused images",
		Type:           TypeCleanupUnusedImages,
		CronExpression: "0 2 * * *",
		Config:         map[string]any{"dry_run": false},
	},
	{
		Name:           "Update inactive users",
		Type:           TypeUpdateInactiveUsers,
		CronExpression: "0 3 * * *",
		Config:         map[string]any{"inactive_days": 90},
	},
}

// Bootstrapper seeds DefaultTasks once per process. Concurrent processes may
// still race between lookup and insert since storage enforces no uniqueness.
type Bootstrapper struct {
	repo     Repository
	calc     NextRunCalculator
	defaults []DefaultTask
	log      zerolog.Logger
	now      func() time.Time

	mu   sync.Mutex
	done bool
}

func NewBootstrapper(repo Repository, calc NextRunCalculator, log zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		repo:     repo,
		calc:     calc,
		defaults: DefaultTasks,
		log:      log.With().Str("component", "task-bootstrapper").Logger(),
		now:      time.Now,
	}
}

// Bootstrap creates each default task unless a record with the same type, or
// failing that the same name, already exists. Later calls are no-ops once a
// call has succeeded. It returns the number of records created.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return 0, nil
	}

	created := 0
	for _, def := range b.defaults {
		exists, err := b.exists(ctx, def)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		if err := b.calc.Validate(def.CronExpression); err != nil {
			return created, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"invalid default cron expression", err, "task-bootstrap-cron")
		}
		t := &Task{
			ID:             idgen.New(idgen.PrefixTask),
			Name:           def.Name,
			Type:           def.Type,
			CronExpression: def.CronExpression,
			Enabled:        false,
			Status:         StatusIdle,
			Config:         def.Config,
		}
		if next, err := b.calc.Next(def.CronExpression, b.now()); err == nil {
			t.NextRunAt = &next
		}
		if err := b.repo.Create(ctx, t); err != nil {
			return created, err
		}
		created++
		b.log.Info().Str("task_id", t.ID).Str("task_type", t.Type.String()).Msg("default task created (disabled)")
	}

	b.done = true
	return created, nil
}

func (b *Bootstrapper) exists(ctx context.Context, def DefaultTask) (bool, error) {
	byType, err := b.repo.FindByType(ctx, def.Type)
	if err != nil {
		return false, err
	}
	if byType != nil {
		return true, nil
	}
	byName, err := b.repo.FindByName(ctx, def.Name)
	if err != nil {
		return false, err
	}
	return byName != nil, nil
}
