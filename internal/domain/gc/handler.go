package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/janhq/media-janitor/internal/domain/task"
)

// TaskConfig is the config stored on a cleanupUnusedImages task.
type TaskConfig struct {
	DryRun bool   `json:"dry_run"`
	MinAge string `json:"min_age,omitempty"`
}

func (c TaskConfig) Options() (Options, error) {
	opts := Options{DryRun: c.DryRun}
	if c.MinAge != "" {
		d, err := time.ParseDuration(c.MinAge)
		if err != nil || d < 0 {
			return opts, fmt.Errorf("invalid min_age %q", c.MinAge)
		}
		opts.MinAge = d
	}
	return opts, nil
}

// TaskHandler runs the collector for scheduled and manual task runs.
type TaskHandler struct {
	collector *Collector
}

var (
	_ task.Handler         = (*TaskHandler)(nil)
	_ task.ConfigValidator = (*TaskHandler)(nil)
)

func NewTaskHandler(collector *Collector) *TaskHandler {
	return &TaskHandler{collector: collector}
}

// ValidateConfig rejects a config that Execute would fail to decode.
func (h *TaskHandler) ValidateConfig(config map[string]any) error {
	var cfg TaskConfig
	if err := (&task.Task{Config: config}).DecodeConfig(&cfg); err != nil {
		return err
	}
	_, err := cfg.Options()
	return err
}

func (h *TaskHandler) Execute(ctx context.Context, t *task.Task) (task.Outcome, error) {
	var cfg TaskConfig
	if err := t.DecodeConfig(&cfg); err != nil {
		return task.Outcome{}, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return task.Outcome{}, err
	}

	report, err := h.collector.Run(ctx, opts)
	if err != nil {
		return task.Outcome{Details: report}, err
	}

	verb := "deleted"
	count := report.DeletedCount
	if opts.DryRun {
		verb, count = "would delete", report.UnusedCount
	}
	return task.Outcome{
		Message: fmt.Sprintf("scanned %d images, %s %d, skipped %d, %d errors",
			report.TotalScanned, verb, count, report.SkippedCount, len(report.Errors)),
		Details: report,
	}, nil
}
