// Package gc reclaims media objects that no content references any more.
package gc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/infrastructure/metrics"
	"github.com/janhq/media-janitor/internal/infrastructure/observability"
)

// ErrScanFailed marks a run aborted before the sweep because the registry or
// a content source could not be read.
var ErrScanFailed = errors.New("gc scan failed")

// ReferenceSource is one kind of content that can embed media.
type ReferenceSource interface {
	Name() string
	// CollectReferences adds every owned reference found in the source to into.
	CollectReferences(ctx context.Context, scanner *media.Scanner, into media.ReferenceSet) error
	// ContainsReference reports whether the source currently references key,
	// judged by the same rules as CollectReferences.
	ContainsReference(ctx context.Context, scanner *media.Scanner, key string) (bool, error)
}

// MediaDeleter removes an object's blob and then its registry record.
type MediaDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Options controls one collector run.
type Options struct {
	// DryRun computes the report without deleting anything.
	DryRun bool
	// MinAge protects objects created less than MinAge ago.
	MinAge time.Duration
}

// Report is the summary of one collector run.
type Report struct {
	TotalScanned   int      `json:"total_scanned"`
	LiveCount      int      `json:"live_count"`
	UnusedCount    int      `json:"unused_count"`
	DeletedCount   int      `json:"deleted_count"`
	SkippedCount   int      `json:"skipped_count"`
	ReclaimedBytes int64    `json:"reclaimed_bytes"`
	DryRun         bool     `json:"dry_run,omitempty"`
	UnusedKeys     []string `json:"unused_keys,omitempty"`
	Errors         []string `json:"errors"`
}

// Collector is a mark-and-sweep garbage collector over the media registry.
type Collector struct {
	registry media.Repository
	deleter  MediaDeleter
	sources  []ReferenceSource
	scanner  *media.Scanner
	log      zerolog.Logger
	now      func() time.Time
}

func NewCollector(registry media.Repository, deleter MediaDeleter, sources []ReferenceSource, convention media.ReferenceConvention, log zerolog.Logger) *Collector {
	return &Collector{
		registry: registry,
		deleter:  deleter,
		sources:  sources,
		scanner:  media.NewScanner(convention),
		log:      log.With().Str("component", "gc-collector").Logger(),
		now:      time.Now,
	}
}

// Run marks every registered object, builds the live set from all sources
// and deletes what is neither live nor protected. A failure while marking
// returns ErrScanFailed and nothing is deleted. Failures on single objects
// are listed in Report.Errors and the sweep carries on.
func (c *Collector) Run(ctx context.Context, opts Options) (*Report, error) {
	ctx, span := observability.StartSpan(ctx, "gc.run", attribute.Bool("gc.dry_run", opts.DryRun))
	defer span.End()

	report := &Report{DryRun: opts.DryRun, Errors: []string{}}

	candidates, err := c.registry.ListAll(ctx)
	if err != nil {
		err = fmt.Errorf("%w: list registry: %v", ErrScanFailed, err)
		observability.RecordError(span, err)
		return report, err
	}
	report.TotalScanned = len(candidates)

	live := media.NewReferenceSet()
	for _, source := range c.sources {
		if err := source.CollectReferences(ctx, c.scanner, live); err != nil {
			err = fmt.Errorf("%w: scan %s: %v", ErrScanFailed, source.Name(), err)
			observability.RecordError(span, err)
			return report, err
		}
	}

	now := c.now()
	var unused []*media.MediaObject
	for _, obj := range candidates {
		if live.Has(obj.ObjectKey) || obj.Protected() || tooYoung(obj, now, opts.MinAge) {
			report.LiveCount++
			continue
		}
		unused = append(unused, obj)
	}
	report.UnusedCount = len(unused)
	span.SetAttributes(
		attribute.Int("gc.total", report.TotalScanned),
		attribute.Int("gc.unused", report.UnusedCount),
	)

	if opts.DryRun {
		for _, obj := range unused {
			report.UnusedKeys = append(report.UnusedKeys, obj.ObjectKey)
		}
		c.logSummary(report)
		return report, nil
	}

	for _, obj := range unused {
		if err := ctx.Err(); err != nil {
			observability.RecordError(span, err)
			c.logSummary(report)
			return report, fmt.Errorf("sweep interrupted: %w", err)
		}
		c.sweep(ctx, obj, report)
	}

	c.logSummary(report)
	return report, nil
}

func (c *Collector) sweep(ctx context.Context, obj *media.MediaObject, report *Report) {
	log := c.log.With().Str("object_key", obj.ObjectKey).Logger()

	unused, reason, err := c.stillUnused(ctx, obj.ObjectKey)
	if err != nil {
		report.SkippedCount++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: recheck: %v", obj.ObjectKey, err))
		metrics.RecordGCObject("error", 0)
		log.Warn().Err(err).Msg("recheck failed, object kept")
		return
	}
	if !unused {
		report.SkippedCount++
		metrics.RecordGCObject("skipped", 0)
		log.Debug().Str("reason", reason).Msg("object became live, skipped")
		return
	}

	if err := c.deleter.Delete(ctx, obj.ObjectKey); err != nil {
		report.SkippedCount++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", obj.ObjectKey, err))
		metrics.RecordGCObject("error", 0)
		log.Warn().Err(err).Msg("failed to delete orphaned object")
		return
	}

	report.DeletedCount++
	report.ReclaimedBytes += obj.SizeBytes
	metrics.RecordGCObject("deleted", obj.SizeBytes)
	log.Debug().Int64("bytes", obj.SizeBytes).Msg("orphaned object deleted")
}

// stillUnused repeats the liveness check for one key right before deletion.
// It narrows, but cannot close, the window in which content saved after the
// mark phase starts referencing the object.
func (c *Collector) stillUnused(ctx context.Context, key string) (bool, string, error) {
	fresh, err := c.registry.FindByKey(ctx, key)
	if err != nil {
		return false, "", err
	}
	if fresh == nil {
		return false, "record already removed", nil
	}
	if fresh.Protected() {
		return false, "object is protected", nil
	}

	for _, source := range c.sources {
		found, err := source.ContainsReference(ctx, c.scanner, key)
		if err != nil {
			return false, "", fmt.Errorf("%s: %w", source.Name(), err)
		}
		if found {
			return false, "referenced by " + source.Name(), nil
		}
	}
	return true, "", nil
}

func (c *Collector) logSummary(report *Report) {
	c.log.Info().
		Bool("dry_run", report.DryRun).
		Int("total", report.TotalScanned).
		Int("live", report.LiveCount).
		Int("unused", report.UnusedCount).
		Int("deleted", report.DeletedCount).
		Int("skipped", report.SkippedCount).
		Int("errors", len(report.Errors)).
		Msg("gc run finished")
}

func tooYoung(obj *media.MediaObject, now time.Time, minAge time.Duration) bool {
	return minAge > 0 && !obj.CreatedAt.IsZero() && now.Sub(obj.CreatedAt) < minAge
}
