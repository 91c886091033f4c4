package content

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/infrastructure/metrics"
	"github.com/janhq/media-janitor/internal/infrastructure/observability"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// CascadeReport summarises one cascade delete.
type CascadeReport struct {
	RootID            string   `json:"root_id"`
	Kind              string   `json:"kind"`
	Found             bool     `json:"found"`
	MediaDeleted      int      `json:"media_deleted"`
	MediaFailed       int      `json:"media_failed"`
	DependentsDeleted int64    `json:"dependents_deleted"`
	RootDeleted       bool     `json:"root_deleted"`
	Errors            []string `json:"errors,omitempty"`
}

// CascadeDeleter removes a root entity with its dependents and their media.
//
// Media goes first, then dependents, then the root, so an interrupted cascade
// leaves orphaned media or rows for the collector rather than a root whose
// dependents are already gone.
type CascadeDeleter struct {
	graph   Graph
	media   MediaStore
	scanner *media.Scanner
	log     zerolog.Logger
}

func NewCascadeDeleter(graph Graph, store MediaStore, scanner *media.Scanner, log zerolog.Logger) *CascadeDeleter {
	return &CascadeDeleter{
		graph:   graph,
		media:   store,
		scanner: scanner,
		log:     log.With().Str("component", "cascade-deleter").Str("kind", graph.Kind()).Logger(),
	}
}

// Delete runs the cascade for rootID. A missing root is a no-op. Individual
// media failures are recorded in the report and do not stop the cascade; a
// failure to load entities or delete rows is returned as an error.
func (d *CascadeDeleter) Delete(ctx context.Context, rootID string) (*CascadeReport, error) {
	kind := d.graph.Kind()
	ctx, span := observability.StartSpan(ctx, "cascade.delete",
		attribute.String("cascade.kind", kind),
		attribute.String("cascade.root_id", rootID),
	)
	defer span.End()

	report := &CascadeReport{RootID: rootID, Kind: kind}

	root, err := d.graph.LoadRoot(ctx, rootID)
	if err != nil {
		observability.RecordError(span, err)
		return report, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load cascade root")
	}
	if root == nil {
		d.log.Debug().Str("root_id", rootID).Msg("root not found, nothing to delete")
		return report, nil
	}
	report.Found = true

	refs := media.NewReferenceSet()
	d.collect(root, refs)

	dependents, err := d.graph.LoadDependents(ctx, rootID)
	if err != nil {
		observability.RecordError(span, err)
		return report, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load cascade dependents")
	}
	for _, dep := range dependents {
		d.collect(dep, refs)
	}

	attempted := make(map[string]bool, len(refs))
	for _, key := range refs.Keys() {
		attempted[key] = true
		d.deleteMedia(ctx, key, report)
	}

	deleted, err := d.graph.DeleteDependents(ctx, rootID)
	if err != nil {
		metrics.RecordCascade("dependent", false, len(dependents))
		observability.RecordError(span, err)
		return report, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete cascade dependents")
	}
	report.DependentsDeleted = deleted
	metrics.RecordCascade("dependent", true, int(deleted))

	if err := d.graph.DeleteRoot(ctx, rootID); err != nil {
		metrics.RecordCascade(kind, false, 1)
		observability.RecordError(span, err)
		return report, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete cascade root")
	}
	report.RootDeleted = true
	metrics.RecordCascade(kind, true, 1)

	// Objects associated with the root but never embedded in its text.
	associated, err := d.media.ListByAssociatedEntity(ctx, rootID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list associated media: %v", err))
		d.log.Warn().Err(err).Str("root_id", rootID).Msg("failed to list associated media")
	}
	for _, obj := range associated {
		if attempted[obj.ObjectKey] {
			continue
		}
		attempted[obj.ObjectKey] = true
		d.deleteMedia(ctx, obj.ObjectKey, report)
	}

	d.log.Info().
		Str("root_id", rootID).
		Int("media_deleted", report.MediaDeleted).
		Int("media_failed", report.MediaFailed).
		Int64("dependents_deleted", report.DependentsDeleted).
		Msg("cascade delete finished")
	return report, nil
}

func (d *CascadeDeleter) collect(entity *Entity, refs media.ReferenceSet) {
	for _, text := range entity.Texts {
		d.scanner.ExtractInto(text, refs)
	}
	for _, ref := range entity.References {
		d.scanner.AddReference(ref, refs)
	}
}

func (d *CascadeDeleter) deleteMedia(ctx context.Context, key string, report *CascadeReport) {
	if err := d.media.Delete(ctx, key); err != nil {
		report.MediaFailed++
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, err))
		metrics.RecordCascade("media", false, 1)
		d.log.Warn().Err(err).Str("object_key", key).Msg("failed to delete media during cascade")
		return
	}
	report.MediaDeleted++
	metrics.RecordCascade("media", true, 1)
}
