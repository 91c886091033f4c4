// Package storage provides the blob backends behind media.Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/config"
	"github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/infrastructure/metrics"
)

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendLocal = "local"
)

// ErrObjectNotFound is returned by Get when the blob does not exist.
var ErrObjectNotFound = errors.New("object not found")

// New creates the backend selected by MEDIA_STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (media.Storage, error) {
	switch cfg.StorageBackend {
	case BackendLocal:
		return NewLocalStorage(cfg, log)
	case BackendMinio:
		return NewMinioStorage(ctx, cfg, log)
	case BackendS3, "":
		return NewS3Storage(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}

// HealthChecker is implemented by every backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// observe is deferred with a pointer to the named error result.
func observe(backend, operation string, start time.Time, err *error) {
	metrics.RecordStorageOperation(backend, operation, *err, time.Since(start).Seconds())
}
