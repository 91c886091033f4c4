package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/config"
)

var errLocalStorageDisabled = errors.New("local storage is not configured; set MEDIA_LOCAL_STORAGE_PATH to enable")

// LocalStorage keeps blobs on the local filesystem under basePath.
type LocalStorage struct {
	basePath string
	log      zerolog.Logger
	disabled bool
}

// NewLocalStorage creates a new local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("MEDIA_LOCAL_STORAGE_PATH is not set; local storage will be disabled")
		return &LocalStorage{log: logger, disabled: true}, nil
	}
	basePath = filepath.Clean(basePath)
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	logger.Info().Str("path", basePath).Msg("local storage initialized")
	return &LocalStorage{basePath: basePath, log: logger}, nil
}

func (l *LocalStorage) ensureEnabled() error {
	if l.disabled {
		return errLocalStorageDisabled
	}
	return nil
}

// pathFor rejects keys that would escape basePath.
func (l *LocalStorage) pathFor(key string) (string, error) {
	fullPath := filepath.Join(l.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(l.basePath, fullPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return fullPath, nil
}

func (l *LocalStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (_ string, err error) {
	defer observe(BackendLocal, "put", time.Now(), &err)
	if err = l.ensureEnabled(); err != nil {
		return "", err
	}
	fullPath, err := l.pathFor(key)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.log.Debug().Str("key", key).Int64("bytes", written).Msg("file stored")
	return key, nil
}

func (l *LocalStorage) Get(_ context.Context, key string) (_ io.ReadCloser, _ string, err error) {
	defer observe(BackendLocal, "get", time.Now(), &err)
	if err = l.ensureEnabled(); err != nil {
		return nil, "", err
	}
	fullPath, err := l.pathFor(key)
	if err != nil {
		return nil, "", err
	}

	mime, err := mimetype.DetectFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, "", fmt.Errorf("failed to inspect file: %w", err)
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return file, mime.String(), nil
}

// Delete removes the file and any directories left empty up to basePath.
func (l *LocalStorage) Delete(_ context.Context, key string) (err error) {
	defer observe(BackendLocal, "delete", time.Now(), &err)
	if err = l.ensureEnabled(); err != nil {
		return err
	}
	fullPath, err := l.pathFor(key)
	if err != nil {
		return err
	}
	if err = os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	err = nil

	for dir := filepath.Dir(fullPath); dir != l.basePath && strings.HasPrefix(dir, l.basePath); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	l.log.Debug().Str("key", key).Msg("file deleted")
	return nil
}

// Health checks that the storage directory is writable.
func (l *LocalStorage) Health(_ context.Context) error {
	if l.disabled {
		return nil
	}
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
