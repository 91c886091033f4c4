package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/config"
)

// MinioStorage stores blobs on a MinIO server.
type MinioStorage struct {
	bucket string
	client *minio.Client
	log    zerolog.Logger
}

func NewMinioStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*MinioStorage, error) {
	endpoint := strings.TrimSpace(cfg.MinioEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("MEDIA_MINIO_ENDPOINT is required for the minio backend")
	}
	bucket := strings.TrimSpace(cfg.MinioBucket)
	if bucket == "" {
		return nil, fmt.Errorf("MEDIA_MINIO_BUCKET is required for the minio backend")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	storage := &MinioStorage{
		bucket: bucket,
		client: client,
		log:    log.With().Str("component", "minio-storage").Logger(),
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return storage, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	m.log.Info().Str("bucket", m.bucket).Msg("bucket created")
	return nil
}

func (m *MinioStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (_ string, err error) {
	defer observe(BackendMinio, "put", time.Now(), &err)
	_, err = m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (m *MinioStorage) Get(ctx context.Context, key string) (_ io.ReadCloser, _ string, err error) {
	defer observe(BackendMinio, "get", time.Now(), &err)
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, "", fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, info.ContentType, nil
}

func (m *MinioStorage) Delete(ctx context.Context, key string) (err error) {
	defer observe(BackendMinio, "delete", time.Now(), &err)
	if err = m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	m.log.Debug().Str("key", key).Msg("object deleted")
	return nil
}

func (m *MinioStorage) Health(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}
