package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/utils/idgen"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

const filePrefix = "file"

var allowedMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
	"image/bmp":  {},
	"image/tiff": {},
	"image/avif": {},
}

// Service manages the lifecycle of registered media objects.
type Service struct {
	repo       Repository
	storage    Storage
	convention ReferenceConvention
	maxBytes   int64
	log        zerolog.Logger
}

func NewService(repo Repository, storage Storage, convention ReferenceConvention, maxBytes int64, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		storage:    storage,
		convention: convention,
		maxBytes:   maxBytes,
		log:        log.With().Str("component", "media-service").Logger(),
	}
}

// Convention returns the reference convention used by the service.
func (s *Service) Convention() ReferenceConvention {
	return s.convention
}

// Upload stores the binary and registers it as unused. Content that later embeds
// the returned reference marks it live for the collector.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*MediaObject, error) {
	if len(req.Data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"file is empty", nil, "media-upload-empty")
	}
	if s.maxBytes > 0 && int64(len(req.Data)) > s.maxBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file exceeds max size of %d bytes", s.maxBytes), nil, "media-upload-too-large")
	}
	if strings.TrimSpace(req.OwnerID) == "" || strings.TrimSpace(req.Domain) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"domain and owner are required", nil, "media-upload-owner")
	}

	detected := mimetype.Detect(req.Data)
	mimeType := detected.String()
	if _, ok := allowedMIMEs[mimeType]; !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unsupported mime type %s", mimeType), nil, "media-upload-mime")
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = idgen.New(filePrefix) + detected.Extension()
	}
	key := s.convention.KeyFor(req.Domain, req.OwnerID, req.ScopeID, filename)

	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			fmt.Sprintf("object %s already exists", key), nil, "media-upload-conflict")
	}

	if _, err := s.storage.Put(ctx, key, bytes.NewReader(req.Data), int64(len(req.Data)), mimeType); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			"failed to store object", err, "media-upload-put")
	}

	obj := &MediaObject{
		ID:        idgen.New(idgen.PrefixMediaObject),
		ObjectKey: key,
		MimeType:  mimeType,
		SizeBytes: int64(len(req.Data)),
		OwnerID:   req.OwnerID,
	}
	if err := s.repo.Create(ctx, obj); err != nil {
		// Unregistered blobs are invisible to the collector.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn().Err(delErr).Str("object_key", key).Msg("failed to remove blob after registry insert failure")
		}
		return nil, err
	}

	s.log.Debug().Str("object_key", key).Int64("bytes", obj.SizeBytes).Msg("media uploaded")
	return obj, nil
}

// Open returns the blob contents for key.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.storage.Get(ctx, key)
}

// MarkUsed sets the authoritative used flag.
func (s *Service) MarkUsed(ctx context.Context, key string, used bool) error {
	return s.repo.SetUsed(ctx, key, used)
}

// Associate protects the object on behalf of entityID.
func (s *Service) Associate(ctx context.Context, key, entityID string) error {
	return s.repo.SetAssociatedEntity(ctx, key, entityID)
}

// Delete removes the blob first and then the registry record. When the blob
// delete fails the record is kept so a later run can retry.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.storage.Delete(ctx, key); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorageError,
			fmt.Sprintf("delete blob %s", key), err, "media-delete-blob")
	}
	if err := s.repo.DeleteByKey(ctx, key); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, fmt.Sprintf("delete record %s", key))
	}
	return nil
}

// DeleteReference deletes the object behind an owned reference. External
// references are ignored.
func (s *Service) DeleteReference(ctx context.Context, ref string) error {
	key, ok := s.convention.KeyFromReference(ref)
	if !ok {
		return nil
	}
	return s.Delete(ctx, key)
}

// ListByAssociatedEntity returns objects protected on behalf of entityID.
func (s *Service) ListByAssociatedEntity(ctx context.Context, entityID string) ([]*MediaObject, error) {
	return s.repo.ListByAssociatedEntity(ctx, entityID)
}
