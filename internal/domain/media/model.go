package media

import (
	"context"
	"io"
	"time"
)

// MediaObject represents stored media metadata.
type MediaObject struct {
	ID                 string    `json:"id"`
	ObjectKey          string    `json:"object_key"`
	MimeType           string    `json:"mime"`
	SizeBytes          int64     `json:"size_bytes"`
	OwnerID            string    `json:"owner_id"`
	AssociatedEntityID string    `json:"associated_entity_id,omitempty"`
	Used               bool      `json:"used"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Protected reports whether the object is exempt from collection regardless of scan results.
func (o *MediaObject) Protected() bool {
	return o.Used || o.AssociatedEntityID != ""
}

// Repository defines persistence operations on the object registry.
type Repository interface {
	Create(ctx context.Context, obj *MediaObject) error
	// FindByKey returns nil, nil when no record exists for key.
	FindByKey(ctx context.Context, key string) (*MediaObject, error)
	ListAll(ctx context.Context) ([]*MediaObject, error)
	ListByAssociatedEntity(ctx context.Context, entityID string) ([]*MediaObject, error)
	SetUsed(ctx context.Context, key string, used bool) error
	SetAssociatedEntity(ctx context.Context, key, entityID string) error
	DeleteByKey(ctx context.Context, key string) error
}

// Storage defines blob store operations.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// UploadRequest describes a new binary to register.
type UploadRequest struct {
	Domain   string
	OwnerID  string
	ScopeID  string
	Filename string
	Data     []byte
}
