// Package mediatest provides in-memory test doubles for the media package.
package mediatest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/janhq/media-janitor/internal/domain/media"
)

// Compile-time interface checks.
var (
	_ media.Repository = (*Registry)(nil)
	_ media.Storage    = (*BlobStore)(nil)
)

// Registry is an in-memory media.Repository.
type Registry struct {
	mu      sync.Mutex
	objects map[string]*media.MediaObject

	// ListErr, when set, is returned by ListAll.
	ListErr error
	// DeleteErr, keyed by object key, is returned by DeleteByKey.
	DeleteErr map[string]error
	// OnFindByKey runs before FindByKey reads the map.
	OnFindByKey func(key string)
}

func NewRegistry(objects ...*media.MediaObject) *Registry {
	r := &Registry{objects: make(map[string]*media.MediaObject), DeleteErr: make(map[string]error)}
	for _, obj := range objects {
		r.objects[obj.ObjectKey] = obj
	}
	return r
}

func (r *Registry) Create(_ context.Context, obj *media.MediaObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[obj.ObjectKey]; exists {
		return errors.New("duplicate object key")
	}
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now()
	}
	copied := *obj
	r.objects[obj.ObjectKey] = &copied
	return nil
}

func (r *Registry) FindByKey(_ context.Context, key string) (*media.MediaObject, error) {
	if r.OnFindByKey != nil {
		r.OnFindByKey(key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[key]
	if !ok {
		return nil, nil
	}
	copied := *obj
	return &copied, nil
}

func (r *Registry) ListAll(_ context.Context) ([]*media.MediaObject, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*media.MediaObject, 0, len(r.objects))
	for _, obj := range r.objects {
		copied := *obj
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectKey < out[j].ObjectKey })
	return out, nil
}

func (r *Registry) ListByAssociatedEntity(_ context.Context, entityID string) ([]*media.MediaObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*media.MediaObject
	for _, obj := range r.objects {
		if obj.AssociatedEntityID == entityID {
			copied := *obj
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *Registry) SetUsed(_ context.Context, key string, used bool) error {
	return r.update(key, func(obj *media.MediaObject) { obj.Used = used })
}

func (r *Registry) SetAssociatedEntity(_ context.Context, key, entityID string) error {
	return r.update(key, func(obj *media.MediaObject) { obj.AssociatedEntityID = entityID })
}

func (r *Registry) DeleteByKey(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.DeleteErr[key]; err != nil {
		return err
	}
	delete(r.objects, key)
	return nil
}

// Has reports whether a record exists for key.
func (r *Registry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[key]
	return ok
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

func (r *Registry) update(key string, fn func(obj *media.MediaObject)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[key]
	if !ok {
		return errors.New("media object not found")
	}
	fn(obj)
	return nil
}

// BlobStore is an in-memory media.Storage.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string

	// DeleteErr, keyed by object key, is returned by Delete.
	DeleteErr map[string]error
	deletes   []string
}

func NewBlobStore(keys ...string) *BlobStore {
	s := &BlobStore{
		blobs:     make(map[string][]byte),
		types:     make(map[string]string),
		DeleteErr: make(map[string]error),
	}
	for _, key := range keys {
		s.blobs[key] = []byte(key)
	}
	return s
}

func (s *BlobStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	s.types[key] = contentType
	return key, nil
}

func (s *BlobStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, "", errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), s.types[key], nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if err := s.DeleteErr[key]; err != nil {
		return err
	}
	delete(s.blobs, key)
	return nil
}

// Has reports whether a blob exists for key.
func (s *BlobStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok
}

// Deletes returns every key passed to Delete, in call order.
func (s *BlobStore) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}
