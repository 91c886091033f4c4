package media_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/domain/media/mediatest"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// Smallest valid PNG: signature plus IHDR chunk header.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func newService(repo *mediatest.Registry, blobs *mediatest.BlobStore) *media.Service {
	return media.NewService(repo, blobs, media.NewReferenceConvention("/media"), 1024, zerolog.Nop())
}

func TestUpload_RegistersUnusedObject(t *testing.T) {
	repo := mediatest.NewRegistry()
	blobs := mediatest.NewBlobStore()
	svc := newService(repo, blobs)

	obj, err := svc.Upload(context.Background(), media.UploadRequest{
		Domain: "posts", OwnerID: "usr_1", Filename: "cover.png", Data: pngBytes,
	})
	require.NoError(t, err)

	assert.Equal(t, "posts/usr_1/temp/cover.png", obj.ObjectKey)
	assert.Equal(t, "image/png", obj.MimeType)
	assert.False(t, obj.Used)
	assert.False(t, obj.Protected())
	assert.True(t, repo.Has(obj.ObjectKey))
	assert.True(t, blobs.Has(obj.ObjectKey))
}

func TestUpload_Rejects(t *testing.T) {
	tests := []struct {
		name string
		req  media.UploadRequest
		want platformerrors.ErrorType
	}{
		{"empty", media.UploadRequest{Domain: "posts", OwnerID: "u"}, platformerrors.ErrorTypeValidation},
		{"too large", media.UploadRequest{Domain: "posts", OwnerID: "u", Data: make([]byte, 2048)}, platformerrors.ErrorTypeValidation},
		{"no owner", media.UploadRequest{Domain: "posts", Data: pngBytes}, platformerrors.ErrorTypeValidation},
		{"not an image", media.UploadRequest{Domain: "posts", OwnerID: "u", Data: []byte("plain text body")}, platformerrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(mediatest.NewRegistry(), mediatest.NewBlobStore())
			_, err := svc.Upload(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, tt.want))
		})
	}
}

func TestUpload_ConflictOnExistingKey(t *testing.T) {
	repo := mediatest.NewRegistry(&media.MediaObject{ObjectKey: "posts/u/temp/a.png"})
	svc := newService(repo, mediatest.NewBlobStore())

	_, err := svc.Upload(context.Background(), media.UploadRequest{
		Domain: "posts", OwnerID: "u", Filename: "a.png", Data: pngBytes,
	})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
}

func TestDelete_BlobFailureKeepsRecord(t *testing.T) {
	key := "posts/u/p/a.png"
	repo := mediatest.NewRegistry(&media.MediaObject{ObjectKey: key})
	blobs := mediatest.NewBlobStore(key)
	blobs.DeleteErr[key] = errors.New("s3 unavailable")
	svc := newService(repo, blobs)

	err := svc.Delete(context.Background(), key)

	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeStorageError))
	assert.True(t, repo.Has(key))
}

func TestDeleteReference(t *testing.T) {
	key := "posts/u/p/a.png"
	repo := mediatest.NewRegistry(&media.MediaObject{ObjectKey: key})
	blobs := mediatest.NewBlobStore(key)
	svc := newService(repo, blobs)

	require.NoError(t, svc.DeleteReference(context.Background(), "https://elsewhere.example/a.png"))
	assert.Empty(t, blobs.Deletes())

	require.NoError(t, svc.DeleteReference(context.Background(), "/media/"+key))
	assert.False(t, repo.Has(key))
	assert.False(t, blobs.Has(key))
}

func TestMarkUsedAndAssociate(t *testing.T) {
	key := "posts/u/temp/a.png"
	repo := mediatest.NewRegistry(&media.MediaObject{ObjectKey: key})
	svc := newService(repo, mediatest.NewBlobStore(key))
	ctx := context.Background()

	require.NoError(t, svc.MarkUsed(ctx, key, true))
	require.NoError(t, svc.Associate(ctx, key, "post_1"))

	obj, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, obj.Used)
	assert.Equal(t, "post_1", obj.AssociatedEntityID)
	assert.True(t, obj.Protected())
}
