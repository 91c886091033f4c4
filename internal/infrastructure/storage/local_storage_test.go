package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/media-janitor/internal/config"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newLocal(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewLocalStorage(&config.Config{LocalStoragePath: dir}, zerolog.Nop())
	require.NoError(t, err)
	return storage, dir
}

func TestLocalStorage_PutGetDelete(t *testing.T) {
	storage, dir := newLocal(t)
	ctx := context.Background()
	key := "posts/u1/temp/a.png"

	location, err := storage.Put(ctx, key, bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, key, location)

	body, contentType, err := storage.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, storage.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "posts"))
	assert.True(t, os.IsNotExist(err), "empty parent directories are pruned")

	_, _, err = storage.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_DeleteMissingIsNotAnError(t *testing.T) {
	storage, _ := newLocal(t)

	assert.NoError(t, storage.Delete(context.Background(), "posts/u1/temp/never.png"))
}

func TestLocalStorage_DeleteKeepsSiblings(t *testing.T) {
	storage, dir := newLocal(t)
	ctx := context.Background()
	for _, key := range []string{"p/u/temp/a.png", "p/u/temp/b.png"} {
		_, err := storage.Put(ctx, key, bytes.NewReader(pngHeader), 0, "image/png")
		require.NoError(t, err)
	}

	require.NoError(t, storage.Delete(ctx, "p/u/temp/a.png"))

	_, err := os.Stat(filepath.Join(dir, "p", "u", "temp", "b.png"))
	assert.NoError(t, err)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	storage, _ := newLocal(t)
	ctx := context.Background()

	_, err := storage.Put(ctx, "../outside.png", bytes.NewReader(pngHeader), 0, "image/png")
	assert.Error(t, err)
	assert.Error(t, storage.Delete(ctx, "../../etc/passwd"))
}

func TestLocalStorage_Disabled(t *testing.T) {
	storage, err := NewLocalStorage(&config.Config{}, zerolog.Nop())
	require.NoError(t, err)

	assert.NoError(t, storage.Health(context.Background()))
	assert.ErrorIs(t, storage.Delete(context.Background(), "k"), errLocalStorageDisabled)
}

func TestNew_SelectsBackend(t *testing.T) {
	backend, err := New(context.Background(), &config.Config{StorageBackend: BackendLocal, LocalStoragePath: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, backend)

	backend, err = New(context.Background(), &config.Config{StorageBackend: BackendS3}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, backend)

	_, err = New(context.Background(), &config.Config{StorageBackend: "ftp"}, zerolog.Nop())
	assert.Error(t, err)
}
