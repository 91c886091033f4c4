package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/media-janitor/internal/app"
	"github.com/janhq/media-janitor/internal/config"
	"github.com/janhq/media-janitor/internal/domain/gc"
	"github.com/janhq/media-janitor/internal/domain/media/mediatest"
	"github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/infrastructure/database/dbtest"
	"github.com/janhq/media-janitor/internal/infrastructure/repository/contentrepo"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1}

type fixture struct {
	container *app.Container
	blobs     *mediatest.BlobStore
	handler   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServiceName:     "media-janitor-test",
		Environment:     "test",
		ReferencePrefix: "/media",
		MaxMediaBytes:   1 << 20,
		CronDialect:     "reduced",
	}
	blobs := mediatest.NewBlobStore()
	container, err := app.Build(cfg, zerolog.Nop(), dbtest.New(t), blobs, contentrepo.DefaultScanTargets())
	require.NoError(t, err)

	return &fixture{
		container: container,
		blobs:     blobs,
		handler:   New(container, zerolog.Nop()).Handler(),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) upload(t *testing.T, filename string) string {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("domain", "posts"))
	require.NoError(t, writer.WriteField("owner_id", "u1"))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/media", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ObjectKey string `json:"object_key"`
		Reference string `json:"reference"`
		Used      bool   `json:"used"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "posts/u1/temp/"+filename, resp.ObjectKey)
	assert.False(t, resp.Used)
	return resp.Reference
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)

	rec := f.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]any](t, rec)["status"])

	metrics := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "jan_media_janitor_http_requests_total")
}

func TestMedia_UploadAndServe(t *testing.T) {
	f := newFixture(t)

	ref := f.upload(t, "a.png")
	assert.Equal(t, "/media/posts/u1/temp/a.png", ref)

	rec := f.do(t, http.MethodGet, ref, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestMedia_UploadRejectsNonImage(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("domain", "posts"))
	require.NoError(t, writer.WriteField("owner_id", "u1"))
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/media", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "media-upload-mime", decode[map[string]any](t, rec)["code"])
}

func TestMedia_MarkUsedProtectsFromCollection(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "kept.png")

	rec := f.do(t, http.MethodPost, "/v1/media/mark-used", map[string]any{"key": "posts/u1/temp/kept.png", "used": true})
	require.Equal(t, http.StatusNoContent, rec.Code)

	preview := decode[gc.Report](t, f.do(t, http.MethodPost, "/v1/gc/preview", nil))
	assert.Zero(t, preview.UnusedCount)

	missing := f.do(t, http.MethodPost, "/v1/media/associate", map[string]any{"key": "posts/u1/temp/none.png", "entity_id": "post_1"})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestPosts_PreviewThenCascadeDelete(t *testing.T) {
	f := newFixture(t)
	bodyRef := f.upload(t, "body.png")
	commentRef := f.upload(t, "comment.png")
	f.upload(t, "orphan.png")

	created := f.do(t, http.MethodPost, "/v1/posts", map[string]any{
		"author_id": "u1",
		"title":     "Hello",
		"content":   "look ![x](" + bodyRef + ")",
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	postID := decode[map[string]any](t, created)["id"].(string)

	comment := f.do(t, http.MethodPost, "/v1/posts/"+postID+"/comments", map[string]any{
		"author_id": "u2",
		"images":    []string{commentRef},
	})
	require.Equal(t, http.StatusCreated, comment.Code, comment.Body.String())

	preview := decode[gc.Report](t, f.do(t, http.MethodPost, "/v1/gc/preview", map[string]any{}))
	assert.True(t, preview.DryRun)
	assert.Equal(t, 3, preview.TotalScanned)
	assert.Equal(t, 2, preview.LiveCount)
	assert.Equal(t, []string{"posts/u1/temp/orphan.png"}, preview.UnusedKeys)
	assert.True(t, f.blobs.Has("posts/u1/temp/orphan.png"))

	got := decode[map[string]any](t, f.do(t, http.MethodGet, "/v1/posts/"+postID, nil))
	assert.Len(t, got["comments"], 1)

	deleted := f.do(t, http.MethodDelete, "/v1/posts/"+postID, nil)
	require.Equal(t, http.StatusOK, deleted.Code)
	report := decode[map[string]any](t, deleted)
	assert.Equal(t, true, report["root_deleted"])
	assert.Equal(t, float64(2), report["media_deleted"])
	assert.Equal(t, float64(1), report["dependents_deleted"])

	assert.False(t, f.blobs.Has("posts/u1/temp/body.png"))
	assert.False(t, f.blobs.Has("posts/u1/temp/comment.png"))
	assert.True(t, f.blobs.Has("posts/u1/temp/orphan.png"))
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/posts/"+postID, nil).Code)

	again := decode[map[string]any](t, f.do(t, http.MethodDelete, "/v1/posts/"+postID, nil))
	assert.Equal(t, false, again["found"])
}

func TestPosts_CommentOnMissingPost(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/posts/post_missing/comments", map[string]any{"author_id": "u2", "content": "hi"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGCPreview_RejectsBadMinAge(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/gc/preview", map[string]any{"min_age": "later"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasks_ListUpdateRun(t *testing.T) {
	f := newFixture(t)
	created, err := f.container.Bootstrapper.Bootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, created)
	f.upload(t, "orphan.png")

	list := decode[struct {
		Data  []task.Task `json:"data"`
		Total int         `json:"total"`
	}](t, f.do(t, http.MethodGet, "/v1/tasks", nil))
	require.Equal(t, 2, list.Total)

	var cleanup task.Task
	for _, item := range list.Data {
		if item.Type == task.TypeCleanupUnusedImages {
			cleanup = item
		}
	}
	require.NotEmpty(t, cleanup.ID)
	assert.False(t, cleanup.Enabled)

	bad := f.do(t, http.MethodPatch, "/v1/tasks/"+cleanup.ID, map[string]any{"cron_expression": "61 * * * *"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	updated := decode[task.Task](t, f.do(t, http.MethodPatch, "/v1/tasks/"+cleanup.ID, map[string]any{
		"enabled":         true,
		"cron_expression": "30  4 * * *",
	}))
	assert.True(t, updated.Enabled)
	assert.Equal(t, "30 4 * * *", updated.CronExpression)
	require.NotNil(t, updated.NextRunAt)

	run := f.do(t, http.MethodPost, "/v1/tasks/"+cleanup.ID+"/run", nil)
	require.Equal(t, http.StatusOK, run.Code, run.Body.String())
	result := decode[task.Result](t, run)
	assert.True(t, result.Success)
	assert.True(t, strings.Contains(result.Message, "deleted 1"), result.Message)
	assert.False(t, f.blobs.Has("posts/u1/temp/orphan.png"))

	after := decode[task.Task](t, f.do(t, http.MethodGet, "/v1/tasks/"+cleanup.ID, nil))
	assert.Equal(t, task.StatusCompleted, after.Status)
	require.NotNil(t, after.LastResult)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/v1/tasks/task_missing/run", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/tasks/task_missing", nil).Code)
}

func TestTasks_UpdateRejectsBadConfig(t *testing.T) {
	f := newFixture(t)
	_, err := f.container.Bootstrapper.Bootstrap(context.Background())
	require.NoError(t, err)

	list := decode[struct {
		Data []task.Task `json:"data"`
	}](t, f.do(t, http.MethodGet, "/v1/tasks", nil))
	require.Len(t, list.Data, 2)

	bad := map[task.Type]map[string]any{
		task.TypeCleanupUnusedImages: {"min_age": "soon"},
		task.TypeUpdateInactiveUsers: {"inactive_days": -5},
	}
	for _, item := range list.Data {
		rec := f.do(t, http.MethodPatch, "/v1/tasks/"+item.ID, map[string]any{"config": bad[item.Type]})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s: %s", item.Type, rec.Body.String())

		stored := decode[task.Task](t, f.do(t, http.MethodGet, "/v1/tasks/"+item.ID, nil))
		assert.NotEqual(t, bad[item.Type], stored.Config)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/tasks/task_missing", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()

	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "req-123", decode[map[string]any](t, rec)["request_id"])
}
