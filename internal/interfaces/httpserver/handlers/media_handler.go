package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/domain/media"
	"github.com/janhq/media-janitor/internal/infrastructure/storage"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver/responses"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

type uploadResponse struct {
	*media.MediaObject
	Reference string `json:"reference"`
}

type markUsedRequest struct {
	Key  string `json:"key" binding:"required"`
	Used *bool  `json:"used" binding:"required"`
}

type associateRequest struct {
	Key      string `json:"key" binding:"required"`
	EntityID string `json:"entity_id" binding:"required"`
}

// MediaHandler exposes uploads, blob reads and protection flags.
type MediaHandler struct {
	service  *media.Service
	maxBytes int64
	log      zerolog.Logger
}

func NewMediaHandler(service *media.Service, maxBytes int64, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		service:  service,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "media-handler").Logger(),
	}
}

// Upload accepts a multipart "file" with domain, owner_id and optional scope_id fields.
func (h *MediaHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "file is required", "media-upload-file")
		return
	}
	file, err := header.Open()
	if err != nil {
		responses.HandleError(c, err, "failed to read upload")
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		responses.HandleError(c, err, "failed to read upload")
		return
	}

	obj, err := h.service.Upload(c.Request.Context(), media.UploadRequest{
		Domain:   c.PostForm("domain"),
		OwnerID:  c.PostForm("owner_id"),
		ScopeID:  c.PostForm("scope_id"),
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		responses.HandleError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusCreated, uploadResponse{
		MediaObject: obj,
		Reference:   h.service.Convention().ReferenceURL(obj.ObjectKey),
	})
}

// Serve streams the blob behind an owned reference.
func (h *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "object not found", "media-serve-empty")
		return
	}
	body, contentType, err := h.service.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, fmt.Sprintf("object %s not found", key), "media-serve-missing")
			return
		}
		responses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler,
			platformerrors.ErrorTypeStorageError, "failed to read object", err, "media-serve"), "failed to read object")
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

func (h *MediaHandler) MarkUsed(c *gin.Context) {
	var req markUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "media-mark-used-body")
		return
	}
	if err := h.service.MarkUsed(c.Request.Context(), req.Key, *req.Used); err != nil {
		responses.HandleError(c, err, "failed to update media")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MediaHandler) Associate(c *gin.Context) {
	var req associateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "media-associate-body")
		return
	}
	if err := h.service.Associate(c.Request.Context(), req.Key, req.EntityID); err != nil {
		responses.HandleError(c, err, "failed to update media")
		return
	}
	c.Status(http.StatusNoContent)
}
