package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/domain/gc"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver/responses"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

type previewRequest struct {
	MinAge string `json:"min_age"`
}

// GCHandler exposes a dry-run of the orphan collector.
type GCHandler struct {
	collector *gc.Collector
	log       zerolog.Logger
}

func NewGCHandler(collector *gc.Collector, log zerolog.Logger) *GCHandler {
	return &GCHandler{
		collector: collector,
		log:       log.With().Str("component", "gc-handler").Logger(),
	}
}

// Preview reports what a collection would delete without deleting anything.
func (h *GCHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "gc-preview-body")
		return
	}
	opts, err := gc.TaskConfig{DryRun: true, MinAge: req.MinAge}.Options()
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "gc-preview-min-age")
		return
	}

	ctx := c.Request.Context()
	report, err := h.collector.Run(ctx, opts)
	if err != nil {
		responses.HandleError(c, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeExternal,
			"reference scan failed", err, "gc-preview-scan"), "reference scan failed")
		return
	}
	c.JSON(http.StatusOK, report)
}
