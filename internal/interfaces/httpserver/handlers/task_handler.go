package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/media-janitor/internal/domain/task"
	"github.com/janhq/media-janitor/internal/interfaces/httpserver/responses"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// TaskHandler exposes scheduled task administration.
type TaskHandler struct {
	service *task.Service
	log     zerolog.Logger
}

func NewTaskHandler(service *task.Service, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		log:     log.With().Str("component", "task-handler").Logger(),
	}
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.service.List(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(tasks))
}

func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get task")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req task.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "task-update-body")
		return
	}
	t, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		responses.HandleError(c, err, "failed to update task")
		return
	}
	c.JSON(http.StatusOK, t)
}

// Run executes the task now and returns its result. A task that is already
// running answers 409 with the unsuccessful result.
func (h *TaskHandler) Run(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.service.Get(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "failed to get task")
		return
	}

	result := h.service.Run(c.Request.Context(), id)
	status := http.StatusOK
	if !result.Success && result.Message == task.ErrAlreadyRunning.Error() {
		status = http.StatusConflict
	}
	h.log.Info().Str("task_id", id).Bool("success", result.Success).Msg("manual task run finished")
	c.JSON(status, result)
}
