package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details.
type ErrorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError maps platform errors onto HTTP statuses. Anything else is a 500.
func HandleError(c *gin.Context, err error, message string) {
	_ = c.Error(err)

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		errorMessage := platformErr.Message
		if errorMessage == "" {
			errorMessage = message
		}
		requestID := platformErr.RequestID
		if requestID == "" {
			requestID = c.GetString("request_id")
		}
		c.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), ErrorResponse{
			Code:      platformErr.Code,
			Error:     errorMessage,
			Message:   errorMessage,
			RequestID: requestID,
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Code:      "unclassified",
		Error:     message,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}

// HandleNewError creates a typed error at the handler layer and renders it.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string, code string) {
	HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, errorType, message, nil, code), message)
}

// ListResponse wraps collection payloads.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}
