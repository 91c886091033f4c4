package middlewares

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/media-janitor/internal/infrastructure/metrics"
	"github.com/janhq/media-janitor/internal/utils/platformerrors"
)

// Logging logs each request with its trace context and records request metrics.
func Logging(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, strconv.Itoa(status), latency.Seconds())

		for _, ginErr := range c.Errors {
			var platformErr *platformerrors.PlatformError
			if errors.As(ginErr.Err, &platformErr) {
				platformerrors.LogError(logger, platformErr)
			}
		}

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			event = event.Str("trace_id", span.SpanContext().TraceID().String())
		}
		event.
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Msg(c.Errors.ByType(gin.ErrorTypePrivate).String())
	}
}
