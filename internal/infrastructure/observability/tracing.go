package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "media-janitor"

// GetTracer returns the tracer for the janitor service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTaskSpan starts a span covering one scheduled task run.
func StartTaskSpan(ctx context.Context, taskID, taskType, trigger string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "task.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("task.type", taskType),
			attribute.String("task.trigger", trigger),
		),
	)
}

// StartSpan starts an internal span with the given name.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddStatusTransition adds a status transition event to a span.
func AddStatusTransition(span trace.Span, fromStatus, toStatus string) {
	span.AddEvent("status.transition",
		trace.WithAttributes(
			attribute.String("status.from", fromStatus),
			attribute.String("status.to", toStatus),
		),
	)
}
