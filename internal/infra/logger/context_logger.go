package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

// Context keys follow the OTel attribute naming used across the service.
const (
	RequestIDKey       ContextKey = "mrc.request.id"
	ProcessingStageKey ContextKey = "mrc.processing.stage"
)

// ContextLogger decorates a base logger with the request id and processing
// stage carried in a context.
type ContextLogger struct {
	logger *slog.Logger
}

func NewContextLogger(base *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: base.With("service", serviceName)}
}

// WithContext returns the base logger with context values added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	var fields []any
	if id := ctx.Value(RequestIDKey); id != nil {
		fields = append(fields, string(RequestIDKey), id)
	}
	if stage := ctx.Value(ProcessingStageKey); stage != nil {
		fields = append(fields, string(ProcessingStageKey), stage)
	}
	if len(fields) == 0 {
		return cl.logger
	}
	return cl.logger.With(fields...)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithProcessingStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ProcessingStageKey, stage)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
