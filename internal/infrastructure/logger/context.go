package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RefKey is the context key for the operator event reference
	RefKey contextKey = "ref"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context; a no-op logger is
// returned when none is attached
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRef attaches the operator event reference to the context and
// returns a logger enriched with it
func WithRef(ctx context.Context, logger *zap.Logger, ref string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RefKey, ref)
	enriched := logger.With(zap.String("ref", ref))
	return WithContext(ctx, enriched), enriched
}

// GetRef retrieves the operator event reference from context
func GetRef(ctx context.Context) string {
	if ref, ok := ctx.Value(RefKey).(string); ok {
		return ref
	}
	return ""
}

// WithTraceContext enriches the logger with trace_id and span_id from
// the active span, if any
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return logger
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
