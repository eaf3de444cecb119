package logger

import (
	"context"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// ContextWithRequestID records the HTTP request id so use cases can correlate their logs.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// FromContext returns base annotated with the request id carried by ctx.
// Outside a request (startup, relay) base is returned unchanged.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		return base.With(zap.String("request_id", id))
	}
	return base
}
