package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	loggerCtxKey    struct{}
	requestIDCtxKey struct{}
)

// WithContext attaches l to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// FromContext returns the attached logger, or a no-op logger when there is none.
// Services called outside a request (seeding, scheduled jobs) get the no-op.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID records requestID on ctx and attaches a child of l tagged with it
func WithRequestID(ctx context.Context, l *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	tagged := l.With(zap.String("request_id", requestID))
	ctx = context.WithValue(ctx, requestIDCtxKey{}, requestID)
	return WithContext(ctx, tagged), tagged
}

// GetRequestID returns the request id recorded by WithRequestID, or ""
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

// L is the logger services should use: the request logger plus trace_id and
// span_id when ctx carries a sampled span.
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
