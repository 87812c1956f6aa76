package log

import (
	"context"
	"go.uber.org/zap"
)

type ctxKey struct{}

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestId)
}

func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext returns the global logger, tagged with the request id when the
// context carries one.
func FromContext(ctx context.Context) *zap.Logger {
	if id := RequestId(ctx); id != "" {
		return zap.L().With(zap.String("requestId", id))
	}

	return zap.L()
}
