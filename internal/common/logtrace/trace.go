package logtrace

import (
	"context"
)

type requestIdContextKey string

// RequestIdKey is the context key under which middleware stores the request id.
const RequestIdKey = requestIdContextKey("requestId")

func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(RequestIdKey).(string)
	if !ok {
		return ""
	}
	return r
}

func WithRequestId(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIdKey, requestID)
}

// IsTraceEnabled reports whether verbose route tracing was requested through
// CURATAI_TRACE_ROUTES.
func IsTraceEnabled() bool {
	return traceRoutes
}

var traceRoutes bool

func SetTraceEnabled(enabled bool) {
	traceRoutes = enabled
}
