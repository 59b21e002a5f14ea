package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/common/httpx"
	"github.com/curatai/curatai/internal/common/logtrace"
)

// RequestIDHeader carries the per-request id back to the caller.
const RequestIDHeader = "X-Curatai-Request-ID"

// RequestLogger is a middleware that logs the request details and adds a unique request ID to the context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := newRequestId()
		ctx = logtrace.WithRequestId(ctx, requestID)
		// Add a sub-logger with requestId to context
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		requestURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.RequestURI)
		requestFields := map[string]interface{}{
			"requestURL":    requestURL,
			"requestMethod": r.Method,
			"requestPath":   r.URL.Path,
			"remoteIP":      r.RemoteAddr,
			"proto":         r.Proto,
		}
		log.Ctx(ctx).Info().Fields(requestFields).Msg("")

		rw := httpx.NewResponseWriter(w)
		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))
		log.Ctx(ctx).Debug().
			Int("status", rw.Status()).
			Int("bytes", rw.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

func newRequestId() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return u.String()
	} else {
		return ""
	}
}
