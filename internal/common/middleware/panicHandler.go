package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/common/httpx"
)

// PanicHandler turns a panic in a chat or tool handler into a 500 so one bad
// turn does not take the server down.
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Ctx(r.Context()).Error().
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msgf("panic occurred: %v", err)
				httpx.ErrApplicationError("Unable to process request. Please try again later.").Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
