package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/authgate-dev/authgate/internal/logger"
	"github.com/authgate-dev/authgate/internal/response"
)

// Recover turns handler panics into the generic server error instead of
// killing the connection.
func Recover(writer *response.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Log.Error("panic serving request",
						"panic", fmt.Sprint(rec),
						"method", r.Method,
						"uri", r.RequestURI,
						"stack", string(debug.Stack()),
					)
					writer.Error(w, r, fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
