package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"kae-hq/kae/pkg/telemetry/logging"
)

// Recovery turns a handler panic into a 500 JSON response and logs the
// stack. Panic details are never sent to the client.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
