package trace

import (
	"net/http"
	"runtime/debug"

	"fintrack/internal/log"
)

// Recover turns a panicking handler into a JSON 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Panic recovered",
					"panic", rec,
					log.FieldPath, r.URL.Path,
					"stack", string(debug.Stack()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
