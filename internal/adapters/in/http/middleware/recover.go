package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// Recover turns a handler panic into a JSON 500 and logs the stack.
// CORS is applied outside this so the error response still carries its headers.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logx.Error().
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Msg("[recover] PANIC")

				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
