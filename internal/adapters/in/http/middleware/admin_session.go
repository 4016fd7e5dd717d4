package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// SessionCheck reports whether the client scope holds a valid admin session.
type SessionCheck func(ctx context.Context, scope string) (bool, error)

// RequireAdmin answers 401 {"error":"session_expired"} unless the client scope
// has a valid admin session. The client is expected to show the login view.
func RequireAdmin(check SessionCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := check(r.Context(), Scope(r.Context()))
			if err != nil {
				logx.Warn().Err(err).Msg("[admin_session] check failed")
			}
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "session_expired"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
