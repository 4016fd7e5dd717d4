package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClientCookie identifies a browser. Its value is the client's KV scope.
const ClientCookie = "sf_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

type ctxKey int

const scopeKey ctxKey = iota

// ClientScope issues the client cookie on first contact and puts the scope in
// the request context. Malformed cookie values are replaced.
func ClientScope(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := ""
			if c, err := r.Cookie(ClientCookie); err == nil {
				if id, err := uuid.Parse(strings.TrimSpace(c.Value)); err == nil {
					scope = id.String()
				}
			}
			if scope == "" {
				scope = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookie,
					Value:    scope,
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// Scope returns the client scope placed by ClientScope ("" when absent).
func Scope(ctx context.Context) string {
	s, _ := ctx.Value(scopeKey).(string)
	return s
}
