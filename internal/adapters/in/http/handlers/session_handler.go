// internal/adapters/in/http/handlers/session_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http/middleware"
	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// SessionManager tracks admin sessions per client scope.
type SessionManager interface {
	Login(ctx context.Context, scope string) (*sessionapp.Guard, error)
	Logout(ctx context.Context, scope string) error
	IsValid(ctx context.Context, scope string) (bool, *sessionapp.Guard, error)
}

// SessionHandler handles admin login state.
//
//	POST /api/admin/login    {"password": "..."} or {"idToken": "..."}
//	POST /api/admin/logout
//	GET  /api/admin/session
type SessionHandler struct {
	sessions SessionManager
	auth     sessionapp.Authenticator
}

func NewSessionHandler(sessions SessionManager, auth sessionapp.Authenticator) http.Handler {
	return &SessionHandler{sessions: sessions, auth: auth}
}

type sessionView struct {
	State     string     `json:"state"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func viewOf(g *sessionapp.Guard) sessionView {
	if g == nil {
		return sessionView{State: "logged_out"}
	}
	v := sessionView{State: g.State().String()}
	if exp := g.ExpiresAt(); !exp.IsZero() {
		v.ExpiresAt = &exp
	}
	return v
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scope := middleware.Scope(r.Context())

	switch r.URL.Path {
	case "/api/admin/login":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.login(w, r, scope)
	case "/api/admin/logout":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := h.sessions.Logout(r.Context(), scope); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionView{State: "logged_out"})
	case "/api/admin/session":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		ok, g, err := h.sessions.IsValid(r.Context(), scope)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			g = nil
		}
		writeJSON(w, http.StatusOK, viewOf(g))
	default:
		notFound(w)
	}
}

func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request, scope string) {
	var creds sessionapp.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	if err := h.auth.Authenticate(r.Context(), creds); err != nil {
		logx.Warn().Err(err).Str("scope", scope).Msg("[SessionHandler] login rejected")
		writeError(w, err)
		return
	}

	g, err := h.sessions.Login(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	logx.Info().Str("scope", scope).Msg("[SessionHandler] admin logged in")
	writeJSON(w, http.StatusOK, viewOf(g))
}
