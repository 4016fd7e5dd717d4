package session

import (
	"context"
	"errors"
	"strings"

	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
)

// ErrNotApplicable is returned by an Authenticator that cannot judge the
// given credentials (e.g. a password checker handed only an ID token).
var ErrNotApplicable = errors.New("session_auth: credentials not applicable")

// Credentials submitted to the admin login.
type Credentials struct {
	Password string `json:"password"`
	IDToken  string `json:"idToken"`
}

func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Password) == "" && strings.TrimSpace(c.IDToken) == ""
}

// Authenticator gates Login. It returns nil on success, sessiondom.ErrDenied on
// bad credentials and ErrNotApplicable when it does not handle this kind.
type Authenticator interface {
	Authenticate(ctx context.Context, c Credentials) error
}

// Chain tries each authenticator in order. The first definite answer wins.
type Chain []Authenticator

func (ch Chain) Authenticate(ctx context.Context, c Credentials) error {
	if c.Empty() {
		return sessiondom.ErrDenied
	}
	for _, a := range ch {
		if a == nil {
			continue
		}
		err := a.Authenticate(ctx, c)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		return err
	}
	return sessiondom.ErrDenied
}
