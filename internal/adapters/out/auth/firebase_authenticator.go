package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// AdminClaim is the custom claim an ID token must carry (set to true).
const AdminClaim = "admin"

// TokenVerifier is the part of *firebaseauth.Client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseAuthenticator accepts Firebase ID tokens of users with the admin claim.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
}

func NewFirebaseAuthenticator(v TokenVerifier) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{verifier: v}
}

func (a *FirebaseAuthenticator) Authenticate(ctx context.Context, c sessionapp.Credentials) error {
	idToken := strings.TrimSpace(strings.TrimPrefix(c.IDToken, "Bearer "))
	if idToken == "" {
		return sessionapp.ErrNotApplicable
	}

	token, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		logx.Warn().Err(err).Msg("[firebase_auth] invalid id token")
		return sessiondom.ErrDenied
	}
	if admin, _ := token.Claims[AdminClaim].(bool); !admin {
		logx.Warn().Str("uid", token.UID).Msg("[firebase_auth] token without admin claim")
		return sessiondom.ErrDenied
	}
	return nil
}
