package auth

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"golang.org/x/crypto/bcrypt"

	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
)

type staticHash string

func (s staticHash) PasswordHash(context.Context) (string, error) { return string(s), nil }

func TestPasswordAuthenticator(t *testing.T) {
	// MinCost keeps the test fast
	b, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewPasswordAuthenticator(staticHash(b))
	ctx := context.Background()

	if err := a.Authenticate(ctx, sessionapp.Credentials{Password: "correct horse"}); err != nil {
		t.Fatalf("correct password = %v", err)
	}
	if err := a.Authenticate(ctx, sessionapp.Credentials{Password: "wrong"}); !errors.Is(err, sessiondom.ErrDenied) {
		t.Fatalf("wrong password = %v", err)
	}
	if err := a.Authenticate(ctx, sessionapp.Credentials{IDToken: "tok"}); !errors.Is(err, sessionapp.ErrNotApplicable) {
		t.Fatalf("token only = %v", err)
	}

	broken := NewPasswordAuthenticator(staticHash("not-a-hash"))
	if err := broken.Authenticate(ctx, sessionapp.Credentials{Password: "x"}); err == nil || errors.Is(err, sessiondom.ErrDenied) {
		t.Fatalf("malformed hash should be an internal error, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatalf("short password accepted")
	}
	h, err := HashPassword("long enough")
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyPassword(h, "long enough"); err != nil {
		t.Fatalf("verify = %v", err)
	}
}

type fakeVerifier struct {
	token *firebaseauth.Token
	err   error
	got   string
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	f.got = idToken
	return f.token, f.err
}

func TestFirebaseAuthenticator(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		v     *fakeVerifier
		creds sessionapp.Credentials
		want  error
	}{
		{"admin claim", &fakeVerifier{token: &firebaseauth.Token{UID: "u", Claims: map[string]any{"admin": true}}}, sessionapp.Credentials{IDToken: "Bearer abc"}, nil},
		{"no claim", &fakeVerifier{token: &firebaseauth.Token{UID: "u", Claims: map[string]any{}}}, sessionapp.Credentials{IDToken: "abc"}, sessiondom.ErrDenied},
		{"claim not bool", &fakeVerifier{token: &firebaseauth.Token{UID: "u", Claims: map[string]any{"admin": "yes"}}}, sessionapp.Credentials{IDToken: "abc"}, sessiondom.ErrDenied},
		{"bad token", &fakeVerifier{err: errors.New("expired")}, sessionapp.Credentials{IDToken: "abc"}, sessiondom.ErrDenied},
		{"password only", &fakeVerifier{}, sessionapp.Credentials{Password: "p"}, sessionapp.ErrNotApplicable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewFirebaseAuthenticator(tc.v).Authenticate(ctx, tc.creds)
			if tc.want == nil && err != nil || tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	v := &fakeVerifier{token: &firebaseauth.Token{Claims: map[string]any{"admin": true}}}
	_ = NewFirebaseAuthenticator(v).Authenticate(ctx, sessionapp.Credentials{IDToken: "Bearer abc"})
	if v.got != "abc" {
		t.Fatalf("bearer prefix not stripped: %q", v.got)
	}
}
