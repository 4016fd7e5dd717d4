// internal/adapters/out/auth/password_authenticator.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
)

// MinPasswordLength is enforced when hashing a new admin password.
const MinPasswordLength = 8

// HashProvider returns the stored bcrypt hash of the admin password.
type HashProvider interface {
	PasswordHash(ctx context.Context) (string, error)
}

// PasswordAuthenticator checks the admin password against a bcrypt hash.
type PasswordAuthenticator struct {
	hashes HashProvider
}

func NewPasswordAuthenticator(hashes HashProvider) *PasswordAuthenticator {
	return &PasswordAuthenticator{hashes: hashes}
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, c sessionapp.Credentials) error {
	if c.Password == "" {
		return sessionapp.ErrNotApplicable
	}
	hash, err := a.hashes.PasswordHash(ctx)
	if err != nil {
		return fmt.Errorf("auth: load password hash: %w", err)
	}
	if err := VerifyPassword(hash, c.Password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return sessiondom.ErrDenied
		}
		return fmt.Errorf("auth: verify password: %w", err)
	}
	return nil
}

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return "", errors.New("password too short")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares plaintext password with stored hash.
func VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
