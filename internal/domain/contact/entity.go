// internal/domain/contact/entity.go
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalid = errors.New("contact: invalid")

// FieldError names the first offending field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string { return fmt.Sprintf("contact: invalid %s", e.Field) }

func (e *FieldError) Unwrap() error { return ErrInvalid }

// Message is one contact-form submission.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Normalize trims every field and validates the required ones.
func (m *Message) Normalize() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Body = strings.TrimSpace(m.Body)

	switch {
	case m.Name == "":
		return &FieldError{Field: "name"}
	case !validEmail(m.Email):
		return &FieldError{Field: "email"}
	case m.Subject == "":
		return &FieldError{Field: "subject"}
	case m.Body == "":
		return &FieldError{Field: "message"}
	}
	return nil
}

func validEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}

// Repository stores submissions.
type Repository interface {
	Save(ctx context.Context, m Message) (Message, error)
}
