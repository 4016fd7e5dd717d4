// internal/domain/product/entity.go
package product

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ===============================
// Errors
// ===============================

var (
	ErrNotFound = errors.New("product: not found")
	ErrConflict = errors.New("product: conflict")
	ErrInvalid  = errors.New("product: invalid")
)

// ValidationError is raised at the form boundary (missing field, malformed number).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("product: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// MaxInlineImageBytes caps the decoded size of a data: URI image.
const MaxInlineImageBytes = 2 * 1024 * 1024

// PriceScale is the number of decimal places prices are stored and shown with.
const PriceScale = 2

// ===============================
// Entity
// ===============================

// Product is one sellable subscription.
// ID is assigned by the remote collection and never changes.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Image       *string         `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Channels    *int            `json:"channels"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
}

// DisplayPrice returns the price with exactly two decimals.
func (p Product) DisplayPrice() string {
	return p.Price.StringFixed(PriceScale)
}

// Matches reports whether term is a case-insensitive substring of name or description.
// term must already be lower-cased and trimmed.
func (p Product) Matches(term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), term)
}

// Apply overwrites the mutable fields with f. ID and CreatedAt are kept.
func (p *Product) Apply(f Fields, now time.Time) {
	p.Name = f.Name
	p.Description = f.Description
	p.Image = f.Image
	p.Price = f.Price
	p.Channels = f.Channels
	p.IsActive = f.IsActive
	p.UpdatedAt = now
}

// ===============================
// Fields (admin form)
// ===============================

// RawFields is the admin form exactly as submitted.
type RawFields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Price       string `json:"price"`
	Channels    string `json:"channels"`
	IsActive    *bool  `json:"is_active"`
}

// Fields is a validated, normalized form.
type Fields struct {
	Name        string
	Description *string
	Image       *string
	Price       decimal.Decimal
	Channels    *int
	IsActive    bool
}

// ParseFields validates a submitted form.
// - name is required
// - price must parse to a non-negative number; it is rounded to two places
// - channels is optional but must be a non-negative integer when present
// - blank description/image become nil; is_active defaults to true
func ParseFields(raw RawFields) (Fields, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Fields{}, &ValidationError{Field: "name", Reason: "required"}
	}

	priceStr := strings.TrimSpace(raw.Price)
	if priceStr == "" {
		return Fields{}, &ValidationError{Field: "price", Reason: "required"}
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Fields{}, &ValidationError{Field: "price", Reason: "not a number"}
	}
	if price.IsNegative() {
		return Fields{}, &ValidationError{Field: "price", Reason: "must be non-negative"}
	}

	var channels *int
	if cs := strings.TrimSpace(raw.Channels); cs != "" {
		n, err := strconv.Atoi(cs)
		if err != nil {
			return Fields{}, &ValidationError{Field: "channels", Reason: "not an integer"}
		}
		if n < 0 {
			return Fields{}, &ValidationError{Field: "channels", Reason: "must be non-negative"}
		}
		channels = &n
	}

	image := trimToPtr(raw.Image)
	if image != nil {
		if err := ValidateImage(*image); err != nil {
			return Fields{}, err
		}
	}

	active := true
	if raw.IsActive != nil {
		active = *raw.IsActive
	}

	return Fields{
		Name:        name,
		Description: trimToPtr(raw.Description),
		Image:       image,
		Price:       price.Round(PriceScale),
		Channels:    channels,
		IsActive:    active,
	}, nil
}

// ValidateImage accepts http(s) URLs and base64 data: URIs of an image/* type up to 2 MiB.
func ValidateImage(ref string) error {
	if IsInlineImage(ref) {
		_, _, err := DecodeInlineImage(ref)
		return err
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "image", Reason: "must be an http(s) URL or data URI"}
	}
	return nil
}

// IsInlineImage reports whether ref is a data: URI.
func IsInlineImage(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeInlineImage splits a "data:image/png;base64,...." URI into media type and bytes.
func DecodeInlineImage(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, &ValidationError{Field: "image", Reason: "not a data URI"}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, &ValidationError{Field: "image", Reason: "malformed data URI"}
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, &ValidationError{Field: "image", Reason: "data URI must be base64"}
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", nil, &ValidationError{Field: "image", Reason: "must be an image"}
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxInlineImageBytes+3 {
		return "", nil, &ValidationError{Field: "image", Reason: "larger than 2MB"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, &ValidationError{Field: "image", Reason: "invalid base64"}
	}
	if len(data) > MaxInlineImageBytes {
		return "", nil, &ValidationError{Field: "image", Reason: "larger than 2MB"}
	}
	return mediaType, data, nil
}

// New builds a product from validated fields.
func New(id string, f Fields, now time.Time) Product {
	p := Product{ID: strings.TrimSpace(id), CreatedAt: now}
	p.Apply(f, now)
	return p
}

func trimToPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
