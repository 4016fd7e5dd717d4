package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

// productView is the public shape of a product. Prices are always two decimals.
type productView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Price       string  `json:"price"`
	Channels    *int    `json:"channels"`
}

func toProductView(p productdom.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Price:       p.DisplayPrice(),
		Channels:    p.Channels,
	}
}

type adminProductView struct {
	productView
	IsActive  bool      `json:"is_active"`
	InFlight  bool      `json:"inFlight"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toAdminProductView(p productdom.Product, inFlight bool) adminProductView {
	return adminProductView{
		productView: toProductView(p),
		IsActive:    p.IsActive,
		InFlight:    inFlight,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// flexString accepts a JSON string, number or null. Form fields like price
// arrive either way depending on the client.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("expected string or number")
	}
	*f = flexString(n.String())
	return nil
}

// productForm is the admin create/update body.
type productForm struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Price       flexString `json:"price"`
	Channels    flexString `json:"channels"`
	IsActive    *bool      `json:"is_active"`
}

func (f productForm) raw() productdom.RawFields {
	return productdom.RawFields{
		Name:        f.Name,
		Description: f.Description,
		Image:       f.Image,
		Price:       string(f.Price),
		Channels:    string(f.Channels),
		IsActive:    f.IsActive,
	}
}
