package supabase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

func TestRowDecodesPostgrestPayload(t *testing.T) {
	payload := `[{"id":"7b1c","name":" 1 Month ","description":null,"image":"https://x/y.png","price":49.999,"channels":45000,"is_active":true,"created_at":"2024-01-02T03:04:05+00:00"}]`

	var rows []productRow
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		t.Fatal(err)
	}
	p := rows[0].toDomain()
	if p.ID != "7b1c" || p.Name != "1 Month" || p.DisplayPrice() != "50.00" || !p.IsActive {
		t.Fatalf("product = %+v", p)
	}
	if p.Description != nil || p.Image == nil || p.Channels == nil || *p.Channels != 45000 {
		t.Fatalf("optional fields = %+v", p)
	}
	if !p.CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) || !p.UpdatedAt.IsZero() {
		t.Fatalf("timestamps = %v %v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestFromDomainOmitsServerFields(t *testing.T) {
	row := fromDomain(productdom.Product{Name: "A", Price: decimal.NewFromInt(5)})
	b, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	for _, k := range []string{"id", "created_at", "updated_at"} {
		if _, ok := m[k]; ok {
			t.Fatalf("%s must be omitted when unset: %s", k, b)
		}
	}
	if _, ok := m["description"]; !ok {
		t.Fatalf("nullable columns are sent explicitly: %s", b)
	}
}
