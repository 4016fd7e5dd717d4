// internal/adapters/out/supabase/product_repository.go
package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supabase-community/supabase-go"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

const DefaultProductTable = "product"

// Config holds Supabase connection configuration.
type Config struct {
	URL    string
	APIKey string
	Table  string
}

// productRow is the table shape; id defaults to gen_random_uuid() server side.
type productRow struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Image       *string         `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Channels    *int            `json:"channels"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// ProductRepository keeps the catalog in a Supabase (PostgREST) table.
type ProductRepository struct {
	client *supabase.Client
	table  string
}

func NewProductRepository(cfg Config) (*ProductRepository, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = DefaultProductTable
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &ProductRepository{client: client, table: table}, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]productdom.Product, error) {
	var rows []productRow
	_, err := r.client.From(r.table).
		Select("*", "", false).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	out := make([]productdom.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	var rows []productRow
	_, err := r.client.From(r.table).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return productdom.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	if len(rows) == 0 {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *ProductRepository) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	var rows []productRow
	_, err := r.client.From(r.table).
		Insert(fromDomain(p), false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return productdom.Product{}, productdom.ErrConflict
		}
		return productdom.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	if len(rows) == 0 {
		return productdom.Product{}, fmt.Errorf("failed to insert product: empty response")
	}
	return rows[0].toDomain(), nil
}

// Update patches an existing row; zero matched rows is ErrNotFound.
func (r *ProductRepository) Update(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	row := fromDomain(p)
	row.ID = ""
	row.CreatedAt = nil

	var rows []productRow
	_, err := r.client.From(r.table).
		Update(row, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return productdom.Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	if len(rows) == 0 {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrNotFound
	}

	var rows []productRow
	_, err := r.client.From(r.table).
		Delete("representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if len(rows) == 0 {
		return productdom.ErrNotFound
	}
	return nil
}

// DeleteAll needs an explicit filter: Supabase rejects unfiltered deletes.
func (r *ProductRepository) DeleteAll(ctx context.Context) (int, error) {
	var rows []productRow
	_, err := r.client.From(r.table).
		Delete("representation", "").
		Not("id", "is", "null").
		ExecuteTo(&rows)
	if err != nil {
		return 0, fmt.Errorf("failed to clear products: %w", err)
	}
	return len(rows), nil
}

func (row productRow) toDomain() productdom.Product {
	p := productdom.Product{
		ID:          row.ID,
		Name:        strings.TrimSpace(row.Name),
		Description: row.Description,
		Image:       row.Image,
		Price:       row.Price.Round(productdom.PriceScale),
		Channels:    row.Channels,
		IsActive:    row.IsActive,
	}
	if row.CreatedAt != nil {
		p.CreatedAt = row.CreatedAt.UTC()
	}
	if row.UpdatedAt != nil {
		p.UpdatedAt = row.UpdatedAt.UTC()
	}
	return p
}

func fromDomain(p productdom.Product) productRow {
	row := productRow{
		ID:          strings.TrimSpace(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Price:       p.Price.Round(productdom.PriceScale),
		Channels:    p.Channels,
		IsActive:    p.IsActive,
	}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt.UTC()
		row.CreatedAt = &t
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt.UTC()
		row.UpdatedAt = &t
	}
	return row
}

// Seed upserts items on the id column.
func (r *ProductRepository) Seed(ctx context.Context, items []productdom.Product) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([]productRow, 0, len(items))
	for _, p := range items {
		rows = append(rows, fromDomain(p))
	}
	_, _, err := r.client.From(r.table).
		Insert(rows, true, "id", "minimal", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to seed products: %w", err)
	}
	return len(items), nil
}
