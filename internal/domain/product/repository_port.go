// internal/domain/product/repository_port.go
package product

import "context"

// Repository is the remote product collection.
//
// Get/Update/Delete return ErrNotFound when the document does not exist.
// Create assigns the ID when p.ID is empty.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
}

// Seeder upserts items by ID. Existing documents with other IDs are left alone.
type Seeder interface {
	Seed(ctx context.Context, items []Product) (int, error)
}
