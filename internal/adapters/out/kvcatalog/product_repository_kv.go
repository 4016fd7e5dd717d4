// internal/adapters/out/kvcatalog/product_repository_kv.go
package kvcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

const (
	// Scope is the shared KV scope holding the legacy catalog.
	Scope = "catalog"
	// Key is the legacy storage key of the product array.
	Key = "products"
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ProductRepositoryKV keeps the whole catalog as one JSON array under the
// "products" key, the way the pre-remote storefront did. An absent key is
// seeded with the default subscriptions on first read.
type ProductRepositoryKV struct {
	store *kv.Scoped
	clock Clock

	mu sync.Mutex
}

func NewProductRepositoryKV(store kv.Store) *ProductRepositoryKV {
	return NewProductRepositoryKVWithClock(store, systemClock{})
}

func NewProductRepositoryKVWithClock(store kv.Store, clock Clock) *ProductRepositoryKV {
	if clock == nil {
		clock = systemClock{}
	}
	return &ProductRepositoryKV{store: kv.Scope(store, Scope), clock: clock}
}

func (r *ProductRepositoryKV) List(ctx context.Context) ([]productdom.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *ProductRepositoryKV) Get(ctx context.Context, id string) (productdom.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return productdom.Product{}, err
	}
	if i := indexOf(items, id); i >= 0 {
		return items[i], nil
	}
	return productdom.Product{}, productdom.ErrNotFound
}

// Create assigns an epoch-millis ID when p.ID is empty (uuid if that collides).
func (r *ProductRepositoryKV) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return productdom.Product{}, err
	}

	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = strconv.FormatInt(r.clock.Now().UnixMilli(), 10)
		if indexOf(items, p.ID) >= 0 {
			p.ID = uuid.NewString()
		}
	} else if indexOf(items, p.ID) >= 0 {
		return productdom.Product{}, productdom.ErrConflict
	}

	items = append(items, p)
	if err := r.save(ctx, items); err != nil {
		return productdom.Product{}, err
	}
	return p, nil
}

func (r *ProductRepositoryKV) Update(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return productdom.Product{}, err
	}
	i := indexOf(items, p.ID)
	if i < 0 {
		return productdom.Product{}, productdom.ErrNotFound
	}
	p.ID = items[i].ID
	p.CreatedAt = items[i].CreatedAt
	items[i] = p

	if err := r.save(ctx, items); err != nil {
		return productdom.Product{}, err
	}
	return p, nil
}

func (r *ProductRepositoryKV) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, id)
	if i < 0 {
		return productdom.ErrNotFound
	}
	return r.save(ctx, slices.Delete(items, i, i+1))
}

// DeleteAll stores an empty array, so defaults are not re-seeded afterwards.
func (r *ProductRepositoryKV) DeleteAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.save(ctx, []productdom.Product{}); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Seed upserts items by ID, keeping the position of products already stored.
func (r *ProductRepositoryKV) Seed(ctx context.Context, items []productdom.Product) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range items {
		if i := indexOf(current, p.ID); i >= 0 {
			current[i] = p
			continue
		}
		current = append(current, p)
	}
	if err := r.save(ctx, current); err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *ProductRepositoryKV) load(ctx context.Context) ([]productdom.Product, error) {
	raw, ok, err := r.store.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		items := productdom.Defaults(r.clock.Now().UTC())
		if err := r.save(ctx, items); err != nil {
			return nil, err
		}
		logx.Info().Int("count", len(items)).Msg("[kvcatalog] seeded default products")
		return items, nil
	}

	var items []productdom.Product
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Join(errors.New("kvcatalog: corrupt products value"), err)
	}
	if items == nil {
		items = []productdom.Product{}
	}
	return items, nil
}

func (r *ProductRepositoryKV) save(ctx context.Context, items []productdom.Product) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, Key, string(b))
}

func indexOf(items []productdom.Product, id string) int {
	id = strings.TrimSpace(id)
	return slices.IndexFunc(items, func(p productdom.Product) bool { return p.ID == id })
}
