// internal/application/cart/store.go
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	cartdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/cart"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/errx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

var ErrInvalidArgument = errors.New("cart_store: invalid argument")

// CatalogReader resolves live products. Prices are never copied into the cart.
// Ready is false until the catalog has loaded at least once.
type CatalogReader interface {
	Get(id string) (productdom.Product, bool)
	Ready() bool
}

// Totals is the derived view of a cart against the current catalog.
// Lines whose product is gone or inactive add nothing to Amount and are listed
// in Unavailable.
type Totals struct {
	Amount      decimal.Decimal `json:"amount"`
	ItemCount   int             `json:"itemCount"`
	Unavailable []string        `json:"unavailable"`
}

// Store is one client's cart.
//
// The ledger lives in the client's KV scope and is re-read at the start of every
// operation, so writes from other instances on the same scope are picked up.
// Concurrent writers on the same scope are last-writer-wins.
type Store struct {
	scope   *kv.Scoped
	catalog CatalogReader
	log     zerolog.Logger

	mu   sync.Mutex
	open bool
}

func NewStore(scope *kv.Scoped, catalog CatalogReader, log zerolog.Logger) *Store {
	return &Store{scope: scope, catalog: catalog, log: log}
}

// AddToCart increments the line for p by one, creating it if absent.
func (s *Store) AddToCart(ctx context.Context, p productdom.Product) ([]cartdom.Line, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrInvalidArgument
	}
	return s.mutate(ctx, func(c *cartdom.Cart) error { return c.Add(p.ID) })
}

// RemoveFromCart deletes the line. Absent lines are a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) ([]cartdom.Line, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, ErrInvalidArgument
	}
	return s.mutate(ctx, func(c *cartdom.Cart) error { return c.Remove(productID) })
}

// SetQuantity sets the line quantity; n <= 0 removes the line.
// A new line is only created for an available product; otherwise ErrNotFound.
func (s *Store) SetQuantity(ctx context.Context, productID string, n int) ([]cartdom.Line, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrInvalidArgument
	}
	return s.mutate(ctx, func(c *cartdom.Cart) error {
		if n > 0 && c.Quantity(productID) == 0 {
			if _, ok := s.available(productID); !ok {
				return productdom.ErrNotFound
			}
		}
		return c.SetQty(productID, n)
	})
}

// ClearCart empties the ledger and persists the empty state.
func (s *Store) ClearCart(ctx context.Context) error {
	_, err := s.mutate(ctx, func(c *cartdom.Cart) error {
		c.Clear()
		return nil
	})
	return err
}

// Lines returns the persisted ledger.
func (s *Store) Lines(ctx context.Context) ([]cartdom.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

// ItemCount is the sum of quantities (the badge number).
func (s *Store) ItemCount(ctx context.Context) (int, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return 0, err
	}
	return cartdom.New(lines).ItemCount(), nil
}

// Total prices every line at the catalog's current price.
func (s *Store) Total(ctx context.Context) (Totals, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return Totals{}, err
	}
	return s.price(lines), nil
}

// PruneUnavailable drops lines whose product is missing or inactive and returns
// the removed product IDs. Nothing is pruned before the catalog has loaded.
func (s *Store) PruneUnavailable(ctx context.Context) ([]string, error) {
	if !s.catalog.Ready() {
		s.log.Debug().Str("scope", s.scope.Name()).Msg("[cart_store] catalog not loaded; prune skipped")
		return nil, nil
	}
	var removed []string
	_, err := s.mutate(ctx, func(c *cartdom.Cart) error {
		for _, l := range c.Snapshot() {
			if _, ok := s.available(l.ProductID); ok {
				continue
			}
			if err := c.Remove(l.ProductID); err != nil {
				return err
			}
			removed = append(removed, l.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.log.Info().Str("scope", s.scope.Name()).Strs("products", removed).Msg("[cart_store] pruned unavailable lines")
	}
	return removed, nil
}

// ToggleCart flips the transient open flag and returns the new value.
func (s *Store) ToggleCart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	return s.open
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// ----------------------------
// internals
// ----------------------------

func (s *Store) price(lines []cartdom.Line) Totals {
	t := Totals{Amount: decimal.Zero, Unavailable: []string{}}
	for _, l := range lines {
		t.ItemCount += l.Quantity
		p, ok := s.available(l.ProductID)
		if !ok {
			t.Unavailable = append(t.Unavailable, l.ProductID)
			continue
		}
		t.Amount = t.Amount.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	t.Amount = t.Amount.Round(productdom.PriceScale)
	return t
}

func (s *Store) available(id string) (productdom.Product, bool) {
	p, ok := s.catalog.Get(id)
	if !ok || !p.IsActive {
		return productdom.Product{}, false
	}
	return p, true
}

// mutate runs load -> fn -> save under the instance lock. Nothing is written
// when fn fails, and a failed save leaves the previously persisted ledger as is.
func (s *Store) mutate(ctx context.Context, fn func(*cartdom.Cart) error) ([]cartdom.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}

	raw, err := c.Marshal()
	if err != nil {
		return nil, err
	}
	if err := s.scope.Set(ctx, cartdom.StorageKey, raw); err != nil {
		return nil, errx.Transport("cart_store.persist", err)
	}
	return c.Snapshot(), nil
}

// load reads the persisted ledger. A corrupt value is treated as an empty cart.
func (s *Store) load(ctx context.Context) (*cartdom.Cart, error) {
	raw, ok, err := s.scope.Get(ctx, cartdom.StorageKey)
	if err != nil {
		return nil, errx.Transport("cart_store.load", err)
	}
	if !ok {
		return cartdom.New(nil), nil
	}
	c, err := cartdom.Unmarshal(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("scope", s.scope.Name()).Msg("[cart_store] corrupt ledger; starting empty")
		return cartdom.New(nil), nil
	}
	return c, nil
}
