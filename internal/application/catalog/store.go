// internal/application/catalog/store.go
package catalog

import (
	"context"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// Store is the in-memory mirror of the remote product collection.
//
// It has no write path of its own: admin mutations go to the repository and
// the store re-synchronizes through Refresh, so it is eventually consistent.
type Store struct {
	repo productdom.Repository
	log  zerolog.Logger

	issued atomic.Uint64

	mu       sync.RWMutex
	items    []productdom.Product
	applied  uint64
	pending  int
	loading  bool
	nextID   uint64
	watchers map[uint64]func()
}

func NewStore(repo productdom.Repository) *Store {
	return &Store{
		repo:     repo,
		log:      logx.Component("catalog_store"),
		loading:  true,
		watchers: map[uint64]func(){},
	}
}

// Bind makes the store refresh whenever sig fires. Returns the unsubscribe func.
func (s *Store) Bind(sig *Signal) func() {
	return sig.Subscribe(func(ctx context.Context) { s.Refresh(ctx) })
}

// Refresh re-lists the collection and replaces the mirror wholesale.
//
// Errors are logged and swallowed; the previous list stays in place.
// Every call takes a sequence number and a response is applied only if no newer
// one has been applied, so an overlapping slow refresh cannot roll state back.
func (s *Store) Refresh(ctx context.Context) {
	seq := s.issued.Add(1)

	s.mu.Lock()
	s.pending++
	s.loading = true
	s.mu.Unlock()

	items, err := s.repo.List(ctx)

	s.mu.Lock()
	s.pending--
	if s.pending == 0 {
		s.loading = false
	}

	if err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Uint64("seq", seq).Msg("[catalog_store] refresh failed; keeping previous list")
		return
	}
	if seq < s.applied {
		s.mu.Unlock()
		s.log.Debug().Uint64("seq", seq).Uint64("applied", s.applied).Msg("[catalog_store] stale refresh discarded")
		return
	}

	s.items = cloneProducts(items)
	s.applied = seq
	watchers := make([]func(), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	n := len(s.items)
	s.mu.Unlock()

	s.log.Debug().Uint64("seq", seq).Int("count", n).Msg("[catalog_store] refreshed")
	for _, w := range watchers {
		w()
	}
}

// Loading is true until the first refresh completes and while any refresh runs.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready reports whether any refresh has been applied. Until then the mirror is
// empty because nothing was loaded, not because the collection is empty.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied > 0
}

// RetryUntilReady refreshes every interval until one refresh is applied or ctx
// is done. It returns immediately when the store is already ready.
func (s *Store) RetryUntilReady(ctx context.Context, interval time.Duration) {
	if s.Ready() {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s.Refresh(ctx)
		if s.Ready() {
			s.log.Info().Msg("[catalog_store] first load recovered")
			return
		}
	}
}

// OnChange registers fn to run after each applied refresh.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Products returns every product, active or not (admin view).
func (s *Store) Products() []productdom.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.items)
}

// Get returns the live product for id.
func (s *Store) Get(id string) (productdom.Product, bool) {
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if p.ID == id {
			return p, true
		}
	}
	return productdom.Product{}, false
}

// VisibleProducts yields active products. The state is read when iteration
// starts, so each iteration reflects the latest applied refresh.
func (s *Store) VisibleProducts() iter.Seq[productdom.Product] {
	return func(yield func(productdom.Product) bool) {
		for _, p := range s.snapshot() {
			if !p.IsActive {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Search filters visible products by a case-insensitive substring of name or
// description. A blank term yields every visible product.
func (s *Store) Search(term string) iter.Seq[productdom.Product] {
	t := strings.ToLower(strings.TrimSpace(term))
	return func(yield func(productdom.Product) bool) {
		for p := range s.VisibleProducts() {
			if !p.Matches(t) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// snapshot returns the current slice. The slice is replaced, never mutated in
// place, so holding it after unlock is safe.
func (s *Store) snapshot() []productdom.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

func cloneProducts(src []productdom.Product) []productdom.Product {
	out := make([]productdom.Product, len(src))
	copy(out, src)
	return out
}
