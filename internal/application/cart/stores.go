package cart

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

const (
	defaultIdleTTL   = 30 * time.Minute
	defaultMaxScopes = 10000
)

// Stores hands out one Store per client scope so the transient open flag
// survives between requests of the same client.
//
// Scopes idle for longer than the idle TTL are forgotten, and at most maxScopes
// are kept; the least recently used goes first. Only the open flag is lost on
// eviction, the ledger stays in the KV store.
type Stores struct {
	kv      kv.Store
	catalog CatalogReader
	log     zerolog.Logger

	idleTTL   time.Duration
	maxScopes int
	now       func() time.Time

	mu        sync.Mutex
	scopes    map[string]*entry
	lastSweep time.Time
}

type entry struct {
	store *Store
	seen  time.Time
}

// StoresOption configures Stores.
type StoresOption func(*Stores)

// WithIdleTTL sets how long an unused scope is kept.
func WithIdleTTL(d time.Duration) StoresOption {
	return func(m *Stores) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

// WithMaxScopes caps the number of scopes kept at once.
func WithMaxScopes(n int) StoresOption {
	return func(m *Stores) {
		if n > 0 {
			m.maxScopes = n
		}
	}
}

func NewStores(store kv.Store, catalog CatalogReader, opts ...StoresOption) *Stores {
	m := &Stores{
		kv:        store,
		catalog:   catalog,
		log:       logx.Component("cart_store"),
		idleTTL:   defaultIdleTTL,
		maxScopes: defaultMaxScopes,
		now:       time.Now,
		scopes:    map[string]*entry{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

// For returns the cart of the client scope, creating it on first use.
func (m *Stores) For(scope string) (*Store, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, ErrInvalidArgument
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.scopes[scope]; ok {
		e.seen = now
		return e.store, nil
	}

	m.evictLocked(now)
	s := NewStore(kv.Scope(m.kv, scope), m.catalog, m.log)
	m.scopes[scope] = &entry{store: s, seen: now}
	return s, nil
}

// Len is the number of scopes currently held.
func (m *Stores) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}

// evictLocked drops idle scopes at most once per idle TTL, and the least
// recently used one when the map is still full.
func (m *Stores) evictLocked(now time.Time) {
	if now.Sub(m.lastSweep) >= m.idleTTL || len(m.scopes) >= m.maxScopes {
		m.lastSweep = now
		for k, e := range m.scopes {
			if now.Sub(e.seen) >= m.idleTTL {
				delete(m.scopes, k)
			}
		}
	}
	for len(m.scopes) >= m.maxScopes {
		var (
			oldest string
			seen   time.Time
		)
		for k, e := range m.scopes {
			if oldest == "" || e.seen.Before(seen) {
				oldest, seen = k, e.seen
			}
		}
		delete(m.scopes, oldest)
	}
}
