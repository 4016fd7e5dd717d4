package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

var ErrInvalidScope = errors.New("session_registry: invalid scope")

type running struct {
	guard   *Guard
	cancel  context.CancelFunc
	unwatch func()
}

// Registry owns one Guard per client scope that is logged in, each with its
// Run loop going. A guard that falls back to LoggedOut (logout, expiry, or a
// change seen from another instance) is stopped and dropped.
type Registry struct {
	store kv.Store
	opts  []Option
	log   zerolog.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	guards map[string]*running
}

func NewRegistry(store kv.Store, opts ...Option) *Registry {
	base, cancel := context.WithCancel(context.Background())
	return &Registry{
		store:  store,
		opts:   opts,
		log:    logx.Component("session_registry"),
		base:   base,
		cancel: cancel,
		guards: map[string]*running{},
	}
}

// Login starts a session for scope. Credentials are checked by an
// Authenticator before this is called.
func (r *Registry) Login(ctx context.Context, scope string) (*Guard, error) {
	g, err := r.guard(scope)
	if err != nil {
		return nil, err
	}
	if err := g.Login(ctx); err != nil {
		return nil, err
	}
	r.start(scope, g)
	return g, nil
}

func (r *Registry) Logout(ctx context.Context, scope string) error {
	g, err := r.guard(scope)
	if err != nil {
		return err
	}
	err = g.Logout(ctx)
	r.stop(scope)
	return err
}

// IsValid checks the scope's persisted session. A scope logged in from another
// instance is picked up here and starts being watched.
func (r *Registry) IsValid(ctx context.Context, scope string) (bool, *Guard, error) {
	g, err := r.guard(scope)
	if err != nil {
		return false, nil, err
	}
	ok, err := g.IsValid(ctx)
	if err != nil {
		return false, g, err
	}
	if ok {
		r.start(scope, g)
	} else {
		r.stop(scope)
	}
	return ok, g, nil
}

// Active returns the number of watched scopes.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.guards)
}

// Close stops every Run loop and waits for them.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()
}

// guard returns the tracked guard or a fresh one (not yet tracked).
func (r *Registry) guard(scope string) (*Guard, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, ErrInvalidScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.guards[scope]; ok {
		return e.guard, nil
	}
	return NewGuard(kv.Scope(r.store, scope), r.opts...), nil
}

func (r *Registry) start(scope string, g *Guard) {
	scope = strings.TrimSpace(scope)

	r.mu.Lock()
	_, tracked := r.guards[scope]
	r.mu.Unlock()
	if tracked || r.base.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.base)
	e := &running{guard: g, cancel: cancel}
	// stop must not wait here: the callback runs on the guard's own Run goroutine.
	e.unwatch = g.OnChange(func(s sessiondom.State) {
		if s == sessiondom.LoggedOut {
			r.stop(scope)
		}
	})

	r.mu.Lock()
	if _, ok := r.guards[scope]; ok || r.base.Err() != nil {
		r.mu.Unlock()
		e.unwatch()
		cancel()
		return
	}
	r.guards[scope] = e
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := g.Run(ctx); err != nil {
			r.log.Error().Err(err).Str("scope", scope).Msg("[session_registry] guard stopped")
		}
	}()
	r.log.Debug().Str("scope", scope).Msg("[session_registry] watching")
}

func (r *Registry) stop(scope string) {
	scope = strings.TrimSpace(scope)

	r.mu.Lock()
	e, ok := r.guards[scope]
	if ok {
		delete(r.guards, scope)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if e.unwatch != nil {
		e.unwatch()
	}
	e.cancel()
	r.log.Debug().Str("scope", scope).Msg("[session_registry] dropped")
}
