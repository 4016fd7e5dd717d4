// internal/application/session/guard.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/errx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/kv"
)

// DefaultCheckInterval is how often Run re-evaluates validity.
const DefaultCheckInterval = 60 * time.Second

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Guard.
type Option func(*Guard)

func WithClock(c Clock) Option {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithCheckInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// Guard is the elevated-access state machine of one client scope.
//
// Persisted state (adminLoggedIn, adminLoginTime) is the source of truth; the
// in-memory state follows it on every IsValid and on every change event seen by Run.
type Guard struct {
	scope    *kv.Scoped
	clock    Clock
	timeout  time.Duration
	interval time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	current  sessiondom.Session
	nextID   uint64
	watchers map[uint64]func(sessiondom.State)
}

func NewGuard(scope *kv.Scoped, opts ...Option) *Guard {
	g := &Guard{
		scope:    scope,
		clock:    systemClock{},
		timeout:  sessiondom.DefaultTimeout,
		interval: DefaultCheckInterval,
		log:      logx.Component("session_guard"),
		current:  sessiondom.Session{State: sessiondom.LoggedOut},
		watchers: map[uint64]func(sessiondom.State){},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login starts a fresh window at now and persists it.
// Re-login restarts the window; activity never extends it.
func (g *Guard) Login(ctx context.Context) error {
	s := sessiondom.Session{State: sessiondom.LoggedIn, AcquiredAt: g.clock.Now()}
	flag, at := s.Encode()

	if err := g.scope.Set(ctx, sessiondom.KeyLoginTime, at); err != nil {
		return errx.Transport("session_guard.login", err)
	}
	if err := g.scope.Set(ctx, sessiondom.KeyLoggedIn, flag); err != nil {
		return errx.Transport("session_guard.login", err)
	}

	g.apply(s)
	g.log.Info().Str("scope", g.scope.Name()).Msg("[session_guard] logged in")
	return nil
}

// Logout clears the persisted keys and moves to LoggedOut unconditionally.
// The in-memory state changes even when the clear fails.
func (g *Guard) Logout(ctx context.Context) error {
	g.apply(sessiondom.Session{State: sessiondom.LoggedOut})
	if err := g.scope.Delete(ctx, sessiondom.KeyLoggedIn, sessiondom.KeyLoginTime); err != nil {
		return errx.Transport("session_guard.logout", err)
	}
	g.log.Info().Str("scope", g.scope.Name()).Msg("[session_guard] logged out")
	return nil
}

// IsValid re-reads the persisted state. An expired window is cleared from
// storage before false is returned. A read failure counts as not valid.
func (g *Guard) IsValid(ctx context.Context) (bool, error) {
	flag, flagOK, err := g.scope.Get(ctx, sessiondom.KeyLoggedIn)
	if err != nil {
		return false, errx.Transport("session_guard.check", err)
	}
	at, atOK, err := g.scope.Get(ctx, sessiondom.KeyLoginTime)
	if err != nil {
		return false, errx.Transport("session_guard.check", err)
	}

	s := sessiondom.Decode(flag, at, flagOK, atOK)
	now := g.clock.Now()

	if s.Expired(now, g.timeout) {
		g.apply(sessiondom.Session{State: sessiondom.LoggedOut})
		g.log.Info().Str("scope", g.scope.Name()).Time("acquired_at", s.AcquiredAt).Msg("[session_guard] session expired")
		if err := g.scope.Delete(ctx, sessiondom.KeyLoggedIn, sessiondom.KeyLoginTime); err != nil {
			return false, errx.Transport("session_guard.expire", err)
		}
		return false, nil
	}

	g.apply(s)
	return s.Valid(now, g.timeout), nil
}

// State is the in-memory state as of the last check.
func (g *Guard) State() sessiondom.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.State
}

// ExpiresAt is the end of the current window (zero when logged out).
func (g *Guard) ExpiresAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current.State != sessiondom.LoggedIn {
		return time.Time{}
	}
	return g.current.AcquiredAt.Add(g.timeout)
}

// OnChange registers fn for state transitions. fn runs on the goroutine that
// caused the transition and must not block.
func (g *Guard) OnChange(fn func(sessiondom.State)) func() {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.watchers[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.watchers, id)
		g.mu.Unlock()
	}
}

// Run re-evaluates validity every interval and whenever the session keys of the
// scope change, until ctx is done.
func (g *Guard) Run(ctx context.Context) error {
	changed := make(chan struct{}, 1)
	unsubscribe, err := g.scope.OnChange(func(kv.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, sessiondom.KeyLoggedIn, sessiondom.KeyLoginTime)
	if err != nil {
		return err
	}
	defer unsubscribe()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		t := time.NewTicker(g.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				g.check(ctx, "tick")
			}
		}
	})

	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
				g.check(ctx, "storage")
			}
		}
	})

	return eg.Wait()
}

func (g *Guard) check(ctx context.Context, reason string) {
	if _, err := g.IsValid(ctx); err != nil {
		g.log.Warn().Err(err).Str("scope", g.scope.Name()).Str("reason", reason).Msg("[session_guard] check failed")
	}
}

// apply stores s and notifies watchers if the state flipped.
func (g *Guard) apply(s sessiondom.Session) {
	g.mu.Lock()
	prev := g.current.State
	g.current = s
	var fns []func(sessiondom.State)
	if prev != s.State {
		for _, fn := range g.watchers {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(s.State)
	}
}
