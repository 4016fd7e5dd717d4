// internal/application/catalog/signal.go
package catalog

import (
	"context"
	"sync"
)

// Relay forwards a refresh signal to other processes (e.g. Redis pub/sub).
type Relay interface {
	Publish(ctx context.Context) error
}

// Signal is the in-process "catalog changed, re-pull" notification.
// Subscribers run synchronously on the notifier's goroutine, so Notify returns
// only after every local subscriber finished.
type Signal struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(context.Context)
	relay  Relay
}

func NewSignal() *Signal {
	return &Signal{subs: map[uint64]func(context.Context){}}
}

// SetRelay attaches a cross-process relay. nil disables relaying.
func (s *Signal) SetRelay(r Relay) {
	s.mu.Lock()
	s.relay = r
	s.mu.Unlock()
}

// Subscribe registers fn and returns an unsubscribe func.
func (s *Signal) Subscribe(fn func(context.Context)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Notify delivers to local subscribers, then relays. A relay failure is returned
// but local delivery has already happened.
func (s *Signal) Notify(ctx context.Context) error {
	s.Deliver(ctx)

	s.mu.Lock()
	r := s.relay
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Publish(ctx)
}

// Deliver runs local subscribers only. Relays call this for remote signals.
func (s *Signal) Deliver(ctx context.Context) {
	s.mu.Lock()
	fns := make([]func(context.Context), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
