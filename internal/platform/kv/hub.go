package kv

import (
	"sync"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

const subscriberBuffer = 64

// hub fans events out to per-scope subscribers.
// Each subscriber has its own buffered queue and goroutine, so listeners may
// call back into the store without deadlocking the writer.
type hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*subscriber
	closed bool
}

type subscriber struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

func newHub() *hub {
	return &hub{subs: map[string]map[uint64]*subscriber{}}
}

func (h *hub) subscribe(scope string, fn Listener) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	h.nextID++
	id := h.nextID
	sub := &subscriber{ch: make(chan Event, subscriberBuffer), done: make(chan struct{})}
	if h.subs[scope] == nil {
		h.subs[scope] = map[uint64]*subscriber{}
	}
	h.subs[scope][id] = sub

	go func() {
		for {
			select {
			case ev := <-sub.ch:
				fn(ev)
			case <-sub.done:
				return
			}
		}
	}()

	return func() {
		h.mu.Lock()
		if m := h.subs[scope]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(h.subs, scope)
			}
		}
		h.mu.Unlock()
		sub.stop()
	}, nil
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[ev.Scope] {
		select {
		case sub.ch <- ev:
		default:
			logx.Warn().Str("component", "kv_hub").Str("scope", ev.Scope).Str("key", ev.Key).Msg("[kv] subscriber queue full, event dropped")
		}
	}
}

func (h *hub) hasSubscribers() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs) > 0
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, m := range h.subs {
		for _, sub := range m {
			sub.stop()
		}
	}
	h.subs = map[string]map[uint64]*subscriber{}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}
