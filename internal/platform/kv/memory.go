package kv

import (
	"context"
	"sync"
)

// memoryStore keeps everything in process. Used for local dev and tests.
type memoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	hub    *hub
	closed bool
}

func NewMemoryStore() Store {
	return &memoryStore{
		data: map[string]map[string]string{},
		hub:  newHub(),
	}
}

func (s *memoryStore) Get(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data[scope][key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.data[scope] == nil {
		s.data[scope] = map[string]string{}
	}
	s.data[scope][key] = value
	s.mu.Unlock()

	s.hub.publish(Event{Scope: scope, Key: key})
	return nil
}

func (s *memoryStore) Delete(_ context.Context, scope string, keys ...string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	var removed []string
	if m := s.data[scope]; m != nil {
		for _, k := range keys {
			if _, ok := m[k]; ok {
				delete(m, k)
				removed = append(removed, k)
			}
		}
		if len(m) == 0 {
			delete(s.data, scope)
		}
	}
	s.mu.Unlock()

	for _, k := range removed {
		s.hub.publish(Event{Scope: scope, Key: k, Deleted: true})
	}
	return nil
}

func (s *memoryStore) Subscribe(scope string, fn Listener) (func(), error) {
	return s.hub.subscribe(scope, fn)
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.data = nil
	s.mu.Unlock()
	s.hub.close()
	return nil
}
