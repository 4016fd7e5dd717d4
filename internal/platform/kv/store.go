// internal/platform/kv/store.go
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrClosed           = errors.New("kv: store closed")
	ErrInvalidConfig    = errors.New("kv: invalid configuration")
	ErrInvalidStoreType = errors.New("kv: invalid store type")
)

// Event is a change notification for one key inside a scope.
// It is the server-side equivalent of a browser "storage" event.
// Events carry no value; listeners re-read the key.
type Event struct {
	Scope   string `json:"scope"`
	Key     string `json:"key"`
	Deleted bool   `json:"deleted,omitempty"`
}

// encodeEvent is the payload relayed over Redis pub/sub and Postgres NOTIFY.
// Its size depends on scope and key only, never on the stored value.
func encodeEvent(scope, key string, deleted bool) ([]byte, error) {
	return json.Marshal(Event{Scope: scope, Key: key, Deleted: deleted})
}

// Listener receives change events. It runs on a delivery goroutine owned by the store,
// never on the writer's goroutine.
type Listener func(Event)

// Store is scoped key/value state with change notifications.
//
// Writes are last-writer-wins. Notifications are delivered eventually with no
// ordering guarantee across subscribers; a slow subscriber may miss events.
type Store interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope string, keys ...string) error

	// Subscribe registers fn for changes in scope. The returned func unsubscribes.
	Subscribe(scope string, fn Listener) (func(), error)

	Close() error
}

// Scoped is a Store view bound to one scope.
type Scoped struct {
	store Store
	scope string
}

func Scope(store Store, scope string) *Scoped {
	return &Scoped{store: store, scope: scope}
}

func (s *Scoped) Name() string { return s.scope }

func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.scope, key)
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.scope, key, value)
}

func (s *Scoped) Delete(ctx context.Context, keys ...string) error {
	return s.store.Delete(ctx, s.scope, keys...)
}

// OnChange subscribes to changes of the given keys in this scope (all keys when none given).
func (s *Scoped) OnChange(fn Listener, keys ...string) (func(), error) {
	if len(keys) == 0 {
		return s.store.Subscribe(s.scope, fn)
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	return s.store.Subscribe(s.scope, func(ev Event) {
		if _, ok := want[ev.Key]; ok {
			fn(ev)
		}
	})
}
