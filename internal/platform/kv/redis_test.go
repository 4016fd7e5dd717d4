package kv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisPair(t *testing.T) (*miniredis.Miniredis, *redis.Client, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	a := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return mr, a, b
}

// waitSubscribed blocks until n clients listen on the events channel.
func waitSubscribed(t *testing.T, mr *miniredis.Miniredis, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for mr.PubSubNumSub(redisEventsChannel)[redisEventsChannel] < n {
		if time.Now().After(deadline) {
			t.Fatalf("no subscriber on %s", redisEventsChannel)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRedisGetSetDelete(t *testing.T) {
	ctx := context.Background()
	mr, client, _ := newRedisPair(t)
	s := NewRedisStore(client, time.Hour)
	defer s.Close()

	if _, ok, err := s.Get(ctx, "client-1", "cart"); ok || err != nil {
		t.Fatalf("empty Get = %v, %v", ok, err)
	}
	if err := s.Set(ctx, "client-1", "cart", "[]"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(ctx, "client-1", "cart"); !ok || v != "[]" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if ttl := mr.TTL(redisKeyPrefix + "client-1:cart"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := s.Get(ctx, "client-1", "cart"); ok {
		t.Fatalf("value should expire with its ttl")
	}

	_ = s.Set(ctx, "client-1", "cart", "[]")
	if err := s.Delete(ctx, "client-1", "cart", "absent"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "client-1", "cart"); ok {
		t.Fatalf("key should be gone")
	}
}

func TestRedisEventsReachOtherReplica(t *testing.T) {
	ctx := context.Background()
	mr, ca, cb := newRedisPair(t)
	writer := NewRedisStore(ca, time.Hour)
	reader := NewRedisStore(cb, time.Hour)
	defer writer.Close()
	defer reader.Close()

	events := make(chan Event, 8)
	cancel, err := Scope(reader, "client-1").OnChange(func(ev Event) { events <- ev }, "adminLoggedIn")
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()
	waitSubscribed(t, mr, 1)

	_ = writer.Set(ctx, "client-2", "adminLoggedIn", "true")
	_ = writer.Set(ctx, "client-1", "cart", "[]")
	if err := writer.Set(ctx, "client-1", "adminLoggedIn", "true"); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, events)
	if ev.Scope != "client-1" || ev.Key != "adminLoggedIn" || ev.Deleted {
		t.Fatalf("event = %+v", ev)
	}
	if v, ok, _ := reader.Get(ctx, "client-1", "adminLoggedIn"); !ok || v != "true" {
		t.Fatalf("replica reads %q, %v", v, ok)
	}

	if err := writer.Delete(ctx, "client-1", "adminLoggedIn"); err != nil {
		t.Fatal(err)
	}
	if ev := waitEvent(t, events); !ev.Deleted {
		t.Fatalf("want delete event, got %+v", ev)
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisEventPayloadIgnoresValueSize(t *testing.T) {
	ctx := context.Background()
	_, ca, cb := newRedisPair(t)
	s := NewRedisStore(ca, time.Hour)
	defer s.Close()

	ps := cb.Subscribe(ctx, redisEventsChannel)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	payload := func(value string) string {
		t.Helper()
		if err := s.Set(ctx, "catalog", "products", value); err != nil {
			t.Fatal(err)
		}
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		msg, err := ps.ReceiveMessage(rctx)
		if err != nil {
			t.Fatal(err)
		}
		return msg.Payload
	}

	small := payload("[]")
	large := payload(`[{"image":"data:image/png;base64,` + strings.Repeat("A", 2<<20) + `"}]`)
	if len(small) != len(large) {
		t.Fatalf("payload grew with the value: %d -> %d bytes", len(small), len(large))
	}
	if len(large) > pgNotifyLimit {
		t.Fatalf("payload %d bytes exceeds the notify limit", len(large))
	}
}
