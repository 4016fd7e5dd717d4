package kv

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

const (
	redisKeyPrefix     = "kv:"
	redisEventsChannel = "kv:events"
	defaultRedisTTL    = 30 * 24 * time.Hour
)

// RedisStore keeps scoped values in Redis and relays change events over pub/sub,
// so every replica observing a scope sees writes made by the others.
// The client is owned by the caller and is not closed by Close.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	hub    *hub

	startOnce sync.Once
	pubsub    *redis.PubSub
	stopCh    chan struct{}
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		hub:    newHub(),
		stopCh: make(chan struct{}),
	}
}

func (s *RedisStore) key(scope, key string) string {
	return redisKeyPrefix + scope + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, scope, key, value string) error {
	ev, err := encodeEvent(scope, key, false)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(scope, key), value, s.ttl)
		pipe.Publish(ctx, redisEventsChannel, ev)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(scope, k))
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, full...)
		for _, k := range keys {
			ev, err := encodeEvent(scope, k, true)
			if err != nil {
				return err
			}
			pipe.Publish(ctx, redisEventsChannel, ev)
		}
		return nil
	})
	return err
}

// Subscribe starts the shared pub/sub reader on first use.
func (s *RedisStore) Subscribe(scope string, fn Listener) (func(), error) {
	s.startOnce.Do(s.startReader)
	return s.hub.subscribe(scope, fn)
}

func (s *RedisStore) startReader() {
	s.pubsub = s.client.Subscribe(context.Background(), redisEventsChannel)
	ch := s.pubsub.Channel()
	lg := logx.Component("kv_redis")

	go func() {
		for {
			select {
			case <-s.stopCh:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					lg.Warn().Err(err).Str("payload", headString(msg.Payload, 80)).Msg("[kv_redis] bad event payload")
					continue
				}
				s.hub.publish(ev)
			}
		}
	}()
}

func (s *RedisStore) Close() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.hub.close()
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

func headString(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.ReplaceAll(s, "\n", "\\n")
}
