package kv

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreType selects a driver.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
)

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	postgresDSN string
}

func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.redisTTL = ttl }
}

func WithPostgresDSN(dsn string) StoreOption {
	return func(c *storeConfig) { c.postgresDSN = dsn }
}

// NewStore builds the driver named by storeType.
func NewStore(ctx context.Context, storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.redisTTL), nil
	case StoreTypePostgres:
		if cfg.postgresDSN == "" {
			return nil, ErrInvalidConfig
		}
		return NewPostgresStore(ctx, cfg.postgresDSN)
	default:
		return nil, ErrInvalidStoreType
	}
}
