// internal/adapters/out/redis/catalog_refresh_bridge.go
package redis

import (
	"context"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// RefreshChannel carries "catalog changed" signals between replicas.
const RefreshChannel = "catalog:refresh"

// Deliverer runs local refresh subscribers.
type Deliverer interface {
	Deliver(ctx context.Context)
}

// CatalogRefreshBridge relays the catalog refresh signal over Redis pub/sub.
// Each message carries the origin instance id so a replica ignores its own.
type CatalogRefreshBridge struct {
	client *goredis.Client
	origin string
	log    zerolog.Logger
}

func NewCatalogRefreshBridge(client *goredis.Client) *CatalogRefreshBridge {
	return &CatalogRefreshBridge{
		client: client,
		origin: uuid.NewString(),
		log:    logx.Component("catalog_refresh_bridge"),
	}
}

// Origin is this instance's id as written into messages.
func (b *CatalogRefreshBridge) Origin() string { return b.origin }

// Publish implements catalog.Relay.
func (b *CatalogRefreshBridge) Publish(ctx context.Context) error {
	return b.client.Publish(ctx, RefreshChannel, b.origin).Err()
}

// Run forwards remote signals to local until ctx is done.
func (b *CatalogRefreshBridge) Run(ctx context.Context, local Deliverer) error {
	sub := b.client.Subscribe(ctx, RefreshChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.log.Info().Str("origin", b.origin).Msg("[catalog_refresh_bridge] subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !b.shouldDeliver(msg.Payload) {
				continue
			}
			b.log.Debug().Str("from", msg.Payload).Msg("[catalog_refresh_bridge] remote refresh")
			local.Deliver(ctx)
		}
	}
}

func (b *CatalogRefreshBridge) shouldDeliver(payload string) bool {
	return strings.TrimSpace(payload) != b.origin
}
