package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ariefcatur/canvas-orders/internal/logging"
	"github.com/ariefcatur/canvas-orders/internal/orders"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OrderCache is a read-through cache in front of an order repository. Redis
// failures are logged and the call falls through to the repository.
type OrderCache struct {
	next orders.Repository
	rdb  redis.Cmdable
	ttl  time.Duration
}

var _ orders.Repository = (*OrderCache)(nil)

func NewOrderCache(next orders.Repository, rdb redis.Cmdable, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = TTLOrderCache
	}
	return &OrderCache{next: next, rdb: rdb, ttl: ttl}
}

func (c *OrderCache) Insert(ctx context.Context, o *orders.Order) error {
	if err := c.next.Insert(ctx, o); err != nil {
		return err
	}
	c.store(ctx, o)
	return nil
}

func (c *OrderCache) Get(ctx context.Context, id string) (*orders.Order, error) {
	b, err := c.rdb.Get(ctx, OrderKey(id)).Bytes()
	switch {
	case err == nil:
		var o orders.Order
		if err := json.Unmarshal(b, &o); err == nil {
			return &o, nil
		}
		logging.FromContext(ctx).Warn("order_cache_corrupt", zap.String("order_id", id))
	case !errors.Is(err, redis.Nil):
		logging.FromContext(ctx).Warn("order_cache_read_failed", zap.String("order_id", id), zap.Error(err))
	}

	o, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, o)
	return o, nil
}

// Update drops the cached document before writing so a failed write never
// leaves a stale copy behind.
func (c *OrderCache) Update(ctx context.Context, o *orders.Order) error {
	if err := c.rdb.Del(ctx, OrderKey(o.ID)).Err(); err != nil {
		logging.FromContext(ctx).Warn("order_cache_evict_failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	if err := c.next.Update(ctx, o); err != nil {
		return err
	}
	c.store(ctx, o)
	return nil
}

func (c *OrderCache) ListByOwner(ctx context.Context, ownerID string) ([]orders.Order, error) {
	return c.next.ListByOwner(ctx, ownerID)
}

func (c *OrderCache) ListAll(ctx context.Context) ([]orders.OrderWithOwner, error) {
	return c.next.ListAll(ctx)
}

func (c *OrderCache) store(ctx context.Context, o *orders.Order) {
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, OrderKey(o.ID), b, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("order_cache_write_failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
