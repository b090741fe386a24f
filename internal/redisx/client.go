package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func Ping(ctx context.Context, rdb redis.Cmdable) error {
	return rdb.Ping(ctx).Err()
}

// Dedup marks consumed events so redelivered messages are skipped.
type Dedup struct {
	RDB     redis.Cmdable
	Service string
}

// First reports whether eventID is seen for the first time, recording it.
func (d *Dedup) First(ctx context.Context, eventID string) (bool, error) {
	return d.RDB.SetNX(ctx, DedupKey(d.Service, eventID), "1", TTLDedup).Result()
}

// Forget drops the mark, so a message whose processing failed is retried.
func (d *Dedup) Forget(ctx context.Context, eventID string) error {
	return d.RDB.Del(ctx, DedupKey(d.Service, eventID)).Err()
}
