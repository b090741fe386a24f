package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingMarker is stored under a key while its order is being created.
const PendingMarker = "pending"

// TTLIdempotencyPending bounds how long a crashed request can hold a key.
var TTLIdempotencyPending = 30 * time.Second

// Idempotency maps a client supplied Idempotency-Key to the order it created.
// A key is reserved before the order is created and bound to its id afterwards.
type Idempotency struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func (i *Idempotency) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return TTLIdempotency
}

// Reserve claims key for the caller. When the key is already taken it returns
// the bound order id, or "" while the first request is still running.
func (i *Idempotency) Reserve(ctx context.Context, userID, key string) (existing string, reserved bool, err error) {
	k := IdemOrderCreateKey(userID, key)
	ok, err := i.RDB.SetNX(ctx, k, PendingMarker, TTLIdempotencyPending).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	id, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) || id == PendingMarker {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, false, nil
}

// Complete binds a reserved key to orderID.
func (i *Idempotency) Complete(ctx context.Context, userID, key, orderID string) error {
	return i.RDB.Set(ctx, IdemOrderCreateKey(userID, key), orderID, i.ttl()).Err()
}

// Release frees a reserved key after the create failed.
func (i *Idempotency) Release(ctx context.Context, userID, key string) error {
	return i.RDB.Del(ctx, IdemOrderCreateKey(userID, key)).Err()
}
