package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	pendingMarker         = "pending"
)

// IdempotencyStore binds (user, Idempotency-Key) pairs to created order ids.
// Key format: idempotency:order:<user_id>:<key>
// Value: "pending" while the order is being created, then the order id.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim sets the key to a pending marker with SETNX. A key that vanishes
// between the SETNX and the read is claimed again once.
func (s *IdempotencyStore) Claim(ctx context.Context, userID int64, key string) (int64, bool, error) {
	k := idempotencyKey(userID, key)
	for range 2 {
		claimed, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("idempotency claim: %w", err)
		}
		if claimed {
			return 0, true, nil
		}

		raw, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("idempotency claim: %w", err)
		}
		return parseOrderID(raw)
	}
	return 0, false, nil
}

// Complete overwrites the pending marker with orderID and restarts the TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, userID int64, key string, orderID int64) error {
	if err := s.client.Set(ctx, idempotencyKey(userID, key), strconv.FormatInt(orderID, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// parseOrderID reads a stored value: the pending marker or an order id.
func parseOrderID(raw string) (int64, bool, error) {
	if raw == pendingMarker {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency claim: malformed order id %q: %w", raw, err)
	}
	return id, false, nil
}

func idempotencyKey(userID int64, key string) string {
	return fmt.Sprintf("idempotency:order:%d:%s", userID, key)
}
