package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore maps client-supplied idempotency keys to the id of the
// resource the first request created.
// Key format: idem:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis
// client. A non-positive ttl uses 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve binds key to id with SETNX, so the first writer wins. When the key
// is already taken it returns the id bound to it.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string, id uuid.UUID) (uuid.UUID, bool, error) {
	k := s.key(scope, key)
	ok, err := s.client.SetNX(ctx, k, id.String(), s.ttl).Result()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return id, true, nil
	}

	v, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, fmt.Errorf("idempotency reserve: key %s expired while reading", k)
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	bound, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return bound, false, nil
}

// Release removes key so a later request can retry with it.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
