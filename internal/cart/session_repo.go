package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type keyBuilder interface {
	CartKey(token string) string
}

// SessionRepository persists carts by cart session token in Redis.
type SessionRepository struct {
	kv   redis.KVStore
	keys keyBuilder
	ttl  time.Duration
}

// NewSessionRepository builds the Redis-backed cart store.
func NewSessionRepository(kv redis.KVStore, keys keyBuilder, ttl time.Duration) (*SessionRepository, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key builder required")
	}
	return &SessionRepository{kv: kv, keys: keys, ttl: ttl}, nil
}

// Load returns the session cart; an unknown token yields an empty cart.
func (r *SessionRepository) Load(ctx context.Context, token string) (*Store, error) {
	raw, err := r.kv.Get(ctx, r.keys.CartKey(token))
	if err != nil {
		if redis.IsNil(err) {
			return NewStore(nil), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return NewStore(items), nil
}

// Save writes the cart and refreshes its TTL.
func (r *SessionRepository) Save(ctx context.Context, token string, store *Store) error {
	payload, err := json.Marshal(store.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.kv.Set(ctx, r.keys.CartKey(token), string(payload), r.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete drops the session cart.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.kv.Del(ctx, r.keys.CartKey(token)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
