package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type keyBuilder interface {
	CheckoutKey(token string) string
}

// Repository stores checkout flows by cart session token.
type Repository struct {
	kv   redis.KVStore
	keys keyBuilder
	ttl  time.Duration
}

// NewRepository builds the Redis-backed flow store.
func NewRepository(kv redis.KVStore, keys keyBuilder, ttl time.Duration) (*Repository, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key builder required")
	}
	return &Repository{kv: kv, keys: keys, ttl: ttl}, nil
}

// Load returns the stored flow or a fresh one.
func (r *Repository) Load(ctx context.Context, token string) (*Flow, error) {
	raw, err := r.kv.Get(ctx, r.keys.CheckoutKey(token))
	if err != nil {
		if redis.IsNil(err) {
			return NewFlow(), nil
		}
		return nil, fmt.Errorf("load checkout: %w", err)
	}
	var flow Flow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil {
		return nil, fmt.Errorf("decode checkout: %w", err)
	}
	if flow.State == "" {
		flow.State = StateShipping
	}
	return &flow, nil
}

func (r *Repository) Save(ctx context.Context, token string, flow *Flow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("encode checkout: %w", err)
	}
	if err := r.kv.Set(ctx, r.keys.CheckoutKey(token), string(payload), r.ttl); err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, token string) error {
	if err := r.kv.Del(ctx, r.keys.CheckoutKey(token)); err != nil {
		return fmt.Errorf("delete checkout: %w", err)
	}
	return nil
}
