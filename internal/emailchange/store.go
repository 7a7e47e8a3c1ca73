package emailchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type keyBuilder interface {
	EmailChangeKey(userID string) string
}

// FlowStore keeps one flow per user in Redis.
type FlowStore struct {
	kv   redis.KVStore
	keys keyBuilder
	ttl  time.Duration
}

func NewFlowStore(kv redis.KVStore, keys keyBuilder, ttl time.Duration) (*FlowStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key builder required")
	}
	return &FlowStore{kv: kv, keys: keys, ttl: ttl}, nil
}

// Load returns nil when the user has no flow in progress.
func (s *FlowStore) Load(ctx context.Context, userID string) (*Flow, error) {
	raw, err := s.kv.Get(ctx, s.keys.EmailChangeKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load email change: %w", err)
	}
	var flow Flow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil {
		return nil, fmt.Errorf("decode email change: %w", err)
	}
	return &flow, nil
}

func (s *FlowStore) Save(ctx context.Context, userID string, flow *Flow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("encode email change: %w", err)
	}
	if err := s.kv.Set(ctx, s.keys.EmailChangeKey(userID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save email change: %w", err)
	}
	return nil
}

func (s *FlowStore) Delete(ctx context.Context, userID string) error {
	if err := s.kv.Del(ctx, s.keys.EmailChangeKey(userID)); err != nil {
		return fmt.Errorf("delete email change: %w", err)
	}
	return nil
}
