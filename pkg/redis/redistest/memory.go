// Package redistest provides an in-memory stand-in for the Redis key/value
// surface used by the session-scoped stores.
package redistest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Memory implements redis.KVStore without a server. Expiry is recorded but
// not enforced.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration

	// FailWith, when set, is returned by every call.
	FailWith error
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	default:
		m.values[key] = fmt.Sprint(v)
	}
	m.ttls[key] = ttl
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for _, key := range keys {
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return nil
}

func (m *Memory) GetDel(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	delete(m.values, key)
	delete(m.ttls, key)
	return value, nil
}

// Value returns the raw stored string.
func (m *Memory) Value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// Has reports whether key is stored.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

// TTL returns the expiry recorded for key.
func (m *Memory) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// ErrUnavailable is a convenient FailWith value.
var ErrUnavailable = errors.New("redis unavailable")
