package cron

import (
	"context"
	"testing"
	"time"
)

type memoryLockStore struct {
	values map[string]string
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) DeleteIfEquals(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockExclusiveAndOwnerChecked(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	ctx := context.Background()
	first, _ := NewRedisLock(store, "storefront:lock:cron", time.Minute)
	second, _ := NewRedisLock(store, "storefront:lock:cron", time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second replica must not acquire a held lock")
	}

	// The lock expired and another replica took it.
	store.values["storefront:lock:cron"] = "someone-else"
	if err := first.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if store.values["storefront:lock:cron"] != "someone-else" {
		t.Fatal("release removed a lock owned by another replica")
	}

	delete(store.values, "storefront:lock:cron")
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected acquire after expiry")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.values["storefront:lock:cron"]; ok {
		t.Fatal("owner release should delete the key")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error without client")
	}
	if _, err := NewRedisLock(&memoryLockStore{}, "", 0); err == nil {
		t.Fatal("expected error without key")
	}
	lock, err := NewRedisLock(&memoryLockStore{}, "k", 0)
	if err != nil || lock.ttl != defaultLockTTL {
		t.Fatalf("expected default ttl, got %v %v", lock, err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release without acquire: %v", err)
	}
}
