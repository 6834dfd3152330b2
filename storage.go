package storefront

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Storage keys used by the domain stores.
const (
	KeyAuthUser = "AuthUser"
	KeyUsers    = "Users"
	KeyCart     = "Cart"
	KeyProducts = "Products"
	KeyEvents   = "Events"
	KeyErrors   = "Errors"
)

// Storage is the persistent key-value collaborator behind every store.
// Values are opaque encoded records; an absent key is reported as
// (nil, false, nil) and is equivalent to an empty domain value.
type Storage interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// MemoryStorage is an in-process Storage backed by a map.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Set stores a copy of value under key.
func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(value)
	return nil
}

// Remove deletes key.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.values))
}

// Ensure MemoryStorage implements Storage.
var _ Storage = (*MemoryStorage)(nil)

// Load reads key and decodes it with codec. The boolean reports whether the
// key was present. Failures are classified as KindStorage.
func Load[T any](ctx context.Context, s Storage, codec Codec, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return out, false, Wrap(KindStorage, "get "+key, err)
	}
	if !ok || len(raw) == 0 {
		return out, false, nil
	}
	if err := codec.Unmarshal(raw, &out); err != nil {
		return out, false, Wrap(KindStorage, "decode "+key, err)
	}
	return out, true, nil
}

// Save encodes v with codec and writes it under key. Failures are
// classified as KindStorage.
func Save[T any](ctx context.Context, s Storage, codec Codec, key string, v T) error {
	raw, err := codec.Marshal(v)
	if err != nil {
		return Wrap(KindStorage, "encode "+key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return Wrap(KindStorage, "set "+key, err)
	}
	return nil
}

// Delete removes key. Failures are classified as KindStorage.
func Delete(ctx context.Context, s Storage, key string) error {
	if err := s.Remove(ctx, key); err != nil {
		return Wrap(KindStorage, "remove "+key, err)
	}
	return nil
}
