// Package consul provides a storefront.Storage backed by Consul KV and a
// Watcher using blocking queries.
package consul

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/zoobzio/storefront"
)

// DefaultPrefix namespaces storefront keys in a shared Consul.
const DefaultPrefix = "storefront/"

// Storage stores each key as a Consul KV pair under a prefix.
type Storage struct {
	kv     *api.KV
	prefix string
}

// Option configures a Storage.
type Option func(*Storage)

// WithPrefix sets the key prefix. Defaults to DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// New creates a Storage over client.
func New(client *api.Client, opts ...Option) *Storage {
	s := &Storage{
		kv:     client.KV(),
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads key. A missing key is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pair, _, err := s.kv.Get(s.prefix+key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, false, err
	}
	if pair == nil {
		return nil, false, nil
	}
	return pair.Value, true, nil
}

// Set writes key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.kv.Put(&api.KVPair{Key: s.prefix + key, Value: value}, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	_, err := s.kv.Delete(s.prefix+key, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

// Watcher returns a Watcher over this storage's keys.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{kv: s.kv, prefix: s.prefix}
}

// Watcher reports storefront keys changed in Consul.
type Watcher struct {
	kv     *api.KV
	prefix string
}

// Watch lists the prefix and then blocks on further changes, returning a
// channel that emits the storefront key of every write or delete.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	pairs, meta, err := w.kv.List(w.prefix, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix: %w", err)
	}
	seen := w.indexes(pairs)
	lastIndex := meta.LastIndex

	out := make(chan string)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			opts := &api.QueryOptions{
				WaitIndex: lastIndex,
			}
			opts = opts.WithContext(ctx)

			pairs, meta, err := w.kv.List(w.prefix, opts)
			if err != nil {
				// Context cancelled
				if ctx.Err() != nil {
					return
				}
				// Other error - continue watching
				continue
			}
			if meta.LastIndex == lastIndex {
				continue
			}
			// Consul resets the index on snapshot restore.
			if meta.LastIndex < lastIndex {
				lastIndex = 0
				continue
			}
			lastIndex = meta.LastIndex

			current := w.indexes(pairs)
			for _, key := range changed(seen, current) {
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
			seen = current
		}
	}()

	return out, nil
}

func (w *Watcher) indexes(pairs api.KVPairs) map[string]uint64 {
	out := make(map[string]uint64, len(pairs))
	for _, p := range pairs {
		out[strings.TrimPrefix(p.Key, w.prefix)] = p.ModifyIndex
	}
	return out
}

// changed returns keys written or removed between two listings.
func changed(before, after map[string]uint64) []string {
	var keys []string
	for key, idx := range after {
		if before[key] != idx {
			keys = append(keys, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			keys = append(keys, key)
		}
	}
	return keys
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
