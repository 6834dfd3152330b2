// Package etcd provides a storefront.Storage backed by etcd keys and a
// Watcher using the native Watch API.
package etcd

import (
	"context"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zoobzio/storefront"
)

// DefaultPrefix namespaces storefront keys in a shared cluster.
const DefaultPrefix = "/storefront/"

// Storage stores each key as an etcd key under a prefix.
type Storage struct {
	client *clientv3.Client
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
func New(client *clientv3.Client, opts ...Option) *Storage {
	s := &Storage{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads key. A missing key is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := s.client.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, false, err
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

// Set writes key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.Put(ctx, s.prefix+key, string(value))
	return err
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	_, err := s.client.Delete(ctx, s.prefix+key)
	return err
}

// Watcher returns a Watcher over this storage's keys.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{client: s.client, prefix: s.prefix}
}

// Watcher reports storefront keys changed in etcd.
type Watcher struct {
	client *clientv3.Client
	prefix string
}

// Watch watches every key under the prefix from the current revision and
// returns a channel that emits the storefront key of every put or delete.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	// Pin the starting revision so no change between now and the watch
	// being established is missed.
	resp, err := w.client.Get(ctx, w.prefix, clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to get current revision: %w", err)
	}

	watchChan := w.client.Watch(ctx, w.prefix,
		clientv3.WithPrefix(),
		clientv3.WithRev(resp.Header.Revision+1),
	)

	out := make(chan string)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil {
					continue
				}

				for _, event := range watchResp.Events {
					key := strings.TrimPrefix(string(event.Kv.Key), w.prefix)
					select {
					case out <- key:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
