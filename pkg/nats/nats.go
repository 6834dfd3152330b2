// Package nats provides a storefront.Storage backed by a NATS JetStream
// key-value bucket and a Watcher using the native Watch API.
package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/zoobzio/storefront"
)

// DefaultBucket is the bucket Open creates when none is named.
const DefaultBucket = "storefront"

// Storage stores each key in a JetStream key-value bucket.
type Storage struct {
	kv jetstream.KeyValue
}

// New creates a Storage over an existing bucket.
func New(kv jetstream.KeyValue) *Storage {
	return &Storage{kv: kv}
}

// Open creates or updates the named bucket and returns a Storage over it.
func Open(ctx context.Context, js jetstream.JetStream, bucket string) (*Storage, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "storefront stores",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucket, err)
	}
	return New(kv), nil
}

// Get reads key. A missing or deleted key is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set writes key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.kv.Put(ctx, key, value)
	return err
}

// Remove places a delete marker on key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Watcher returns a Watcher over the bucket.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{kv: s.kv}
}

// Watcher reports storefront keys changed in the bucket.
type Watcher struct {
	kv jetstream.KeyValue
}

// Watch subscribes to updates of every key in the bucket and returns a
// channel that emits the key of every put, delete or purge.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := w.kv.WatchAll(ctx, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to watch bucket: %w", err)
	}

	out := make(chan string)

	go func() {
		defer close(out)
		defer watcher.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// nil entry signals end of initial values
				if entry == nil {
					continue
				}

				select {
				case out <- entry.Key():
				case <-ctx.Done():
					return
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
