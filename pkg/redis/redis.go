// Package redis provides a storefront.Storage backed by Redis strings and a
// Watcher using keyspace notifications.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/zoobzio/storefront"
)

// DefaultPrefix namespaces storefront keys in a shared Redis.
const DefaultPrefix = "storefront:"

// Storage stores each key as a Redis string under a prefix.
type Storage struct {
	client *redis.Client
	prefix string
	db     int
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
func New(client *redis.Client, opts ...Option) *Storage {
	s := &Storage{
		client: client,
		prefix: DefaultPrefix,
		db:     client.Options().DB,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads key. A missing key is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set writes key without expiry.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Watcher returns a Watcher over this storage's keys.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{client: s.client, prefix: s.prefix, db: s.db}
}

// Watcher reports storefront keys changed in Redis. Requires keyspace
// notifications to be enabled:
//
//	CONFIG SET notify-keyspace-events KEA
type Watcher struct {
	client *redis.Client
	prefix string
	db     int
}

// Watch subscribes to keyspace notifications for the prefix and returns a
// channel that emits the storefront key of every write or delete.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	channelPrefix := fmt.Sprintf("__keyspace@%d__:%s", w.db, w.prefix)
	pubsub := w.client.PSubscribe(ctx, channelPrefix+"*")

	// Verify subscription worked
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	out := make(chan string)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				switch msg.Payload {
				case "set", "setex", "psetex", "setnx", "mset", "del", "expired", "rename_to":
				default:
					continue
				}

				select {
				case out <- strings.TrimPrefix(msg.Channel, channelPrefix):
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
