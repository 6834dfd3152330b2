// Package firestore provides a storefront.Storage backed by Firestore
// documents and a Watcher using realtime listeners.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zoobzio/storefront"
)

// DefaultCollection holds one document per storefront key.
const DefaultCollection = "storefront"

// dataField is the document field holding the encoded value.
const dataField = "data"

// Storage stores each key as a document of a collection.
type Storage struct {
	client     *firestore.Client
	collection string
}

// Option configures a Storage.
type Option func(*Storage)

// WithCollection sets the collection. Defaults to DefaultCollection.
func WithCollection(collection string) Option {
	return func(s *Storage) {
		s.collection = collection
	}
}

// New creates a Storage over client.
func New(client *firestore.Client, opts ...Option) *Storage {
	s := &Storage{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads key. A missing document is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := extractValue(snap)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set writes key, replacing the whole document.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.Collection(s.collection).Doc(key).Set(ctx, map[string]interface{}{
		dataField: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Remove deletes key. Deleting a missing document is not an error.
func (s *Storage) Remove(ctx context.Context, key string) error {
	_, err := s.client.Collection(s.collection).Doc(key).Delete(ctx)
	return err
}

// Watcher returns a Watcher over the collection.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{client: s.client, collection: s.collection}
}

// Watcher reports storefront keys changed in the collection.
type Watcher struct {
	client     *firestore.Client
	collection string
}

// Watch listens to the collection and returns a channel that emits the key
// of every added, modified or removed document. The initial snapshot, which
// lists every existing document, is skipped.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	snapshots := w.client.Collection(w.collection).Snapshots(ctx)

	// The first snapshot confirms the listener is live.
	if _, err := snapshots.Next(); err != nil {
		snapshots.Stop()
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	out := make(chan string)

	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				continue
			}

			for _, change := range snap.Changes {
				select {
				case out <- change.Doc.Ref.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func extractValue(snap *firestore.DocumentSnapshot) ([]byte, error) {
	v, err := snap.DataAt(dataField)
	if err != nil {
		return nil, err
	}
	switch value := v.(type) {
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	default:
		return nil, errors.New("document field " + dataField + " is not bytes")
	}
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
