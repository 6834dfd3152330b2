// Package zookeeper provides a storefront.Storage backed by ZooKeeper nodes
// and a Watcher using native watches.
package zookeeper

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/go-zookeeper/zk"

	"github.com/zoobzio/storefront"
)

// DefaultRoot is the parent node of every storefront key.
const DefaultRoot = "/storefront"

// Storage stores each key as a child node of a root node.
type Storage struct {
	conn *zk.Conn
	root string
}

// Option configures a Storage.
type Option func(*Storage)

// WithRoot sets the parent node. Defaults to DefaultRoot.
func WithRoot(root string) Option {
	return func(s *Storage) {
		s.root = root
	}
}

// New creates a Storage over conn.
func New(conn *zk.Conn, opts ...Option) *Storage {
	s := &Storage{
		conn: conn,
		root: DefaultRoot,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.root = "/" + strings.Trim(s.root, "/")
	return s
}

// Get reads key. A missing node is reported as absent.
func (s *Storage) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, _, err := s.conn.Get(s.path(key))
	if errors.Is(err, zk.ErrNoNode) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes key, creating the root and the node on first use.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	p := s.path(key)
	_, err := s.conn.Set(p, value, -1)
	if !errors.Is(err, zk.ErrNoNode) {
		return err
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}
	_, err = s.conn.Create(p, value, 0, zk.WorldACL(zk.PermAll))
	if errors.Is(err, zk.ErrNodeExists) {
		// Lost a race with another writer; overwrite.
		_, err = s.conn.Set(p, value, -1)
	}
	return err
}

// Remove deletes key. Removing a missing node is not an error.
func (s *Storage) Remove(_ context.Context, key string) error {
	err := s.conn.Delete(s.path(key), -1)
	if errors.Is(err, zk.ErrNoNode) {
		return nil
	}
	return err
}

// Watcher returns a Watcher over this storage's keys.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{conn: s.conn, root: s.root}
}

func (s *Storage) path(key string) string {
	return path.Join(s.root, key)
}

func (s *Storage) ensureRoot() error {
	_, err := s.conn.Create(s.root, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return err
	}
	return nil
}

// Watcher reports storefront keys changed under the root node.
type Watcher struct {
	conn *zk.Conn
	root string
}

// Watch sets a children watch on the root and a data watch on every child,
// and returns a channel that emits the key of every created, changed or
// deleted node. ZooKeeper watches fire once, so each is re-armed after it
// fires.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	// Create the root so a children watch can be set before any write.
	if _, err := w.conn.Create(w.root, nil, 0, zk.WorldACL(zk.PermAll)); err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return nil, err
	}

	children, _, childCh, err := w.conn.ChildrenW(w.root)
	if err != nil {
		return nil, err
	}

	events := make(chan zk.Event)
	known := make(map[string]bool, len(children))
	for _, child := range children {
		known[child] = true
		w.watchData(ctx, child, events)
	}

	out := make(chan string)

	go func() {
		defer close(out)

		emit := func(key string) bool {
			select {
			case out <- key:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case ev := <-childCh:
				if ev.Err != nil && ctx.Err() != nil {
					return
				}
				children, _, next, err := w.conn.ChildrenW(w.root)
				if err != nil {
					return
				}
				childCh = next
				current := make(map[string]bool, len(children))
				for _, child := range children {
					current[child] = true
					if !known[child] {
						w.watchData(ctx, child, events)
						if !emit(child) {
							return
						}
					}
				}
				known = current

			case ev := <-events:
				key := strings.TrimPrefix(ev.Path, w.root+"/")
				switch ev.Type {
				case zk.EventNodeDataChanged:
					w.watchData(ctx, key, events)
				case zk.EventNodeDeleted:
					delete(known, key)
				default:
					continue
				}
				if !emit(key) {
					return
				}
			}
		}
	}()

	return out, nil
}

// watchData arms a one-shot data watch on key and forwards its event.
func (w *Watcher) watchData(ctx context.Context, key string, events chan<- zk.Event) {
	_, _, ch, err := w.conn.GetW(path.Join(w.root, key))
	if err != nil {
		return
	}
	go func() {
		select {
		case ev := <-ch:
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
	}()
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
