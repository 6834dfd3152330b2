// Package file provides a directory-backed storefront.Storage, one file per
// key, and a Watcher that reports keys edited on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/zoobzio/storefront"
)

// DefaultExt is the file extension used for stored values.
const DefaultExt = ".json"

// Storage keeps each key in its own file under a directory. Writes go
// through a temporary file and a rename so readers never see partial values.
type Storage struct {
	dir string
	ext string
}

// Option configures a Storage.
type Option func(*Storage)

// WithExt sets the file extension, e.g. ".yaml" alongside storefront.YAMLCodec.
func WithExt(ext string) Option {
	return func(s *Storage) {
		s.ext = ext
	}
}

// New creates a Storage rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Storage, error) {
	s := &Storage{dir: dir, ext: DefaultExt}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Get reads the file for key.
func (s *Storage) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the file for key.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// Remove deletes the file for key. Removing an absent key is not an error.
func (s *Storage) Remove(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Watcher returns a Watcher over the storage directory.
func (s *Storage) Watcher() *Watcher {
	return NewWatcher(s.dir, s.ext)
}

func (s *Storage) path(key string) string {
	return filepath.Join(s.dir, key+s.ext)
}

// Watcher reports keys whose files are created, written or removed.
type Watcher struct {
	dir string
	ext string
}

// NewWatcher creates a Watcher for files with extension ext under dir.
func NewWatcher(dir, ext string) *Watcher {
	return &Watcher{dir: dir, ext: ext}
}

// Watch begins watching the directory and returns a channel that emits the
// key of every changed file. Temporary files written by Storage are skipped.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch dir %s: %w", w.dir, err)
	}

	out := make(chan string)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
					continue
				}
				key, ok := w.key(event.Name)
				if !ok {
					continue
				}
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

func (w *Watcher) key(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, w.ext) {
		return "", false
	}
	return strings.TrimSuffix(name, w.ext), true
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
