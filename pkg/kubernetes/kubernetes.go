// Package kubernetes provides a storefront.Storage backed by the data of a
// single ConfigMap or Secret, and a Watcher using the Watch API.
package kubernetes

import (
	"bytes"
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/util/retry"

	"github.com/zoobzio/storefront"
)

// ResourceType specifies the type of Kubernetes resource holding the data.
type ResourceType int

const (
	// ConfigMap stores keys in a ConfigMap's data.
	ConfigMap ResourceType = iota
	// Secret stores keys in a Secret's data.
	Secret
)

// Storage stores every key as one data entry of a named resource. The
// resource is created on first write.
type Storage struct {
	client       kubernetes.Interface
	namespace    string
	name         string
	resourceType ResourceType
}

// Option configures a Storage.
type Option func(*Storage)

// WithResourceType sets the resource type.
// Defaults to ConfigMap.
func WithResourceType(rt ResourceType) Option {
	return func(s *Storage) {
		s.resourceType = rt
	}
}

// New creates a Storage over the resource namespace/name.
func New(client kubernetes.Interface, namespace, name string, opts ...Option) *Storage {
	s := &Storage{
		client:       client,
		namespace:    namespace,
		name:         name,
		resourceType: ConfigMap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads key. A missing resource or entry is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, _, err := s.read(ctx)
	if apierrors.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set writes key, retrying on update conflicts.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	return retry.RetryOnConflict(retry.DefaultRetry, func() error {
		return s.update(ctx, func(data map[string][]byte) {
			data[key] = value
		})
	})
}

// Remove deletes key. Removing from a missing resource is not an error.
func (s *Storage) Remove(ctx context.Context, key string) error {
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		return s.update(ctx, func(data map[string][]byte) {
			delete(data, key)
		})
	})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// Watcher returns a Watcher over the resource.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{storage: s}
}

// read returns the resource data and version.
func (s *Storage) read(ctx context.Context) (map[string][]byte, string, error) {
	if s.resourceType == ConfigMap {
		cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
		if err != nil {
			return nil, "", err
		}
		return configMapData(cm), cm.ResourceVersion, nil
	}

	secret, err := s.client.CoreV1().Secrets(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if err != nil {
		return nil, "", err
	}
	return secret.Data, secret.ResourceVersion, nil
}

// update applies fn to the resource data, creating the resource when it
// does not exist yet.
func (s *Storage) update(ctx context.Context, fn func(map[string][]byte)) error {
	meta := metav1.ObjectMeta{Name: s.name, Namespace: s.namespace}

	if s.resourceType == ConfigMap {
		configMaps := s.client.CoreV1().ConfigMaps(s.namespace)
		cm, err := configMaps.Get(ctx, s.name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			data := map[string][]byte{}
			fn(data)
			_, err = configMaps.Create(ctx, &corev1.ConfigMap{ObjectMeta: meta, Data: toStrings(data)}, metav1.CreateOptions{})
			return err
		}
		if err != nil {
			return err
		}
		data := configMapData(cm)
		fn(data)
		cm.Data = toStrings(data)
		_, err = configMaps.Update(ctx, cm, metav1.UpdateOptions{})
		return err
	}

	secrets := s.client.CoreV1().Secrets(s.namespace)
	secret, err := secrets.Get(ctx, s.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		data := map[string][]byte{}
		fn(data)
		_, err = secrets.Create(ctx, &corev1.Secret{ObjectMeta: meta, Data: data}, metav1.CreateOptions{})
		return err
	}
	if err != nil {
		return err
	}
	if secret.Data == nil {
		secret.Data = map[string][]byte{}
	}
	fn(secret.Data)
	_, err = secrets.Update(ctx, secret, metav1.UpdateOptions{})
	return err
}

// Watcher reports storefront keys changed in the resource.
type Watcher struct {
	storage *Storage
}

// Watch begins watching the resource and returns a channel that emits every
// data key whose value was added, changed or removed. The watch is re-opened
// when the server closes it.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	seen, version, err := w.storage.read(ctx)
	if err != nil && !apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}

	watcher, err := w.open(ctx, version)
	if err != nil {
		return nil, err
	}

	out := make(chan string)

	go func() {
		defer close(out)

		for {
			seen = w.watchLoop(ctx, watcher, seen, out)
			if ctx.Err() != nil {
				return
			}
			// Reconnect and report whatever changed while disconnected.
			current, version, err := w.storage.read(ctx)
			if err != nil && !apierrors.IsNotFound(err) {
				continue
			}
			if !w.emit(ctx, out, changed(seen, current)) {
				return
			}
			seen = current
			if watcher, err = w.open(ctx, version); err != nil {
				return
			}
		}
	}()

	return out, nil
}

func (w *Watcher) open(ctx context.Context, version string) (watch.Interface, error) {
	s := w.storage
	opts := metav1.ListOptions{
		FieldSelector:   fmt.Sprintf("metadata.name=%s", s.name),
		ResourceVersion: version,
	}

	var (
		watcher watch.Interface
		err     error
	)
	if s.resourceType == ConfigMap {
		watcher, err = s.client.CoreV1().ConfigMaps(s.namespace).Watch(ctx, opts)
	} else {
		watcher, err = s.client.CoreV1().Secrets(s.namespace).Watch(ctx, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start watch: %w", err)
	}
	return watcher, nil
}

// watchLoop forwards changes until the watch ends and returns the last data
// it observed.
func (w *Watcher) watchLoop(ctx context.Context, watcher watch.Interface, seen map[string][]byte, out chan<- string) map[string][]byte {
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return seen
		case event, ok := <-watcher.ResultChan():
			if !ok || event.Type == watch.Error {
				return seen
			}

			current, name := w.extractData(event.Object)
			if name != w.storage.name {
				continue
			}
			if event.Type == watch.Deleted {
				current = nil
			}
			if !w.emit(ctx, out, changed(seen, current)) {
				return seen
			}
			seen = current
		}
	}
}

func (w *Watcher) emit(ctx context.Context, out chan<- string, keys []string) bool {
	for _, key := range keys {
		select {
		case out <- key:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (w *Watcher) extractData(obj interface{}) (map[string][]byte, string) {
	if w.storage.resourceType == ConfigMap {
		if cm, ok := obj.(*corev1.ConfigMap); ok {
			return configMapData(cm), cm.Name
		}
	} else {
		if secret, ok := obj.(*corev1.Secret); ok {
			return secret.Data, secret.Name
		}
	}
	return nil, ""
}

// changed returns keys whose values differ between two snapshots.
func changed(before, after map[string][]byte) []string {
	var keys []string
	for key, v := range after {
		if old, ok := before[key]; !ok || !bytes.Equal(old, v) {
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

func configMapData(cm *corev1.ConfigMap) map[string][]byte {
	data := make(map[string][]byte, len(cm.Data)+len(cm.BinaryData))
	for k, v := range cm.Data {
		data[k] = []byte(v)
	}
	for k, v := range cm.BinaryData {
		data[k] = v
	}
	return data
}

func toStrings(data map[string][]byte) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = string(v)
	}
	return out
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
