package storefront

import "context"

// Watcher reports storage keys changed outside this process, so stores can
// refresh when another writer touches their data.
type Watcher interface {
	// Watch begins observing the backend and returns a channel that emits
	// the key of every change. The channel is closed when the context is
	// canceled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan string, error)
}

// Follow refreshes a target every time w reports one of its keys. It blocks
// until ctx is done or the watch channel closes.
func Follow(ctx context.Context, w Watcher, targets map[string]func(context.Context)) error {
	keys, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if refresh, ok := targets[key]; ok {
				refresh(ctx)
			}
		}
	}
}
