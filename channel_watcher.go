package storefront

import "context"

// ChannelWatcher wraps an existing key channel as a Watcher.
// Useful for testing and for writers in the same process.
type ChannelWatcher struct {
	ch   <-chan string
	sync bool
}

// NewChannelWatcher creates a ChannelWatcher that forwards keys from the
// given channel through an internal goroutine.
func NewChannelWatcher(ch <-chan string) *ChannelWatcher {
	return &ChannelWatcher{ch: ch}
}

// NewSyncChannelWatcher creates a ChannelWatcher that returns the source
// channel directly without an intermediate goroutine.
func NewSyncChannelWatcher(ch <-chan string) *ChannelWatcher {
	return &ChannelWatcher{ch: ch, sync: true}
}

// Watch returns a channel that emits keys from the wrapped channel.
func (w *ChannelWatcher) Watch(ctx context.Context) (<-chan string, error) {
	if w.sync {
		return w.ch, nil
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-w.ch:
				if !ok {
					return
				}
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var _ Watcher = (*ChannelWatcher)(nil)
