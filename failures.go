package storefront

import (
	"sync"
	"time"
)

// Failure is one failed refresh retained by a Holder.
type Failure struct {
	Err        error
	Generation uint64
	At         time.Time
}

// failureLog keeps the most recent failures since the last successful
// refresh, oldest first. A nil log retains nothing.
type failureLog struct {
	mu    sync.Mutex
	items []Failure
	limit int
}

func newFailureLog(limit int) *failureLog {
	if limit <= 0 {
		return nil
	}
	return &failureLog{limit: limit}
}

func (l *failureLog) record(f Failure) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == l.limit {
		copy(l.items, l.items[1:])
		l.items = l.items[:l.limit-1]
	}
	l.items = append(l.items, f)
}

func (l *failureLog) reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

func (l *failureLog) list() []Failure {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		return nil
	}
	return append([]Failure(nil), l.items...)
}
