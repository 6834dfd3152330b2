package storefront

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Payload is the value delivered by a successful fetch.
type Payload[T any] struct {
	Data   T
	Status Status
}

// Snapshot is a consistent view of a Holder delivered to subscribers.
type Snapshot[T any] struct {
	State   State
	Payload Payload[T]
	Filled  bool
	Err     error
}

// Holder tracks the lifecycle of one asynchronous data source: empty,
// loading, filled or failed.
//
// A failed fetch never discards data from an earlier successful one, so
// readers can show stale data alongside an error. IsFilled reports whether
// data was ever received; IsError reports whether the latest attempt failed.
//
// Transitions are safe for concurrent use. Subscribers are notified
// synchronously after each transition and must not call back into
// the Holder's setters.
type Holder[T any] struct {
	name    string
	clock   clockz.Clock
	metrics MetricsProvider

	state     atomic.Int32
	current   atomic.Pointer[Payload[T]]
	lastError atomic.Pointer[error]
	failures  *failureLog

	mu          sync.Mutex
	generation  uint64
	begunAt     time.Time
	subscribers map[uint64]func(Snapshot[T])
	nextSub     uint64

	// pending snapshots are delivered in transition order by one
	// goroutine at a time.
	pending    []Snapshot[T]
	delivering bool
}

// NewHolder creates an empty Holder. The name identifies the holder in
// signals and metrics.
func NewHolder[T any](name string) *Holder[T] {
	h := &Holder[T]{
		name:        name,
		clock:       clockz.RealClock,
		subscribers: make(map[uint64]func(Snapshot[T])),
	}
	h.state.Store(int32(StateEmpty))
	return h
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets a custom clock for refresh timing.
// Use this with clockz.FakeClock for deterministic tests.
func (h *Holder[T]) Clock(clock clockz.Clock) *Holder[T] {
	h.clock = clock
	return h
}

// Metrics sets a metrics provider for observability integration.
func (h *Holder[T]) Metrics(provider MetricsProvider) *Holder[T] {
	h.metrics = provider
	return h
}

// ErrorHistorySize sets the number of failures retained between successful
// fetches. Use 0 (default) to only retain the most recent error via
// LastError().
func (h *Holder[T]) ErrorHistorySize(n int) *Holder[T] {
	h.failures = newFailureLog(n)
	return h
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

// Name returns the holder name.
func (h *Holder[T]) Name() string {
	return h.name
}

// State returns the current state.
func (h *Holder[T]) State() State {
	return State(h.state.Load())
}

// IsLoading reports whether a fetch is in flight.
func (h *Holder[T]) IsLoading() bool {
	return h.State() == StateLoading
}

// IsError reports whether the most recent fetch failed.
func (h *Holder[T]) IsError() bool {
	return h.State() == StateError
}

// IsFilled reports whether the holder ever received data.
func (h *Holder[T]) IsFilled() bool {
	return h.current.Load() != nil
}

// Data returns the last successfully delivered payload and true, or the zero
// payload and false if no data was ever delivered.
func (h *Holder[T]) Data() (Payload[T], bool) {
	ptr := h.current.Load()
	if ptr == nil {
		return Payload[T]{}, false
	}
	return *ptr, true
}

// LastError returns the error of the most recent failed fetch, or nil once a
// later fetch succeeds or starts.
func (h *Holder[T]) LastError() error {
	ptr := h.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the failures since the last successful fetch, oldest
// first. Returns nil if history is not enabled (see ErrorHistorySize).
func (h *Holder[T]) ErrorHistory() []Failure {
	return h.failures.list()
}

// Generation returns the generation of the most recently started fetch.
func (h *Holder[T]) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generation
}

// Snapshot returns a consistent view of the holder.
func (h *Holder[T]) Snapshot() Snapshot[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Subscribe registers fn to be called after every transition. Snapshots
// reach subscribers in transition order, so the last one delivered always
// matches the holder. A transition made while another goroutine is
// delivering is handed to that goroutine. The returned function removes the
// subscription.
func (h *Holder[T]) Subscribe(fn func(Snapshot[T])) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subscribers[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
		})
	}
}

// Close drops every subscriber. The holder stays usable.
func (h *Holder[T]) Close() {
	h.mu.Lock()
	clear(h.subscribers)
	h.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Transitions
// -----------------------------------------------------------------------------

// SetLoading transitions to Loading from any state and clears the last error.
func (h *Holder[T]) SetLoading(ctx context.Context) {
	h.Begin(ctx)
}

// SetData transitions to Filled with payload, replacing any held value.
func (h *Holder[T]) SetData(ctx context.Context, payload Payload[T]) {
	h.mu.Lock()
	h.applyDataLocked(ctx, payload)
}

// SetError transitions to Error. Data from an earlier fill is kept.
func (h *Holder[T]) SetError(ctx context.Context, err error) {
	h.mu.Lock()
	h.applyErrorLocked(ctx, err)
}

// Begin transitions to Loading and returns the generation of the new fetch.
// Pass the generation to Resolve or Reject when the fetch completes; results
// from older generations are discarded so the latest started fetch wins.
func (h *Holder[T]) Begin(ctx context.Context) uint64 {
	h.mu.Lock()
	h.generation++
	gen := h.generation
	h.begunAt = h.clock.Now()
	h.lastError.Store(nil)
	h.commitUnlock(ctx, h.transitionLocked(StateLoading))
	return gen
}

// Resolve fills the holder if gen is still the latest generation. It reports
// whether the payload was applied.
func (h *Holder[T]) Resolve(ctx context.Context, gen uint64, payload Payload[T]) bool {
	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		h.dropStale(ctx, gen)
		return false
	}
	elapsed := h.clock.Since(h.begunAt)
	h.applyDataLocked(ctx, payload)
	if h.metrics != nil {
		h.metrics.OnRefreshSuccess(h.name, elapsed)
	}
	return true
}

// Reject records err if gen is still the latest generation. It reports
// whether the error was applied.
func (h *Holder[T]) Reject(ctx context.Context, gen uint64, err error) bool {
	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		h.dropStale(ctx, gen)
		return false
	}
	elapsed := h.clock.Since(h.begunAt)
	h.applyErrorLocked(ctx, err)
	if h.metrics != nil {
		h.metrics.OnRefreshFailure(h.name, KindOf(err), elapsed)
	}
	return true
}

// transition records a state change made under mu so its events can be
// emitted after mu is released.
type transition struct {
	from, to State
	err      error
	failed   bool
}

// applyDataLocked stores payload and commits the transition. Must be called
// with mu held; releases it.
func (h *Holder[T]) applyDataLocked(ctx context.Context, payload Payload[T]) {
	p := payload
	h.current.Store(&p)
	h.lastError.Store(nil)
	h.failures.reset()
	h.commitUnlock(ctx, h.transitionLocked(StateFilled))
}

// applyErrorLocked stores err and commits the transition. Must be called with
// mu held; releases it.
func (h *Holder[T]) applyErrorLocked(ctx context.Context, err error) {
	e := err
	h.lastError.Store(&e)
	h.failures.record(Failure{Err: err, Generation: h.generation, At: h.clock.Now()})
	tr := h.transitionLocked(StateError)
	tr.err = err
	tr.failed = true
	h.commitUnlock(ctx, tr)
}

func (h *Holder[T]) transitionLocked(to State) transition {
	from := State(h.state.Swap(int32(to)))
	return transition{from: from, to: to}
}

// commitUnlock queues a snapshot, releases mu, emits the transition events
// and delivers queued snapshots unless another goroutine already is.
func (h *Holder[T]) commitUnlock(ctx context.Context, tr transition) {
	h.pending = append(h.pending, h.snapshotLocked())
	deliver := !h.delivering
	h.delivering = true
	h.mu.Unlock()

	if tr.from != tr.to {
		capitan.Emit(ctx, HolderStateChanged,
			KeyHolder.Field(h.name),
			KeyOldState.Field(tr.from.String()),
			KeyNewState.Field(tr.to.String()),
		)
		if h.metrics != nil {
			h.metrics.OnStateChange(h.name, tr.from, tr.to)
		}
	}
	if tr.failed {
		msg := ""
		if tr.err != nil {
			msg = tr.err.Error()
		}
		capitan.Emit(ctx, HolderFailed,
			KeyHolder.Field(h.name),
			KeyKind.Field(KindOf(tr.err).String()),
			KeyError.Field(msg),
		)
	}

	if deliver {
		h.deliver()
	}
}

// deliver calls the subscribers with every queued snapshot, oldest first,
// until the queue is empty.
func (h *Holder[T]) deliver() {
	for {
		h.mu.Lock()
		if len(h.pending) == 0 {
			h.pending = nil
			h.delivering = false
			h.mu.Unlock()
			return
		}
		snap := h.pending[0]
		h.pending[0] = Snapshot[T]{}
		h.pending = h.pending[1:]
		subs := make([]func(Snapshot[T]), 0, len(h.subscribers))
		for _, fn := range h.subscribers {
			subs = append(subs, fn)
		}
		h.mu.Unlock()

		for _, fn := range subs {
			fn(snap)
		}
	}
}

func (h *Holder[T]) dropStale(ctx context.Context, gen uint64) {
	capitan.Emit(ctx, HolderStaleDropped,
		KeyHolder.Field(h.name),
		KeyGeneration.Field(int(gen)),
	)
	if h.metrics != nil {
		h.metrics.OnStaleDropped(h.name)
	}
}

func (h *Holder[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{
		State: State(h.state.Load()),
		Err:   h.LastError(),
	}
	if ptr := h.current.Load(); ptr != nil {
		snap.Payload = *ptr
		snap.Filled = true
	}
	return snap
}
