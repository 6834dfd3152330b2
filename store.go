package storefront

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Loader reads a store's data from persistent storage.
type Loader[T any] func(ctx context.Context) (T, error)

// Store composes a Holder with the refresh protocol shared by every domain
// store:
//
//	Begin (Loading) → Loader → fetch pipeline → Resolve (Filled)
//	                        ↘ any failure → Reject (Error) + Report
//
// Refresh and Mutate never return errors. Failures land in the holder and
// are routed to the Reporter with alerts suppressed, so callers can fire and
// forget. Concurrent refreshes are resolved by generation: the latest
// started refresh wins.
type Store[T any] struct {
	name     string
	holder   *Holder[T]
	load     Loader[T]
	fetcher  *Fetcher
	pipeline pipz.Chainable[T]
	reporter Reporter

	mu sync.Mutex
}

// NewStore creates a Store. A nil fetcher uses NewFetcher(); a nil reporter
// only emits ErrorReported.
//
// Pipeline options (With*) wrap the simulated fetch:
//
//	users := storefront.NewStore("users", loadUsers, fetcher, reporter,
//	    storefront.WithRetry[[]User](3),
//	    storefront.WithTimeout[[]User](5*time.Second),
//	)
func NewStore[T any](name string, load Loader[T], fetcher *Fetcher, reporter Reporter, opts ...Option[T]) *Store[T] {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	if reporter == nil {
		reporter = ReporterFunc(EmitReport)
	}
	terminal := pipz.Apply("fetch", func(ctx context.Context, v T) (T, error) {
		return Fetch(ctx, fetcher, v)
	})
	return &Store[T]{
		name:     name,
		holder:   NewHolder[T](name),
		load:     load,
		fetcher:  fetcher,
		pipeline: buildPipeline[T](terminal, opts),
		reporter: reporter,
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Clock sets the clock used for refresh timing.
func (s *Store[T]) Clock(clock clockz.Clock) *Store[T] {
	s.holder.Clock(clock)
	return s
}

// Metrics sets a metrics provider on the underlying holder.
func (s *Store[T]) Metrics(provider MetricsProvider) *Store[T] {
	s.holder.Metrics(provider)
	return s
}

// ErrorHistorySize sets the number of recent refresh errors to retain.
func (s *Store[T]) ErrorHistorySize(n int) *Store[T] {
	s.holder.ErrorHistorySize(n)
	return s
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

// Name returns the store name.
func (s *Store[T]) Name() string {
	return s.name
}

// Holder returns the underlying holder.
func (s *Store[T]) Holder() *Holder[T] {
	return s.holder
}

// Fetcher returns the simulated network boundary used by Refresh.
func (s *Store[T]) Fetcher() *Fetcher {
	return s.fetcher
}

// State returns the holder state.
func (s *Store[T]) State() State {
	return s.holder.State()
}

// IsLoading reports whether a refresh is in flight.
func (s *Store[T]) IsLoading() bool {
	return s.holder.IsLoading()
}

// IsError reports whether the most recent refresh failed.
func (s *Store[T]) IsError() bool {
	return s.holder.IsError()
}

// Failures returns the failed refreshes since the last successful one,
// oldest first. Empty unless ErrorHistorySize was set.
func (s *Store[T]) Failures() []Failure {
	return s.holder.ErrorHistory()
}

// IsEmpty reports whether the store was never filled.
func (s *Store[T]) IsEmpty() bool {
	return !s.holder.IsFilled()
}

// Data returns the last refreshed data and whether there is any.
func (s *Store[T]) Data() (T, bool) {
	p, ok := s.holder.Data()
	return p.Data, ok
}

// Value returns the last refreshed data or the zero T.
func (s *Store[T]) Value() T {
	v, _ := s.Data()
	return v
}

// Subscribe registers fn to be called after every holder transition.
func (s *Store[T]) Subscribe(fn func(Snapshot[T])) func() {
	return s.holder.Subscribe(fn)
}

// Close drops every subscriber.
func (s *Store[T]) Close() {
	s.holder.Close()
}

// -----------------------------------------------------------------------------
// Protocol
// -----------------------------------------------------------------------------

// Refresh reloads the store. The holder is Loading before Refresh performs
// any I/O and ends Filled or Error.
func (s *Store[T]) Refresh(ctx context.Context) {
	start := s.holder.clock.Now()
	gen := s.holder.Begin(ctx)
	capitan.Emit(ctx, StoreRefreshStarted,
		KeyHolder.Field(s.name),
	)

	data, err := s.fetch(ctx)
	if err != nil {
		// A failure superseded by a newer refresh is only signalled as stale.
		if !s.holder.Reject(ctx, gen, err) {
			return
		}
		s.reporter.Report(ctx, Report{
			Kind:          kindOr(err, KindLoadData),
			Err:           err,
			WithoutAlerts: true,
		})
		return
	}

	if s.holder.Resolve(ctx, gen, Payload[T]{Data: data, Status: StatusSuccess}) {
		capitan.Emit(ctx, StoreRefreshSucceeded,
			KeyHolder.Field(s.name),
			KeyDuration.Field(s.holder.clock.Since(start)),
		)
	}
}

// Mutate runs fn exclusively with other mutations of this store. On success
// the store is refreshed; on failure the error is reported without alerts
// and the holder moves to Error, keeping its data. It reports whether fn
// succeeded.
func (s *Store[T]) Mutate(ctx context.Context, op string, fn func(ctx context.Context) error) bool {
	if err := s.Exclusive(ctx, fn); err != nil {
		capitan.Emit(ctx, StoreMutationFailed,
			KeyHolder.Field(s.name),
			KeyOp.Field(op),
			KeyError.Field(err.Error()),
		)
		s.reporter.Report(ctx, Report{
			Kind:          kindOr(err, KindLoadData),
			Err:           err,
			WithoutAlerts: true,
		})
		s.holder.SetError(ctx, err)
		return false
	}
	s.Refresh(ctx)
	return true
}

// Exclusive runs fn exclusively with other mutations of this store and
// returns its error unreported. Use it for foreground operations that handle
// their own failures.
func (s *Store[T]) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

func (s *Store[T]) fetch(ctx context.Context) (T, error) {
	var zero T
	v, err := s.load(ctx)
	if err != nil {
		return zero, Wrap(KindStorage, s.name+" load", err)
	}
	out, err := s.pipeline.Process(ctx, v)
	if err != nil {
		return zero, Wrap(KindFetch, s.name+" fetch", err)
	}
	return out, nil
}

func kindOr(err error, fallback ErrorKind) ErrorKind {
	if k := KindOf(err); k != KindUnknown {
		return k
	}
	return fallback
}
