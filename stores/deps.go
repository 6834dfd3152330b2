package stores

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"

	"github.com/zoobzio/storefront"
)

// Deps are the collaborators shared by every domain store. Zero fields fall
// back to in-memory storage, JSON encoding, a default Fetcher, no alerts and
// the real clock.
type Deps struct {
	Storage  storefront.Storage
	Codec    storefront.Codec
	Fetcher  *storefront.Fetcher
	Reporter storefront.Reporter
	Alerter  storefront.Alerter
	Metrics  storefront.MetricsProvider
	Clock    clockz.Clock

	// Retries, Timeout and RateLimit wrap every store's fetch when set.
	// RateLimit is in fetches per second.
	Retries   int
	Timeout   time.Duration
	RateLimit float64
}

func (d Deps) withDefaults() Deps {
	if d.Storage == nil {
		d.Storage = storefront.NewMemoryStorage()
	}
	if d.Codec == nil {
		d.Codec = storefront.JSONCodec{}
	}
	if d.Fetcher == nil {
		d.Fetcher = storefront.NewFetcher()
	}
	if d.Alerter == nil {
		d.Alerter = storefront.NopAlerter
	}
	if d.Clock == nil {
		d.Clock = clockz.RealClock
	}
	if d.Reporter == nil {
		d.Reporter = storefront.NewAlertingReporter(d.Alerter)
	}
	return d
}

// failureHistory is how many failed refreshes each store retains.
const failureHistory = 5

func newStore[T any](name string, d Deps, load storefront.Loader[T]) *storefront.Store[T] {
	var opts []storefront.Option[T]
	if d.Retries > 0 {
		opts = append(opts,
			storefront.WithErrorHandler[T](attemptFailed[T](name)),
			storefront.WithRetry[T](d.Retries+1),
		)
	}
	if d.Timeout > 0 {
		opts = append(opts, storefront.WithTimeout[T](d.Timeout))
	}
	if d.RateLimit > 0 {
		opts = append(opts, storefront.WithRateLimit[T](d.RateLimit, 1))
	}
	s := storefront.NewStore(name, load, d.Fetcher, d.Reporter, opts...).
		Clock(d.Clock).
		ErrorHistorySize(failureHistory)
	if d.Metrics != nil {
		s.Metrics(d.Metrics)
	}
	return s
}

func attemptFailed[T any](name string) pipz.Chainable[*pipz.Error[T]] {
	return pipz.Effect("attempt-failed", func(ctx context.Context, e *pipz.Error[T]) error {
		capitan.Emit(ctx, storefront.StoreFetchAttemptFailed,
			storefront.KeyHolder.Field(name),
			storefront.KeyError.Field(e.Err.Error()),
		)
		return nil
	})
}

// loadOr reads key and falls back to the zero T when it is absent.
func loadOr[T any](d Deps, key string) storefront.Loader[T] {
	return func(ctx context.Context) (T, error) {
		v, _, err := storefront.Load[T](ctx, d.Storage, d.Codec, key)
		return v, err
	}
}
