package storefront

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key holder events.
type MetricsProvider interface {
	// OnStateChange is called when a holder transitions between states.
	OnStateChange(holder string, from, to State)

	// OnRefreshSuccess is called when a refresh delivers data.
	// Duration is measured from the start of the refresh.
	OnRefreshSuccess(holder string, duration time.Duration)

	// OnRefreshFailure is called when a refresh fails.
	OnRefreshFailure(holder string, kind ErrorKind, duration time.Duration)

	// OnStaleDropped is called when a superseded refresh result is discarded.
	OnStaleDropped(holder string)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_ string, _, _ State)                      {}
func (NoOpMetricsProvider) OnRefreshSuccess(_ string, _ time.Duration)              {}
func (NoOpMetricsProvider) OnRefreshFailure(_ string, _ ErrorKind, _ time.Duration) {}
func (NoOpMetricsProvider) OnStaleDropped(_ string)                                 {}
