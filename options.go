package storefront

import (
	"time"

	"github.com/zoobzio/pipz"
)

// Option configures the fetch pipeline of a Store. Pipeline options wrap the
// simulated fetch with middleware for retry, timeout and similar patterns.
//
// Instance configuration (clock, metrics, codec) is handled via chainable
// methods on the Store.
type Option[T any] func(pipz.Chainable[T]) pipz.Chainable[T]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline[T any](terminal pipz.Chainable[T], opts []Option[T]) pipz.Chainable[T] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithRetry retries a failed fetch immediately up to maxAttempts times.
// For exponential backoff between retries, use WithBackoff instead.
func WithRetry[T any](maxAttempts int) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff retries a failed fetch with increasing delays: baseDelay,
// 2*baseDelay, 4*baseDelay, etc.
func WithBackoff[T any](maxAttempts int, baseDelay time.Duration) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout fails a fetch that takes longer than d.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithCircuitBreaker stops calling the backend after failures consecutive
// failures until recovery has passed.
func WithCircuitBreaker[T any](failures int, recovery time.Duration) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithFallback tries each fallback in order when the fetch fails. A fallback
// receives the value the Loader read.
func WithFallback[T any](fallbacks ...pipz.Chainable[T]) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		all := append([]pipz.Chainable[T]{p}, fallbacks...)
		return pipz.NewFallback("fallback", all...)
	}
}

// WithErrorHandler passes fetch failures to handler. The error still
// propagates to the holder.
func WithErrorHandler[T any](handler pipz.Chainable[*pipz.Error[T]]) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewHandle("error-handler", p, handler)
	}
}

// WithRateLimit limits fetches to rps per second with the given burst.
// Callers wait for a token.
func WithRateLimit[T any](rps float64, burst int) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		limiter := pipz.NewRateLimiter[T]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", limiter, p)
	}
}

// WithMiddleware runs processors in order before the fetch.
func WithMiddleware[T any](processors ...pipz.Chainable[T]) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		all := make([]pipz.Chainable[T], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}
