package storefront

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Default simulated network behaviour.
const (
	DefaultMinDelay    = 200 * time.Millisecond
	DefaultMaxDelay    = 1500 * time.Millisecond
	DefaultFailureRate = 0.05
)

// Fetcher simulates the network boundary between a store and its backend:
// a random delay on every call and, with probability FailureRate, a
// simulated failure. It is the injection point for resilience testing and is
// safe to reconfigure while in use.
type Fetcher struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	clock       clockz.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFetcher creates a Fetcher with the default delay range and failure rate.
func NewFetcher() *Fetcher {
	return &Fetcher{
		minDelay:    DefaultMinDelay,
		maxDelay:    DefaultMaxDelay,
		failureRate: DefaultFailureRate,
		clock:       clockz.RealClock,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NoFaults returns a Fetcher that neither delays nor fails.
func NoFaults() *Fetcher {
	return NewFetcher().Delay(0, 0).FailureRate(0)
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Delay sets the random delay range. A max below min is raised to min.
func (f *Fetcher) Delay(minDelay, maxDelay time.Duration) *Fetcher {
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	f.mu.Lock()
	f.minDelay = minDelay
	f.maxDelay = maxDelay
	f.mu.Unlock()
	return f
}

// FailureRate sets the probability in [0, 1] that a call fails.
func (f *Fetcher) FailureRate(p float64) *Fetcher {
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	f.mu.Lock()
	f.failureRate = p
	f.mu.Unlock()
	return f
}

// Clock sets the clock used for delays.
// Use this with clockz.FakeClock for deterministic tests.
func (f *Fetcher) Clock(clock clockz.Clock) *Fetcher {
	f.clock = clock
	return f
}

// Seed makes the delay and failure sequence deterministic.
func (f *Fetcher) Seed(seed uint64) *Fetcher {
	f.mu.Lock()
	f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	f.mu.Unlock()
	return f
}

// -----------------------------------------------------------------------------
// Simulation
// -----------------------------------------------------------------------------

// Sudden fails with ErrSimulatedFailure at the configured rate. The label
// names the call site in the returned error.
func (f *Fetcher) Sudden(_ context.Context, label string) error {
	f.mu.Lock()
	rate := f.failureRate
	roll := f.rng.Float64()
	f.mu.Unlock()
	if roll < rate {
		return &Error{Kind: KindFetch, Op: label, Err: ErrSimulatedFailure}
	}
	return nil
}

// Wait blocks for a random delay in the configured range or until ctx is done.
func (f *Fetcher) Wait(ctx context.Context) error {
	d := f.nextDelay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := f.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Wrap(KindFetch, "wait", ctx.Err())
	case <-timer.C():
		return nil
	}
}

func (f *Fetcher) nextDelay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	spread := f.maxDelay - f.minDelay
	if spread <= 0 {
		return f.minDelay
	}
	return f.minDelay + time.Duration(f.rng.Int64N(int64(spread)+1))
}

// Fetch delivers v after a random delay, failing at the fetcher's rate.
func Fetch[T any](ctx context.Context, f *Fetcher, v T) (T, error) {
	if err := f.Sudden(ctx, "fetch"); err != nil {
		var zero T
		return zero, err
	}
	if err := f.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
