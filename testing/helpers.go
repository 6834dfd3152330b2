// Package testing provides test utilities and helpers for storefront stores.
package testing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/stores"
)

// ErrInjected is returned by FaultyStorage for failing operations.
var ErrInjected = errors.New("injected storage failure")

// StateReader is implemented by every store and holder.
type StateReader interface {
	State() storefront.State
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until s reaches the expected state or timeout occurs.
func WaitForState(t *testing.T, s StateReader, expected storefront.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return s.State() == expected
	})
}

// RequireState fails the test immediately if s is not in the expected state.
func RequireState(t *testing.T, s StateReader, expected storefront.State) {
	t.Helper()
	if got := s.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireData fails the test if the store holds no data or check rejects it.
func RequireData[T any](t *testing.T, s *storefront.Store[T], check func(T) bool) {
	t.Helper()
	v, ok := s.Data()
	if !ok {
		t.Fatal("expected data to be present, got none")
	}
	if !check(v) {
		t.Fatalf("data check failed: %+v", v)
	}
}

// FaultyStorage wraps a Storage and fails selected operations on demand.
type FaultyStorage struct {
	storefront.Storage

	mu         sync.Mutex
	failReads  bool
	failWrites bool
}

// NewFaultyStorage wraps s. A nil s uses a fresh MemoryStorage.
func NewFaultyStorage(s storefront.Storage) *FaultyStorage {
	if s == nil {
		s = storefront.NewMemoryStorage()
	}
	return &FaultyStorage{Storage: s}
}

// FailReads makes Get fail until called again with false.
func (f *FaultyStorage) FailReads(fail bool) {
	f.mu.Lock()
	f.failReads = fail
	f.mu.Unlock()
}

// FailWrites makes Set and Remove fail until called again with false.
func (f *FaultyStorage) FailWrites(fail bool) {
	f.mu.Lock()
	f.failWrites = fail
	f.mu.Unlock()
}

func (f *FaultyStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return nil, false, ErrInjected
	}
	return f.Storage.Get(ctx, key)
}

func (f *FaultyStorage) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *FaultyStorage) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Storage.Remove(ctx, key)
}

// Alert is one alert captured by AlertRecorder.
type Alert struct {
	Title   string
	Message string
}

// AlertRecorder captures alerts.
type AlertRecorder struct {
	mu     sync.Mutex
	alerts []Alert
}

// Alert implements storefront.Alerter.
func (r *AlertRecorder) Alert(_ context.Context, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{Title: title, Message: message})
}

// Alerts returns every captured alert.
func (r *AlertRecorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

// ReportRecorder captures reports.
type ReportRecorder struct {
	mu      sync.Mutex
	reports []storefront.Report
}

// Report implements storefront.Reporter.
func (r *ReportRecorder) Report(_ context.Context, rep storefront.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

// Reports returns every captured report.
func (r *ReportRecorder) Reports() []storefront.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storefront.Report(nil), r.reports...)
}

// Fixture is a registry wired to recorders and fault-free fetching.
type Fixture struct {
	Registry *stores.Registry
	Storage  *FaultyStorage
	Fetcher  *storefront.Fetcher
	Alerts   *AlertRecorder
	Reports  *ReportRecorder
}

// NewFixture builds a Registry over storage (a fresh MemoryStorage when nil)
// with recorders for alerts and reports. The registry is closed on cleanup.
func NewFixture(t *testing.T, storage storefront.Storage) *Fixture {
	t.Helper()
	f := &Fixture{
		Storage: NewFaultyStorage(storage),
		Fetcher: storefront.NoFaults(),
		Alerts:  &AlertRecorder{},
		Reports: &ReportRecorder{},
	}
	f.Registry = stores.New(stores.Deps{
		Storage:  f.Storage,
		Fetcher:  f.Fetcher,
		Reporter: f.Reports,
		Alerter:  f.Alerts,
	})
	t.Cleanup(f.Registry.Close)
	return f
}
