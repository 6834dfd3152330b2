package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

type reportLog struct {
	mu      sync.Mutex
	reports []Report
}

func (r *reportLog) Report(_ context.Context, rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *reportLog) all() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}

// flakyTerminal fails the first failures calls and passes values through after.
func flakyTerminal(attempts *int, failures int) pipz.Chainable[int] {
	return pipz.Apply("flaky", func(_ context.Context, v int) (int, error) {
		*attempts++
		if *attempts <= failures {
			return 0, ErrSimulatedFailure
		}
		return v, nil
	})
}

func TestStore_RefreshFills(t *testing.T) {
	ctx := context.Background()
	reports := &reportLog{}
	s := NewStore("nums", func(context.Context) (int, error) { return 5, nil }, NoFaults(), reports)

	if !s.IsEmpty() {
		t.Error("expected empty before refresh")
	}

	s.Refresh(ctx)

	if s.IsLoading() || s.IsError() || s.IsEmpty() {
		t.Errorf("unexpected flags loading=%v error=%v empty=%v", s.IsLoading(), s.IsError(), s.IsEmpty())
	}
	if s.Value() != 5 {
		t.Errorf("expected 5, got %d", s.Value())
	}
	p, _ := s.Holder().Data()
	if p.Status != StatusSuccess {
		t.Errorf("expected success status, got %s", p.Status)
	}
	if len(reports.all()) != 0 {
		t.Errorf("expected no reports, got %v", reports.all())
	}
}

func TestStore_LoadingBeforeIO(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})

	s := NewStore("slow", func(context.Context) (string, error) {
		close(entered)
		<-release
		return "done", nil
	}, NoFaults(), nil)

	done := make(chan struct{})
	go func() {
		s.Refresh(ctx)
		close(done)
	}()

	<-entered
	if !s.IsLoading() {
		t.Error("expected loading while the loader blocks")
	}
	close(release)
	<-done

	if s.Value() != "done" {
		t.Errorf("expected 'done', got %q", s.Value())
	}
}

func TestStore_LoaderFailureReported(t *testing.T) {
	ctx := context.Background()
	reports := &reportLog{}
	s := NewStore("broken", func(context.Context) (int, error) {
		return 0, errors.New("disk")
	}, NoFaults(), reports)

	s.Refresh(ctx)

	if !s.IsError() {
		t.Fatal("expected error state")
	}
	got := reports.all()
	if len(got) != 1 {
		t.Fatalf("expected one report, got %d", len(got))
	}
	if got[0].Kind != KindStorage {
		t.Errorf("expected storage kind, got %s", got[0].Kind)
	}
	if !got[0].WithoutAlerts {
		t.Error("expected background refresh failure to suppress alerts")
	}
}

func TestStore_FetchFailureKeepsStaleData(t *testing.T) {
	ctx := context.Background()
	reports := &reportLog{}
	fetcher := NoFaults()
	s := NewStore("flaky", func(context.Context) (int, error) { return 1, nil }, fetcher, reports)

	s.Refresh(ctx)
	fetcher.FailureRate(1)
	s.Refresh(ctx)

	if !s.IsError() {
		t.Fatal("expected error state after failed fetch")
	}
	if s.IsEmpty() {
		t.Error("expected store to remain filled")
	}
	if s.Value() != 1 {
		t.Errorf("expected stale value 1, got %d", s.Value())
	}
	got := reports.all()
	if len(got) != 1 || got[0].Kind != KindFetch {
		t.Errorf("expected one fetch report, got %v", got)
	}

	fetcher.FailureRate(0)
	s.Refresh(ctx)
	if s.IsError() {
		t.Error("expected retry to recover")
	}
}

func TestStore_WithRetryRecovers(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	s := NewStore("retry", func(context.Context) (int, error) { return 3, nil }, NoFaults(), nil)
	s.pipeline = buildPipeline(flakyTerminal(&attempts, 2), []Option[int]{WithRetry[int](3)})

	s.Refresh(ctx)

	if s.IsError() {
		t.Fatalf("expected retry to recover, last error %v", s.Holder().LastError())
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestStore_WithTimeout(t *testing.T) {
	ctx := context.Background()
	fetcher := NoFaults().Delay(time.Second, time.Second)
	s := NewStore("timeout", func(context.Context) (int, error) { return 1, nil }, fetcher, nil,
		WithTimeout[int](10*time.Millisecond),
	)

	s.Refresh(ctx)

	if !s.IsError() {
		t.Fatal("expected timeout to fail the refresh")
	}
	if KindOf(s.Holder().LastError()) != KindFetch {
		t.Errorf("expected fetch kind, got %v", s.Holder().LastError())
	}
}

func TestStore_MutateRefreshes(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	load := func(ctx context.Context) (int, error) {
		v, _, err := Load[int](ctx, storage, JSONCodec{}, "n")
		return v, err
	}
	s := NewStore("mutate", load, NoFaults(), nil)

	ok := s.Mutate(ctx, "set", func(ctx context.Context) error {
		return Save(ctx, storage, JSONCodec{}, "n", 9)
	})

	if !ok {
		t.Fatal("expected mutation to succeed")
	}
	if s.Value() != 9 {
		t.Errorf("expected refreshed value 9, got %d", s.Value())
	}
}

func TestStore_MutateFailureReported(t *testing.T) {
	ctx := context.Background()
	reports := &reportLog{}
	refreshed := false
	s := NewStore("mutate", func(context.Context) (int, error) {
		refreshed = true
		return 0, nil
	}, NoFaults(), reports)

	ok := s.Mutate(ctx, "set", func(context.Context) error {
		return errors.New("write failed")
	})

	if ok {
		t.Fatal("expected mutation to fail")
	}
	if refreshed {
		t.Error("expected no refresh after a failed mutation")
	}
	got := reports.all()
	if len(got) != 1 || got[0].Kind != KindLoadData || !got[0].WithoutAlerts {
		t.Errorf("expected one silent load_data report, got %v", got)
	}
	if s.State() != StateError {
		t.Errorf("expected error state, got %s", s.State())
	}
}

func TestStore_MutateFailureKeepsData(t *testing.T) {
	ctx := context.Background()
	s := NewStore("mutate", func(context.Context) (int, error) { return 7, nil }, NoFaults(), &reportLog{})
	s.Refresh(ctx)

	writeErr := errors.New("write failed")
	s.Mutate(ctx, "set", func(context.Context) error { return writeErr })

	if !s.IsError() {
		t.Fatalf("expected error state, got %s", s.State())
	}
	if s.Value() != 7 {
		t.Errorf("expected previous data kept, got %d", s.Value())
	}
	if !errors.Is(s.Holder().LastError(), writeErr) {
		t.Errorf("expected last error recorded, got %v", s.Holder().LastError())
	}

	s.Refresh(ctx)
	if s.State() != StateFilled {
		t.Errorf("expected retry to recover, got %s", s.State())
	}
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := NewStore("sub", func(context.Context) (int, error) { return 1, nil }, NoFaults(), nil)

	var states []State
	unsubscribe := s.Subscribe(func(snap Snapshot[int]) {
		states = append(states, snap.State)
	})
	defer unsubscribe()

	s.Refresh(ctx)

	if len(states) != 2 || states[0] != StateLoading || states[1] != StateFilled {
		t.Errorf("expected [loading filled], got %v", states)
	}

	s.Close()
	s.Refresh(ctx)
	if len(states) != 2 {
		t.Errorf("expected no notifications after Close, got %v", states)
	}
}

func TestStore_LatestRefreshWins(t *testing.T) {
	ctx := context.Background()
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	s := NewStore("race", func(context.Context) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstEntered)
			<-releaseFirst
			return "stale", nil
		}
		return "fresh", nil
	}, NoFaults(), nil)

	done := make(chan struct{})
	go func() {
		s.Refresh(ctx)
		close(done)
	}()

	<-firstEntered
	s.Refresh(ctx)
	close(releaseFirst)
	<-done

	if s.Value() != "fresh" {
		t.Errorf("expected latest refresh to win, got %q", s.Value())
	}
}

func TestStore_SupersededFailureNotReported(t *testing.T) {
	ctx := context.Background()
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	reports := &reportLog{}

	s := NewStore("race", func(context.Context) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstEntered)
			<-releaseFirst
			return "", errors.New("disk unplugged")
		}
		return "fresh", nil
	}, NoFaults(), reports)

	done := make(chan struct{})
	go func() {
		s.Refresh(ctx)
		close(done)
	}()

	<-firstEntered
	s.Refresh(ctx)
	close(releaseFirst)
	<-done

	if s.State() != StateFilled || s.Value() != "fresh" {
		t.Errorf("expected the newer refresh to stand, got %s %q", s.State(), s.Value())
	}
	if got := reports.all(); len(got) != 0 {
		t.Errorf("expected no report for a superseded failure, got %+v", got)
	}
}
