package storefront

import (
	"errors"
	"testing"
	"time"
)

func TestFailureLog_Disabled(t *testing.T) {
	l := newFailureLog(0)
	if l != nil {
		t.Fatal("expected nil log for limit 0")
	}

	l.record(Failure{Err: errors.New("lost")})
	l.reset()
	if l.list() != nil {
		t.Error("expected nothing retained")
	}
}

func TestFailureLog_KeepsNewest(t *testing.T) {
	l := newFailureLog(2)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for gen := uint64(1); gen <= 3; gen++ {
		l.record(Failure{Err: errors.New("refused"), Generation: gen, At: at})
	}

	got := l.list()
	if len(got) != 2 || got[0].Generation != 2 || got[1].Generation != 3 {
		t.Errorf("expected generations [2 3], got %+v", got)
	}

	got[0].Generation = 99
	if l.list()[0].Generation != 2 {
		t.Error("expected list to return a copy")
	}
}

func TestFailureLog_Reset(t *testing.T) {
	l := newFailureLog(3)
	l.record(Failure{Generation: 1})
	l.reset()
	if l.list() != nil {
		t.Error("expected empty log after reset")
	}

	l.record(Failure{Generation: 2})
	if got := l.list(); len(got) != 1 || got[0].Generation != 2 {
		t.Errorf("expected [2] after reuse, got %+v", got)
	}
}
