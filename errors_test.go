package storefront

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorKind_String(t *testing.T) {
	cases := map[ErrorKind]string{
		KindUnknown:     "unknown",
		KindStorage:     "storage",
		KindFetch:       "fetch",
		KindAuthMissing: "auth_missing",
		KindLoadData:    "load_data",
		ErrorKind(77):   "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("kind %d: expected %q, got %q", kind, want, got)
		}
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(KindStorage, "get", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestWrap_ClassifiesAndUnwraps(t *testing.T) {
	base := errors.New("disk full")
	err := Wrap(KindStorage, "set", base)

	if KindOf(err) != KindStorage {
		t.Errorf("expected storage kind, got %s", KindOf(err))
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match base")
	}
	if !strings.Contains(err.Error(), "set") || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrap_KeepsExistingKind(t *testing.T) {
	inner := Wrap(KindAuthMissing, "logout", ErrAuthMissing)
	outer := Wrap(KindLoadData, "mutate", inner)

	if KindOf(outer) != KindAuthMissing {
		t.Errorf("expected auth_missing, got %s", KindOf(outer))
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected unknown kind for plain error")
	}
}

func TestError_NoOp(t *testing.T) {
	err := &Error{Kind: KindFetch, Err: ErrSimulatedFailure}
	if err.Error() != "fetch: simulated failure" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
