package storefront

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for reporting.
type ErrorKind int

const (
	// KindUnknown is used for errors that carry no classification.
	KindUnknown ErrorKind = iota

	// KindStorage marks an I/O failure reading or writing the key-value store.
	KindStorage

	// KindFetch marks a failed network call or an injected simulated failure.
	KindFetch

	// KindAuthMissing marks an operation that needs an authenticated user
	// when none is present.
	KindAuthMissing

	// KindLoadData is the tag used for background load and sync failures
	// that carry no finer classification.
	KindLoadData
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindFetch:
		return "fetch"
	case KindAuthMissing:
		return "auth_missing"
	case KindLoadData:
		return "load_data"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthMissing is returned when an operation requires an authenticated
	// user and the auth user key is absent.
	ErrAuthMissing = errors.New("no authenticated user")

	// ErrSimulatedFailure is the error raised by failure injection.
	ErrSimulatedFailure = errors.New("simulated failure")
)

// Error is a classified failure raised by a store operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err under kind and op. It returns nil when err is nil and
// leaves err untouched when it is already classified.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}
