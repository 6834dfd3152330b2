package storefront

// State represents the current state of a Holder.
type State int32

const (
	// StateEmpty indicates the Holder was created and no fetch has started.
	StateEmpty State = iota

	// StateLoading indicates a fetch is in flight. Data from an earlier
	// successful fetch, if any, remains readable.
	StateLoading

	// StateFilled indicates the most recent fetch delivered data.
	StateFilled

	// StateError indicates the most recent fetch failed. Data from an earlier
	// successful fetch, if any, remains readable.
	StateError
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateFilled:
		return "filled"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is the outcome tag carried alongside fetched data.
type Status int

const (
	// StatusSuccess marks data delivered by a completed fetch.
	StatusSuccess Status = iota

	// StatusFailure marks data delivered together with a failed upstream call.
	StatusFailure
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}
