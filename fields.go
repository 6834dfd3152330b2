package storefront

import "github.com/zoobzio/capitan"

// Field keys for holder and store events.
var (
	// KeyHolder is the name of the Holder or store emitting the event.
	KeyHolder = capitan.NewStringKey("holder")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyKind is the ErrorKind of a reported error.
	KeyKind = capitan.NewStringKey("kind")

	// KeyOp is the store operation that produced the event.
	KeyOp = capitan.NewStringKey("op")

	// KeyTitle is the title of a user-facing alert.
	KeyTitle = capitan.NewStringKey("title")

	// KeyGeneration is the refresh generation a result belonged to.
	KeyGeneration = capitan.NewIntKey("generation")

	// KeyDuration is the time a refresh took.
	KeyDuration = capitan.NewDurationKey("duration")
)
