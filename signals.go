package storefront

import "github.com/zoobzio/capitan"

// Holder lifecycle signals.
var (
	// HolderStateChanged is emitted when a Holder transitions between states.
	HolderStateChanged = capitan.NewSignal(
		"storefront.holder.state.changed",
		"Holder state transition",
	)

	// HolderFailed is emitted when a Holder records a failed fetch.
	HolderFailed = capitan.NewSignal(
		"storefront.holder.failed",
		"Holder fetch failed",
	)

	// HolderStaleDropped is emitted when a completion from a superseded
	// refresh is discarded.
	HolderStaleDropped = capitan.NewSignal(
		"storefront.holder.stale.dropped",
		"Superseded refresh result dropped",
	)
)

// Store refresh signals.
var (
	// StoreRefreshStarted is emitted when a store begins a refresh.
	StoreRefreshStarted = capitan.NewSignal(
		"storefront.store.refresh.started",
		"Store refresh started",
	)

	// StoreRefreshSucceeded is emitted when a store refresh delivers data.
	StoreRefreshSucceeded = capitan.NewSignal(
		"storefront.store.refresh.succeeded",
		"Store refresh succeeded",
	)

	// StoreFetchAttemptFailed is emitted for every failed fetch attempt of a
	// store with retries, including attempts a later retry recovered from.
	StoreFetchAttemptFailed = capitan.NewSignal(
		"storefront.store.fetch.attempt.failed",
		"Store fetch attempt failed",
	)

	// StoreMutationFailed is emitted when a store write operation fails.
	StoreMutationFailed = capitan.NewSignal(
		"storefront.store.mutation.failed",
		"Store mutation failed",
	)
)

// Error reporting signals.
var (
	// ErrorReported is emitted for every error handed to a Reporter.
	ErrorReported = capitan.NewSignal(
		"storefront.error.reported",
		"Error reported",
	)

	// AlertRaised is emitted when a user-facing alert is shown.
	AlertRaised = capitan.NewSignal(
		"storefront.alert.raised",
		"User-facing alert raised",
	)
)
