/*
Package storefront provides observable async data holders and the refresh
protocol shared by the storefront's data stores.

# Holder

A Holder tracks the lifecycle of one asynchronous fetch:

	Empty --SetLoading--> Loading --SetData--> Filled
	                      Loading --SetError--> Error
	Filled --SetLoading--> Loading   (re-fetch)
	Error  --SetLoading--> Loading   (retry)

There is no terminal state. A failed fetch keeps the data of the last
successful one, so IsFilled (ever received data) and IsError (latest attempt
failed) can both be true and a UI can show stale data under an error banner.

Observers register with Subscribe and receive a Snapshot after every
transition. Every transition also emits a capitan signal:

	capitan.Hook(storefront.HolderStateChanged, func(_ context.Context, e *capitan.Event) {
	    name, _ := storefront.KeyHolder.From(e)
	    from, _ := storefront.KeyOldState.From(e)
	    to, _ := storefront.KeyNewState.From(e)
	    log.Printf("%s: %s -> %s", name, from, to)
	})

# Lambda and DataModel

A Lambda is either a plain value or a producer resolved on every read.
DataModel wraps a Lambda so domain models can expose live holder data:

	model := storefront.NewDataModel(storefront.Producer(func() *User {
	    return users.Value()
	}))

# Store

Store composes a Holder with a Loader (persistent storage read), a Fetcher
(simulated network with random latency and failure injection) and a Reporter:

	users := storefront.NewStore("users", loadAuthUser, storefront.NewFetcher(), reporter,
	    storefront.WithRetry[*User](3),
	)
	users.Refresh(ctx)

Refresh sets Loading before any I/O and always resolves to Filled or Error.
Failures are reported with alerts suppressed and never returned to the caller.
When refreshes overlap, the latest started one wins; results from superseded
refreshes are dropped.

# Storage

Storage is a key-value collaborator with absent-key semantics. MemoryStorage
ships here; pkg/ provides file, SQLite, Redis, PostgreSQL, etcd, Consul,
NATS, ZooKeeper, Firestore and Kubernetes backends. Backends shared between
processes also provide a Watcher, and Follow refreshes the store owning each
key another writer changed.
*/
package storefront
