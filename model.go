package storefront

// DataModel exposes a Lambda source as read-only data. Data is resolved on
// every read; domain models embed *DataModel and build their derived
// accessors on top of it.
type DataModel[T any] struct {
	source Lambda[T]
}

// NewDataModel creates a model over source.
func NewDataModel[T any](source Lambda[T]) *DataModel[T] {
	return &DataModel[T]{source: source}
}

// Data returns the resolved source.
func (m *DataModel[T]) Data() T {
	return m.source.Resolve()
}

// HasLambda reports whether the source is a producer. It is diagnostic only.
func (m *DataModel[T]) HasLambda() bool {
	return m.source.IsLambda()
}
