package storefront

// Lambda is a value supplied either directly or by a zero-argument producer.
// Producers are invoked on every Resolve so callers always see the live
// state of whatever the producer closes over.
type Lambda[T any] struct {
	value    T
	producer func() T
}

// Value wraps a plain value.
func Value[T any](v T) Lambda[T] {
	return Lambda[T]{value: v}
}

// Producer wraps a function evaluated on every Resolve. A nil fn behaves
// like Value of the zero T.
func Producer[T any](fn func() T) Lambda[T] {
	return Lambda[T]{producer: fn}
}

// Resolve returns the plain value or the producer's current result.
func (l Lambda[T]) Resolve() T {
	if l.producer != nil {
		return l.producer()
	}
	return l.value
}

// IsLambda reports whether l was built from a producer.
func (l Lambda[T]) IsLambda() bool {
	return l.producer != nil
}

// Resolve returns l's plain value or its producer's current result.
func Resolve[T any](l Lambda[T]) T {
	return l.Resolve()
}

// IsLambda reports whether l was built from a producer.
func IsLambda[T any](l Lambda[T]) bool {
	return l.IsLambda()
}
