package core

// Optional holds a value that may be unset. The zero Optional is unset.
//
// Effect option structs use Optional fields so that a partial update only
// touches the fields the caller actually provided.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it is set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Or returns the value if set, otherwise def.
func (o Optional[T]) Or(def T) T {
	if o.set {
		return o.value
	}

	return def
}
