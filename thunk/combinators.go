package thunk

// Map builds a deferred cell whose computation forces src and applies fn
// to the result. Nothing runs until the returned cell is forced; src's
// memoization is shared, not duplicated.
func Map[T, U any](src Forcer[T], fn func(T) U) *Thunk[U] {
	return New(func() (U, error) {
		v, err := src.Force()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// FlatMap builds a deferred cell whose computation forces src, derives a
// new Forcer from the result and forces that in turn.
func FlatMap[T, U any](src Forcer[T], fn func(T) Forcer[U]) *Thunk[U] {
	return New(func() (U, error) {
		v, err := src.Force()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v).Force()
	})
}

// MapAtomic is Map producing a concurrent cell. src must itself be safe
// for concurrent forcing (an AtomicThunk, AtomicShared or Strict).
func MapAtomic[T, U any](src Forcer[T], fn func(T) U) *AtomicThunk[U] {
	return NewAtomic(func() (U, error) {
		v, err := src.Force()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// FlatMapAtomic is FlatMap producing a concurrent cell; the same safety
// requirement on src applies.
func FlatMapAtomic[T, U any](src Forcer[T], fn func(T) Forcer[U]) *AtomicThunk[U] {
	return NewAtomic(func() (U, error) {
		v, err := src.Force()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v).Force()
	})
}
