package thunk

// Forcer is the shared-view capability: Force ensures the computation has
// run and returns the cached result. After the first successful call it is
// idempotent and side-effect-free; every caller observes the same value.
//
// Implemented by every cell and handle type in this package.
type Forcer[T any] interface {
	// Force returns the cached value, running the deferred computation if
	// it has not run yet. A memoized failure is returned on every call
	// without re-invoking the computation.
	Force() (T, error)
}

// MutForcer is the exclusive-view capability: ForceMut yields a pointer to
// the cached value so the caller may mutate the cache in place after it has
// been computed.
//
// The caller must have exclusive access to the cell for the lifetime of the
// returned pointer; this is a contract, not something the type system can
// check for the concurrent cell.
type MutForcer[T any] interface {
	Forcer[T]

	// ForceMut forces the cell and returns a pointer to the cached value.
	// The pointer stays valid as long as the cell is alive and not consumed.
	ForceMut() (*T, error)
}

// Unwrapper is the consuming capability: Unwrap forces the cell and moves
// the cached value out. The cell must not be used afterwards; any later
// operation on it panics.
//
// Shared handles do not implement Unwrapper — they offer the checked
// TryUnwrap instead, which refuses unless the handle is the sole owner.
type Unwrapper[T any] interface {
	MutForcer[T]

	// Unwrap forces the cell, consumes it and returns the value.
	Unwrap() (T, error)
}
