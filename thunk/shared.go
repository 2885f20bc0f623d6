package thunk

import "sync/atomic"

// Shared is a reference-counted handle over a single Thunk cell. Clones
// are cheap and share the underlying cell's identity: forcing through any
// clone makes the cached result visible through every other clone.
//
// Like Thunk itself, Shared handles are restricted to one goroutine; use
// AtomicShared to share a cell across goroutines.
type Shared[T any] struct {
	cell *Thunk[T]
	refs *int
}

// Share constructs a deferred cell and the first handle to it.
func Share[T any](fn func() (T, error)) *Shared[T] {
	refs := 1
	return &Shared[T]{cell: New(fn), refs: &refs}
}

// ShareComputed constructs an already-forced cell and the first handle.
func ShareComputed[T any](v T) *Shared[T] {
	refs := 1
	return &Shared[T]{cell: Computed(v), refs: &refs}
}

// Clone returns a new handle to the same underlying cell and increments
// the reference count.
func (s *Shared[T]) Clone() *Shared[T] {
	*s.refs++
	return &Shared[T]{cell: s.cell, refs: s.refs}
}

// Release drops this handle's reference. The cell itself is reclaimed by
// the garbage collector once unreachable; Release only maintains the count
// that gates the sole-owner operations below. A handle must not be used
// after Release.
func (s *Shared[T]) Release() {
	*s.refs--
}

// Refs returns the current number of live handles.
func (s *Shared[T]) Refs() int {
	return *s.refs
}

// Force delegates to the shared cell.
func (s *Shared[T]) Force() (T, error) {
	return s.cell.Force()
}

// Peek delegates to the shared cell without forcing.
func (s *Shared[T]) Peek() (T, bool) {
	return s.cell.Peek()
}

// GetMut forces the cell and returns a mutable view, but only if this
// handle is the sole owner; otherwise it returns ErrShared. A clone could
// otherwise observe the mutation through what it believes is an immutable
// cached value.
func (s *Shared[T]) GetMut() (*T, error) {
	if *s.refs != 1 {
		return nil, ErrShared
	}
	return s.cell.ForceMut()
}

// TryUnwrap forces and consumes the underlying cell, returning the value,
// but only if this handle is the sole owner; otherwise it returns
// ErrShared and the handle stays usable. Once the count is claimed the
// handle is spent, whether or not the forced computation succeeded.
func (s *Shared[T]) TryUnwrap() (T, error) {
	if *s.refs != 1 {
		var zero T
		return zero, ErrShared
	}
	*s.refs = 0
	return s.cell.Unwrap()
}

// AtomicShared is the cross-goroutine counterpart of Shared: a
// reference-counted handle over a single AtomicThunk cell. Clones may be
// handed to other goroutines and forced concurrently.
type AtomicShared[T any] struct {
	cell *AtomicThunk[T]
	refs *atomic.Int64
}

// ShareAtomic constructs a deferred concurrent cell and the first handle.
func ShareAtomic[T any](fn func() (T, error)) *AtomicShared[T] {
	refs := new(atomic.Int64)
	refs.Store(1)
	return &AtomicShared[T]{cell: NewAtomic(fn), refs: refs}
}

// ShareAtomicComputed constructs an already-forced concurrent cell and the
// first handle.
func ShareAtomicComputed[T any](v T) *AtomicShared[T] {
	refs := new(atomic.Int64)
	refs.Store(1)
	return &AtomicShared[T]{cell: ComputedAtomic(v), refs: refs}
}

// Clone returns a new handle to the same underlying cell and increments
// the reference count.
func (s *AtomicShared[T]) Clone() *AtomicShared[T] {
	s.refs.Add(1)
	return &AtomicShared[T]{cell: s.cell, refs: s.refs}
}

// Release drops this handle's reference. See Shared.Release.
func (s *AtomicShared[T]) Release() {
	s.refs.Add(-1)
}

// Refs returns the current number of live handles.
func (s *AtomicShared[T]) Refs() int {
	return int(s.refs.Load())
}

// Force delegates to the shared cell; safe for concurrent use.
func (s *AtomicShared[T]) Force() (T, error) {
	return s.cell.Force()
}

// Peek delegates to the shared cell without forcing or blocking.
func (s *AtomicShared[T]) Peek() (T, bool) {
	return s.cell.Peek()
}

// GetMut forces the cell and returns a mutable view if this handle is the
// sole owner, otherwise ErrShared. The caller must not Clone the handle
// while holding the pointer.
func (s *AtomicShared[T]) GetMut() (*T, error) {
	if s.refs.Load() != 1 {
		return nil, ErrShared
	}
	return s.cell.ForceMut()
}

// TryUnwrap forces and consumes the underlying cell if this handle is the
// sole owner (the reference count is claimed with a compare-and-swap, so
// two racing TryUnwrap calls cannot both succeed). Returns ErrShared when
// other handles are still alive.
func (s *AtomicShared[T]) TryUnwrap() (T, error) {
	if !s.refs.CompareAndSwap(1, 0) {
		var zero T
		return zero, ErrShared
	}
	return s.cell.Unwrap()
}

// Compile-time capability checks: shared handles expose the read-only
// force, never the consuming one.
var (
	_ Forcer[int] = (*Shared[int])(nil)
	_ Forcer[int] = (*AtomicShared[int])(nil)
)
