package thunk

import (
	"sync/atomic"
	"time"
)

// AtomicThunk is the concurrent lazy cell. Any number of goroutines may
// call Force on shared access; the computation still runs exactly once and
// every caller observes the identical cached value.
//
// Protocol (double-checked lazy initialization):
//
//  1. Fast path: an acquire-load of the state tag. Forced means the value
//     was published by a release-store, so it can be read without locking.
//  2. Slow path: compare-and-swap Deferred -> Forcing. Exactly one
//     goroutine wins, takes the computation, runs it outside any lock,
//     stores the result and publishes the terminal tag, then closes done.
//  3. Losers block on done and re-read the now-terminal tag. Publishing
//     happens-before the close, so waiters never observe a half-built
//     value.
type AtomicThunk[T any] struct {
	st   atomic.Uint32
	done chan struct{} // closed once the state tag is terminal
	fn   func() (T, error)
	val  T
	err  error
	met  Metrics
}

// NewAtomic constructs a deferred concurrent cell from a zero-argument
// computation. Panics if fn is nil.
func NewAtomic[T any](fn func() (T, error)) *AtomicThunk[T] {
	return NewAtomicWith(fn, Options{})
}

// NewAtomicWith is NewAtomic with explicit Options.
func NewAtomicWith[T any](fn func() (T, error), opt Options) *AtomicThunk[T] {
	if fn == nil {
		panic("thunk: nil computation")
	}
	return &AtomicThunk[T]{done: make(chan struct{}), fn: fn, met: opt.metrics()}
}

// ComputedAtomic constructs a concurrent cell that is already forced.
func ComputedAtomic[T any](v T) *AtomicThunk[T] {
	done := make(chan struct{})
	close(done)
	t := &AtomicThunk[T]{done: done, val: v, met: NoopMetrics{}}
	t.st.Store(stateForced)
	return t
}

// Force returns the cached value, evaluating the computation on the first
// call across all goroutines. Losing goroutines block until the winner has
// published; they are woken by poison as well, so Force never hangs on a
// failed computation.
//
// Failure semantics match Thunk.Force: errors are memoized, a panic poisons
// the cell (original panic on the winner's stack, *PoisonError for everyone
// else).
func (t *AtomicThunk[T]) Force() (T, error) {
	if t.st.Load() == stateForced {
		t.met.Hit()
		return t.val, nil
	}
	return t.forceSlow()
}

func (t *AtomicThunk[T]) forceSlow() (T, error) {
	for {
		switch st := t.st.Load(); st {
		case stateDeferred:
			if t.st.CompareAndSwap(stateDeferred, stateForcing) {
				return t.run()
			}
			// Lost the claim; re-read the tag.
		case stateForcing:
			start := time.Now()
			<-t.done
			t.met.Waited(time.Since(start))
			// The tag is terminal now; the loop reads it.
		case stateForced:
			return t.val, nil
		case stateFailed, statePoisoned:
			var zero T
			return zero, t.err
		default:
			panic("thunk: use after Unwrap")
		}
	}
}

// run executes the computation as the winning goroutine. The value and
// error fields are written before the terminal tag is stored, and the tag
// is stored before done is closed; both orderings are what waiters rely on.
func (t *AtomicThunk[T]) run() (T, error) {
	fn := t.fn
	t.fn = nil
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			t.err = &PoisonError{Cause: r}
			t.st.Store(statePoisoned)
			close(t.done)
			t.met.Poisoned()
			panic(r)
		}
	}()

	v, err := fn()
	if err != nil {
		t.err = err
		t.st.Store(stateFailed)
		close(t.done)
		t.met.Failed()
		var zero T
		return zero, err
	}
	t.val = v
	t.st.Store(stateForced)
	close(t.done)
	t.met.Forced(time.Since(start))
	return v, nil
}

// ForceMut forces the cell and returns a pointer to the cached value.
// The caller must have exclusive access to the cell while holding the
// pointer; no other goroutine may Force or read concurrently.
func (t *AtomicThunk[T]) ForceMut() (*T, error) {
	if _, err := t.Force(); err != nil {
		return nil, err
	}
	return &t.val, nil
}

// Peek returns the cached value without forcing and without blocking:
// (value, true) only if the cell is already forced.
func (t *AtomicThunk[T]) Peek() (T, bool) {
	st := t.st.Load()
	if st == stateTaken {
		panic("thunk: use after Unwrap")
	}
	if st == stateForced {
		return t.val, true
	}
	var zero T
	return zero, false
}

// Unwrap forces the cell, consumes it and returns the value. The caller
// must be the cell's sole owner: no other goroutine may touch the cell
// during or after the call. Any later operation panics.
func (t *AtomicThunk[T]) Unwrap() (T, error) {
	v, err := t.Force()
	if err != nil {
		return v, err
	}
	t.st.Store(stateTaken)
	var zero T
	t.val = zero
	return v, nil
}

// Compile-time capability checks.
var (
	_ Forcer[int]    = (*AtomicThunk[int])(nil)
	_ MutForcer[int] = (*AtomicThunk[int])(nil)
	_ Unwrapper[int] = (*AtomicThunk[int])(nil)
)
