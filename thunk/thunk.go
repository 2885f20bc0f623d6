package thunk

import "time"

// Cell state tags. A cell only ever moves forward through these and the
// terminal tags (forced, failed, poisoned, taken) are never left again.
const (
	stateDeferred uint32 = iota // computation stored, not yet invoked
	stateForcing                // computation running right now
	stateForced                 // value cached; terminal
	stateFailed                 // computation returned an error; terminal
	statePoisoned               // computation panicked; terminal
	stateTaken                  // consumed by Unwrap; terminal
)

// Thunk is a single-goroutine lazy cell: it holds a deferred computation
// until the first Force, then caches the result for the cell's lifetime.
//
// A Thunk carries no synchronization. It must be owned by one goroutine at
// a time; use AtomicThunk when multiple goroutines may force concurrently.
type Thunk[T any] struct {
	st  uint32
	fn  func() (T, error)
	val T
	err error
	met Metrics
}

// New constructs a deferred cell from a zero-argument computation.
// The computation is invoked at most once, on the first Force.
// Panics if fn is nil.
func New[T any](fn func() (T, error)) *Thunk[T] {
	return NewWith(fn, Options{})
}

// NewWith is New with explicit Options.
func NewWith[T any](fn func() (T, error), opt Options) *Thunk[T] {
	if fn == nil {
		panic("thunk: nil computation")
	}
	return &Thunk[T]{st: stateDeferred, fn: fn, met: opt.metrics()}
}

// Computed constructs a cell that is already forced. Forcing it is a no-op
// returning v; no computation is ever invoked.
func Computed[T any](v T) *Thunk[T] {
	return &Thunk[T]{st: stateForced, val: v, met: NoopMetrics{}}
}

// Force returns the cached value, running the computation on first call.
//
// Failures are memoized: once the computation has returned an error, every
// later Force returns that same error and the computation is never
// re-invoked. If the computation panicked, the panic propagated to the
// caller that forced; later calls return a *PoisonError.
//
// Panics if the computation re-enters Force on its own cell, or if the
// cell was consumed by Unwrap.
func (t *Thunk[T]) Force() (T, error) {
	switch t.st {
	case stateForced:
		t.met.Hit()
		return t.val, nil
	case stateDeferred:
		return t.run()
	case stateFailed, statePoisoned:
		var zero T
		return zero, t.err
	case stateForcing:
		panic("thunk: Force re-entered while the computation is running")
	default:
		panic("thunk: use after Unwrap")
	}
}

// run invokes and discards the stored computation, then records the
// terminal state. Only reachable from stateDeferred.
func (t *Thunk[T]) run() (T, error) {
	fn := t.fn
	t.fn = nil
	t.st = stateForcing
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			t.err = &PoisonError{Cause: r}
			t.st = statePoisoned
			t.met.Poisoned()
			panic(r)
		}
	}()

	v, err := fn()
	if err != nil {
		t.err = err
		t.st = stateFailed
		t.met.Failed()
		var zero T
		return zero, err
	}
	t.val = v
	t.st = stateForced
	t.met.Forced(time.Since(start))
	return v, nil
}

// ForceMut forces the cell and returns a pointer to the cached value, so
// the caller can mutate the cache in place. The pointer stays valid until
// the cell is consumed by Unwrap.
func (t *Thunk[T]) ForceMut() (*T, error) {
	if _, err := t.Force(); err != nil {
		return nil, err
	}
	return &t.val, nil
}

// Peek returns the cached value without forcing: (value, true) if the cell
// is already forced, (zero, false) otherwise. It never invokes the
// computation.
func (t *Thunk[T]) Peek() (T, bool) {
	if t.st == stateTaken {
		panic("thunk: use after Unwrap")
	}
	if t.st == stateForced {
		return t.val, true
	}
	var zero T
	return zero, false
}

// Unwrap forces the cell, consumes it and returns the value by itself.
// After a successful Unwrap any operation on the cell panics. A forced
// failure is returned as from Force and leaves the cell in its terminal
// failed state (re-reading the failure stays valid).
func (t *Thunk[T]) Unwrap() (T, error) {
	v, err := t.Force()
	if err != nil {
		return v, err
	}
	var zero T
	t.val = zero
	t.st = stateTaken
	return v, nil
}

// Compile-time capability checks.
var (
	_ Forcer[int]    = (*Thunk[int])(nil)
	_ MutForcer[int] = (*Thunk[int])(nil)
	_ Unwrapper[int] = (*Thunk[int])(nil)
)
