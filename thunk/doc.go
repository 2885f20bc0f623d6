// Package thunk provides generic primitives for lazy evaluation: cells that
// defer a zero-argument computation until first demanded, then cache the
// result for every later access. An eager (strict) cell and reference-counted
// sharing handles round out the set so algorithms can be written generically
// over strictness and ownership.
//
// Design
//
//   - Cells: Thunk is the single-goroutine cell (no synchronization; the
//     single-owner discipline alone prevents concurrent forcing). AtomicThunk
//     is the concurrent cell: any number of goroutines may race to Force it
//     and the computation still runs exactly once. Strict wraps an
//     already-computed value and forces in constant time.
//
//   - State machine: a cell moves Deferred -> (Forcing) -> Forced at most
//     once and never back. Once Forced, the cached value is immutable for the
//     cell's remaining lifetime and the computation has been discarded.
//
//   - Concurrency protocol: AtomicThunk.Force double-checks an atomic state
//     tag. The fast path is a single acquire-load; losers of the
//     Deferred -> Forcing compare-and-swap block on a channel that the winner
//     closes after publishing the result with a release-store. Observing the
//     terminal tag therefore also observes a fully-initialized value.
//
//   - Failures: computations have the shape func() (T, error). A returned
//     error is memoized — the cell becomes Failed and every later Force
//     returns the same error without re-invoking the computation. A panic
//     poisons the cell: the forcing goroutine sees the original panic on its
//     own stack, while waiting and future forcers receive a *PoisonError.
//     Both states are terminal; nothing retries, nothing hangs.
//
//   - Sharing: Shared and AtomicShared are cheap reference-counted handles
//     over a single underlying cell. Forcing through any clone makes the
//     cached result visible through every clone. Consuming operations
//     (TryUnwrap, GetMut) are gated on sole ownership.
//
//   - Capability interfaces: Forcer (shared view), MutForcer (mutable view,
//     exclusive access required) and Unwrapper (consuming force) let callers
//     accept "any lazily-or-strictly-produced T" without caring which cell
//     type backs it.
//
//   - Metrics: Options.Metrics receives Hit/Forced/Waited/Failed/Poisoned
//     signals. NoopMetrics is the default; metrics/prom exports them to
//     Prometheus.
//
// Basic usage
//
//	t := thunk.New(func() (int, error) { return expensive(), nil })
//	v, err := t.Force() // runs expensive() once
//	v, err = t.Force()  // cached, expensive() is not re-invoked
//
// Concurrent forcing
//
//	t := thunk.NewAtomic(func() ([]byte, error) { return loadBlob(ctx) })
//	// Any number of goroutines may call t.Force(); loadBlob runs once and
//	// every caller observes the identical result.
//
// Genericity over strictness
//
//	func sum(xs []thunk.Forcer[int]) (int, error) {
//	    total := 0
//	    for _, x := range xs {
//	        v, err := x.Force()
//	        if err != nil {
//	            return 0, err
//	        }
//	        total += v
//	    }
//	    return total, nil
//	}
//
//	// Works with thunk.New, thunk.NewAtomic, thunk.NewStrict or shared
//	// handles; strict cells cost a method call, nothing more.
//
// Sharing one result
//
//	a := thunk.ShareAtomic(func() (string, error) { return fetch() })
//	b := a.Clone()        // same underlying cell
//	_, _ = b.Force()      // fetch() runs here
//	v, _ := a.Peek()      // already cached, visible through a
//
// Blocking: Force on AtomicThunk may block a losing goroutine until the
// winner publishes; Force on Thunk never blocks on other goroutines. There
// is no cancellation and no timeout — whichever goroutine wins runs the
// computation synchronously to completion on its own stack.
package thunk
