package thunk

import "time"

// Metrics exposes cell-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Implementations must be safe for concurrent use when attached to
// AtomicThunk cells.
type Metrics interface {
	// Hit — Force served from the cache without running the computation.
	Hit()
	// Forced — the computation ran to completion, with its duration.
	Forced(d time.Duration)
	// Waited — a losing goroutine blocked for d until the winner published.
	Waited(d time.Duration)
	// Failed — the computation returned an error (memoized).
	Failed()
	// Poisoned — the computation panicked; the cell is poisoned.
	Poisoned()
}

// Options configures a cell. The zero value is safe; defaults are applied
// by the constructors:
//   - nil Metrics => NoopMetrics
type Options struct {
	// Metrics receives per-cell signals. Keep implementations lightweight:
	// Hit sits on the force fast path.
	Metrics Metrics
}

// metrics returns the configured Metrics or the no-op default.
func (o Options) metrics() Metrics {
	if o.Metrics == nil {
		return NoopMetrics{}
	}
	return o.Metrics
}
