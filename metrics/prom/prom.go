// Package prom exports thunk.Metrics signals as Prometheus metrics.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/thunk/thunk"
)

// Adapter implements thunk.Metrics and exports Prometheus counters and
// histograms. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	hits     prometheus.Counter
	forces   prometheus.Counter
	failures prometheus.Counter
	poisons  prometheus.Counter
	forceDur prometheus.Histogram
	waitDur  prometheus.Histogram
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Forces served from the cache",
			ConstLabels: constLabels,
		}),
		forces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "forces_total",
			Help:        "Computations run to completion",
			ConstLabels: constLabels,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "failures_total",
			Help:        "Computations that returned a (memoized) error",
			ConstLabels: constLabels,
		}),
		poisons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "poisons_total",
			Help:        "Computations that panicked and poisoned their cell",
			ConstLabels: constLabels,
		}),
		forceDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "force_duration_seconds",
			Help:        "Duration of first-force computations",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		waitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "wait_duration_seconds",
			Help:        "Time losing goroutines blocked on a winner's publish",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(a.hits, a.forces, a.failures, a.poisons, a.forceDur, a.waitDur)
	return a
}

// Hit increments the cache-hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Forced counts a completed computation and observes its duration.
func (a *Adapter) Forced(d time.Duration) {
	a.forces.Inc()
	a.forceDur.Observe(d.Seconds())
}

// Waited observes how long a losing goroutine blocked.
func (a *Adapter) Waited(d time.Duration) {
	a.waitDur.Observe(d.Seconds())
}

// Failed increments the memoized-failure counter.
func (a *Adapter) Failed() { a.failures.Inc() }

// Poisoned increments the poison counter.
func (a *Adapter) Poisoned() { a.poisons.Inc() }

// Compile-time check: ensure Adapter implements thunk.Metrics.
var _ thunk.Metrics = (*Adapter)(nil)
