// Package metrics observes the layout engine without affecting its behavior.
//
// A [Recorder] is owned by one layout session and accumulates phase timings,
// convergence counters, and advisory warnings across the passes of a single
// layout. The [Snapshot] it produces is the session's externally visible
// diagnostics surface; degraded-mode conditions (convergence shortfall,
// cache thrash, unbounded cache growth) appear here as [Warning] values and
// never as errors.
//
// All Recorder methods are nil-receiver safe so instrumentation points can
// call them unconditionally.
package metrics
