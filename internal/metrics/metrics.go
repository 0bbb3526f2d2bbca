// Package metrics exposes optional Prometheus counters for the worker
// pool, grounded on github.com/prometheus/client_golang — present in this
// pack's indirect dependency set via the teacher's sibling repos but never
// wired by the teacher itself, since godnf had no long-running process to
// instrument. createrepo's pool is the first component here with enough
// throughput to make per-package counters worth exposing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters one indexing run reports. The Inc* methods
// are safe to call on a nil *Registry — disabling metrics means simply not
// constructing one, not special-casing every call site. Serve is not
// nil-safe.
type Registry struct {
	reg            *prometheus.Registry
	processed      prometheus.Counter
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	errors         prometheus.Counter
}

// New builds a fresh registry with the run's counters registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		processed: factory.NewCounter(prometheus.CounterOpts{
			Name: "createrepo_packages_processed_total",
			Help: "Packages for which a metadata record was written.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "createrepo_cache_hits_total",
			Help: "Packages served from the artifact cache without re-parsing.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "createrepo_cache_misses_total",
			Help: "Packages that required a fresh RPM header read.",
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "createrepo_errors_total",
			Help: "Packages that failed to parse or write.",
		}),
	}
}

func (r *Registry) IncProcessed() {
	if r == nil {
		return
	}
	r.processed.Inc()
}

func (r *Registry) IncCacheHits() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

func (r *Registry) IncCacheMisses() {
	if r == nil {
		return
	}
	r.cacheMisses.Inc()
}

func (r *Registry) IncErrors() {
	if r == nil {
		return
	}
	r.errors.Inc()
}

// Serve starts an HTTP server exposing /metrics on addr. It runs until the
// listener fails or the process exits; callers run it in its own
// goroutine.
func (r *Registry) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
