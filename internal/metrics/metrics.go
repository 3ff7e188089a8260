// Package metrics exposes Prometheus instrumentation for checks,
// cache hits, and the state-space reductions grouping/pruning apply
// before a model reaches the external checker.
//
// Metric naming convention: safechain_<subsystem>_<name>_<unit>.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus descriptor SafeChain registers,
// registered on a dedicated registry rather than the global default so
// an embedding process (the LSP, a test binary) never collides with
// other instrumented libraries.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Checks ───────────────────────────────────────────────────────

	// ChecksTotal counts completed checks, by policy kind and verdict.
	ChecksTotal *prometheus.CounterVec

	// CheckDuration records wall-clock time spent in the external
	// checker subprocess.
	CheckDuration *prometheus.HistogramVec

	// ChecksTimedOut counts checks that exceeded the configured
	// timeout.
	ChecksTimedOut prometheus.Counter

	// ─── Cache ────────────────────────────────────────────────────────

	// CacheHitsTotal and CacheMissesTotal count cache lookups.
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// ─── State-space reduction ────────────────────────────────────────

	// GroupedPartitions records, per check, how many partition labels
	// a grouped variable ended up with, versus its raw domain size —
	// the measurable effect of §4.1's attribute grouping.
	GroupedPartitions prometheus.Histogram

	// PrunedVariables counts variables removed from a model emission
	// by rule pruning, per check.
	PrunedVariables prometheus.Histogram
}

// New creates and registers every SafeChain metric.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safechain",
			Subsystem: "checks",
			Name:      "total",
			Help:      "Total checks run, by policy kind and verdict.",
		}, []string{"policy_kind", "verdict"}),

		CheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safechain",
			Subsystem: "checks",
			Name:      "duration_seconds",
			Help:      "Wall-clock time spent in the external model checker, by policy kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"policy_kind"}),

		ChecksTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safechain",
			Subsystem: "checks",
			Name:      "timed_out_total",
			Help:      "Total checks that exceeded the configured wall-clock timeout.",
		}),

		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safechain",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total check results served from the cache without invoking the checker.",
		}),

		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "safechain",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache lookups that required running the checker.",
		}),

		GroupedPartitions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safechain",
			Subsystem: "reduction",
			Name:      "grouped_partitions",
			Help:      "Partition label count per grouped variable, per check.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),

		PrunedVariables: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safechain",
			Subsystem: "reduction",
			Name:      "pruned_variables",
			Help:      "Number of variables removed from a model emission by pruning, per check.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}

	reg.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.ChecksTimedOut,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.GroupedPartitions,
		m.PrunedVariables,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveCheck records one completed check's verdict and duration.
func (m *Metrics) ObserveCheck(policyKind, verdict string, d time.Duration, timedOut bool) {
	m.ChecksTotal.WithLabelValues(policyKind, verdict).Inc()
	m.CheckDuration.WithLabelValues(policyKind).Observe(d.Seconds())
	if timedOut {
		m.ChecksTimedOut.Inc()
	}
}

// ObserveCacheLookup records a single cache lookup's outcome.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if hit {
		m.CacheHitsTotal.Inc()
	} else {
		m.CacheMissesTotal.Inc()
	}
}

// Serve starts the Prometheus HTTP metrics endpoint at addr, blocking
// until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}
