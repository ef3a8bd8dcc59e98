// Package metrics exports solve, store and cache activity to Prometheus by
// implementing the observability hooks.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/gridwalk/pkg/observability"
)

// Metrics holds the collectors and implements SolveHooks, StoreHooks and CacheHooks.
type Metrics struct {
	registry *prometheus.Registry

	solvesActive  prometheus.Gauge
	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	visitedCells  *prometheus.HistogramVec
	pathLength    *prometheus.HistogramVec

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	runsRejected  prometheus.Counter

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, along with Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solvesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridwalk_solves_in_flight",
			Help: "Traversals currently running",
		}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridwalk_solves_total",
			Help: "Completed traversals by algorithm and outcome",
		}, []string{"algorithm", "outcome"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridwalk_solve_duration_seconds",
			Help:    "Time spent computing a traversal, excluding replay",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"algorithm"}),
		visitedCells: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridwalk_solve_visited_cells",
			Help:    "Cells visited per traversal",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"algorithm"}),
		pathLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridwalk_solve_path_moves",
			Help:    "Moves on found paths",
			Buckets: prometheus.LinearBuckets(0, 8, 10),
		}, []string{"algorithm"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridwalk_store_operations_total",
			Help: "Board store operations by backend, operation and result",
		}, []string{"backend", "op", "result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridwalk_store_operation_duration_seconds",
			Help:    "Board store operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		runsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridwalk_runs_rejected_total",
			Help: "Solve starts and edits refused because a run was active",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridwalk_render_cache_lookups_total",
			Help: "Render cache lookups by format and result",
		}, []string{"format", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridwalk_render_cache_written_bytes_total",
			Help: "Bytes written to the render cache",
		}, []string{"format"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridwalk_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.solvesActive, m.solves, m.solveDuration, m.visitedCells, m.pathLength,
		m.storeOps, m.storeDuration, m.runsRejected,
		m.cacheLookups, m.cacheBytes,
		m.httpRequests,
	)
	return m
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetSolveHooks(m)
	observability.SetStoreHooks(m)
	observability.SetCacheHooks(m)
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

func (m *Metrics) OnSolveStart(ctx context.Context, algorithm string, size int) {
	m.solvesActive.Inc()
}

func (m *Metrics) OnSolveComplete(ctx context.Context, ev observability.SolveEvent) {
	m.solvesActive.Dec()
	outcome := "no_path"
	switch {
	case ev.Err != nil:
		outcome = "error"
	case ev.Found:
		outcome = "found"
	}
	m.solves.WithLabelValues(ev.Algorithm, outcome).Inc()
	if ev.Err != nil {
		return
	}
	m.solveDuration.WithLabelValues(ev.Algorithm).Observe(ev.Duration.Seconds())
	m.visitedCells.WithLabelValues(ev.Algorithm).Observe(float64(ev.Visited))
	if ev.Found {
		m.pathLength.WithLabelValues(ev.Algorithm).Observe(float64(ev.PathLen))
	}
}

func (m *Metrics) OnStoreOp(ctx context.Context, backend, op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(backend, op, result).Inc()
	m.storeDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

func (m *Metrics) OnRunRejected(ctx context.Context, boardID string) {
	m.runsRejected.Inc()
}

func (m *Metrics) OnCacheHit(ctx context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(ctx context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(ctx context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

var (
	_ observability.SolveHooks = (*Metrics)(nil)
	_ observability.StoreHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
)
