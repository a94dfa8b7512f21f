package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the finance tracker.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	syncSnapshots   *prometheus.CounterVec
	mirrorWrites    *prometheus.CounterVec
	mirrorFallbacks *prometheus.CounterVec
	mirrorErrors    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_external_errors_total",
				Help: "Total errors from the remote document store.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		syncSnapshots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_sync_snapshots_total",
				Help: "Live-query snapshots applied, per collection.",
			},
			[]string{"collection"},
		),
		mirrorWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_mirror_writes_total",
				Help: "Successful mirror write-throughs, per collection.",
			},
			[]string{"collection"},
		),
		mirrorFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_mirror_fallbacks_total",
				Help: "Times a collection was served from the local mirror after a subscription error.",
			},
			[]string{"collection"},
		),
		mirrorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_mirror_errors_total",
				Help: "Mirror backend failures, per backend.",
			},
			[]string{"backend"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSyncSnapshot counts an applied live-query snapshot.
func (m *Metrics) IncrSyncSnapshot(collection string) {
	m.syncSnapshots.WithLabelValues(collection).Inc()
}

// IncrMirrorWrite counts a successful mirror write-through.
func (m *Metrics) IncrMirrorWrite(collection string) {
	m.mirrorWrites.WithLabelValues(collection).Inc()
}

// IncrMirrorFallback counts a read served from the mirror after a
// subscription error.
func (m *Metrics) IncrMirrorFallback(collection string) {
	m.mirrorFallbacks.WithLabelValues(collection).Inc()
}

// IncrMirrorError counts a mirror backend failure.
func (m *Metrics) IncrMirrorError(backend string) {
	m.mirrorErrors.WithLabelValues(backend).Inc()
}

// SyncStats is a point-in-time view of sync health for the admin
// endpoint.
type SyncStats struct {
	Snapshots       map[string]int64 `json:"snapshots"`
	MirrorWrites    map[string]int64 `json:"mirror_writes"`
	MirrorFallbacks map[string]int64 `json:"mirror_fallbacks"`
	MirrorErrors    map[string]int64 `json:"mirror_errors"`
}

// GetSyncStats returns a snapshot of sync-related counters for the
// GET /v1/admin/sync/stats endpoint.
func (m *Metrics) GetSyncStats(collections []string) *SyncStats {
	stats := &SyncStats{
		Snapshots:       make(map[string]int64),
		MirrorWrites:    make(map[string]int64),
		MirrorFallbacks: make(map[string]int64),
		MirrorErrors:    make(map[string]int64),
	}
	for _, coll := range collections {
		stats.Snapshots[coll] = int64(getCounterValue(m.syncSnapshots, coll))
		stats.MirrorWrites[coll] = int64(getCounterValue(m.mirrorWrites, coll))
		stats.MirrorFallbacks[coll] = int64(getCounterValue(m.mirrorFallbacks, coll))
	}
	for _, backend := range []string{"sqlite", "flatfile"} {
		stats.MirrorErrors[backend] = int64(getCounterValue(m.mirrorErrors, backend))
	}
	return stats
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
