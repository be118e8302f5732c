package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the grid cache and
// the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	occurrences     *prometheus.CounterVec
	dailyCells      prometheus.Counter
	repairBindings  *prometheus.CounterVec
	capacityRejects *prometheus.CounterVec
	rolloverRuns    *prometheus.CounterVec
	rolloverSeconds prometheus.Observer

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	occurrenceCount      uint64
	dailyCellCount       uint64
}

// MetricsSnapshot is a lightweight JSON view of the counters.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	OccurrencesMaterialized  uint64    `json:"occurrences_materialized"`
	DailyCellsCreated        uint64    `json:"daily_cells_created"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	occurrences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_occurrences_materialized_total",
		Help: "Occurrences created by the materializer",
	}, []string{"kind"})

	dailyCells := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_daily_cells_created_total",
		Help: "Daily shift cells created by grid generation",
	})

	repairBindings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_repair_bindings_total",
		Help: "Occurrences bound into daily cells by the repair pass",
	}, []string{"kind"})

	capacityRejects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_capacity_rejections_total",
		Help: "Operations rejected because no slot was free",
	}, []string{"operation"})

	rolloverRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_rollover_runs_total",
		Help: "Fiscal rollover runs by outcome",
	}, []string{"status"})

	rolloverSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_rollover_duration_seconds",
		Help:    "Duration of fiscal rollover transactions",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		occurrences, dailyCells, repairBindings, capacityRejects, rolloverRuns, rolloverSeconds, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		occurrences:     occurrences,
		dailyCells:      dailyCells,
		repairBindings:  repairBindings,
		capacityRejects: capacityRejects,
		rolloverRuns:    rolloverRuns,
		rolloverSeconds: rolloverSeconds,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// AddOccurrences counts materialized occurrences of a kind ("lesson" or "teacher_shift").
func (m *MetricsService) AddOccurrences(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.occurrences.WithLabelValues(kind).Add(float64(n))
	atomic.AddUint64(&m.occurrenceCount, uint64(n))
}

// AddDailyCells counts created daily shift cells.
func (m *MetricsService) AddDailyCells(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dailyCells.Add(float64(n))
	atomic.AddUint64(&m.dailyCellCount, uint64(n))
}

// AddRepairBindings counts occurrences recovered by the repair pass.
func (m *MetricsService) AddRepairBindings(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.repairBindings.WithLabelValues(kind).Add(float64(n))
}

// RecordCapacityRejection counts an operation that found no free slot.
func (m *MetricsService) RecordCapacityRejection(operation string) {
	if m == nil {
		return
	}
	m.capacityRejects.WithLabelValues(operation).Inc()
}

// ObserveRollover records the outcome and duration of a rollover run.
func (m *MetricsService) ObserveRollover(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.rolloverRuns.WithLabelValues(status).Inc()
	m.rolloverSeconds.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		OccurrencesMaterialized:  atomic.LoadUint64(&m.occurrenceCount),
		DailyCellsCreated:        atomic.LoadUint64(&m.dailyCellCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
