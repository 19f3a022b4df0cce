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

// MetricsSnapshot is a point-in-time summary served by the metrics endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	StoreOpCount             uint64            `json:"store_op_count"`
	AverageStoreOpDurationMs float64           `json:"average_store_op_duration_ms"`
	Resolutions              map[string]uint64 `json:"resolutions"`
	ReplicaDrift             uint64            `json:"replica_drift"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	storeOpDuration  *prometheus.HistogramVec
	storeOpErrors    *prometheus.CounterVec
	resolutionTotal  *prometheus.CounterVec
	replicaDrift     *prometheus.CounterVec
	repairJobsFailed prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	storeOpCount         uint64
	storeOpDurationTotal uint64
	driftCount           uint64
	resolutionByTier     [len(resolutionTierLabels)]uint64
}

var resolutionTierLabels = [...]string{"miss", "1", "2", "3", "4", "5"}

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

	storeOpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docstore_operation_duration_seconds",
		Help:    "Duration of document store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	storeOpErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_operation_errors_total",
		Help: "Document store operations that failed",
	}, []string{"op"})

	resolutionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_enrollment_resolution_total",
		Help: "Enrollment lookups by the fallback tier that answered them",
	}, []string{"tier"})

	replicaDrift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registrar_replica_drift_total",
		Help: "Replica writes that failed after the primary replica was written",
	}, []string{"replica"})

	repairJobsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "registrar_repair_jobs_exhausted_total",
		Help: "Replica repair jobs that ran out of retries",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		storeOpDuration, storeOpErrors, resolutionTotal, replicaDrift, repairJobsFailed, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		storeOpDuration:  storeOpDuration,
		storeOpErrors:    storeOpErrors,
		resolutionTotal:  resolutionTotal,
		replicaDrift:     replicaDrift,
		repairJobsFailed: repairJobsFailed,
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
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreOp records document store timing. It matches docstore.ObserveFunc.
func (m *MetricsService) ObserveStoreOp(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeOpDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.storeOpErrors.WithLabelValues(op).Inc()
	}
	atomic.AddUint64(&m.storeOpCount, 1)
	atomic.AddUint64(&m.storeOpDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordResolution counts which fallback tier answered a lookup; tier 0 is a miss.
func (m *MetricsService) RecordResolution(tier int) {
	if m == nil || tier < 0 || tier >= len(resolutionTierLabels) {
		return
	}
	m.resolutionTotal.WithLabelValues(resolutionTierLabels[tier]).Inc()
	atomic.AddUint64(&m.resolutionByTier[tier], 1)
}

// RecordReplicaDrift counts a replica left behind after a partial write.
func (m *MetricsService) RecordReplicaDrift(replica string) {
	if m == nil {
		return
	}
	m.replicaDrift.WithLabelValues(replica).Inc()
	atomic.AddUint64(&m.driftCount, 1)
}

// RecordRepairExhausted counts repair jobs that gave up.
func (m *MetricsService) RecordRepairExhausted() {
	if m == nil {
		return
	}
	m.repairJobsFailed.Inc()
}

// Snapshot returns aggregated metrics suitable for API consumers.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	opCount := atomic.LoadUint64(&m.storeOpCount)
	opDuration := atomic.LoadUint64(&m.storeOpDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgOpMs float64
	if opCount > 0 {
		avgOpMs = float64(opDuration) / float64(opCount) / float64(time.Millisecond)
	}

	resolutions := make(map[string]uint64, len(resolutionTierLabels))
	for i, label := range resolutionTierLabels {
		resolutions[label] = atomic.LoadUint64(&m.resolutionByTier[i])
	}

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreOpCount:             opCount,
		AverageStoreOpDurationMs: avgOpMs,
		Resolutions:              resolutions,
		ReplicaDrift:             atomic.LoadUint64(&m.driftCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
