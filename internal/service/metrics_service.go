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

// MetricsService encapsulates Prometheus instrumentation for the booking workflows.
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
	availability    *prometheus.CounterVec
	approvals       *prometheus.CounterVec
	changeDecisions *prometheus.CounterVec
	lockRuns        *prometheus.CounterVec
	kioskClients    prometheus.Gauge
	kioskDropped    prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
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

	availability := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_results_total",
		Help: "Availability evaluations by outcome",
	}, []string{"status"})

	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "instance_approvals_total",
		Help: "Instance approvals by scope and result",
	}, []string{"scope", "result"})

	changeDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_request_decisions_total",
		Help: "Change request decisions by outcome",
	}, []string{"decision"})

	lockRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weekly_lock_runs_total",
		Help: "Weekly lock invocations by result",
	}, []string{"result"})

	kioskClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_subscribers",
		Help: "Currently connected kiosk stream subscribers",
	})

	kioskDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_dropped_updates_total",
		Help: "Kiosk updates dropped because a subscriber buffer was full",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		availability, approvals, changeDecisions, lockRuns, kioskClients, kioskDropped, goroutines)

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
		availability:    availability,
		approvals:       approvals,
		changeDecisions: changeDecisions,
		lockRuns:        lockRuns,
		kioskClients:    kioskClients,
		kioskDropped:    kioskDropped,
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

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
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

// RecordAvailability counts one evaluated instance.
func (m *MetricsService) RecordAvailability(status string) {
	if m == nil {
		return
	}
	m.availability.WithLabelValues(status).Inc()
}

// RecordApproval counts approved or failed instance approvals.
func (m *MetricsService) RecordApproval(scope string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.approvals.WithLabelValues(scope, result).Inc()
}

// RecordChangeDecision counts change request decisions.
func (m *MetricsService) RecordChangeDecision(decision string) {
	if m == nil {
		return
	}
	m.changeDecisions.WithLabelValues(decision).Inc()
}

// RecordLockRun counts weekly lock invocations.
func (m *MetricsService) RecordLockRun(result string) {
	if m == nil {
		return
	}
	m.lockRuns.WithLabelValues(result).Inc()
}

// SetKioskSubscribers reports the live subscriber count.
func (m *MetricsService) SetKioskSubscribers(n int) {
	if m == nil {
		return
	}
	m.kioskClients.Set(float64(n))
}

// RecordKioskDrop counts an update that a slow subscriber missed.
func (m *MetricsService) RecordKioskDrop() {
	if m == nil {
		return
	}
	m.kioskDropped.Inc()
}
