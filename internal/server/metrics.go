package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/orrery/pkg/observability"
)

// Metrics implements the observability hooks on Prometheus collectors and
// instruments HTTP requests.
type Metrics struct {
	layouts    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	objects    *prometheus.HistogramVec
	collisions *prometheus.CounterVec
	exhausted  *prometheus.CounterVec

	cacheEvents  *prometheus.CounterVec
	cacheBytes   prometheus.Histogram
	invalidated  *prometheus.CounterVec
	modeSwitches *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		layouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_layouts_total",
			Help: "Layout calculations by view mode and outcome",
		}, []string{"mode", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orrery_layout_duration_seconds",
			Help:    "Layout calculation time, cache lookups included",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"mode"}),
		objects: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orrery_layout_objects",
			Help:    "Objects per layout request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"mode"}),
		collisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_collisions_total",
			Help: "Collisions detected before resolution",
		}, []string{"mode"}),
		exhausted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_collision_exhausted_total",
			Help: "Collision resolutions that ran out of iterations",
		}, []string{"mode"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_cache_events_total",
			Help: "Cache lookups and writes",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_cache_entry_bytes",
			Help:    "Size of cache writes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		invalidated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_cache_invalidated_total",
			Help: "Cache entries removed by invalidation",
		}, []string{"scope"}),
		modeSwitches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_view_mode_switches_total",
			Help: "View mode switches by target mode",
		}, []string{"mode"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orrery_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orrery_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install registers m as the process-wide pipeline, cache and view-mode
// hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetViewModeHooks(m)
}

// OnLayoutStart implements observability.PipelineHooks.
func (m *Metrics) OnLayoutStart(_ context.Context, mode string, objectCount int) {
	m.objects.WithLabelValues(mode).Observe(float64(objectCount))
}

// OnLayoutComplete implements observability.PipelineHooks.
func (m *Metrics) OnLayoutComplete(_ context.Context, mode string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.layouts.WithLabelValues(mode, status).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}

// OnCollisionsResolved implements observability.PipelineHooks.
func (m *Metrics) OnCollisionsResolved(_ context.Context, mode string, collisions, exhausted int) {
	m.collisions.WithLabelValues(mode).Add(float64(collisions))
	m.exhausted.WithLabelValues(mode).Add(float64(exhausted))
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Observe(float64(size))
}

// OnCacheInvalidate implements observability.CacheHooks.
func (m *Metrics) OnCacheInvalidate(_ context.Context, scope string, removed int) {
	m.invalidated.WithLabelValues(scope).Add(float64(removed))
}

// OnModeEnter implements observability.ViewModeHooks.
func (m *Metrics) OnModeEnter(mode, _ string) {
	m.modeSwitches.WithLabelValues(mode).Inc()
}

// OnModeExit implements observability.ViewModeHooks.
func (m *Metrics) OnModeExit(string, string) {}

// Middleware counts requests by chi route pattern, so path parameters do
// not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
