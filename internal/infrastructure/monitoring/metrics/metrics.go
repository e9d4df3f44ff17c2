// Package metrics exposes the Prometheus instrumentation used by the search
// dispatcher, the snapshot caches, and the tracking scheduler.  A single
// Collector owns every metric vector so that hosts register exactly one
// collector set and expose it on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ipsentinel"

// Collector bundles all platform metrics behind typed recording helpers so
// that call sites never touch prometheus types directly.
type Collector struct {
	registry *prometheus.Registry

	searchTotal     *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	providerErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	schedulerPasses prometheus.Counter
	assetsRefreshed *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	eventsEmitted   *prometheus.CounterVec
}

// NewCollector constructs a Collector with its own registry, pre-registering
// process and Go runtime collectors alongside the platform vectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: reg,
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Aggregate searches dispatched, by asset kind and outcome.",
		}, []string{"kind", "outcome"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end aggregate search latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Per-provider failures isolated during dispatch.",
		}, []string{"source"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Snapshot cache hits, by named cache.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Snapshot cache misses, by named cache.",
		}, []string{"cache"}),
		schedulerPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_passes_total",
			Help:      "Completed tracking scheduler passes.",
		}),
		assetsRefreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_refreshed_total",
			Help:      "Per-asset refresh attempts, by outcome.",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_refresh_duration_seconds",
			Help:      "Single-asset fetch-diff-persist latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_events_emitted_total",
			Help:      "Tracking events emitted, by type and severity.",
		}, []string{"type", "severity"}),
	}

	reg.MustRegister(
		c.searchTotal, c.searchDuration, c.providerErrors,
		c.cacheHits, c.cacheMisses,
		c.schedulerPasses, c.assetsRefreshed, c.refreshDuration, c.eventsEmitted,
	)
	return c
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordSearch records one aggregate search with its outcome ("ok",
// "partial", "unavailable") and duration.
func (c *Collector) RecordSearch(kind, outcome string, d time.Duration) {
	c.searchTotal.WithLabelValues(kind, outcome).Inc()
	c.searchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordProviderError records an isolated provider failure.
func (c *Collector) RecordProviderError(source string) {
	c.providerErrors.WithLabelValues(source).Inc()
}

// RecordCacheHit records a hit on a named cache.
func (c *Collector) RecordCacheHit(cache string) {
	c.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a miss on a named cache.
func (c *Collector) RecordCacheMiss(cache string) {
	c.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordSchedulerPass records one completed scheduler pass.
func (c *Collector) RecordSchedulerPass() {
	c.schedulerPasses.Inc()
}

// RecordAssetRefresh records a per-asset refresh outcome ("ok", "error").
func (c *Collector) RecordAssetRefresh(outcome string, d time.Duration) {
	c.assetsRefreshed.WithLabelValues(outcome).Inc()
	c.refreshDuration.Observe(d.Seconds())
}

// RecordEvent records an emitted tracking event.
func (c *Collector) RecordEvent(eventType, severity string) {
	c.eventsEmitted.WithLabelValues(eventType, severity).Inc()
}
