// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/controlgraph/pkg/observability"
)

// Collector holds every metric and its own registry, so several collectors
// (one per test, say) never clash on registration.
type Collector struct {
	registry *prometheus.Registry

	Layouts         *prometheus.CounterVec
	LayoutDuration  prometheus.Histogram
	SkippedRelation prometheus.Counter
	Selections      *prometheus.CounterVec
	SettleTicks     prometheus.Histogram

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	RateLimited  *prometheus.CounterVec
	Sessions     prometheus.Gauge
}

// New creates a collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Target recomputations, by focused or unfocused layout.",
		}, []string{"mode"}),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent computing radial targets.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		SkippedRelation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_relations_total",
			Help:      "Relations ignored because an endpoint is unknown.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Selection changes by source.",
		}, []string{"source"}),
		SettleTicks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settle_ticks",
			Help:      "Animation ticks until convergence.",
			Buckets:   prometheus.LinearBuckets(10, 10, 8),
		}),

		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by key type.",
		}, []string{"type"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by key type.",
		}, []string{"type"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"type"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Pointer events rejected by the limiter.",
		}, []string{"route"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_sessions",
			Help:      "Open interactive view sessions.",
		}),
	}

	c.registry.MustRegister(
		c.Layouts, c.LayoutDuration, c.SkippedRelation, c.Selections, c.SettleTicks,
		c.CacheHits, c.CacheMisses, c.CacheBytes,
		c.HTTPRequests, c.HTTPDuration, c.RateLimited, c.Sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Install registers c as the global view, cache and HTTP hooks.
func (c *Collector) Install() {
	observability.SetViewHooks(c)
	observability.SetCacheHooks(c)
	observability.SetHTTPHooks(c)
}

// =============================================================================
// ViewHooks
// =============================================================================

func (c *Collector) OnLayout(_ context.Context, focus string, _, skipped int, d time.Duration) {
	mode := "unfocused"
	if focus != "" {
		mode = "focused"
	}
	c.Layouts.WithLabelValues(mode).Inc()
	c.LayoutDuration.Observe(d.Seconds())
	c.SkippedRelation.Add(float64(skipped))
}

func (c *Collector) OnSelect(_ context.Context, _ string, source string) {
	c.Selections.WithLabelValues(source).Inc()
}

func (c *Collector) OnSettled(_ context.Context, ticks int, _ time.Duration) {
	c.SettleTicks.Observe(float64(ticks))
}

// =============================================================================
// CacheHooks
// =============================================================================

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.CacheHits.WithLabelValues(keyType).Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.CacheMisses.WithLabelValues(keyType).Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, size int) {
	c.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// HTTPHooks
// =============================================================================

func (c *Collector) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) OnRateLimited(_ context.Context, route string) {
	c.RateLimited.WithLabelValues(route).Inc()
}

func (c *Collector) OnSessions(_ context.Context, active int) {
	c.Sessions.Set(float64(active))
}

var (
	_ observability.ViewHooks  = (*Collector)(nil)
	_ observability.CacheHooks = (*Collector)(nil)
	_ observability.HTTPHooks  = (*Collector)(nil)
)
