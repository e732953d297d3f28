// Package metrics exposes Prometheus collectors for the snapshot service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	BuildLatency    prometheus.Histogram
	BuildErrors     *prometheus.CounterVec
	BufferDepth     *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainview_cache_hits_total",
			Help: "Cache lookups served from a fresh entry",
		}, []string{"cache"}),

		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainview_cache_misses_total",
			Help: "Cache lookups that went upstream",
		}, []string{"cache"}),

		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chainview_upstream_latency_seconds",
			Help:    "Market data API call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"operation"}),

		UpstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainview_upstream_errors_total",
			Help: "Failed market data API calls",
		}, []string{"operation"}),

		BuildLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chainview_snapshot_build_seconds",
			Help:    "Time to build one snapshot response",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		BuildErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chainview_snapshot_errors_total",
			Help: "Snapshot builds that failed, by error kind",
		}, []string{"kind"}),

		BufferDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chainview_buffer_depth",
			Help: "Snapshots retained per series key",
		}, []string{"key"}),
	}
}

func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// ObserveUpstream records one market data call.
func (m *Metrics) ObserveUpstream(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.UpstreamLatency.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.UpstreamErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveBuild records one snapshot build. kind is empty on success.
func (m *Metrics) ObserveBuild(d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.BuildLatency.Observe(d.Seconds())
	if kind != "" {
		m.BuildErrors.WithLabelValues(kind).Inc()
	}
}

// SetBufferDepth records the retained entry count for one series key.
func (m *Metrics) SetBufferDepth(key string, depth int) {
	if m == nil {
		return
	}
	m.BufferDepth.WithLabelValues(key).Set(float64(depth))
}
