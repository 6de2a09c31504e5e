// Package metrics holds the Prometheus collectors for the analytics
// engine. All components take an optional *Registry; a nil registry
// disables instrumentation, which keeps unit tests quiet.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all engine metrics behind a dedicated Prometheus
// registry so tests can create isolated instances.
type Registry struct {
	reg *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec
	CacheErrors       prometheus.Counter
	SingleflightShare prometheus.Counter

	UpstreamFailures *prometheus.CounterVec
	DegradedProfiles prometheus.Counter

	TrendingPushes prometheus.Counter
}

// NewRegistry creates a registry with all engine collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletiq_request_duration_seconds",
				Help:    "Duration of analytics operations in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"op", "status"},
		),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletiq_requests_total",
				Help: "Total analytics requests by operation and status",
			},
			[]string{"op", "status"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletiq_cache_hits_total",
				Help: "Cache hits by key domain",
			},
			[]string{"domain"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletiq_cache_misses_total",
				Help: "Cache misses by key domain",
			},
			[]string{"domain"},
		),
		CacheErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "walletiq_cache_errors_total",
				Help: "Cache store failures that were bypassed",
			},
		),
		SingleflightShare: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "walletiq_singleflight_shared_total",
				Help: "Computations whose result was shared with concurrent callers",
			},
		),
		UpstreamFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletiq_upstream_failures_total",
				Help: "Chain-data source failures by chain",
			},
			[]string{"chain"},
		),
		DegradedProfiles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "walletiq_degraded_profiles_total",
				Help: "Wallet profiles built with at least one failed source",
			},
		),
		TrendingPushes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "walletiq_trending_pushes_total",
				Help: "Trending snapshots pushed to websocket subscribers",
			},
		),
	}

	r.reg.MustRegister(
		r.RequestDuration, r.RequestTotal,
		r.CacheHits, r.CacheMisses, r.CacheErrors, r.SingleflightShare,
		r.UpstreamFailures, r.DegradedProfiles, r.TrendingPushes,
	)
	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Snapshot gathers all counters and gauges into a flat name->value map,
// summing across label combinations. Used by the service health endpoint.
func (r *Registry) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	families, err := r.reg.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				total += m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				total += m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = total
	}
	return out
}
