// Package metrics provides the centralized Prometheus metrics registry for
// the arbitrage scout.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arb_scout",
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline runs by mode",
	}, []string{"mode"})
	OpportunitiesDetectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arb_scout",
		Name:      "opportunities_detected_total",
		Help:      "Total number of arbitrage opportunities detected by market",
	}, []string{"market"})
	OpportunitiesStoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arb_scout",
		Name:      "opportunities_stored_total",
		Help:      "Total number of opportunity rows upserted by market",
	}, []string{"market"})
	PropFetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arb_scout",
		Name:      "prop_fetch_errors_total",
		Help:      "Total number of per-event prop fetches skipped after request failure",
	})
	UpstreamRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arb_scout",
		Name:      "upstream_requests_total",
		Help:      "Total number of requests issued to the odds API",
	})
)

// Gauge metrics
var (
	GamesProcessed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "arb_scout",
		Name:      "games_processed",
		Help:      "Number of games processed by the most recent pipeline run",
	})
)

// Histogram metrics
var (
	UpstreamRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arb_scout",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of odds API requests in seconds, including retry waits",
		Buckets:   prometheus.DefBuckets,
	})
	PipelineRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arb_scout",
		Name:      "pipeline_run_duration_seconds",
		Help:      "Duration of pipeline runs in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 300},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(OpportunitiesDetectedTotal)
		registry.MustRegister(OpportunitiesStoredTotal)
		registry.MustRegister(PropFetchErrorsTotal)
		registry.MustRegister(UpstreamRequestsTotal)

		registry.MustRegister(GamesProcessed)

		registry.MustRegister(UpstreamRequestDuration)
		registry.MustRegister(PipelineRunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
