package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the process.
type Registry struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Data service metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchFailures *prometheus.CounterVec

	// View metrics
	BuildsTotal      *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
	ViewNodes        prometheus.Gauge
	SupersededBuilds prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initFetchMetrics()
	r.initViewMetrics()

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
