package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicmap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topicmap_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topicmap_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	r.HTTPResponseSizeBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topicmap_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "route"},
	)
}

func (r *Registry) initFetchMetrics() {
	r.FetchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicmap_dataservice_requests_total",
			Help: "Total number of data service requests",
		},
		[]string{"kind", "status"}, // status: success, error
	)

	r.FetchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topicmap_dataservice_request_duration_seconds",
			Help:    "Data service request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	r.FetchFailures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicmap_dataservice_failures_total",
			Help: "Data service failures by error class",
		},
		[]string{"kind", "reason"}, // reason: network, not_found, missing_metadata, canceled, other
	)
}

func (r *Registry) initViewMetrics() {
	r.BuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topicmap_view_builds_total",
			Help: "Total number of view builds",
		},
		[]string{"status"},
	)

	r.BuildDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topicmap_view_build_duration_seconds",
			Help:    "Time to aggregate, lay out and normalize a selection",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	r.ViewNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topicmap_view_nodes",
			Help: "Number of nodes in the most recently built view",
		},
	)

	r.SupersededBuilds = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topicmap_view_builds_superseded_total",
			Help: "Builds discarded because a newer selection arrived",
		},
	)
}
