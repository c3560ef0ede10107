package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olehluchkiv/topicmap/internal/dataservice"
)

// RecordHTTPRequest records one served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordResponseSize records the body size of a served request.
func (r *Registry) RecordResponseSize(method, route string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, route).Observe(size)
}

func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordFetch records one data service request.
func (r *Registry) RecordFetch(kind string, err error, duration time.Duration) {
	r.FetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err == nil {
		r.FetchesTotal.WithLabelValues(kind, "success").Inc()
		return
	}
	r.FetchesTotal.WithLabelValues(kind, "error").Inc()
	r.FetchFailures.WithLabelValues(kind, failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, dataservice.ErrNotFound):
		return "not_found"
	case errors.Is(err, dataservice.ErrMissingMetadata):
		return "missing_metadata"
	case errors.Is(err, dataservice.ErrNetwork):
		return "network"
	default:
		return "other"
	}
}

// RecordBuild records a finished view build.
func (r *Registry) RecordBuild(duration time.Duration, nodes int, err error) {
	r.BuildDuration.Observe(duration.Seconds())
	if err != nil {
		r.BuildsTotal.WithLabelValues("error").Inc()
		return
	}
	r.BuildsTotal.WithLabelValues("success").Inc()
	r.ViewNodes.Set(float64(nodes))
}

// RecordSuperseded records a build discarded for a newer selection.
func (r *Registry) RecordSuperseded() {
	r.SupersededBuilds.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
