package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// httpRecorder is the part of the metrics registry the middleware feeds.
type httpRecorder interface {
	RecordHTTPRequest(method, route, status string, duration time.Duration)
	RecordResponseSize(method, route string, size float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// statusWriter captures the status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// metricsMiddleware records every request under its route pattern.
func metricsMiddleware(recorder httpRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := routePattern(r)
			recorder.RecordHTTPRequest(r.Method, route, strconv.Itoa(sw.statusCode), time.Since(start))
			recorder.RecordResponseSize(r.Method, route, float64(sw.bytesWritten))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
