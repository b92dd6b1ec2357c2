// Package metrics provides Prometheus instrumentation for the brokerage
// operations service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RateUpdatesTotal counts accepted master-value updates, partitioned
	// by catalog (segment, script, client).
	RateUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jgs_rate_updates_total",
		Help: "Total accepted brokerage master-value updates",
	}, []string{"catalog"})

	// BlockedEditRejections counts master-value edits rejected by the
	// blocking gate.
	BlockedEditRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jgs_blocked_edit_rejections_total",
		Help: "Master-value edits rejected because the entity is blocked",
	})

	// ResolutionsTotal counts rate resolutions, partitioned by the level
	// that won (script, segment, global, default).
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jgs_rate_resolutions_total",
		Help: "Override resolutions by winning precedence level",
	}, []string{"source"})

	// PositionsClosed counts positions closed via close or square-off.
	PositionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jgs_positions_closed_total",
		Help: "Positions closed via close or square-off",
	})

	// WebSocketClients tracks connected console WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jgs_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jgs_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jgs_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
