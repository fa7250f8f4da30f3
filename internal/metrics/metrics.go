// Package metrics provides Prometheus instrumentation for the pool engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SettlementsTotal counts settlement runs by pool kind and outcome
	// ("ok", "no_winner", "empty", "violation", "error").
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_settlements_total",
		Help: "Total number of settlement runs",
	}, []string{"kind", "outcome"})

	// SettlementLatency tracks settlement computation time.
	SettlementLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tp_settlement_latency_seconds",
		Help:    "Settlement computation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// ConservationViolations counts settlements rejected because payouts and
	// fees failed to reconcile with the pool. Any non-zero value is a bug.
	ConservationViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_conservation_violations_total",
		Help: "Settlements rejected by the conservation check",
	}, []string{"kind"})

	// QuotesTotal counts pro-forma quotes and payoff curves served.
	QuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_quotes_total",
		Help: "Total number of pro-forma valuations",
	}, []string{"kind", "type"})

	// QuoteLimitRejections counts quotes rejected by the exposure limiter.
	QuoteLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tp_quote_limit_rejections_total",
		Help: "Quotes rejected by the exposure limiter",
	})

	// StakesRegistered counts stakes registered into pools.
	StakesRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_stakes_registered_total",
		Help: "Stakes registered into pools",
	}, []string{"kind"})

	// ActivePools tracks the number of pools held by the desk.
	ActivePools = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tp_active_pools",
		Help: "Number of pools currently loaded",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tp_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tp_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tp_http_request_duration_seconds",
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

		// Use the route pattern for the path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
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
