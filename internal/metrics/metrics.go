package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmapos"

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CheckoutCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	CheckoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_seconds",
			Help:      "Duration of checkout commits in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	AlertsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts",
			Help:      "Current number of catalog alerts by type and severity",
		},
		[]string{"type", "severity"},
	)

	AlertRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_refresh_errors_total",
			Help:      "Total number of failed alert refreshes",
		},
	)
)

// ObserveCheckout records the outcome and duration of one commit attempt.
func ObserveCheckout(outcome string, d time.Duration) {
	CheckoutCounter.WithLabelValues(outcome).Inc()
	CheckoutDuration.Observe(d.Seconds())
}

// SetAlerts replaces the alert gauge values. Missing combinations are reset to zero.
func SetAlerts(counts map[string]map[string]int) {
	AlertsGauge.Reset()
	for kind, bySeverity := range counts {
		for severity, n := range bySeverity {
			AlertsGauge.WithLabelValues(kind, severity).Set(float64(n))
		}
	}
}

// Middleware records HTTP request metrics using the matched chi route pattern as path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		statusStr := strconv.Itoa(status)

		RequestCounter.WithLabelValues(r.Method, path, statusStr).Inc()
		RequestDuration.WithLabelValues(r.Method, path, statusStr).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
