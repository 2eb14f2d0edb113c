// Package metrics exposes the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitekit",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitekit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekit",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Total number of login attempts.",
		},
		[]string{"outcome"},
	)

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitekit",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Site cache reads by outcome.",
		},
		[]string{"outcome"},
	)

	maintenanceRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sitekit",
			Subsystem: "http",
			Name:      "maintenance_rejections_total",
			Help:      "Requests turned away while maintenance mode is on.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		logins,
		cacheOps,
		maintenanceRejections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncInFlight tracks a request entering the stack.
func IncInFlight() { httpInFlight.Inc() }

// DecInFlight tracks a request leaving the stack.
func DecInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLogin records a login attempt outcome ("ok", "rejected").
func RecordLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}

// RecordCacheRead records a site-cache read outcome ("hit", "miss").
func RecordCacheRead(outcome string) {
	cacheOps.WithLabelValues(outcome).Inc()
}

// RecordMaintenanceRejection counts a request rejected by maintenance mode.
func RecordMaintenanceRejection() {
	maintenanceRejections.Inc()
}
