package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	conversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_conversions_total",
			Help: "Total number of lead conversion attempts by result",
		},
		[]string{"result"},
	)

	orphanCleanupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orphan_cleanups_total",
			Help: "Total number of orphaned-resource cleanup attempts by outcome",
		},
		[]string{"resource", "outcome"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compensations_total",
			Help: "Total number of saga compensation attempts by resource",
		},
		[]string{"resource"},
	)

	accountsAPIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_api_errors_total",
			Help: "Total number of Accounts & Contacts API failures by error kind",
		},
		[]string{"kind"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// RecordConversion counts a conversion attempt. result is "success" or the
// failure kind (e.g. ALREADY_CONVERTED).
func RecordConversion(result string) {
	conversionsTotal.WithLabelValues(result).Inc()
}

func RecordOrphanCleanup(resource, outcome string) {
	orphanCleanupsTotal.WithLabelValues(resource, outcome).Inc()
}

// RecordCompensation counts one compensation attempt for a saga-owned
// resource ("account" or "contact").
func RecordCompensation(resource string) {
	compensationsTotal.WithLabelValues(resource).Inc()
}

// RecordAccountsAPIError counts a failed call to the remote service by its
// error kind (not_found, conflict, transient, fatal).
func RecordAccountsAPIError(kind string) {
	accountsAPIErrorsTotal.WithLabelValues(kind).Inc()
}
