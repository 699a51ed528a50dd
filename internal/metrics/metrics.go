// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "tailtown"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Tenant resolution failures by kind
	TenantResolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_resolution_failures_total",
			Help: "Requests rejected because no serving tenant could be resolved",
		},
		[]string{"reason"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	ReservationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reservation_operations_total",
			Help: "Reservation writes by operation",
		},
		[]string{"operation"},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_booking_conflicts_total",
			Help: "Bookings rejected because the resource was at capacity",
		},
	)

	RuleConfigErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_rule_config_errors_total",
			Help: "Misconfigured pricing or deposit rules skipped during evaluation",
		},
		[]string{"rule_type"},
	)

	ImportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_import_records_total",
			Help: "Imported reservation rows by result",
		},
		[]string{"result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_job_duration_seconds",
			Help:    "Duration of background jobs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

// TrackJob returns a function that records the duration of a background job run.
func TrackJob(job string) func(startTime time.Time) {
	return func(startTime time.Time) {
		JobDuration.WithLabelValues(job).Observe(time.Since(startTime).Seconds())
	}
}

// RecordReservation increments the counter for a reservation operation.
func RecordReservation(operation string) {
	ReservationOperations.WithLabelValues(operation).Inc()
}
