package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	requestsTotal     *prometheus.CounterVec
	latencySeconds    *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
	gradesTotal       prometheus.Counter
	auditDroppedTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lms_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_submissions_total",
			Help: "Total number of accepted assignment submissions.",
		}, []string{"status"})

		gradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_grades_total",
			Help: "Total number of grades recorded.",
		})

		auditDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lms_audit_dropped_total",
			Help: "Audit entries dropped because the buffer was full.",
		})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal, submissionsTotal, gradesTotal, auditDroppedTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// Submissions exposes the counter for accepted submissions, labelled by the
// stored status.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Grades exposes the counter for recorded grades.
func Grades() prometheus.Counter {
	RegisterMetrics()
	return gradesTotal
}

// AuditDropped exposes the counter for discarded audit entries.
func AuditDropped() prometheus.Counter {
	RegisterMetrics()
	return auditDroppedTotal
}
