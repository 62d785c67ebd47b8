// Package metrics declares the Prometheus collectors for scheduled jobs,
// notification dispatch and HTTP traffic. Collectors register with the
// default registry, which /metrics serves.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fintrack"

// RecurrencesProcessed counts recurring transactions by outcome
// (advanced, failed, skipped).
var RecurrencesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "recurrence",
	Name:      "processed_total",
	Help:      "Recurring transactions handled by the advancer, by outcome.",
}, []string{"outcome"})

// BudgetEvaluations counts budget evaluations by result
// (exceeded, within, error).
var BudgetEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "budget",
	Name:      "evaluations_total",
	Help:      "Budget exceedance evaluations, by result.",
}, []string{"result"})

// NotificationsSent counts dispatch attempts by kind and outcome.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "notify",
	Name:      "dispatch_total",
	Help:      "Notification dispatch attempts, by kind and outcome.",
}, []string{"kind", "outcome"})

// JobDuration observes how long each scheduled job run takes.
var JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "jobs",
	Name:      "duration_seconds",
	Help:      "Wall-clock duration of scheduled job runs.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
}, []string{"job"})

// JobRuns counts scheduled job runs by outcome (ok, error, locked).
var JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "jobs",
	Name:      "runs_total",
	Help:      "Scheduled job runs, by outcome.",
}, []string{"job", "outcome"})

// HTTPRequests counts served requests by method, route and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served.",
}, []string{"method", "route", "status"})

// HTTPDuration observes request latency by route.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// ObserveJob records a finished job run.
func ObserveJob(job, outcome string, started time.Time) {
	JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
	JobRuns.WithLabelValues(job, outcome).Inc()
}
