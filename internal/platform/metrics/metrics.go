// Package metrics holds the Prometheus collectors for the retention engine
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "retention"

var (
	// BatchesScheduled counts batches created by type
	BatchesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "batches_total",
			Help:      "Total number of referral batches created by type",
		},
		[]string{"type"},
	)

	// ScheduleFailures counts aborted scheduling cycles by error kind
	ScheduleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "failures_total",
			Help:      "Scheduling cycles aborted, by error kind",
		},
		[]string{"kind"},
	)

	// ChecksDispatched counts check requests published by kind and outcome
	ChecksDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checks",
			Name:      "dispatched_total",
			Help:      "Retention check requests published, by kind and status",
		},
		[]string{"kind", "status"},
	)

	// CheckResults counts applied check outcomes
	CheckResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checks",
			Name:      "results_total",
			Help:      "Retention check results applied, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Evaluations counts checks run by the local evaluators
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "evaluations_total",
			Help:      "Local evaluator runs, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Resolutions counts terminal referral decisions
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referrals",
			Name:      "resolutions_total",
			Help:      "Referral resolutions recorded, by status",
		},
		[]string{"status"},
	)

	// GrantPublishes counts deletion-granted publications by status
	GrantPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referrals",
			Name:      "grant_publishes_total",
			Help:      "Deletion granted events published, by status",
		},
		[]string{"status"},
	)

	// DuplicatesDetected counts new duplicate records by method
	DuplicatesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "duplicates",
			Name:      "detected_total",
			Help:      "Duplicate records created, by detection method",
		},
		[]string{"method"},
	)

	// DuplicateVerdicts counts false positive gate outcomes
	DuplicateVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "duplicates",
			Name:      "verdicts_total",
			Help:      "Image duplicate verification outcomes",
		},
		[]string{"verdict"},
	)

	// OpenBatches is the number of batches still waiting for completion
	OpenBatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backlog",
			Name:      "open_batches",
			Help:      "Batches without a completion past the tolerance",
		},
	)

	// UnresolvedReferrals is the number of referrals still pending past tolerance
	UnresolvedReferrals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backlog",
			Name:      "unresolved_referrals",
			Help:      "Referrals without a resolution past the tolerance",
		},
	)

	// MessagesHandled counts consumed bus messages by topic and result
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "messages_total",
			Help:      "Messages consumed, by topic and result",
		},
		[]string{"topic", "result"},
	)

	// HandleDuration tracks consumer handler latency
	HandleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "handle_duration_seconds",
			Help:      "Duration of message handling in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)

	// Published counts produced messages by topic and status
	Published = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "published_total",
			Help:      "Messages published, by topic and status",
		},
		[]string{"topic", "status"},
	)

	// HTTPRequests counts ops API requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Ops API requests, by method and status code",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks ops API latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of ops API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)
)

// RecordDispatch records one check request publication
func RecordDispatch(kind string, err error) {
	ChecksDispatched.WithLabelValues(kind, status(err)).Inc()
}

// RecordPublish records one produced message
func RecordPublish(topic string, err error) {
	Published.WithLabelValues(topic, status(err)).Inc()
}

// RecordMessage records a consumed message and its handler latency
func RecordMessage(topic, result string, durationSeconds float64) {
	MessagesHandled.WithLabelValues(topic, result).Inc()
	HandleDuration.WithLabelValues(topic).Observe(durationSeconds)
}

// RecordHTTPRequest records one ops API request
func RecordHTTPRequest(method, statusCode string, durationSeconds float64) {
	HTTPRequests.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// SetBacklog publishes the backlog gauges
func SetBacklog(openBatches, unresolvedReferrals int) {
	OpenBatches.Set(float64(openBatches))
	UnresolvedReferrals.Set(float64(unresolvedReferrals))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler { return promhttp.Handler() }
