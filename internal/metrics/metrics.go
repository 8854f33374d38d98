package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	ContactsCreated        *prometheus.CounterVec
	ClassificationDuration prometheus.Histogram
	AutomationResults      *prometheus.CounterVec
	AutomationRetries      prometheus.Counter
	IntakePullCount        prometheus.Counter
	IntakeMessages         *prometheus.CounterVec
	SchedulerRuns          *prometheus.CounterVec
	HTTPRequests           *prometheus.CounterVec
	HTTPDuration           *prometheus.HistogramVec
	RateLimited            prometheus.Counter
}

// NewMetrics creates Prometheus metrics registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ContactsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_triage_contacts_created_total",
			Help: "Total number of contacts created, by category",
		}, []string{"category"}),
		ClassificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contact_triage_classification_duration_seconds",
			Help:    "Time spent classifying messages",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		AutomationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_triage_automation_results_total",
			Help: "Total number of automation dispatches, by action and outcome",
		}, []string{"action", "status"}),
		AutomationRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_triage_automation_retries_total",
			Help: "Total number of automation retry attempts",
		}),
		IntakePullCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_triage_intake_pull_count",
			Help: "Total number of inbox fetch operations",
		}),
		IntakeMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_triage_intake_messages_total",
			Help: "Total number of inbound emails handled, by outcome",
		}, []string{"outcome"}),
		SchedulerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_triage_scheduler_runs_total",
			Help: "Total number of scheduled job runs, by job and outcome",
		}, []string{"job", "status"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_triage_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contact_triage_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_triage_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
	}
}
