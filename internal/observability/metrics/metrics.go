package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	identityProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_provider_requests_total",
		Help: "Calls to the identity provider by operation and outcome",
	}, []string{"operation", "outcome"})

	emailRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "user_email_rollbacks_total",
		Help: "Identity provider email rollbacks after a failed local update, by outcome",
	}, []string{"outcome"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_runs_total",
		Help: "Background job executions by job and result",
	}, []string{"job", "result"})

	inventoryAlerts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inventory_alert_items",
		Help: "Items flagged by the most recent inventory sweep",
	}, []string{"kind"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func ObserveIdentityProviderRequest(operation, outcome string) {
	identityProviderRequests.WithLabelValues(operation, outcome).Inc()
}

// ObserveEmailRollback counts one finished rollback sequence, not each attempt.
func ObserveEmailRollback(outcome string) {
	emailRollbacks.WithLabelValues(outcome).Inc()
}

func ObserveJobRun(job, result string) {
	jobRuns.WithLabelValues(job, result).Inc()
}

func SetInventoryAlerts(kind string, count int) {
	inventoryAlerts.WithLabelValues(kind).Set(float64(count))
}
