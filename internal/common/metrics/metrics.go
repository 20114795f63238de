package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDeclined = "declined"
	OutcomeBlocked  = "blocked"
	OutcomeInvalid  = "invalid"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_api_requests_total",
			Help: "Total number of resource API requests",
		},
		[]string{"resource", "operation", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_api_request_duration_seconds",
			Help:    "Duration of resource API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "operation"},
	)

	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_actions_total",
			Help: "Operator actions by screen and outcome",
		},
		[]string{"resource", "action", "outcome"},
	)

	ActionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_actions_in_flight",
			Help: "Number of guarded actions currently in flight",
		},
		[]string{"action"},
	)
)
