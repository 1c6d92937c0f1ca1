package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Charge attempt outcomes.
const (
	OutcomeCommitted          = "committed"
	OutcomeInsufficientFunds  = "insufficient_funds"
	OutcomeStationUnavailable = "station_unavailable"
	OutcomeInvalidAmount      = "invalid_amount"
	OutcomeNotFound           = "not_found"
	OutcomeError              = "error"
)

var (
	chargeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltcity_charge_attempts_total",
		Help: "Charge attempts by terminal outcome",
	}, []string{"outcome"})

	compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltcity_compensations_total",
		Help: "Compensating credits after a lost station race",
	}, []string{"result"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voltcity_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// ObserveChargeAttempt records a terminal startCharge outcome.
func ObserveChargeAttempt(outcome string) {
	chargeAttempts.WithLabelValues(outcome).Inc()
}

// ObserveCompensation records a compensation result ("ok" or "failed").
// A "failed" sample is the operational alerting hook: it means an account is
// debited for a charge that never started.
func ObserveCompensation(result string) {
	compensations.WithLabelValues(result).Inc()
}

// RequestTimer returns a running latency timer for an endpoint.
func RequestTimer(method, endpoint string) *prometheus.Timer {
	return prometheus.NewTimer(httpLatency.WithLabelValues(method, endpoint))
}

// Handler exposes the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
