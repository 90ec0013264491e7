package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	updatesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kofemeet",
			Name:      "updates_total",
			Help:      "Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	requestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kofemeet",
			Name:      "request_transitions_total",
			Help:      "Request state transitions by outcome.",
		},
		[]string{"transition"},
	)

	sweepClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kofemeet",
			Name:      "sweep_claims_total",
			Help:      "Rows claimed by sweep passes.",
		},
		[]string{"sweep"},
	)

	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kofemeet",
			Name:      "notify_failures_total",
			Help:      "Failed notification deliveries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(updatesProcessed, requestTransitions, sweepClaims, notifyFailures)
	})
}

// IncUpdate counts a processed Telegram update by kind (message, callback).
func IncUpdate(kind string) {
	updatesProcessed.WithLabelValues(kind).Inc()
}

// IncTransition counts a request lifecycle transition
// (created, paired, unmatched, cancelled, expired, reminded).
func IncTransition(transition string) {
	requestTransitions.WithLabelValues(transition).Inc()
}

// AddSweepClaims counts rows claimed by a sweep pass (reminder, expiry).
func AddSweepClaims(sweep string, n int) {
	sweepClaims.WithLabelValues(sweep).Add(float64(n))
}

// IncNotifyFailure counts a failed delivery attempt.
func IncNotifyFailure() {
	notifyFailures.Inc()
}
