// Package metrics exposes Prometheus collectors for onboarding runs and
// transaction submissions.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/paritytech/subport/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	onboardingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.PackageName,
			Subsystem: "onboarding",
			Name:      "runs_total",
			Help:      "Onboarding runs by terminal state.",
		},
		[]string{"chain", "state"},
	)
	onboardingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: common.PackageName,
			Subsystem: "onboarding",
			Name:      "run_duration_seconds",
			Help:      "Onboarding run duration in seconds.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"chain", "state"},
	)
	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.PackageName,
			Subsystem: "submission",
			Name:      "transactions_total",
			Help:      "Submitted transactions by outcome.",
		},
		[]string{"method", "outcome"},
	)
	finalityWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.PackageName,
			Subsystem: "submission",
			Name:      "finality_wait_seconds",
			Help:      "Time from submission to inclusion in a finalized block.",
			Buckets:   []float64{6, 12, 18, 30, 45, 60, 90, 120, 300},
		},
	)
)

// RegisterMetrics registers the collectors with the default registry. It is
// safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(onboardingRuns, onboardingDuration, submissions, finalityWait)
	})
}

// RecordRun counts one onboarding run that ended in state.
func RecordRun(chain, state string, duration time.Duration) {
	RegisterMetrics()
	onboardingRuns.WithLabelValues(chain, state).Inc()
	onboardingDuration.WithLabelValues(chain, state).Observe(duration.Seconds())
}

// RecordSubmission counts one submitted transaction. The finality wait is
// only observed for transactions that reached a finalized block.
func RecordSubmission(method, outcome string, finalized bool, wait time.Duration) {
	RegisterMetrics()
	submissions.WithLabelValues(method, outcome).Inc()
	if finalized {
		finalityWait.Observe(wait.Seconds())
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
