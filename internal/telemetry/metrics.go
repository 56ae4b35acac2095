package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RingsDetectedTotal counts fraud rings emitted, labeled by pattern type.
	RingsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "muleguard",
			Subsystem: "engine",
			Name:      "rings_detected_total",
			Help:      "Total number of fraud rings detected, by pattern type.",
		},
		[]string{"pattern"},
	)

	// ProcessingTimeSeconds records wall-clock duration of Analyze calls.
	ProcessingTimeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "muleguard",
			Subsystem: "engine",
			Name:      "processing_time_seconds",
			Help:      "Duration of engine.Analyze invocations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)

	// AccountsAnalyzed is the account count from the most recent Analyze call.
	AccountsAnalyzed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "muleguard",
			Subsystem: "engine",
			Name:      "accounts_analyzed",
			Help:      "Number of distinct accounts in the most recently analyzed batch.",
		},
	)
)

// RecordAnalysis updates the Prometheus metrics for one completed Analyze
// call. Pass the per-pattern ring counts and the account count from its
// summary.
func RecordAnalysis(ringCountByPattern map[string]int, accountsAnalyzed int, processingSeconds float64) {
	for pattern, count := range ringCountByPattern {
		RingsDetectedTotal.WithLabelValues(pattern).Add(float64(count))
	}
	AccountsAnalyzed.Set(float64(accountsAnalyzed))
	ProcessingTimeSeconds.Observe(processingSeconds)
}
