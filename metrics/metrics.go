// Package metrics exposes the Prometheus instruments used across the
// submission pipeline. Collectors are package-level so instrumented code
// stays free of plumbing; call Register once from the binary entry point.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wastebot"

var (
	// AnalyzerCallsTotal counts analyzer invocations by outcome
	// (accepted, rejected, unavailable).
	AnalyzerCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyzer_calls_total",
		Help:      "Analyzer invocations by analyzer name and outcome.",
	}, []string{"analyzer", "outcome"})

	// ChainDurationSeconds observes end-to-end chain classification time.
	ChainDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chain_duration_seconds",
		Help:      "Wall-clock duration of a full chain classification.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// ChainOutcomeTotal counts terminal chain outcomes.
	ChainOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chain_outcome_total",
		Help:      "Chain classifications by terminal outcome.",
	}, []string{"outcome"})

	// ReportsCreatedTotal counts successfully persisted reports.
	ReportsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_created_total",
		Help:      "Reports persisted to the store.",
	})

	// DuplicateImagesTotal counts submissions refused for a known hash.
	DuplicateImagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_images_total",
		Help:      "Submissions refused because the image hash already exists.",
	})

	// SubmissionsExpiredTotal counts pending submissions removed by the sweeper.
	SubmissionsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_expired_total",
		Help:      "Pending submissions purged after TTL expiry.",
	})

	// EventsDedupedTotal counts inbound events dropped as duplicate deliveries.
	EventsDedupedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_deduped_total",
		Help:      "Inbound events ignored by the recent-event window.",
	})

	// RewardRetriesTotal counts asynchronous reward grant retries.
	RewardRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reward_retries_total",
		Help:      "Retried reward ledger writes.",
	})
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AnalyzerCallsTotal,
			ChainDurationSeconds,
			ChainOutcomeTotal,
			ReportsCreatedTotal,
			DuplicateImagesTotal,
			SubmissionsExpiredTotal,
			EventsDedupedTotal,
			RewardRetriesTotal,
		)
	})
}
