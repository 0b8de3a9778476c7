// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the habit tracker.
var (
	// Counters.
	HabitTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_toggles_total",
			Help: "Total habit completion toggles",
		},
		[]string{"direction"}, // "complete" or "incomplete"
	)

	StreakAdvancesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_advances_total",
			Help: "Total streak advancements (continue or start)",
		},
	)

	StreakResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_resets_total",
			Help: "Total streaks restarted at 1 after a gap",
		},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total badges awarded",
		},
		[]string{"badge", "source"}, // source: "engine" or "reconciliation"
	)

	EngineFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streak_engine_failures_total",
			Help: "Total streak engine runs degraded by persistence errors",
		},
	)

	// Gauges.
	BadgeHolders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "badge_holders",
			Help: "Current number of users holding each badge",
		},
		[]string{"badge"},
	)

	// Histograms.
	EngineDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streak_engine_duration_seconds",
			Help:    "Streak engine evaluation duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	// Scheduler metrics.
	ReconciliationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_reconciliation_runs_total",
			Help: "Total badge reconciliation job executions",
		},
		[]string{"status"},
	)
)

// RecordToggle records a habit completion toggle.
func RecordToggle(direction string) {
	HabitTogglesTotal.WithLabelValues(direction).Inc()
}

// RecordBadgeAwarded records a badge award.
func RecordBadgeAwarded(badge, source string) {
	BadgesAwardedTotal.WithLabelValues(badge, source).Inc()
}

// SetBadgeHolders updates the holder count gauge for a badge.
func SetBadgeHolders(badge string, count int) {
	BadgeHolders.WithLabelValues(badge).Set(float64(count))
}
