// Package metrics provides Prometheus metrics for Rover: counters, gauges,
// and histograms for expeditions, loot resolution, parties, notification
// delivery, and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Expeditions ────────────────────────────────────────────────────────────

// ExpeditionsStarted tracks started expeditions by category.
var ExpeditionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "expeditions_started_total",
	Help:      "Total expeditions started.",
}, []string{"category"})

// ExpeditionsCompleted tracks completed expeditions by category.
var ExpeditionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "expeditions_completed_total",
	Help:      "Total expeditions completed.",
}, []string{"category"})

// ExpeditionsDuplicate tracks creations rejected because the owner already
// held an active expedition.
var ExpeditionsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "expeditions_duplicate_rejected_total",
	Help:      "Total expedition creations rejected as duplicates.",
})

// PollDuration tracks how long one due-expedition poll tick takes.
var PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "rover",
	Name:      "poll_duration_seconds",
	Help:      "Duration of one due-expedition poll tick.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
})

// ─── Loot ───────────────────────────────────────────────────────────────────

// LootResolved tracks resolved outcomes by rarity tier.
var LootResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "loot_resolved_total",
	Help:      "Total resolved loot outcomes.",
}, []string{"rarity"})

// EmptyHanded tracks resolutions that produced no outcome.
var EmptyHanded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "loot_empty_handed_total",
	Help:      "Total resolutions that produced no outcome.",
})

// ProbabilityClamped tracks adjusted probabilities cut back to 1.0.
var ProbabilityClamped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "loot_probability_clamped_total",
	Help:      "Total resolutions where an adjusted probability exceeded 1.0.",
})

// ─── Parties ────────────────────────────────────────────────────────────────

// PartiesCreated tracks opened party formations.
var PartiesCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "parties_created_total",
	Help:      "Total party formations opened.",
})

// PartiesStarted tracks parties that departed, labeled by member count.
var PartiesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "parties_started_total",
	Help:      "Total parties that departed.",
}, []string{"members"})

// PartiesCompleted tracks completed party fan-outs.
var PartiesCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "parties_completed_total",
	Help:      "Total completed party fan-outs.",
})

// ─── Notifications ──────────────────────────────────────────────────────────

// NotifyFailures tracks notifier delivery failures. Failures never unwind a
// committed completion; they only show up here and in the log.
var NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rover",
	Name:      "notify_failures_total",
	Help:      "Total notifier delivery failures.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "rover",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
