// Package metrics registers the prometheus counters, histograms, and
// gauges the Scheduler, Solver, and Distance Provider report against.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is a private prometheus registry so library consumers can embed
// these metrics into their own process without colliding with the default
// global registry.
var Registry = prometheus.NewRegistry()

var (
	// ScenarioTotal counts scenarios by status: "submitted" on admission,
	// then the terminal status (completed/failed/cancelled).
	ScenarioTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cdst",
		Subsystem: "scheduler",
		Name:      "scenarios_total",
		Help:      "Count of scenarios admitted (status submitted) and reaching a terminal state, by status.",
	}, []string{"status"})

	// GenerationDuration tracks wall time per generation across all
	// running scenarios.
	GenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cdst",
		Subsystem: "solver",
		Name:      "generation_duration_seconds",
		Help:      "Wall-clock duration of one NSGA-II generation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scenario_id"})

	// BestObjective exposes the current best individual's objective
	// values for the running scenario's generation, one gauge per
	// objective dimension.
	BestObjective = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cdst",
		Subsystem: "solver",
		Name:      "best_objective_value",
		Help:      "Objective value of the best composite-fitness individual in the current generation.",
	}, []string{"scenario_id", "objective"})

	// CheckpointDuration tracks how long a checkpoint flush takes.
	CheckpointDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cdst",
		Subsystem: "scheduler",
		Name:      "checkpoint_flush_duration_seconds",
		Help:      "Duration of a scenario checkpoint flush to the checkpoint store.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scenario_id"})

	// DistanceCacheHits / DistanceCacheMisses count Distance Provider
	// cache outcomes.
	DistanceCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cdst",
		Subsystem: "distance",
		Name:      "cache_hits_total",
		Help:      "Distance Provider cache hits.",
	})
	DistanceCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cdst",
		Subsystem: "distance",
		Name:      "cache_misses_total",
		Help:      "Distance Provider cache misses.",
	})

	// DistanceExternalLatency tracks external routing call latency.
	DistanceExternalLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cdst",
		Subsystem: "distance",
		Name:      "external_call_latency_seconds",
		Help:      "Latency of calls to the external OSRM-style routing endpoint.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	Registry.MustRegister(
		ScenarioTotal,
		GenerationDuration,
		BestObjective,
		CheckpointDuration,
		DistanceCacheHits,
		DistanceCacheMisses,
		DistanceExternalLatency,
	)
}
