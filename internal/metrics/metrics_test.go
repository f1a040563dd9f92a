package metrics

import "testing"

func TestRegistryGathersAllRegisteredMetrics(t *testing.T) {
	ScenarioTotal.WithLabelValues("completed").Inc()
	GenerationDuration.WithLabelValues("scenario-1").Observe(1.5)
	BestObjective.WithLabelValues("scenario-1", "cost").Set(3.2)
	CheckpointDuration.WithLabelValues("scenario-1").Observe(0.2)
	DistanceCacheHits.Inc()
	DistanceCacheMisses.Inc()
	DistanceExternalLatency.Observe(0.05)

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	want := []string{
		"cdst_scheduler_scenarios_total",
		"cdst_solver_generation_duration_seconds",
		"cdst_solver_best_objective_value",
		"cdst_scheduler_checkpoint_flush_duration_seconds",
		"cdst_distance_cache_hits_total",
		"cdst_distance_cache_misses_total",
		"cdst_distance_external_call_latency_seconds",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("metric %q not present in registry gather output", name)
		}
	}
}
