package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cdstlab/optimizer/internal/distance"
	"github.com/cdstlab/optimizer/internal/scheduler"
	"github.com/cdstlab/optimizer/internal/telemetry"
	"github.com/cdstlab/optimizer/pkg/api"
)

// commonFlags holds the solver configuration surface shared by run,
// resume and serve-cli: population/generation/timeout/weights bind to the optimizer
// itself, the routing-* and cache-ttl-hours flags bind to the distance
// Provider.
type commonFlags struct {
	populationSize int
	maxGenerations int
	timeoutSeconds float64
	weights        string

	routingBaseURL string
	routingTimeout float64
	cacheTTLHours  float64

	user          string
	output        string
	chartOut      string
	checkpointDir string
	otlpEndpoint  string
}

// registerCommonFlags binds the shared configuration surface onto cmd,
// with OPTIMIZATION_* environment overrides read at default-construction
// time so an unset flag still picks up the environment.
func registerCommonFlags(cmd *cobra.Command) *commonFlags {
	f := &commonFlags{}
	cmd.Flags().IntVar(&f.populationSize, "population-size",
		envIntDefault("OPTIMIZATION_POPULATION_SIZE", 200), "NSGA-II population size")
	cmd.Flags().IntVar(&f.maxGenerations, "max-generations",
		envIntDefault("OPTIMIZATION_MAX_GENERATIONS", 500), "maximum generations to evolve")
	cmd.Flags().Float64Var(&f.timeoutSeconds, "timeout",
		envFloatDefault("OPTIMIZATION_TIMEOUT", 900), "wall-clock time budget in seconds (0 disables)")
	cmd.Flags().StringVar(&f.weights, "weights",
		envStringDefault("OPTIMIZATION_WEIGHTS", "0.2,0.2,0.2,0.2,0.2"),
		"comma-separated objective weights: distance,time,cost,utilization,accessibility")

	cmd.Flags().StringVar(&f.routingBaseURL, "routing-base-url",
		envStringDefault("OPTIMIZATION_ROUTING_BASE_URL", ""), "OSRM-style routing endpoint (empty uses haversine fallback only)")
	cmd.Flags().Float64Var(&f.routingTimeout, "routing-timeout",
		envFloatDefault("OPTIMIZATION_ROUTING_TIMEOUT", 30), "per-request routing timeout in seconds")
	cmd.Flags().Float64Var(&f.cacheTTLHours, "cache-ttl-hours",
		envFloatDefault("OPTIMIZATION_CACHE_TTL_HOURS", 24), "distance cache entry lifetime in hours")

	cmd.Flags().StringVar(&f.user, "user", "cli", "submitting user id, for admission fairness")
	cmd.Flags().StringVarP(&f.output, "output", "o", "-", "result JSON output path (- for stdout)")
	cmd.Flags().StringVar(&f.chartOut, "chart-out", "", "directory to render Pareto-front and convergence HTML charts into")
	cmd.Flags().StringVar(&f.checkpointDir, "checkpoint-dir", "", "directory for durable checkpoints (empty uses an in-memory store)")
	cmd.Flags().StringVar(&f.otlpEndpoint, "otlp-endpoint",
		envStringDefault("OPTIMIZATION_OTLP_ENDPOINT", ""), "OTLP gRPC collector endpoint for scenario-run and generation-batch spans (empty disables tracing)")
	return f
}

// parseWeights parses the --weights flag into the five-element vector
// problem.Parameters.Weights expects.
func parseWeights(s string) ([5]float64, error) {
	var w [5]float64
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return w, fmt.Errorf("weights: want 5 comma-separated values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return w, fmt.Errorf("weights: %q is not a number: %w", p, err)
		}
		w[i] = v
	}
	return w, nil
}

// parameters builds an api.ParametersConfig from the shared flags, starting
// from the externally-visible default set so fields the CLI doesn't
// expose as flags (crossover/mutation rate, convergence thresholds, ...)
// still carry sane values.
func (f *commonFlags) parameters() (*api.ParametersConfig, error) {
	weights, err := parseWeights(f.weights)
	if err != nil {
		return nil, err
	}
	cfg := api.DefaultParametersConfig()
	cfg.Weights = weights
	cfg.PopulationSize = f.populationSize
	cfg.MaxGenerations = f.maxGenerations
	cfg.TimeoutSeconds = f.timeoutSeconds
	return &cfg, nil
}

// provider constructs the distance Provider the shared flags describe.
func (f *commonFlags) provider() *distance.Provider {
	return distance.NewProvider(f.routingBaseURL,
		distance.WithTimeout(time.Duration(f.routingTimeout*float64(time.Second))),
		distance.WithCacheTTL(time.Duration(f.cacheTTLHours*float64(time.Hour))),
	)
}

// checkpointStore constructs the CheckpointStore the shared flags
// describe: a FileCheckpointStore rooted at --checkpoint-dir when set, an
// InMemoryCheckpointStore otherwise (adequate for a one-shot run within a
// single process lifetime, but unable to survive a process restart).
func (f *commonFlags) checkpointStore() (scheduler.CheckpointStore, error) {
	if f.checkpointDir == "" {
		return scheduler.NewInMemoryCheckpointStore(), nil
	}
	return scheduler.NewFileCheckpointStore(f.checkpointDir)
}

// telemetryProvider constructs the tracer Provider the shared flags
// describe: a no-op provider when --otlp-endpoint is unset, matching
// telemetry.NewProvider's own guarded lazy-init behavior.
func (f *commonFlags) telemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	return telemetry.NewProvider(ctx, f.otlpEndpoint)
}

// newScheduler constructs a Scheduler backed by store and wires in the
// tracer Provider the shared flags describe. Callers should Shutdown the
// returned Provider once the scheduler is done with it.
func (f *commonFlags) newScheduler(ctx context.Context, store scheduler.CheckpointStore) (*scheduler.Scheduler, *telemetry.Provider, error) {
	tp, err := f.telemetryProvider(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("constructing tracer provider: %w", err)
	}
	sched := scheduler.NewScheduler(store, 0, 0)
	sched.SetTelemetry(tp)
	return sched, tp, nil
}
