package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/cdstlab/optimizer/internal/metrics"
	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/internal/solver"
	"github.com/cdstlab/optimizer/internal/telemetry"
)

// objectiveNames labels solver.Individual.F by index for the per-objective
// BestObjective gauge, matching internal/objectives.Idx* ordering.
var objectiveNames = [5]string{"distance", "time", "cost", "utilization", "accessibility"}

// Scheduler owns scenario lifecycle end to end: admission, the
// per-scenario solver goroutine, progress broadcast, checkpointing, and
// cooperative cancellation.
type Scheduler struct {
	store     CheckpointStore
	telemetry *telemetry.Provider

	globalSlots int
	maxPerUser  int
	workers     int

	mu            sync.Mutex
	scenarios     map[string]*Scenario
	broadcasters  map[string]*broadcaster
	pendingByUser map[string][]string
	runningByUser map[string]int
	userRing      []string
	ringCursor    int
	runningCount  int
}

// NewScheduler constructs a Scheduler backed by store. globalSlots and
// maxPerUser default to 4 and 3 (the admission limits described in the
// scheduler's lifecycle rules) when passed as 0.
func NewScheduler(store CheckpointStore, globalSlots, maxPerUser int) *Scheduler {
	if globalSlots <= 0 {
		globalSlots = 4
	}
	if maxPerUser <= 0 {
		maxPerUser = 3
	}
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	noopTelemetry, _ := telemetry.NewProvider(context.Background(), "")
	return &Scheduler{
		store:         store,
		telemetry:     noopTelemetry,
		globalSlots:   globalSlots,
		maxPerUser:    maxPerUser,
		workers:       workers,
		scenarios:     make(map[string]*Scenario),
		broadcasters:  make(map[string]*broadcaster),
		pendingByUser: make(map[string][]string),
		runningByUser: make(map[string]int),
	}
}

// SetTelemetry installs the tracer provider used for scenario-run and
// generation-batch spans. Scheduler defaults to a no-op provider, so
// callers that don't configure an OTLP endpoint never need to call this.
func (s *Scheduler) SetTelemetry(tp *telemetry.Provider) {
	s.telemetry = tp
}

// RunScenario admits scenarioID for user, to run p/params once a slot
// frees, and returns a live progress-frame channel plus an unsubscribe
// func. The channel receives the cached latest frame immediately on
// subscribe and every frame thereafter until a terminal frame, after which
// no further frames are published (subscribers should unsubscribe once
// they observe a terminal Status).
func (s *Scheduler) RunScenario(ctx context.Context, scenarioID, user string, p *problem.Problem, params *problem.Parameters) (<-chan ProgressFrame, func(), error) {
	if err := problem.ValidateParameters(params); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	if _, exists := s.scenarios[scenarioID]; exists {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("scenario %s already submitted", scenarioID)
	}
	if len(s.pendingByUser[user])+s.runningByUser[user] >= s.maxPerUser+queueSlack {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("user %s: %w", user, ErrRateLimitExceeded)
	}

	sc := &Scenario{
		ID:          scenarioID,
		User:        user,
		Problem:     p,
		Parameters:  params,
		SubmittedAt: time.Now(),
	}
	sc.transition(StatusPending)
	s.scenarios[scenarioID] = sc
	b := newBroadcaster()
	s.broadcasters[scenarioID] = b
	s.enqueueLocked(user, scenarioID)
	s.mu.Unlock()

	b.Publish(ProgressFrame{ScenarioID: scenarioID, Stage: StageInitializing, Status: StatusPending})
	metrics.ScenarioTotal.WithLabelValues("submitted").Inc()

	s.dispatch(ctx)

	ch, cancel := b.Subscribe()
	return ch, cancel, nil
}

// queueSlack lets a user hold a small backlog of pending scenarios beyond
// their concurrent-running cap before RATE_LIMIT_EXCEEDED kicks in.
const queueSlack = 5

func (s *Scheduler) enqueueLocked(user, scenarioID string) {
	if _, seen := s.pendingByUser[user]; !seen {
		s.userRing = append(s.userRing, user)
	}
	s.pendingByUser[user] = append(s.pendingByUser[user], scenarioID)
}

// dispatch admits as many pending scenarios as there are free global
// slots, preferring users with fewer currently running scenarios and
// breaking ties by round-robin position, then launches each admitted
// scenario's run goroutine.
func (s *Scheduler) dispatch(ctx context.Context) {
	for {
		sc := s.admitNext()
		if sc == nil {
			return
		}
		go s.run(ctx, sc)
	}
}

func (s *Scheduler) admitNext() *Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningCount >= s.globalSlots {
		return nil
	}

	n := len(s.userRing)
	bestIdx := -1
	bestRunning := -1
	for i := 0; i < n; i++ {
		idx := (s.ringCursor + i) % n
		user := s.userRing[idx]
		if len(s.pendingByUser[user]) == 0 {
			continue
		}
		if s.runningByUser[user] >= s.maxPerUser {
			continue
		}
		running := s.runningByUser[user]
		if bestIdx == -1 || running < bestRunning {
			bestIdx = idx
			bestRunning = running
		}
	}
	if bestIdx == -1 {
		return nil
	}
	user := s.userRing[bestIdx]
	s.ringCursor = (bestIdx + 1) % n

	queue := s.pendingByUser[user]
	scenarioID := queue[0]
	s.pendingByUser[user] = queue[1:]
	s.runningByUser[user]++
	s.runningCount++

	sc := s.scenarios[scenarioID]
	sc.transition(StatusRunning)
	sc.StartedAt = time.Now()
	return sc
}

func (s *Scheduler) release(sc *Scenario) {
	s.mu.Lock()
	s.runningByUser[sc.User]--
	s.runningCount--
	s.mu.Unlock()
}

// CancelScenario requests cooperative cancellation. It is idempotent:
// cancelling an already-cancelled or already-terminal scenario is a no-op.
func (s *Scheduler) CancelScenario(scenarioID string) error {
	s.mu.Lock()
	sc, ok := s.scenarios[scenarioID]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownScenario
	}
	if sc.cancel != nil {
		sc.cancel()
	}
	return nil
}

// GetResult returns the scenario record once it has reached a terminal
// state; otherwise it fails with ErrNotReady.
func (s *Scheduler) GetResult(scenarioID string) (*Scenario, error) {
	s.mu.Lock()
	sc, ok := s.scenarios[scenarioID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrUnknownScenario
	}
	switch sc.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return sc, nil
	default:
		return nil, ErrNotReady
	}
}

// run drives one scenario's solver loop to a terminal state. It owns the
// scenario exclusively: no other goroutine mutates sc.Status,
// sc.Generation, or sc.engine while run is active.
func (s *Scheduler) run(parentCtx context.Context, sc *Scenario) {
	defer func() {
		s.release(sc)
		s.dispatch(parentCtx)
	}()

	b := s.broadcasterFor(sc.ID)
	ctx := parentCtx
	var cancel context.CancelFunc
	if sc.Parameters.TimeBudget > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, sc.Parameters.TimeBudget)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}
	sc.cancel = cancel
	defer cancel()

	ctx, runSpan := s.telemetry.StartScenarioRun(ctx, sc.ID, sc.Parameters.PopulationSize, sc.Parameters.MaxGenerations)
	defer runSpan.End()

	engine, err := s.resumeOrCreate(sc)
	if err != nil {
		s.finish(sc, b, StatusFailed, FailureCheckpoint)
		return
	}
	sc.engine = engine

	if engine.Generation() == 0 {
		b.Publish(s.frame(sc, StageInitializing))
		if err := engine.Initialize(ctx); err != nil {
			s.finish(sc, b, s.terminalFor(ctx, sc), FailureNone)
			return
		}
	}

	generationStart := time.Now()

	for {
		genCtx, genSpan := s.telemetry.StartGeneration(ctx, sc.Generation, sc.Hypervolume)
		reason, err := engine.EvolveOneGeneration(genCtx)
		genElapsed := time.Since(generationStart).Seconds()
		generationStart = time.Now()
		if sc.meanGenSeconds == 0 {
			sc.meanGenSeconds = genElapsed
		} else {
			sc.meanGenSeconds = 0.8*sc.meanGenSeconds + 0.2*genElapsed
		}
		metrics.GenerationDuration.WithLabelValues(sc.ID).Observe(genElapsed)
		telemetry.RecordGenerationDuration(genSpan, time.Duration(genElapsed*float64(time.Second)))
		genSpan.End()

		sc.Generation = engine.Generation()
		if best := bestIndividual(engine); best != nil {
			sc.BestFitness = best.Composite
			for i, name := range objectiveNames {
				metrics.BestObjective.WithLabelValues(sc.ID, name).Set(best.F[i])
			}
		}
		sc.Hypervolume = engine.BestHypervolume()

		if err != nil {
			s.finish(sc, b, s.terminalFor(ctx, sc), FailureNone)
			return
		}

		// Publish at every generation boundary, unthrottled. No frame is
		// published in the middle of a generation, however long it runs.
		b.Publish(s.frame(sc, StageEvolving))

		if sc.Generation%sc.Parameters.CheckpointInterval == 0 {
			s.checkpoint(sc, engine)
		}

		if reason != solver.NotTerminated {
			s.completeNatural(sc, b, engine, reason)
			return
		}
	}
}

func (s *Scheduler) completeNatural(sc *Scenario, b *broadcaster, engine *solver.Engine, reason solver.TerminationReason) {
	b.Publish(s.frame(sc, StageFinalizing))
	sc.front = engine.ExtractFront()
	s.finish(sc, b, StatusCompleted, FailureNone)
	klog.V(1).Infof("scenario %s completed at generation %d (%s)", sc.ID, sc.Generation, reason)
}

// terminalFor inspects ctx to decide whether a generation-loop exit was a
// timeout, a user cancellation, or a genuine internal error unrelated to
// ctx (ctx.Err() is nil in that last case).
func (s *Scheduler) terminalFor(ctx context.Context, sc *Scenario) Status {
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		sc.FailureReason = FailureTimeout
		return StatusFailed
	case ctx.Err() == context.Canceled:
		return StatusCancelled
	default:
		sc.FailureReason = FailureInternal
		return StatusFailed
	}
}

func (s *Scheduler) finish(sc *Scenario, b *broadcaster, status Status, reason FailureReason) {
	sc.transition(status)
	if reason != FailureNone {
		sc.FailureReason = reason
	}
	sc.EndedAt = time.Now()
	if sc.engine != nil {
		sc.front = sc.engine.ExtractFront()
	}
	b.Publish(s.frame(sc, StageFinalizing))
	metrics.ScenarioTotal.WithLabelValues(string(status)).Inc()
}

func (s *Scheduler) checkpoint(sc *Scenario, engine *solver.Engine) {
	start := time.Now()
	blob, err := encodeCheckpoint(sc.ID, engine.Generation(), engine.Seed(), engine.Population())
	if err != nil {
		klog.V(1).Infof("scenario %s: checkpoint encode failed: %v", sc.ID, err)
		return
	}
	if err := s.store.Put(sc.ID, blob); err != nil {
		klog.V(1).Infof("scenario %s: %v: %v", sc.ID, ErrCheckpointFailed, err)
		return
	}
	metrics.CheckpointDuration.WithLabelValues(sc.ID).Observe(time.Since(start).Seconds())
}

// resumeOrCreate builds a fresh Engine, or restores one from the
// checkpoint store if a blob exists for sc.ID (process-restart resume of
// a scenario that was running).
func (s *Scheduler) resumeOrCreate(sc *Scenario) (*solver.Engine, error) {
	blob, ok, err := s.store.Get(sc.ID)
	if err != nil || !ok {
		return solver.NewEngine(sc.Problem, sc.Parameters, s.workers), nil
	}
	_, generation, seed, population, err := decodeCheckpoint(blob, sc.Problem.NAreas, sc.Problem.NLabs, sc.Problem.NTests)
	if err != nil {
		klog.Warningf("scenario %s: checkpoint unreadable, failing: %v", sc.ID, err)
		return nil, err
	}
	engine := solver.NewEngine(sc.Problem, sc.Parameters, s.workers)
	engine.Reseed(seed)
	engine.RestorePopulation(population, generation)
	klog.V(1).Infof("scenario %s: resumed from checkpoint at generation %d", sc.ID, generation)
	return engine, nil
}

func (s *Scheduler) broadcasterFor(scenarioID string) *broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcasters[scenarioID]
}

func (s *Scheduler) frame(sc *Scenario, stage Stage) ProgressFrame {
	elapsed := time.Since(sc.SubmittedAt).Seconds()
	if !sc.StartedAt.IsZero() {
		elapsed = time.Since(sc.StartedAt).Seconds()
	}
	var eta float64
	if sc.meanGenSeconds > 0 && sc.Parameters.MaxGenerations > sc.Generation {
		eta = sc.meanGenSeconds * float64(sc.Parameters.MaxGenerations-sc.Generation)
	}
	return ProgressFrame{
		ScenarioID:     sc.ID,
		Generation:     sc.Generation,
		MaxGenerations: sc.Parameters.MaxGenerations,
		BestComposite:  sc.BestFitness,
		Hypervolume:    sc.Hypervolume,
		ElapsedSeconds: elapsed,
		ETASeconds:     eta,
		Stage:          stage,
		Status:         sc.Status,
		FailureReason:  sc.FailureReason,
	}
}

func bestIndividual(engine *solver.Engine) *solver.Individual {
	var best *solver.Individual
	for _, ind := range engine.Population() {
		if best == nil || ind.Composite < best.Composite {
			best = ind
		}
	}
	return best
}
