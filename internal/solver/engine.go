package solver

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/internal/warmstart"
)

// Capability is the polymorphism-over-algorithms seam: NSGA-II (Engine) is
// the only implementation built here, but MOEA/D or SPEA2 variants could
// satisfy the same three-method contract without the Scheduler knowing the
// difference.
type Capability interface {
	Initialize(ctx context.Context) error
	EvolveOneGeneration(ctx context.Context) (TerminationReason, error)
	ExtractFront() []*Individual
}

// TerminationReason is empty while a run should continue; a non-empty
// value names why EvolveOneGeneration decided to stop.
type TerminationReason string

const (
	NotTerminated            TerminationReason = ""
	TerminatedMaxGenerations TerminationReason = "max_generations"
	TerminatedConverged      TerminationReason = "converged"
	TerminatedDiversity      TerminationReason = "diversity_stalled"
)

// Engine runs the NSGA-II generational loop: evaluate -> non-dominated
// sort -> crowding -> select/crossover/mutate -> repair -> union-and-truncate
// replacement, with elitism and a hypervolume-variance convergence check
// layered on top of a fixed generation cap so long-running scenarios can
// stop early.
type Engine struct {
	problem *problem.Problem
	params  *problem.Parameters
	eval    *Evaluator
	rng     *rand.Rand

	population []*Individual
	generation int
	maxDemand  int32

	refPoint           objectives.Vector
	hypervolumeHistory []float64
	bestHypervolume    float64

	seed      int64
	startTime time.Time
}

// NewEngine constructs an Engine for one scenario run. workers sizes the
// Evaluator's parallel fitness pool (min(runtime cores, 8) by default, via
// solver.NewConfig).
func NewEngine(p *problem.Problem, params *problem.Parameters, workers int) *Engine {
	var seed int64
	if params.Seed != nil {
		seed = *params.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var maxDemand int32
	for _, d := range p.Demand {
		if d > maxDemand {
			maxDemand = d
		}
	}

	return &Engine{
		problem:   p,
		params:    params,
		eval:      NewEvaluator(p, params, workers),
		rng:       rng,
		maxDemand: maxDemand,
		seed:      seed,
	}
}

// Seed returns the RNG seed this Engine was constructed with (explicit or
// entropy-derived), for checkpoint round-tripping.
func (e *Engine) Seed() int64 { return e.seed }

// Reseed replaces the Engine's RNG, used when resuming from a checkpoint
// that recorded a different seed than the one the process would otherwise
// have chosen.
func (e *Engine) Reseed(seed int64) {
	e.seed = seed
	e.rng = rand.New(rand.NewSource(seed))
}

var _ Capability = (*Engine)(nil)

// Generation returns the number of completed generations.
func (e *Engine) Generation() int { return e.generation }

// BestHypervolume returns the most recently recorded hypervolume estimate.
func (e *Engine) BestHypervolume() float64 { return e.bestHypervolume }

// Population exposes the current population (read-only by convention; the
// Scheduler uses this for checkpointing).
func (e *Engine) Population() []*Individual { return e.population }

// RestorePopulation substitutes the current population with one recovered
// from a checkpoint, along with the generation counter it was taken at.
// Used by the Scheduler on process-restart resume.
func (e *Engine) RestorePopulation(pop []*Individual, generation int) {
	e.population = pop
	e.generation = generation
}

// Initialize builds the initial population (30% random / 40% greedy / 30%
// capacity-balanced, warmstart.GeneratePopulation already repairs each
// member), evaluates it, and fixes the hypervolume reference point at the
// population's objective-wise maxima inflated by 10%.
func (e *Engine) Initialize(ctx context.Context) error {
	e.startTime = time.Now()
	allocs := warmstart.GeneratePopulation(e.problem, e.params.PopulationSize, e.rng)

	e.population = make([]*Individual, len(allocs))
	for i, al := range allocs {
		e.population[i] = NewIndividual(al)
	}

	e.eval.EvaluateAll(e.population, nil)
	normalizer := NewNormalizer(e.population)
	for _, ind := range e.population {
		ind.Composite = normalizer.Composite(ind.F, ind.Penalty, e.params.Weights)
	}

	for _, front := range NonDominatedSort(e.population) {
		CrowdingDistance(front)
	}

	e.refPoint = referencePoint(e.population)
	e.bestHypervolume = Hypervolume(rank0(e.population), e.refPoint)
	e.hypervolumeHistory = append(e.hypervolumeHistory, e.bestHypervolume)

	return ctx.Err()
}

// EvolveOneGeneration advances the population by one generation (select,
// crossover, mutate, repair, union-and-truncate replacement with elitism),
// then evaluates the termination conditions that are the Engine's own
// responsibility (max generations, convergence, diversity stall).
// Wall-clock budget and cooperative cancellation are the Scheduler's
// responsibility and reach this method through ctx, which is checked once
// on entry: a done ctx returns its error without evolving.
func (e *Engine) EvolveOneGeneration(ctx context.Context) (TerminationReason, error) {
	if err := ctx.Err(); err != nil {
		return NotTerminated, err
	}

	offspring := e.makeOffspring()
	e.eval.EvaluateAll(offspring, nil)

	combined := append(append([]*Individual{}, e.population...), offspring...)
	normalizer := NewNormalizer(combined)
	for _, ind := range combined {
		ind.Composite = normalizer.Composite(ind.F, ind.Penalty, e.params.Weights)
	}

	fronts := NonDominatedSort(combined)
	for _, front := range fronts {
		CrowdingDistance(front)
	}

	next := e.replace(fronts)
	e.preserveElite(next, combined)
	e.population = next
	e.generation++

	hv := Hypervolume(rank0(e.population), e.refPoint)
	if hv > e.bestHypervolume {
		e.bestHypervolume = hv
	}
	e.hypervolumeHistory = append(e.hypervolumeHistory, hv)

	return e.checkTermination(), nil
}

// ExtractFront returns the rank-0 (Pareto front) individuals of the
// current population.
func (e *Engine) ExtractFront() []*Individual {
	return rank0(e.population)
}

func (e *Engine) makeOffspring() []*Individual {
	size := e.params.PopulationSize
	offspring := make([]*Individual, 0, size)
	for len(offspring) < size {
		p1 := TournamentSelect(e.population, e.params.TournamentSize, e.rng)
		p2 := TournamentSelect(e.population, e.params.TournamentSize, e.rng)

		var c1, c2 *allocation.Allocation
		if e.rng.Float64() < e.params.CrossoverRate {
			c1, c2 = Crossover(p1.Alloc, p2.Alloc, e.rng)
		} else {
			c1, c2 = p1.Alloc.Clone(), p2.Alloc.Clone()
		}

		Mutate(c1, e.problem, e.params, e.generation, e.maxDemand, e.rng)
		Mutate(c2, e.problem, e.params, e.generation, e.maxDemand, e.rng)
		allocation.Repair(c1, e.problem, e.rng)
		allocation.Repair(c2, e.problem, e.rng)

		offspring = append(offspring, NewIndividual(c1), NewIndividual(c2))
	}
	return offspring[:size]
}

// replace takes the union of parents and children (already split into
// fronts by the caller), sorted by (rank, -crowding), and keeps the first
// P individuals.
func (e *Engine) replace(fronts [][]*Individual) []*Individual {
	size := e.params.PopulationSize
	next := make([]*Individual, 0, size)
	for _, front := range fronts {
		if len(next)+len(front) <= size {
			next = append(next, front...)
			continue
		}
		remaining := size - len(next)
		if remaining <= 0 {
			break
		}
		sortByCrowdingDesc(front)
		next = append(next, front[:remaining]...)
		break
	}
	return next
}

// preserveElite re-injects the elite_size globally best individuals (by
// rank then crowding) from the combined pool if replacement dropped any of
// them, guaranteeing the elite survive across generations unconditionally.
func (e *Engine) preserveElite(next []*Individual, combined []*Individual) {
	eliteSize := e.params.EliteSize
	if eliteSize <= 0 {
		return
	}
	ordered := append([]*Individual{}, combined...)
	sortByRankThenCrowdingDesc(ordered)
	if eliteSize > len(ordered) {
		eliteSize = len(ordered)
	}
	elite := ordered[:eliteSize]

	present := make(map[*Individual]bool, len(next))
	for _, ind := range next {
		present[ind] = true
	}

	missing := make([]*Individual, 0)
	for _, ind := range elite {
		if !present[ind] {
			missing = append(missing, ind)
		}
	}
	if len(missing) == 0 {
		return
	}

	// Sort next worst-first so the least fit survivors are the ones
	// overwritten by the missing elites.
	sort.Slice(next, func(i, j int) bool { return less(next[j], next[i]) })
	n := len(missing)
	if n > len(next) {
		n = len(next)
	}
	copy(next[:n], missing[:n])
}

func (e *Engine) checkTermination() TerminationReason {
	if e.generation >= e.params.MaxGenerations {
		return TerminatedMaxGenerations
	}
	if converged(e.hypervolumeHistory, e.params.ConvergenceWindow, e.params.ConvergenceThreshold) {
		return TerminatedConverged
	}
	if e.params.DiversityThreshold > 0 && diversity(e.population) < e.params.DiversityThreshold && stalled(e.hypervolumeHistory, e.params.ConvergenceWindow) {
		return TerminatedDiversity
	}
	return NotTerminated
}

// referencePoint fixes the hypervolume reference at the initial
// population's objective-wise maxima inflated by 10%; a maximum that is
// not positive is replaced by 1 before inflating.
func referencePoint(population []*Individual) objectives.Vector {
	var ref objectives.Vector
	for i := range ref {
		ref[i] = math.Inf(-1)
	}
	for _, ind := range population {
		for i, v := range ind.F {
			if v > ref[i] {
				ref[i] = v
			}
		}
	}
	for i := range ref {
		if ref[i] <= 0 {
			ref[i] = 1
		}
		ref[i] *= 1.1
	}
	return ref
}

// converged reports whether the variance of the last `window` hypervolume
// samples is below threshold.
func converged(history []float64, window int, threshold float64) bool {
	if window <= 0 || len(history) < window {
		return false
	}
	sample := history[len(history)-window:]
	return variance(sample) < threshold
}

// stalled is the "improvement has stalled" clause of the diversity
// termination condition: the best hypervolume hasn't strictly improved
// over the convergence window.
func stalled(history []float64, window int) bool {
	if window <= 0 || len(history) < window {
		return false
	}
	sample := history[len(history)-window:]
	best := sample[0]
	for _, v := range sample {
		if v > best {
			best = v
		}
	}
	return best <= sample[0]+1e-12
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return sumSq / float64(len(xs))
}

// diversity is the mean pairwise objective-space Euclidean distance across
// the population.
func diversity(population []*Individual) float64 {
	n := len(population)
	if n < 2 {
		return math.Inf(1)
	}
	var total float64
	count := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sumSq float64
			for k := range population[i].F {
				d := population[i].F[k] - population[j].F[k]
				sumSq += d * d
			}
			total += math.Sqrt(sumSq)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func rank0(population []*Individual) []*Individual {
	var front []*Individual
	for _, ind := range population {
		if ind.Rank == 0 {
			front = append(front, ind)
		}
	}
	return front
}

func sortByCrowdingDesc(front []*Individual) {
	sort.Slice(front, func(i, j int) bool { return front[i].Crowding > front[j].Crowding })
}

func sortByRankThenCrowdingDesc(pop []*Individual) {
	sort.Slice(pop, func(i, j int) bool { return less(pop[i], pop[j]) })
}

// less reports whether a ranks ahead of b (lower rank wins; ties broken by
// higher crowding distance), i.e. a belongs earlier in an elite ordering.
func less(a, b *Individual) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Crowding > b.Crowding
}
