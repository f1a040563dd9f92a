package solver

import (
	"sync"

	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/problem"
)

// Evaluator computes and memoizes fitness for a population in parallel: a
// fixed number of workers pull individual indices off a channel and write
// results back into the shared slice at that index, so ordering is
// preserved without needing a mutex around the population itself.
type Evaluator struct {
	problem *problem.Problem
	params  *problem.Parameters
	workers int
	cache   *evalCache
}

// NewEvaluator constructs an Evaluator scoped to a single Solver run.
func NewEvaluator(p *problem.Problem, params *problem.Parameters, workers int) *Evaluator {
	if workers < 1 {
		workers = 1
	}
	return &Evaluator{problem: p, params: params, workers: workers, cache: newEvalCache(defaultCacheCapacity)}
}

// EvaluateAll evaluates every individual whose objectives are not already
// computed; the cache short-circuits repeats by content hash. normalizer,
// if non-nil, is used to compute each
// individual's composite fitness; pass nil during initialization before a
// normalizer can be fit.
func (e *Evaluator) EvaluateAll(population []*Individual, normalizer *Normalizer) {
	indices := make(chan int, len(population))
	for i, ind := range population {
		if !ind.Evaluated() {
			indices <- i
		}
	}
	close(indices)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				e.evaluateOne(population[i])
			}
		}()
	}
	wg.Wait()

	if normalizer != nil {
		for _, ind := range population {
			ind.Composite = normalizer.Composite(ind.F, ind.Penalty, e.params.Weights)
		}
	}
}

func (e *Evaluator) evaluateOne(ind *Individual) {
	key := contentHash(ind.Alloc.X)
	if cached, ok := e.cache.get(key); ok {
		ind.MarkEvaluated(cached.f, cached.penalty, cached.composite)
		return
	}

	f := objectives.Evaluate(ind.Alloc, e.problem)
	penalty := objectives.Penalty(ind.Alloc, e.problem, e.params)
	ind.MarkEvaluated(f, penalty, penalty)
	e.cache.put(key, cachedFitness{f: f, penalty: penalty, composite: penalty})
}
