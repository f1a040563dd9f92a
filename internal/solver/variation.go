package solver

import (
	"math"
	"math/rand"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/problem"
)

// Crossover performs multi-point integer crossover over the flat gene
// vector: pick 1-3 cut points, alternate segments between the two parents
// to produce two children.
func Crossover(p1, p2 *allocation.Allocation, rng *rand.Rand) (*allocation.Allocation, *allocation.Allocation) {
	c1, c2 := p1.Clone(), p2.Clone()
	n := len(c1.X)
	if n < 2 {
		return c1, c2
	}

	numCuts := 1 + rng.Intn(3)
	cuts := make([]int, numCuts)
	for i := range cuts {
		cuts[i] = 1 + rng.Intn(n-1)
	}
	sortInts(cuts)

	swap := false
	prev := 0
	for _, cut := range cuts {
		if swap {
			for i := prev; i < cut; i++ {
				c1.X[i], c2.X[i] = c2.X[i], c1.X[i]
			}
		}
		swap = !swap
		prev = cut
	}
	if swap {
		for i := prev; i < n; i++ {
			c1.X[i], c2.X[i] = c2.X[i], c1.X[i]
		}
	}

	return c1, c2
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Mutate applies adaptive-probability integer Gaussian perturbation to
// each gene: probability mutation_rate*(1-g/max_generations), floored at
// mutation_rate/10; sigma
// max_demand*0.1*(1-g/max_generations); clamp to [0, D[a,t]] per cell. A
// Repair pass afterward restores the demand and capacity invariants the
// perturbation may have broken.
func Mutate(al *allocation.Allocation, p *problem.Problem, params *problem.Parameters, generation int, maxDemand int32, rng *rand.Rand) {
	progress := float64(generation) / float64(params.MaxGenerations)
	prob := params.MutationRate * (1 - progress)
	if floor := params.MutationRate / 10; prob < floor {
		prob = floor
	}
	sigma := float64(maxDemand) * 0.1 * (1 - progress)
	if sigma <= 0 {
		sigma = 1
	}

	for a := 0; a < al.NAreas; a++ {
		for t := 0; t < al.NTests; t++ {
			demand := p.DemandAt(a, t)
			for j := 0; j < al.NLabs; j++ {
				if !p.IsCapable(j, t) {
					continue
				}
				if rng.Float64() >= prob {
					continue
				}
				perturb := int32(math.Round(rng.NormFloat64() * sigma))
				v := al.At(a, j, t) + perturb
				if v < 0 {
					v = 0
				}
				if v > demand {
					v = demand
				}
				al.Set(a, j, t, v)
			}
		}
	}
}
