// Package warmstart builds the Solver's initial population: a mix of
// random, greedy, and capacity-balanced constructions rather than a
// uniformly random start, so the initial Pareto front already has useful
// spread.
package warmstart

import (
	"math/rand"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/problem"
)

// GeneratePopulation builds size individuals: 30% random, 40% greedy
// (nearest capable lab first), 30% capacity-balanced (round robin weighted
// by remaining capacity). Every individual is repaired before being
// returned.
func GeneratePopulation(p *problem.Problem, size int, rng *rand.Rand) []*allocation.Allocation {
	numRandom := int(float64(size) * 0.3)
	numGreedy := int(float64(size) * 0.4)
	numBalanced := size - numRandom - numGreedy

	out := make([]*allocation.Allocation, 0, size)
	for i := 0; i < numRandom; i++ {
		out = append(out, buildRandom(p, rng))
	}
	for i := 0; i < numGreedy; i++ {
		out = append(out, buildGreedy(p))
	}
	for i := 0; i < numBalanced; i++ {
		out = append(out, buildCapacityBalanced(p))
	}

	for _, al := range out {
		allocation.Repair(al, p, rng)
	}
	return out
}

// buildRandom distributes each D[a,t] randomly among capable labs.
func buildRandom(p *problem.Problem, rng *rand.Rand) *allocation.Allocation {
	al := allocation.New(p)
	for a := 0; a < p.NAreas; a++ {
		for t := 0; t < p.NTests; t++ {
			demand := p.DemandAt(a, t)
			if demand == 0 {
				continue
			}
			labs := p.CapableLabsForTest(t)
			if len(labs) == 0 {
				continue
			}
			remaining := demand
			for i, j := range labs {
				var share int32
				if i == len(labs)-1 {
					share = remaining
				} else {
					share = int32(rng.Int63n(int64(remaining) + 1))
				}
				al.Set(a, j, t, share)
				remaining -= share
			}
		}
	}
	return al
}

// buildGreedy fills the nearest capable lab to each area until that lab's
// capacity is exhausted, then moves to the next-nearest.
func buildGreedy(p *problem.Problem) *allocation.Allocation {
	al := allocation.New(p)
	remainingCapacity := make([]float64, p.NLabs)
	for j := range remainingCapacity {
		remainingCapacity[j] = p.AvailableMinutes(j)
	}

	for a := 0; a < p.NAreas; a++ {
		for t := 0; t < p.NTests; t++ {
			demand := p.DemandAt(a, t)
			if demand == 0 {
				continue
			}
			labs := sortedByDistance(p, a, t)
			remaining := demand
			for _, j := range labs {
				if remaining == 0 {
					break
				}
				procTime := p.ProcTimeAt(j, t)
				if procTime <= 0 {
					continue
				}
				maxByCapacity := int32(remainingCapacity[j] / procTime)
				take := remaining
				if maxByCapacity < take {
					take = maxByCapacity
				}
				if take <= 0 {
					continue
				}
				al.Add(a, j, t, take)
				remainingCapacity[j] -= float64(take) * procTime
				remaining -= take
			}
			if remaining > 0 {
				// No lab had slack; assign the remainder to the nearest
				// capable lab regardless, and let Repair redistribute.
				if len(labs) > 0 {
					al.Add(a, labs[0], t, remaining)
				}
			}
		}
	}
	return al
}

// buildCapacityBalanced round-robins demand over capable labs weighted by
// each lab's remaining capacity.
func buildCapacityBalanced(p *problem.Problem) *allocation.Allocation {
	al := allocation.New(p)
	remainingCapacity := make([]float64, p.NLabs)
	for j := range remainingCapacity {
		remainingCapacity[j] = p.AvailableMinutes(j)
	}

	for a := 0; a < p.NAreas; a++ {
		for t := 0; t < p.NTests; t++ {
			demand := p.DemandAt(a, t)
			if demand == 0 {
				continue
			}
			labs := p.CapableLabsForTest(t)
			if len(labs) == 0 {
				continue
			}
			var totalWeight float64
			for _, j := range labs {
				if remainingCapacity[j] > 0 {
					totalWeight += remainingCapacity[j]
				}
			}
			remaining := demand
			if totalWeight <= 0 {
				// All labs exhausted; split evenly and let Repair handle
				// whatever capacity overage results.
				share := remaining / int32(len(labs))
				for i, j := range labs {
					v := share
					if i == len(labs)-1 {
						v = remaining - share*int32(len(labs)-1)
					}
					al.Add(a, j, t, v)
				}
				continue
			}
			for i, j := range labs {
				var take int32
				if i == len(labs)-1 {
					take = remaining
				} else {
					weight := remainingCapacity[j] / totalWeight
					take = int32(float64(demand) * weight)
					if take > remaining {
						take = remaining
					}
				}
				al.Add(a, j, t, take)
				remaining -= take
				procTime := p.ProcTimeAt(j, t)
				if procTime > 0 {
					remainingCapacity[j] -= float64(take) * procTime
				}
			}
		}
	}
	return al
}

func sortedByDistance(p *problem.Problem, a, t int) []int {
	labs := p.CapableLabsForTest(t)
	for i := 1; i < len(labs); i++ {
		for k := i; k > 0 && p.DistanceAt(a, labs[k-1]) > p.DistanceAt(a, labs[k]); k-- {
			labs[k-1], labs[k] = labs[k], labs[k-1]
		}
	}
	return labs
}
