package result

import (
	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/problem"
)

// NearestCapableLabGreedy builds the comparison baseline the Summary is
// scored against: every area's demand for every test goes entirely to
// whichever capable lab is nearest, with no regard for capacity or
// balance. Repair then restores capacity feasibility exactly as it would
// for any Solver-produced individual, so the baseline is a fair point of
// comparison rather than a pathological one.
func NearestCapableLabGreedy(p *problem.Problem) *allocation.Allocation {
	al := allocation.New(p)
	for a := 0; a < p.NAreas; a++ {
		for t := 0; t < p.NTests; t++ {
			demand := p.DemandAt(a, t)
			if demand == 0 {
				continue
			}
			j := nearestCapableLab(p, a, t)
			if j < 0 {
				continue
			}
			al.Set(a, j, t, demand)
		}
	}
	allocation.Repair(al, p, nil)
	return al
}

func nearestCapableLab(p *problem.Problem, a, t int) int {
	best := -1
	bestDist := -1.0
	for j := 0; j < p.NLabs; j++ {
		if !p.IsCapable(j, t) {
			continue
		}
		d := p.DistanceAt(a, j)
		if best == -1 || d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best
}
