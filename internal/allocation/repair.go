package allocation

import (
	"math/rand"

	"github.com/cdstlab/optimizer/internal/problem"
)

// Repair restores the demand-conservation and capacity invariants. It is
// idempotent: Repair(Repair(x)) ≡ Repair(x), because once both invariants
// hold, every step below is a no-op.
func Repair(al *Allocation, p *problem.Problem, rng *rand.Rand) {
	repairDemand(al, p, rng)
	repairCapacity(al, p)
	// Capacity repair only moves tests to capable labs with slack, but when
	// no such lab exists it drops the removed tests, leaving a demand
	// shortfall; the second demand pass redistributes them.
	repairDemand(al, p, rng)
}

func repairDemand(al *Allocation, p *problem.Problem, rng *rand.Rand) {
	for a := 0; a < al.NAreas; a++ {
		for t := 0; t < al.NTests; t++ {
			capableLabs := p.CapableLabsForTest(t)

			// Zero out assignments to non-capable labs first.
			for j := 0; j < al.NLabs; j++ {
				if !p.IsCapable(j, t) && al.At(a, j, t) > 0 {
					al.Set(a, j, t, 0)
				}
			}

			demand := p.DemandAt(a, t)
			current := al.SumOverLabs(a, t)
			delta := demand - current
			if delta == 0 {
				continue
			}
			if len(capableLabs) == 0 {
				// Unreachable for a Problem that passed the Builder's
				// uncovered-demand check, but guards against a corrupt
				// allocation from a buggy variation operator.
				continue
			}

			if current > 0 && delta < 0 {
				distributeProportional(al, a, t, capableLabs, delta)
			} else if current > 0 && delta > 0 {
				distributeProportional(al, a, t, capableLabs, delta)
			} else {
				distributeUniform(al, a, t, capableLabs, delta, rng)
			}
		}
	}
}

// distributeProportional spreads delta (positive or negative) across
// capableLabs weighted by each lab's current share of x[a,*,t], rounding
// remainders onto the first labs in index order so the total always lands
// exactly on delta.
func distributeProportional(al *Allocation, a, t int, capableLabs []int, delta int32) {
	current := al.SumOverLabs(a, t)
	if current == 0 {
		distributeUniform(al, a, t, capableLabs, delta, nil)
		return
	}

	remaining := delta
	for _, j := range capableLabs {
		share := int32(float64(al.At(a, j, t)) / float64(current) * float64(delta))
		before := al.At(a, j, t)
		applyBounded(al, a, j, t, share)
		remaining -= al.At(a, j, t) - before
	}
	for _, j := range capableLabs {
		if remaining == 0 {
			break
		}
		before := al.At(a, j, t)
		applyBounded(al, a, j, t, remaining)
		remaining -= al.At(a, j, t) - before
	}
}

func distributeUniform(al *Allocation, a, t int, capableLabs []int, delta int32, rng *rand.Rand) {
	n := int32(len(capableLabs))
	if n == 0 {
		return
	}
	base := delta / n
	extra := delta % n
	order := capableLabs
	if rng != nil {
		order = append([]int(nil), capableLabs...)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	for i, j := range order {
		share := base
		if int32(i) < abs32(extra) {
			if extra > 0 {
				share++
			} else {
				share--
			}
		}
		applyBounded(al, a, j, t, share)
	}
}

func applyBounded(al *Allocation, a, j, t int, delta int32) {
	if delta == 0 {
		return
	}
	v := al.At(a, j, t) + delta
	if v < 0 {
		v = 0
	}
	al.Set(a, j, t, v)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// repairCapacity scales back each lab's largest contributors until its
// total processing minutes fit available_minutes[j], redirecting the
// removed tests to the next-nearest capable lab with slack.
func repairCapacity(al *Allocation, p *problem.Problem) {
	for j := 0; j < al.NLabs; j++ {
		available := p.AvailableMinutes(j)
		used := al.ProcessingMinutesForLab(p, j)
		if used <= available {
			continue
		}

		type cell struct {
			a, t    int
			minutes float64
		}
		var cells []cell
		for a := 0; a < al.NAreas; a++ {
			for t := 0; t < al.NTests; t++ {
				if v := al.At(a, j, t); v > 0 {
					cells = append(cells, cell{a, t, float64(v) * p.ProcTimeAt(j, t)})
				}
			}
		}
		// Largest contributors first.
		for i := 0; i < len(cells); i++ {
			for k := i + 1; k < len(cells); k++ {
				if cells[k].minutes > cells[i].minutes {
					cells[i], cells[k] = cells[k], cells[i]
				}
			}
		}

		for _, c := range cells {
			if used <= available {
				break
			}
			v := al.At(c.a, j, c.t)
			if v == 0 {
				continue
			}
			procTime := p.ProcTimeAt(j, c.t)
			if procTime <= 0 {
				continue
			}
			excessMinutes := used - available
			removeCount := int32(excessMinutes/procTime) + 1
			if removeCount > v {
				removeCount = v
			}

			target := nextCapableLabWithSlack(al, p, c.a, c.t, j)
			al.Add(c.a, j, c.t, -removeCount)
			used -= float64(removeCount) * procTime
			if target >= 0 {
				al.Add(c.a, target, c.t, removeCount)
			}
			// If no lab has slack, the test count is simply dropped here;
			// the subsequent repairDemand pass redistributes it among all
			// capable labs uniformly, which may reintroduce minor capacity
			// pressure elsewhere but always preserves the demand invariant.
		}
	}
}

func nextCapableLabWithSlack(al *Allocation, p *problem.Problem, a, test, exclude int) int {
	best := -1
	bestDist := 1e18
	for j := 0; j < al.NLabs; j++ {
		if j == exclude || !p.IsCapable(j, test) {
			continue
		}
		if al.ProcessingMinutesForLab(p, j) >= p.AvailableMinutes(j) {
			continue
		}
		d := p.DistanceAt(a, j)
		if d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}
