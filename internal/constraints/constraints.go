// Package constraints implements the hard feasibility checks an allocation
// must satisfy to be considered valid: each constraint is a closure over
// *problem.Problem that reports satisfied/violated for a given allocation,
// and Combine ANDs any number of them together. The hard constraints here
// are capability, demand conservation, and lab capacity; distance, travel time,
// utilization, and quality are soft penalties handled in internal/objectives
// instead.
package constraints

import "github.com/cdstlab/optimizer/internal/allocation"
import "github.com/cdstlab/optimizer/internal/problem"

// Constraint reports whether al satisfies some hard feasibility rule.
type Constraint func(al *allocation.Allocation, p *problem.Problem) bool

// CapabilityConstraint is violated if any positive allocation cell targets
// a (lab,test) pair the lab cannot process. Repair enforces this by
// construction, so this constraint exists for defense-in-depth validation
// (e.g. checkpoint restore, evaluation-failure detection) rather than as a
// variation gate.
func CapabilityConstraint(al *allocation.Allocation, p *problem.Problem) bool {
	for a := 0; a < al.NAreas; a++ {
		for j := 0; j < al.NLabs; j++ {
			for t := 0; t < al.NTests; t++ {
				if al.At(a, j, t) > 0 && !p.IsCapable(j, t) {
					return false
				}
			}
		}
	}
	return true
}

// DemandConstraint is violated if any (area,test) pair's allocated total
// does not equal the required demand — the demand-conservation invariant.
func DemandConstraint(al *allocation.Allocation, p *problem.Problem) bool {
	for a := 0; a < al.NAreas; a++ {
		for t := 0; t < al.NTests; t++ {
			if al.SumOverLabs(a, t) != p.DemandAt(a, t) {
				return false
			}
		}
	}
	return true
}

// CapacityConstraint is violated if any lab's total processing minutes
// exceed its available minutes — the post-repair capacity invariant.
func CapacityConstraint(al *allocation.Allocation, p *problem.Problem) bool {
	for j := 0; j < al.NLabs; j++ {
		if al.ProcessingMinutesForLab(p, j) > p.AvailableMinutes(j)+1e-6 {
			return false
		}
	}
	return true
}

// Combine ANDs any number of constraints into one, short-circuiting on the
// first violation.
func Combine(cs ...Constraint) Constraint {
	return func(al *allocation.Allocation, p *problem.Problem) bool {
		for _, c := range cs {
			if !c(al, p) {
				return false
			}
		}
		return true
	}
}

// Feasible is the standard hard-constraint set checked after repair.
func Feasible(al *allocation.Allocation, p *problem.Problem) bool {
	return Combine(CapabilityConstraint, DemandConstraint, CapacityConstraint)(al, p)
}
