// Package solver implements the NSGA-II evolutionary engine: non-dominated
// sort, crowding distance, and tournament selection driven over the CDST
// allocation tensor.
package solver

import (
	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/objectives"
)

// Individual is one member of the population: an allocation plus its
// evaluated objective vector, constraint penalty, dominance rank, and
// crowding distance.
type Individual struct {
	Alloc     *allocation.Allocation
	F         objectives.Vector
	Penalty   float64
	Composite float64
	Rank      int
	Crowding  float64
	evaluated bool
}

// NewIndividual wraps an allocation as an unevaluated individual.
func NewIndividual(al *allocation.Allocation) *Individual {
	return &Individual{Alloc: al}
}

// Evaluated reports whether this individual's objective vector has been
// computed since its allocation last changed.
func (ind *Individual) Evaluated() bool { return ind.evaluated }

// MarkEvaluated stores the computed objectives/penalty/composite and flags
// the individual as up to date.
func (ind *Individual) MarkEvaluated(f objectives.Vector, penalty, composite float64) {
	ind.F = f
	ind.Penalty = penalty
	ind.Composite = composite
	ind.evaluated = true
}

// Invalidate clears the evaluated flag after a mutating variation operator
// changes Alloc, forcing re-evaluation on the next generation.
func (ind *Individual) Invalidate() { ind.evaluated = false }

// Clone returns a deep copy with a cloned allocation; evaluation state is
// preserved since the allocation contents are identical at clone time.
func (ind *Individual) Clone() *Individual {
	return &Individual{
		Alloc:     ind.Alloc.Clone(),
		F:         ind.F,
		Penalty:   ind.Penalty,
		Composite: ind.Composite,
		Rank:      ind.Rank,
		Crowding:  ind.Crowding,
		evaluated: ind.evaluated,
	}
}
