// Package allocation implements the three-dimensional test-allocation
// tensor x[area,lab,test] as a contiguous row-major buffer: a dense
// integer slice rather than a nested map, to keep the Solver's inner
// evaluation loop cache-hot.
package allocation

import "github.com/cdstlab/optimizer/internal/problem"

// Allocation is the genetic encoding of one individual: x[a,j,t] flattened
// to X[a*NLabs*NTests + j*NTests + t].
type Allocation struct {
	NAreas int
	NLabs  int
	NTests int
	X      []int32
}

// New returns a zeroed allocation sized for the given problem.
func New(p *problem.Problem) *Allocation {
	return &Allocation{
		NAreas: p.NAreas,
		NLabs:  p.NLabs,
		NTests: p.NTests,
		X:      make([]int32, p.NAreas*p.NLabs*p.NTests),
	}
}

// Index returns the flat offset for (a,j,t).
func (al *Allocation) Index(a, j, t int) int {
	return a*al.NLabs*al.NTests + j*al.NTests + t
}

// At returns x[a,j,t].
func (al *Allocation) At(a, j, t int) int32 {
	return al.X[al.Index(a, j, t)]
}

// Set assigns x[a,j,t] = v.
func (al *Allocation) Set(a, j, t int, v int32) {
	al.X[al.Index(a, j, t)] = v
}

// Add increments x[a,j,t] by delta (which may be negative).
func (al *Allocation) Add(a, j, t int, delta int32) {
	al.X[al.Index(a, j, t)] += delta
}

// Clone returns a deep copy.
func (al *Allocation) Clone() *Allocation {
	out := &Allocation{NAreas: al.NAreas, NLabs: al.NLabs, NTests: al.NTests, X: make([]int32, len(al.X))}
	copy(out.X, al.X)
	return out
}

// SumOverLabs returns Σ_j x[a,*,t] for a fixed (a,t).
func (al *Allocation) SumOverLabs(a, t int) int32 {
	var sum int32
	base := a*al.NLabs*al.NTests + t
	for j := 0; j < al.NLabs; j++ {
		sum += al.X[base+j*al.NTests]
	}
	return sum
}

// ProcessingMinutesForLab returns Σ_{a,t} x[a,j,t]·procTime(j,t) — the total processing
// minutes lab j carries under this allocation.
func (al *Allocation) ProcessingMinutesForLab(p *problem.Problem, j int) float64 {
	var total float64
	for a := 0; a < al.NAreas; a++ {
		for t := 0; t < al.NTests; t++ {
			if v := al.At(a, j, t); v > 0 {
				total += float64(v) * p.ProcTimeAt(j, t)
			}
		}
	}
	return total
}

// Equal reports whether two allocations hold identical values (used by
// the determinism and repair-idempotence tests).
func Equal(a, b *Allocation) bool {
	if a.NAreas != b.NAreas || a.NLabs != b.NLabs || a.NTests != b.NTests {
		return false
	}
	for i := range a.X {
		if a.X[i] != b.X[i] {
			return false
		}
	}
	return true
}
