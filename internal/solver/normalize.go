package solver

import "github.com/cdstlab/optimizer/internal/objectives"

// Normalizer linearly maps each objective into [0,1] using the
// population's current per-generation min/max, feeding the weighted
// composite-fitness calculation.
type Normalizer struct {
	min, max objectives.Vector
}

// NewNormalizer fits min/max bounds from the current population's
// objective vectors.
func NewNormalizer(population []*Individual) *Normalizer {
	n := &Normalizer{}
	for i := range n.min {
		n.min[i] = population[0].F[i]
		n.max[i] = population[0].F[i]
	}
	for _, ind := range population {
		for i, v := range ind.F {
			if v < n.min[i] {
				n.min[i] = v
			}
			if v > n.max[i] {
				n.max[i] = v
			}
		}
	}
	return n
}

// Normalize maps f into [0,1] per objective; a degenerate (zero-spread)
// objective normalizes to 0 for every individual.
func (n *Normalizer) Normalize(f objectives.Vector) objectives.Vector {
	var out objectives.Vector
	for i, v := range f {
		spread := n.max[i] - n.min[i]
		if spread == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - n.min[i]) / spread
	}
	return out
}

// Composite computes F = Σ w[i]·normalize(f[i]) + penalty.
func (n *Normalizer) Composite(f objectives.Vector, penalty float64, weights [5]float64) float64 {
	norm := n.Normalize(f)
	var total float64
	for i, w := range weights {
		total += w * norm[i]
	}
	return total + penalty
}
