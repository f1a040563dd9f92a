package solver

import "github.com/cdstlab/optimizer/internal/objectives"

// hypervolumeSamples is the fixed quasi-random sample count used by the
// Monte-Carlo hypervolume estimator. The samples themselves are generated
// by a deterministic Halton sequence (not math/rand), so repeated calls
// against the same front and reference point always agree exactly,
// preserving the "monotone progress" testable property under elitism.
const hypervolumeSamples = 4096

// Hypervolume estimates the volume in objective space dominated by front
// relative to ref, all objectives assumed to be minimization with ref as
// the dominated-region's far corner. Exact
// hypervolume computation in 5 dimensions is exponential in front size;
// this estimator trades exactness for a deterministic, monotone-under-
// elitism approximation suitable for convergence detection.
func Hypervolume(front []*Individual, ref objectives.Vector) float64 {
	if len(front) == 0 {
		return 0
	}

	dims := len(ref)
	lo := make([]float64, dims)
	volume := 1.0
	for i, r := range ref {
		lo[i] = 0
		volume *= (r - lo[i])
	}
	if volume <= 0 {
		return 0
	}

	dominated := 0
	halton := newHaltonSequence(dims)
	for s := 0; s < hypervolumeSamples; s++ {
		point := halton.next()
		sample := make([]float64, dims)
		for i := range sample {
			sample[i] = lo[i] + point[i]*(ref[i]-lo[i])
		}
		if dominatesPoint(front, sample) {
			dominated++
		}
	}

	return volume * float64(dominated) / float64(hypervolumeSamples)
}

func dominatesPoint(front []*Individual, sample []float64) bool {
	for _, ind := range front {
		allLE := true
		for i, v := range sample {
			if ind.F[i] > v {
				allLE = false
				break
			}
		}
		if allLE {
			return true
		}
	}
	return false
}

// haltonSequence generates deterministic quasi-random points in [0,1]^dims
// using the standard Halton construction with the first dims prime bases.
type haltonSequence struct {
	index int
	bases []int
}

var smallPrimes = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}

func newHaltonSequence(dims int) *haltonSequence {
	bases := make([]int, dims)
	for i := 0; i < dims; i++ {
		if i < len(smallPrimes) {
			bases[i] = smallPrimes[i]
		} else {
			bases[i] = smallPrimes[len(smallPrimes)-1] + i
		}
	}
	return &haltonSequence{bases: bases}
}

func (h *haltonSequence) next() []float64 {
	h.index++
	out := make([]float64, len(h.bases))
	for d, base := range h.bases {
		out[d] = haltonValue(h.index, base)
	}
	return out
}

func haltonValue(index, base int) float64 {
	f := 1.0
	r := 0.0
	for index > 0 {
		f /= float64(base)
		r += f * float64(index%base)
		index /= base
	}
	return r
}
