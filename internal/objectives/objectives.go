// Package objectives implements the five fitness functions: a plain
// computation function plus a *WithDetails variant that returns the full
// breakdown for logging and result decoration.
package objectives

import (
	"math"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/problem"
)

// Vector is the 5-tuple (mean distance, elapsed time, cost, -utilization,
// -accessibility) produced by Evaluate.
type Vector [5]float64

const (
	IdxDistance      = 0
	IdxTime          = 1
	IdxCost          = 2
	IdxUtilization   = 3
	IdxAccessibility = 4
)

// Evaluate computes f1..f5 for a (already repaired) allocation.
func Evaluate(al *allocation.Allocation, p *problem.Problem) Vector {
	return Vector{
		MeanDistance(al, p),
		MeanElapsedTime(al, p),
		TotalCost(al, p),
		NegativeUtilization(al, p),
		NegativeAccessibility(al, p),
	}
}

// MeanDistance computes f1 = Σ x·dist / Σ x.
func MeanDistance(al *allocation.Allocation, p *problem.Problem) float64 {
	var weighted, total float64
	for a := 0; a < al.NAreas; a++ {
		for j := 0; j < al.NLabs; j++ {
			dist := p.DistanceAt(a, j)
			for t := 0; t < al.NTests; t++ {
				v := al.At(a, j, t)
				if v == 0 {
					continue
				}
				weighted += float64(v) * dist
				total += float64(v)
			}
		}
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// MeanElapsedTime computes f2 = Σ x·(time + proc_time) / Σ x.
func MeanElapsedTime(al *allocation.Allocation, p *problem.Problem) float64 {
	var weighted, total float64
	for a := 0; a < al.NAreas; a++ {
		for j := 0; j < al.NLabs; j++ {
			travel := p.TimeAt(a, j)
			for t := 0; t < al.NTests; t++ {
				v := al.At(a, j, t)
				if v == 0 {
					continue
				}
				weighted += float64(v) * (travel + p.ProcTimeAt(j, t))
				total += float64(v)
			}
		}
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// TotalCost computes f3 = Σ x·(dist·cost_per_km + cost_per_test +
// overhead/monthly_capacity).
func TotalCost(al *allocation.Allocation, p *problem.Problem) float64 {
	var total float64
	for j := 0; j < al.NLabs; j++ {
		overheadPerTest := 0.0
		if p.LabCapacity[j].MaxPerMonth > 0 {
			overheadPerTest = p.Overhead[j] / p.LabCapacity[j].MaxPerMonth
		}
		for a := 0; a < al.NAreas; a++ {
			dist := p.DistanceAt(a, j)
			for t := 0; t < al.NTests; t++ {
				v := al.At(a, j, t)
				if v == 0 {
					continue
				}
				costPerTest := dist*p.CostPerKM + p.CostPerTest[j*p.NTests+t] + overheadPerTest
				total += float64(v) * costPerTest
			}
		}
	}
	return total
}

// utilizationScore is the piecewise score U(u).
func utilizationScore(u float64) float64 {
	switch {
	case u < 0.3:
		return u / 2
	case u <= 0.9:
		return u
	default:
		return 0.9 - 2*(u-0.9)
	}
}

// UtilizationScoreForLab returns U(util_j) for lab j alone, the same
// per-lab score NegativeUtilization averages across all labs, exposed for
// per-row result decoration.
func UtilizationScoreForLab(al *allocation.Allocation, p *problem.Problem, j int) float64 {
	available := p.AvailableMinutes(j)
	util := 0.0
	if available > 0 {
		util = al.ProcessingMinutesForLab(p, j) / available
	}
	return utilizationScore(util)
}

// NegativeUtilization computes f4 = -mean_j U(util_j).
func NegativeUtilization(al *allocation.Allocation, p *problem.Problem) float64 {
	if al.NLabs == 0 {
		return 0
	}
	var sum float64
	for j := 0; j < al.NLabs; j++ {
		available := p.AvailableMinutes(j)
		util := 0.0
		if available > 0 {
			util = al.ProcessingMinutesForLab(p, j) / available
		}
		sum += utilizationScore(util)
	}
	return -sum / float64(al.NLabs)
}

// accessibilityScore is A(a), area a's weighted accessibility score.
func accessibilityScore(al *allocation.Allocation, p *problem.Problem, a int) float64 {
	dMin := math.Inf(1)
	availableTests := 0
	seenTest := make([]bool, al.NTests)
	for j := 0; j < al.NLabs; j++ {
		anyPositive := false
		for t := 0; t < al.NTests; t++ {
			if al.At(a, j, t) > 0 {
				anyPositive = true
				if !seenTest[t] {
					seenTest[t] = true
					availableTests++
				}
			}
		}
		if anyPositive {
			if d := p.DistanceAt(a, j); d < dMin {
				dMin = d
			}
		}
	}
	if math.IsInf(dMin, 1) {
		dMin = p.MaxAcceptableDistanceKM
	}

	distanceTerm := 0.0
	if p.MaxAcceptableDistanceKM > 0 {
		distanceTerm = math.Max(0, 1-dMin/p.MaxAcceptableDistanceKM)
	}

	popTerm := 0.0
	if p.MaxPop > 1 && p.Pop[a] > 1 {
		popTerm = math.Log(p.Pop[a]) / math.Log(p.MaxPop)
	}

	testsTerm := 0.0
	if p.NTests > 0 {
		testsTerm = float64(availableTests) / float64(p.NTests)
	}

	return 0.4*distanceTerm + 0.3*popTerm + 0.3*testsTerm
}

// AccessibilityScoreForArea returns A(a) for area a alone, exposed for
// per-row result decoration.
func AccessibilityScoreForArea(al *allocation.Allocation, p *problem.Problem, a int) float64 {
	return accessibilityScore(al, p, a)
}

// NegativeAccessibility computes f5 = -mean_a A(a).
func NegativeAccessibility(al *allocation.Allocation, p *problem.Problem) float64 {
	if al.NAreas == 0 {
		return 0
	}
	var sum float64
	for a := 0; a < al.NAreas; a++ {
		sum += accessibilityScore(al, p, a)
	}
	return -sum / float64(al.NAreas)
}
