package result

import (
	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/internal/solver"
)

// Extract builds the full Result for a finished scenario from its rank-0
// front (as returned by solver.Engine.ExtractFront) and the Problem it was
// solved against.
func Extract(scenarioID string, p *problem.Problem, front []*solver.Individual) Result {
	candidates := make([]Candidate, len(front))
	for i, ind := range front {
		candidates[i] = Candidate{
			Objectives: ind.F,
			Composite:  ind.Composite,
			Rows:       decorate(ind.Alloc, p),
		}
	}

	baseline := NearestCapableLabGreedy(p)
	baselineObjectives := objectives.Evaluate(baseline, p)

	return Result{
		ScenarioID: scenarioID,
		Front:      candidates,
		Summary:    summarize(baselineObjectives, candidates),
	}
}

// decorate produces one Row per nonzero x[a,j,t] cell.
func decorate(al *allocation.Allocation, p *problem.Problem) []Row {
	var rows []Row
	for j := 0; j < al.NLabs; j++ {
		overheadPerTest := 0.0
		if p.LabCapacity[j].MaxPerMonth > 0 {
			overheadPerTest = p.Overhead[j] / p.LabCapacity[j].MaxPerMonth
		}
		util := objectives.UtilizationScoreForLab(al, p, j)

		for a := 0; a < al.NAreas; a++ {
			dist := p.DistanceAt(a, j)
			travel := p.TimeAt(a, j)
			transportCost := dist * p.CostPerKM

			for t := 0; t < al.NTests; t++ {
				v := al.At(a, j, t)
				if v == 0 {
					continue
				}
				processingCost := p.CostPerTest[j*p.NTests+t] + overheadPerTest
				rows = append(rows, Row{
					AreaID:             p.AreaIDs[a],
					LabID:              p.LabIDs[j],
					TestID:             p.TestIDs[t],
					Tests:              v,
					DistanceKM:         dist,
					TravelTimeMinutes:  travel,
					TransportCost:      transportCost,
					ProcessingCost:     processingCost,
					TotalCost:          transportCost + processingCost,
					UtilizationScore:   util,
					AccessibilityScore: objectives.AccessibilityScoreForArea(al, p, a),
				})
			}
		}
	}
	return rows
}

// summarize picks the best (lowest composite) candidate as the
// representative front member for the baseline comparison; per-objective
// improvement is reported as baseline - candidate (positive is better,
// since every objectives.Vector component is already oriented
// lower-is-better).
func summarize(baseline objectives.Vector, candidates []Candidate) Summary {
	if len(candidates) == 0 {
		return Summary{Baseline: baseline}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Composite < best.Composite {
			best = c
		}
	}
	var improvement objectives.Vector
	for i := range improvement {
		improvement[i] = baseline[i] - best.Objectives[i]
	}
	return Summary{Baseline: baseline, Improvement: improvement}
}
