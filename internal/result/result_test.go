package result

import (
	"testing"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/problem"
	"github.com/cdstlab/optimizer/internal/solver"
)

func fixtureProblem() *problem.Problem {
	return &problem.Problem{
		NAreas:  2,
		NLabs:   2,
		NTests:  1,
		AreaIDs: []string{"area-1", "area-2"},
		LabIDs:  []string{"lab-1", "lab-2"},
		TestIDs: []string{"culture"},
		LabCapacity: []problem.LabCapacity{
			{MaxPerDay: 100, MaxPerMonth: 1000, StaffCount: 2, UtilFactor: 1},
			{MaxPerDay: 100, MaxPerMonth: 1000, StaffCount: 2, UtilFactor: 1},
		},
		WorkingMinutes:          []float64{200, 200},
		Overhead:                []float64{10, 0},
		ProcTime:                []float64{10, 10},
		CostPerTest:             []float64{2, 3},
		Capable:                 []bool{true, true},
		DistKM:                  []float64{1, 2, 3, 1},
		TimeMin:                 []float64{5, 10, 15, 5},
		Demand:                  []int32{6, 4},
		Pop:                     []float64{100, 200},
		MaxPop:                  200,
		CostPerKM:               1,
		MaxAcceptableDistanceKM: 10,
	}
}

func TestNearestCapableLabGreedyConservesDemand(t *testing.T) {
	p := fixtureProblem()
	al := NearestCapableLabGreedy(p)
	for a := 0; a < p.NAreas; a++ {
		if got, want := al.SumOverLabs(a, 0), p.DemandAt(a, 0); got != want {
			t.Errorf("area %d: SumOverLabs = %d, want demand %d", a, got, want)
		}
	}
}

func TestExtractBuildsOneCandidatePerFrontMember(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 6)
	al.Set(1, 1, 0, 4)

	ind := solver.NewIndividual(al)
	ind.MarkEvaluated(objectives.Evaluate(al, p), 0, 0)

	res := Extract("scenario-1", p, []*solver.Individual{ind})
	if res.ScenarioID != "scenario-1" {
		t.Errorf("ScenarioID = %q, want scenario-1", res.ScenarioID)
	}
	if len(res.Front) != 1 {
		t.Fatalf("len(Front) = %d, want 1", len(res.Front))
	}
	rows := res.Front[0].Rows
	if len(rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (one per nonzero cell)", len(rows))
	}
}

func TestDecorateSkipsZeroCells(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p) // nothing allocated
	rows := decorate(al, p)
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0 for an empty allocation", len(rows))
	}
}

func TestSummarizePicksLowestCompositeAndComputesImprovement(t *testing.T) {
	baseline := objectives.Vector{10, 10, 10, 10, 10}
	candidates := []Candidate{
		{Objectives: objectives.Vector{5, 5, 5, 5, 5}, Composite: 5},
		{Objectives: objectives.Vector{2, 2, 2, 2, 2}, Composite: 2},
	}
	summary := summarize(baseline, candidates)
	for i, v := range summary.Improvement {
		want := baseline[i] - candidates[1].Objectives[i]
		if v != want {
			t.Errorf("Improvement[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestSummarizeEmptyCandidatesReturnsBaselineOnly(t *testing.T) {
	baseline := objectives.Vector{1, 2, 3, 4, 5}
	summary := summarize(baseline, nil)
	if summary.Baseline != baseline {
		t.Errorf("Baseline = %v, want %v", summary.Baseline, baseline)
	}
	if summary.Improvement != (objectives.Vector{}) {
		t.Errorf("Improvement = %v, want zero vector", summary.Improvement)
	}
}
