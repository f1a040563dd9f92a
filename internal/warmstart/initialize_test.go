package warmstart

import (
	"math/rand"
	"testing"

	"github.com/cdstlab/optimizer/internal/problem"
)

func fixtureProblem() *problem.Problem {
	return &problem.Problem{
		NAreas: 3,
		NLabs:  2,
		NTests: 2,
		LabCapacity: []problem.LabCapacity{
			{MaxPerDay: 200, MaxPerMonth: 4000, StaffCount: 4, UtilFactor: 0.9},
			{MaxPerDay: 200, MaxPerMonth: 4000, StaffCount: 4, UtilFactor: 0.9},
		},
		WorkingMinutes: []float64{480, 480},
		ProcTime:       []float64{20, 25, 30, 35},
		Capable:        []bool{true, true, true, true},
		DistKM:         []float64{1, 2, 3, 4, 5, 6},
		Demand:         []int32{10, 5, 8, 4, 6, 3},
	}
}

func TestGeneratePopulationReturnsRequestedSize(t *testing.T) {
	p := fixtureProblem()
	rng := rand.New(rand.NewSource(1))
	pop := GeneratePopulation(p, 20, rng)
	if len(pop) != 20 {
		t.Fatalf("len(population) = %d, want 20", len(pop))
	}
}

func TestGeneratePopulationConservesDemandAfterRepair(t *testing.T) {
	p := fixtureProblem()
	rng := rand.New(rand.NewSource(2))
	pop := GeneratePopulation(p, 10, rng)
	for i, al := range pop {
		for a := 0; a < p.NAreas; a++ {
			for tt := 0; tt < p.NTests; tt++ {
				if got, want := al.SumOverLabs(a, tt), p.DemandAt(a, tt); got != want {
					t.Errorf("individual %d, area %d, test %d: allocated %d, want demand %d", i, a, tt, got, want)
				}
			}
		}
	}
}

func TestBuildGreedyPrefersNearestCapableLab(t *testing.T) {
	p := fixtureProblem()
	al := buildGreedy(p)
	// area 0's distances to lab 0 and lab 1 are 1 and 2 respectively
	// (DistKM[a*NLabs+j]); with ample capacity, all of area 0's demand for
	// test 0 should land on lab 0.
	if got, want := al.At(0, 0, 0), p.DemandAt(0, 0); got != want {
		t.Errorf("buildGreedy: area 0 test 0 on nearest lab = %d, want all of demand %d", got, want)
	}
}

func TestBuildCapacityBalancedConservesDemand(t *testing.T) {
	p := fixtureProblem()
	al := buildCapacityBalanced(p)
	for a := 0; a < p.NAreas; a++ {
		for tt := 0; tt < p.NTests; tt++ {
			if got, want := al.SumOverLabs(a, tt), p.DemandAt(a, tt); got != want {
				t.Errorf("area %d test %d: allocated %d, want demand %d", a, tt, got, want)
			}
		}
	}
}

func TestSortedByDistanceOrdersNearestFirst(t *testing.T) {
	p := fixtureProblem()
	labs := sortedByDistance(p, 0, 0)
	if len(labs) != 2 {
		t.Fatalf("len(labs) = %d, want 2", len(labs))
	}
	if p.DistanceAt(0, labs[0]) > p.DistanceAt(0, labs[1]) {
		t.Errorf("labs not sorted by ascending distance: %v", labs)
	}
}
