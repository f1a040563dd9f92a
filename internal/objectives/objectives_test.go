package objectives

import (
	"math"
	"testing"

	"github.com/cdstlab/optimizer/internal/allocation"
	"github.com/cdstlab/optimizer/internal/problem"
)

func fixtureProblem() *problem.Problem {
	return &problem.Problem{
		NAreas: 2,
		NLabs:  2,
		NTests: 1,
		LabCapacity: []problem.LabCapacity{
			{MaxPerDay: 100, MaxPerMonth: 1000, StaffCount: 2, UtilFactor: 1},
			{MaxPerDay: 100, MaxPerMonth: 1000, StaffCount: 2, UtilFactor: 1},
		},
		WorkingMinutes:          []float64{100, 100}, // available_minutes[j] = 200
		Overhead:                []float64{50, 0},
		ProcTime:                []float64{10, 10},
		CostPerTest:             []float64{2, 2},
		Capable:                 []bool{true, true},
		DistKM:                  []float64{1, 2, 3, 4}, // [a*NLabs+j]
		TimeMin:                 []float64{5, 10, 15, 20},
		Pop:                     []float64{10, 1000},
		MaxPop:                  1000,
		CostPerKM:               1,
		MaxAcceptableDistanceKM: 10,
	}
}

func TestMeanDistanceEmptyAllocation(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	if got := MeanDistance(al, p); got != 0 {
		t.Errorf("MeanDistance(empty) = %v, want 0", got)
	}
}

func TestMeanDistanceWeighted(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 2) // dist 1, x2
	al.Set(1, 1, 0, 1) // dist 4, x1
	// weighted = 2*1 + 1*4 = 6, total = 3 -> mean 2
	if got := MeanDistance(al, p); math.Abs(got-2) > 1e-9 {
		t.Errorf("MeanDistance = %v, want 2", got)
	}
}

func TestMeanElapsedTimeIncludesProcTime(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 1) // travel 5 + proc 10 = 15
	if got := MeanElapsedTime(al, p); math.Abs(got-15) > 1e-9 {
		t.Errorf("MeanElapsedTime = %v, want 15", got)
	}
}

func TestTotalCostIncludesTransportProcessingAndOverhead(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 1) // dist 1*costPerKM(1) + costPerTest(2) + overhead(50/1000=0.05)
	want := 1.0 + 2.0 + 0.05
	if got := TotalCost(al, p); math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalCost = %v, want %v", got, want)
	}
}

func TestUtilizationScorePiecewise(t *testing.T) {
	cases := []struct {
		u, want float64
	}{
		{0.2, 0.1},
		{0.5, 0.5},
		{0.9, 0.9},
		{1.0, 0.7}, // 0.9 - 2*(1.0-0.9) = 0.7
	}
	for _, c := range cases {
		if got := utilizationScore(c.u); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("utilizationScore(%v) = %v, want %v", c.u, got, c.want)
		}
	}
}

func TestNegativeUtilizationIsNonPositive(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 5)
	got := NegativeUtilization(al, p)
	if got > 0 {
		t.Errorf("NegativeUtilization = %v, want <= 0", got)
	}
}

func TestUtilizationScoreForLabMatchesAggregate(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 4)
	al.Set(1, 1, 0, 2)

	var sum float64
	for j := 0; j < p.NLabs; j++ {
		sum += UtilizationScoreForLab(al, p, j)
	}
	want := -NegativeUtilization(al, p) * float64(p.NLabs)
	if math.Abs(sum-want) > 1e-9 {
		t.Errorf("sum of per-lab utilization scores = %v, want %v", sum, want)
	}
}

func TestAccessibilityScoreForAreaMatchesAggregate(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 3)
	al.Set(1, 1, 0, 2)

	var sum float64
	for a := 0; a < p.NAreas; a++ {
		sum += AccessibilityScoreForArea(al, p, a)
	}
	want := -NegativeAccessibility(al, p) * float64(p.NAreas)
	if math.Abs(sum-want) > 1e-9 {
		t.Errorf("sum of per-area accessibility scores = %v, want %v", sum, want)
	}
}

func TestAccessibilityScoreUnservedAreaUsesMaxDistance(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p) // nothing allocated anywhere
	got := AccessibilityScoreForArea(al, p, 0)
	if got < 0 || got > 1 {
		t.Errorf("AccessibilityScoreForArea(unserved) = %v, want in [0,1]", got)
	}
}

func TestEvaluateOrdersFiveObjectives(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 2)
	v := Evaluate(al, p)
	if v[IdxDistance] != MeanDistance(al, p) {
		t.Errorf("Evaluate[IdxDistance] mismatch")
	}
	if v[IdxTime] != MeanElapsedTime(al, p) {
		t.Errorf("Evaluate[IdxTime] mismatch")
	}
	if v[IdxCost] != TotalCost(al, p) {
		t.Errorf("Evaluate[IdxCost] mismatch")
	}
	if v[IdxUtilization] != NegativeUtilization(al, p) {
		t.Errorf("Evaluate[IdxUtilization] mismatch")
	}
	if v[IdxAccessibility] != NegativeAccessibility(al, p) {
		t.Errorf("Evaluate[IdxAccessibility] mismatch")
	}
}
