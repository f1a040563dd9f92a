package constraints

import (
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
			{MaxPerDay: 100, MaxPerMonth: 2000, StaffCount: 2, UtilFactor: 1},
			{MaxPerDay: 100, MaxPerMonth: 2000, StaffCount: 2, UtilFactor: 1},
		},
		WorkingMinutes: []float64{60, 60},
		ProcTime:       []float64{10, 10},
		Capable:        []bool{true, false}, // lab 1 cannot process test 0
		Demand:         []int32{5, 3},
	}
}

func TestCapabilityConstraintViolatedByIncapableAllocation(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	if !CapabilityConstraint(al, p) {
		t.Fatal("empty allocation should satisfy the capability constraint")
	}
	al.Set(0, 1, 0, 1) // lab 1 is not capable of test 0
	if CapabilityConstraint(al, p) {
		t.Error("allocation to an incapable lab should violate the capability constraint")
	}
}

func TestDemandConstraintRequiresExactConservation(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 5)
	al.Set(1, 0, 0, 3)
	if !DemandConstraint(al, p) {
		t.Fatal("allocation matching demand exactly should satisfy the demand constraint")
	}
	al.Set(1, 0, 0, 2)
	if DemandConstraint(al, p) {
		t.Error("under-allocated demand should violate the demand constraint")
	}
}

func TestCapacityConstraintViolatedByOverload(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 100) // 100*10min = 1000min, far beyond 60min available
	if CapacityConstraint(al, p) {
		t.Error("allocation exceeding lab capacity should violate the capacity constraint")
	}
}

func TestCombineShortCircuitsOnFirstViolation(t *testing.T) {
	alwaysTrue := func(al *allocation.Allocation, p *problem.Problem) bool { return true }
	alwaysFalse := func(al *allocation.Allocation, p *problem.Problem) bool { return false }
	combined := Combine(alwaysTrue, alwaysFalse, alwaysTrue)
	p := fixtureProblem()
	if combined(allocation.New(p), p) {
		t.Error("Combine should be false when any constraint is violated")
	}
}

func TestFeasibleAcceptsARepairedAllocation(t *testing.T) {
	p := fixtureProblem()
	al := allocation.New(p)
	al.Set(0, 0, 0, 5)
	al.Set(1, 0, 0, 3)
	if !Feasible(al, p) {
		t.Error("a demand-conserving, capacity-respecting, capable allocation should be feasible")
	}
}
