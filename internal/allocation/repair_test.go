package allocation

import (
	"math/rand"
	"testing"

	"github.com/cdstlab/optimizer/internal/problem"
)

func repairFixtureProblem() *problem.Problem {
	return &problem.Problem{
		NAreas: 2,
		NLabs:  2,
		NTests: 1,
		LabCapacity: []problem.LabCapacity{
			{MaxPerDay: 100, MaxPerMonth: 2000, StaffCount: 2, UtilFactor: 1},
			{MaxPerDay: 100, MaxPerMonth: 2000, StaffCount: 2, UtilFactor: 1},
		},
		WorkingMinutes: []float64{60, 60}, // available_minutes[j] = 2*60*1 = 120
		ProcTime:       []float64{10, 10},
		Capable:        []bool{true, true},
		Demand:         []int32{10, 5}, // Demand[a*NTests+t], NTests=1 -> area0:10, area1:5
		DistKM:         []float64{1, 2, 3, 4},
	}
}

func TestRepairConservesDemand(t *testing.T) {
	p := repairFixtureProblem()
	al := New(p)
	Repair(al, p, rand.New(rand.NewSource(1)))

	for a := 0; a < p.NAreas; a++ {
		if got, want := al.SumOverLabs(a, 0), p.DemandAt(a, 0); got != want {
			t.Errorf("area %d: SumOverLabs = %d, want demand %d", a, got, want)
		}
	}
}

func TestRepairIsIdempotent(t *testing.T) {
	p := repairFixtureProblem()
	al := New(p)
	Repair(al, p, rand.New(rand.NewSource(2)))
	once := al.Clone()
	Repair(al, p, rand.New(rand.NewSource(2)))
	if !Equal(once, al) {
		t.Fatal("Repair applied to an already-repaired allocation must be a no-op")
	}
}

func TestRepairEnforcesCapacity(t *testing.T) {
	p := repairFixtureProblem()
	al := New(p)
	// Overload lab 0 directly, beyond its available 120 minutes at 10 min/test.
	al.Set(0, 0, 0, 20)
	Repair(al, p, rand.New(rand.NewSource(3)))

	for j := 0; j < p.NLabs; j++ {
		if used := al.ProcessingMinutesForLab(p, j); used > p.AvailableMinutes(j)+1e-9 {
			t.Errorf("lab %d: processing minutes %v exceed available %v", j, used, p.AvailableMinutes(j))
		}
	}
	for a := 0; a < p.NAreas; a++ {
		if got, want := al.SumOverLabs(a, 0), p.DemandAt(a, 0); got != want {
			t.Errorf("area %d: demand not conserved after capacity repair: got %d, want %d", a, got, want)
		}
	}
}

func TestRepairNilRNGSafe(t *testing.T) {
	p := repairFixtureProblem()
	al := New(p)
	Repair(al, p, nil)
	for a := 0; a < p.NAreas; a++ {
		if got, want := al.SumOverLabs(a, 0), p.DemandAt(a, 0); got != want {
			t.Errorf("area %d: SumOverLabs = %d, want demand %d", a, got, want)
		}
	}
}
