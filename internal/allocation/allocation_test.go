package allocation

import (
	"testing"

	"github.com/cdstlab/optimizer/internal/problem"
)

func fixtureProblem() *problem.Problem {
	return &problem.Problem{
		NAreas: 2,
		NLabs:  2,
		NTests: 1,
		LabCapacity: []problem.LabCapacity{
			{MaxPerDay: 100, MaxPerMonth: 2000, StaffCount: 2, UtilFactor: 0.8},
			{MaxPerDay: 100, MaxPerMonth: 2000, StaffCount: 2, UtilFactor: 0.8},
		},
		WorkingMinutes: []float64{2400, 2400},
		ProcTime:       []float64{30, 45},
		Capable:        []bool{true, true},
	}
}

func TestIndexRoundTrip(t *testing.T) {
	al := New(fixtureProblem())
	for a := 0; a < al.NAreas; a++ {
		for j := 0; j < al.NLabs; j++ {
			for tt := 0; tt < al.NTests; tt++ {
				al.Set(a, j, tt, int32(a*10+j))
				if got := al.At(a, j, tt); got != int32(a*10+j) {
					t.Errorf("At(%d,%d,%d) = %d, want %d", a, j, tt, got, a*10+j)
				}
			}
		}
	}
}

func TestAdd(t *testing.T) {
	al := New(fixtureProblem())
	al.Set(0, 0, 0, 5)
	al.Add(0, 0, 0, 3)
	if got := al.At(0, 0, 0); got != 8 {
		t.Errorf("At(0,0,0) after Add = %d, want 8", got)
	}
	al.Add(0, 0, 0, -2)
	if got := al.At(0, 0, 0); got != 6 {
		t.Errorf("At(0,0,0) after negative Add = %d, want 6", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	al := New(fixtureProblem())
	al.Set(1, 1, 0, 7)
	clone := al.Clone()
	if !Equal(al, clone) {
		t.Fatal("clone should be equal to original")
	}
	clone.Set(1, 1, 0, 99)
	if Equal(al, clone) {
		t.Fatal("mutating the clone must not affect the original")
	}
	if al.At(1, 1, 0) != 7 {
		t.Errorf("original mutated after clone edit: At(1,1,0) = %d, want 7", al.At(1, 1, 0))
	}
}

func TestSumOverLabs(t *testing.T) {
	al := New(fixtureProblem())
	al.Set(0, 0, 0, 4)
	al.Set(0, 1, 0, 6)
	if got := al.SumOverLabs(0, 0); got != 10 {
		t.Errorf("SumOverLabs(0,0) = %d, want 10", got)
	}
}

func TestProcessingMinutesForLab(t *testing.T) {
	p := fixtureProblem()
	al := New(p)
	al.Set(0, 0, 0, 2) // 2 tests at 30 min each on lab 0
	al.Set(1, 0, 0, 1) // 1 more test at 30 min on lab 0
	if got := al.ProcessingMinutesForLab(p, 0); got != 90 {
		t.Errorf("ProcessingMinutesForLab(lab 0) = %v, want 90", got)
	}
	if got := al.ProcessingMinutesForLab(p, 1); got != 0 {
		t.Errorf("ProcessingMinutesForLab(lab 1) = %v, want 0", got)
	}
}

func TestEqual(t *testing.T) {
	a := New(fixtureProblem())
	b := New(fixtureProblem())
	if !Equal(a, b) {
		t.Fatal("two freshly zeroed allocations of the same shape should be equal")
	}
	b.Set(0, 0, 0, 1)
	if Equal(a, b) {
		t.Fatal("allocations differing in one cell must not be equal")
	}
}
