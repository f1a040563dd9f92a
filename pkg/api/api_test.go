package api

import (
	"testing"
	"time"

	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/result"
	"github.com/cdstlab/optimizer/internal/scheduler"
)

func TestNetworkConfigToSnapshotPreservesCounts(t *testing.T) {
	cfg := NetworkConfig{
		Areas:   []AreaConfig{{ID: "a1", Lat: 1, Lng: 2, Population: 100}},
		Labs:    []LabConfig{{ID: "l1", Lat: 3, Lng: 4, MaxPerDay: 10, MaxPerMonth: 200, StaffCount: 2, UtilFactor: 0.9}},
		TestIDs: []string{"culture"},
		Capabilities: []CapabilityConfig{
			{LabID: "l1", TestID: "culture", ProcTime: 20, StaffReq: 1, EquipUtil: 0.5, CostPerTest: 5, Quality: 0.9},
		},
		Demand: []DemandConfig{
			{AreaID: "a1", TestID: "culture", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Count: 5},
		},
		CostPerKM:               1.5,
		MaxAcceptableDistanceKM: 25,
	}
	snap := cfg.ToSnapshot()
	if len(snap.Areas) != 1 || len(snap.Labs) != 1 || len(snap.TestIDs) != 1 {
		t.Fatalf("snapshot counts = (%d,%d,%d), want (1,1,1)", len(snap.Areas), len(snap.Labs), len(snap.TestIDs))
	}
	if snap.Areas[0].Coordinate.Lat != 1 || snap.Areas[0].Coordinate.Lng != 2 {
		t.Errorf("area coordinate = %+v, want (1,2)", snap.Areas[0].Coordinate)
	}
	if snap.CostPerKM != 1.5 {
		t.Errorf("CostPerKM = %v, want 1.5", snap.CostPerKM)
	}
	if len(snap.Demand) != 1 || snap.Demand[0].Count != 5 {
		t.Errorf("demand = %+v, want one record with count 5", snap.Demand)
	}
}

func TestDateWindowConfigToWindow(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	w := DateWindowConfig{From: from, To: to}.ToWindow()
	if !w.From.Equal(from) || !w.To.Equal(to) {
		t.Errorf("window = %+v, want From=%v To=%v", w, from, to)
	}
}

func TestParametersConfigRoundTripsThroughProblemParameters(t *testing.T) {
	cfg := DefaultParametersConfig()
	cfg.PopulationSize = 77
	cfg.TimeoutSeconds = 120
	params := cfg.ToParameters()
	if params.PopulationSize != 77 {
		t.Errorf("PopulationSize = %d, want 77", params.PopulationSize)
	}
	if params.TimeBudget != 120*time.Second {
		t.Errorf("TimeBudget = %v, want 120s", params.TimeBudget)
	}
	if params.Weights != cfg.Weights {
		t.Errorf("Weights = %v, want %v", params.Weights, cfg.Weights)
	}
}

func TestDefaultParametersConfigWeightsSumToOne(t *testing.T) {
	cfg := DefaultParametersConfig()
	var sum float64
	for _, w := range cfg.Weights {
		sum += w
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("default weights sum to %v, want 1", sum)
	}
}

func TestFromSchedulerFrameMapsStageAndStatus(t *testing.T) {
	f := scheduler.ProgressFrame{
		ScenarioID:     "s1",
		Generation:     3,
		MaxGenerations: 10,
		BestComposite:  0.5,
		Hypervolume:    0.8,
		ElapsedSeconds: 12.5,
		ETASeconds:     30,
		Stage:          scheduler.StageEvolving,
		Status:         scheduler.StatusRunning,
	}
	out := FromSchedulerFrame(f)
	if out.ScenarioID != "s1" || out.Generation != 3 || out.MaxGenerations != 10 {
		t.Errorf("frame fields mismatch: %+v", out)
	}
	if out.Stage != string(scheduler.StageEvolving) {
		t.Errorf("Stage = %q, want %q", out.Stage, scheduler.StageEvolving)
	}
	if out.Status != string(scheduler.StatusRunning) {
		t.Errorf("Status = %q, want %q", out.Status, scheduler.StatusRunning)
	}
}

func TestFromResultMapsObjectiveIndicesToNamedFields(t *testing.T) {
	v := objectives.Vector{1, 2, 3, 4, 5}
	r := result.Result{
		ScenarioID: "s1",
		Front: []result.Candidate{
			{Objectives: v, Composite: 0.1, Rows: []result.Row{{AreaID: "a1", LabID: "l1", TestID: "t1", Tests: 3}}},
		},
		Summary: result.Summary{Baseline: v, Improvement: v},
	}
	out := FromResult(r)
	if out.ScenarioID != "s1" {
		t.Errorf("ScenarioID = %q, want s1", out.ScenarioID)
	}
	if len(out.Front) != 1 || len(out.Front[0].Rows) != 1 {
		t.Fatalf("Front = %+v, want one candidate with one row", out.Front)
	}
	got := out.Front[0].Objectives
	want := ObjectiveVector{
		MeanDistanceKM:        v[objectives.IdxDistance],
		MeanElapsedMinutes:    v[objectives.IdxTime],
		TotalCost:             v[objectives.IdxCost],
		NegativeUtilization:   v[objectives.IdxUtilization],
		NegativeAccessibility: v[objectives.IdxAccessibility],
	}
	if got != want {
		t.Errorf("Objectives = %+v, want %+v", got, want)
	}
	if out.Front[0].Rows[0].AreaID != "a1" || out.Front[0].Rows[0].Tests != 3 {
		t.Errorf("Row = %+v, want AreaID=a1 Tests=3", out.Front[0].Rows[0])
	}
}
