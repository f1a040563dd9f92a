package api

import (
	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/result"
	"github.com/cdstlab/optimizer/internal/scheduler"
)

// ProgressFrame is the external, JSON-serializable mirror of
// scheduler.ProgressFrame.
type ProgressFrame struct {
	ScenarioID     string  `json:"scenarioId"`
	Generation     int     `json:"generation"`
	MaxGenerations int     `json:"maxGenerations"`
	BestComposite  float64 `json:"bestComposite"`
	Hypervolume    float64 `json:"hypervolume"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	ETASeconds     float64 `json:"etaSeconds"`
	Stage          string  `json:"stage"`
	Status         string  `json:"status"`
	FailureReason  string  `json:"failureReason,omitempty"`
}

// FromSchedulerFrame converts an internal scheduler.ProgressFrame into its
// public mirror.
func FromSchedulerFrame(f scheduler.ProgressFrame) ProgressFrame {
	return ProgressFrame{
		ScenarioID:     f.ScenarioID,
		Generation:     f.Generation,
		MaxGenerations: f.MaxGenerations,
		BestComposite:  f.BestComposite,
		Hypervolume:    f.Hypervolume,
		ElapsedSeconds: f.ElapsedSeconds,
		ETASeconds:     f.ETASeconds,
		Stage:          string(f.Stage),
		Status:         string(f.Status),
		FailureReason:  string(f.FailureReason),
	}
}

// ObjectiveVector mirrors objectives.Vector with named fields for JSON
// output instead of a bare 5-array.
type ObjectiveVector struct {
	MeanDistanceKM        float64 `json:"meanDistanceKm"`
	MeanElapsedMinutes    float64 `json:"meanElapsedMinutes"`
	TotalCost             float64 `json:"totalCost"`
	NegativeUtilization   float64 `json:"negativeUtilization"`
	NegativeAccessibility float64 `json:"negativeAccessibility"`
}

func fromVector(v objectives.Vector) ObjectiveVector {
	return ObjectiveVector{
		MeanDistanceKM:        v[objectives.IdxDistance],
		MeanElapsedMinutes:    v[objectives.IdxTime],
		TotalCost:             v[objectives.IdxCost],
		NegativeUtilization:   v[objectives.IdxUtilization],
		NegativeAccessibility: v[objectives.IdxAccessibility],
	}
}

// Row mirrors result.Row for JSON output.
type Row struct {
	AreaID             string  `json:"areaId"`
	LabID              string  `json:"labId"`
	TestID             string  `json:"testId"`
	Tests              int32   `json:"tests"`
	DistanceKM         float64 `json:"distanceKm"`
	TravelTimeMinutes  float64 `json:"travelTimeMinutes"`
	TransportCost      float64 `json:"transportCost"`
	ProcessingCost     float64 `json:"processingCost"`
	TotalCost          float64 `json:"totalCost"`
	UtilizationScore   float64 `json:"utilizationScore"`
	AccessibilityScore float64 `json:"accessibilityScore"`
}

// Candidate mirrors result.Candidate for JSON output.
type Candidate struct {
	Objectives ObjectiveVector `json:"objectives"`
	Composite  float64         `json:"composite"`
	Rows       []Row           `json:"rows"`
}

// Summary mirrors result.Summary for JSON output.
type Summary struct {
	Baseline    ObjectiveVector `json:"baseline"`
	Improvement ObjectiveVector `json:"improvement"`
}

// Result mirrors result.Result for JSON output.
type Result struct {
	ScenarioID string      `json:"scenarioId"`
	Front      []Candidate `json:"front"`
	Summary    Summary     `json:"summary"`
}

// FromResult converts an internal result.Result into its public mirror.
func FromResult(r result.Result) Result {
	front := make([]Candidate, len(r.Front))
	for i, c := range r.Front {
		rows := make([]Row, len(c.Rows))
		for j, row := range c.Rows {
			rows[j] = Row{
				AreaID:             row.AreaID,
				LabID:              row.LabID,
				TestID:             row.TestID,
				Tests:              row.Tests,
				DistanceKM:         row.DistanceKM,
				TravelTimeMinutes:  row.TravelTimeMinutes,
				TransportCost:      row.TransportCost,
				ProcessingCost:     row.ProcessingCost,
				TotalCost:          row.TotalCost,
				UtilizationScore:   row.UtilizationScore,
				AccessibilityScore: row.AccessibilityScore,
			}
		}
		front[i] = Candidate{
			Objectives: fromVector(c.Objectives),
			Composite:  c.Composite,
			Rows:       rows,
		}
	}
	return Result{
		ScenarioID: r.ScenarioID,
		Front:      front,
		Summary: Summary{
			Baseline:    fromVector(r.Summary.Baseline),
			Improvement: fromVector(r.Summary.Improvement),
		},
	}
}
