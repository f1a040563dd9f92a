// Package result extracts and decorates the rank-0 Pareto front of a
// finished scenario, and scores it against a nearest-capable-lab greedy
// baseline computed on the same Problem.
package result

import "github.com/cdstlab/optimizer/internal/objectives"

// Row is one decorated nonzero allocation cell, persisted as
// (scenario_id, area_id, lab_id, test_id, allocated_tests, ...) plus the
// per-cell cost/score breakdown.
type Row struct {
	AreaID string
	LabID  string
	TestID string
	Tests  int32

	DistanceKM         float64
	TravelTimeMinutes  float64
	TransportCost      float64
	ProcessingCost     float64
	TotalCost          float64
	UtilizationScore   float64
	AccessibilityScore float64
}

// Candidate is one member of the extracted Pareto front: its objective
// vector plus the rows decorating its nonzero allocation cells.
type Candidate struct {
	Objectives objectives.Vector
	Composite  float64
	Rows       []Row
}

// Summary compares a Candidate's objectives against the greedy baseline,
// one signed improvement per objective dimension (positive means the
// candidate is better; all five dimensions are oriented so lower-is-better
// in objectives.Vector, so Improvement[i] = baseline[i] - candidate[i]).
type Summary struct {
	Baseline    objectives.Vector
	Improvement objectives.Vector
}

// Result is the full output of one terminal scenario: its Pareto front,
// each member decorated, plus the baseline comparison summary.
type Result struct {
	ScenarioID string
	Front      []Candidate
	Summary    Summary
}
