package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cdstlab/optimizer/internal/objectives"
)

func TestParetoFrontChartRendersWithoutError(t *testing.T) {
	front := []ParetoPoint{
		{F: objectives.Vector{1, 2, 3, 4, 5}, Label: "candidate 0"},
		{F: objectives.Vector{2, 1, 4, 3, 5}, Label: "candidate 1"},
	}
	var buf bytes.Buffer
	if err := ParetoFrontChart(front, objectives.IdxCost, objectives.IdxDistance, &buf); err != nil {
		t.Fatalf("ParetoFrontChart: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("ParetoFrontChart wrote no output")
	}
	if !strings.Contains(buf.String(), "<html") {
		t.Error("rendered output does not look like HTML")
	}
}

func TestParetoFrontChartHandlesEmptyFront(t *testing.T) {
	var buf bytes.Buffer
	if err := ParetoFrontChart(nil, objectives.IdxCost, objectives.IdxDistance, &buf); err != nil {
		t.Fatalf("ParetoFrontChart(empty): %v", err)
	}
}

func TestConvergenceChartRendersWithoutError(t *testing.T) {
	points := []ConvergencePoint{
		{Generation: 0, Hypervolume: 0.1},
		{Generation: 1, Hypervolume: 0.3},
		{Generation: 2, Hypervolume: 0.5},
	}
	var buf bytes.Buffer
	if err := ConvergenceChart(points, &buf); err != nil {
		t.Fatalf("ConvergenceChart: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("ConvergenceChart wrote no output")
	}
}

func TestObjectiveNameCoversAllFiveIndices(t *testing.T) {
	for _, idx := range []int{objectives.IdxDistance, objectives.IdxTime, objectives.IdxCost, objectives.IdxUtilization, objectives.IdxAccessibility} {
		if name := objectiveName(idx); name == "" || strings.HasPrefix(name, "objective ") {
			t.Errorf("objectiveName(%d) = %q, want a named label", idx, name)
		}
	}
}
