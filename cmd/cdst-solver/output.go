package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cdstlab/optimizer/internal/chart"
	"github.com/cdstlab/optimizer/internal/objectives"
	"github.com/cdstlab/optimizer/internal/result"
	"github.com/cdstlab/optimizer/pkg/api"
)

// writeResult marshals an api.Result as indented JSON to path, or stdout
// when path is "-".
func writeResult(res result.Result, path string) error {
	data, err := json.MarshalIndent(api.FromResult(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if path == "-" || path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result to %s: %w", path, err)
	}
	return nil
}

// renderCharts writes the Pareto-front and convergence HTML charts for a
// finished scenario into dir, named after scenarioID. history is the
// per-generation hypervolume trace accumulated from progress frames over
// the run.
func renderCharts(dir, scenarioID string, res result.Result, history []chart.ConvergencePoint) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating chart output dir %s: %w", dir, err)
	}

	points := make([]chart.ParetoPoint, len(res.Front))
	for i, c := range res.Front {
		points[i] = chart.ParetoPoint{F: c.Objectives, Label: fmt.Sprintf("candidate %d", i)}
	}
	frontPath := filepath.Join(dir, scenarioID+"-pareto.html")
	frontFile, err := os.Create(frontPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", frontPath, err)
	}
	defer frontFile.Close()
	if err := chart.ParetoFrontChart(points, objectives.IdxCost, objectives.IdxDistance, frontFile); err != nil {
		return fmt.Errorf("rendering pareto front chart: %w", err)
	}

	convergencePath := filepath.Join(dir, scenarioID+"-convergence.html")
	convergenceFile, err := os.Create(convergencePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", convergencePath, err)
	}
	defer convergenceFile.Close()
	if err := chart.ConvergenceChart(history, convergenceFile); err != nil {
		return fmt.Errorf("rendering convergence chart: %w", err)
	}

	fmt.Fprintf(os.Stderr, "charts written to %s\n", dir)
	return nil
}
