// Package chart renders convergence and Pareto-front HTML charts with
// go-echarts. Allocations carry five objectives rather than two, so
// ParetoFrontChart projects onto a caller-chosen pair of objective axes,
// and ConvergenceChart plots the per-generation hypervolume trace across
// a full multi-generation run.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/cdstlab/optimizer/internal/objectives"
)

// ParetoPoint is one rendered front member's objective vector plus a label
// (e.g. allocation ID). ParetoFrontChart plots only the vector; the label
// is not rendered.
type ParetoPoint struct {
	F     objectives.Vector
	Label string
}

// ParetoFrontChart renders a scatter plot of front projected onto the
// (xObjective, yObjective) axes (indices into objectives.Vector, see
// objectives.IdxDistance etc).
func ParetoFrontChart(front []ParetoPoint, xObjective, yObjective int, w io.Writer) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Pareto front"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithXAxisOpts(opts.XAxis{Name: objectiveName(xObjective), SplitLine: &opts.SplitLine{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Name: objectiveName(yObjective), SplitLine: &opts.SplitLine{Show: opts.Bool(true)}}),
	)

	data := make([]opts.ScatterData, len(front))
	for i, pt := range front {
		data[i] = opts.ScatterData{
			Value:      []float64{pt.F[xObjective], pt.F[yObjective]},
			Symbol:     "circle",
			SymbolSize: 8,
		}
	}

	scatter.AddSeries("rank-0 front", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))

	return scatter.Render(w)
}

// ConvergencePoint is one generation's recorded hypervolume sample.
type ConvergencePoint struct {
	Generation  int
	Hypervolume float64
}

// ConvergenceChart renders a line chart of hypervolume over generations,
// the series the Scheduler's progress frames accumulate over a run.
func ConvergenceChart(points []ConvergencePoint, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Hypervolume convergence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithXAxisOpts(opts.XAxis{Name: "generation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "hypervolume"}),
	)

	xAxis := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		xAxis[i] = fmt.Sprintf("%d", p.Generation)
		data[i] = opts.LineData{Value: p.Hypervolume}
	}

	line.SetXAxis(xAxis).AddSeries("hypervolume", data).
		SetSeriesOptions(charts.WithLineChartOpts(charts.LineChartOpts{Smooth: opts.Bool(true)}))

	return line.Render(w)
}

func objectiveName(idx int) string {
	switch idx {
	case objectives.IdxDistance:
		return "mean distance (km)"
	case objectives.IdxTime:
		return "mean elapsed time (min)"
	case objectives.IdxCost:
		return "total cost"
	case objectives.IdxUtilization:
		return "-utilization score"
	case objectives.IdxAccessibility:
		return "-accessibility score"
	default:
		return fmt.Sprintf("objective %d", idx)
	}
}
