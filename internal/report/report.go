// Package report renders an HTML page summarising a negotiation run with
// go-echarts.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
)

// AssetsHost serves the echarts scripts. Empty uses the go-echarts default.
var AssetsHost = ""

func initOpts(title string) opts.Initialization {
	return opts.Initialization{PageTitle: title, Width: "900px", Height: "420px", AssetsHost: AssetsHost}
}

// Convergence writes a page with the overflow per round, the copper length
// per layer and, when trials ran, each trial's outcome. layers names the
// grid layers; trials may be nil.
func Convergence(w io.Writer, res *negotiate.Result, layers []string, trials *negotiate.TrialResult) error {
	page := components.NewPage()
	page.PageTitle = "Routing report"
	page.AddCharts(overflowChart(res), layerChart(res, layers))
	if trials != nil && len(trials.Trials) > 0 {
		page.AddCharts(trialChart(trials))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func overflowChart(res *negotiate.Result) *charts.Line {
	x := make([]string, len(res.OverflowHistory))
	y := make([]opts.LineData, len(res.OverflowHistory))
	for i, v := range res.OverflowHistory {
		x[i] = fmt.Sprintf("%d", i+1)
		y[i] = opts.LineData{Value: v}
	}

	status := "converged"
	switch {
	case res.Cancelled:
		status = "cancelled"
	case !res.Converged:
		status = fmt.Sprintf("stopped with overflow %d", res.Stats.Overflow)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("Overflow")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Overflow per round",
			Subtitle: fmt.Sprintf("session=%s rounds=%d %s", res.SessionID, res.Rounds, status),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "round", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "overflow", Min: 0}),
	)
	line.SetXAxis(x).AddSeries("overflow", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return line
}

func layerChart(res *negotiate.Result, layers []string) *charts.Bar {
	lengths := map[int]float64{}
	for _, rr := range res.Routes {
		for _, s := range rr.Segments {
			lengths[s.Layer] += s.Length()
		}
	}
	var keys []int
	for l := range lengths {
		keys = append(keys, l)
	}
	for l := range layers {
		if _, ok := lengths[l]; !ok {
			keys = append(keys, l)
		}
	}
	sort.Ints(keys)

	x := make([]string, len(keys))
	y := make([]opts.BarData, len(keys))
	for i, l := range keys {
		if l < len(layers) {
			x[i] = layers[l]
		} else {
			x[i] = fmt.Sprintf("L%d", l)
		}
		y[i] = opts.BarData{Value: fmt.Sprintf("%.2f", lengths[l])}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("Copper")),
		charts.WithTitleOpts(opts.Title{
			Title: "Copper length per layer (mm)",
			Subtitle: fmt.Sprintf("routed %d/%d nets, %d vias, %.2fmm",
				res.Stats.NetsRouted, res.Stats.NetsTotal, res.Stats.Vias, res.Stats.TotalLength),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("length", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

func trialChart(tr *negotiate.TrialResult) *charts.Bar {
	x := make([]string, len(tr.Trials))
	failures := make([]opts.BarData, len(tr.Trials))
	overflow := make([]opts.BarData, len(tr.Trials))
	for i, t := range tr.Trials {
		x[i] = fmt.Sprintf("seed %d", t.Seed)
		failures[i] = opts.BarData{Value: t.Failures}
		overflow[i] = opts.BarData{Value: t.Overflow}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("Trials")),
		charts.WithTitleOpts(opts.Title{Title: "Trials", Subtitle: fmt.Sprintf("best seed %d", tr.Seed)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("failed nets", failures).
		AddSeries("overflow", overflow)
	return bar
}
