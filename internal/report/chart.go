package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
)

// ════════════════════════════════════════════════════════════════════
// Interactive chart (go-echarts standalone page)
// ════════════════════════════════════════════════════════════════════

// missing is how echarts marks an absent data point; lines break there.
const missing = "-"

// ChartHTML writes c as a self-contained echarts HTML page. Bars and lines
// share the x axis; series on axis 1 are drawn against a second y axis on the
// right.
func ChartHTML(w io.Writer, c dashboard.ChartSpec, cfg Config) error {
	cfg = cfg.withDefaults()
	if len(c.Years) == 0 {
		return fmt.Errorf("chart %q has no data", c.Title)
	}

	labels := make([]string, len(c.Years))
	for i, y := range c.Years {
		labels[i] = strconv.Itoa(y)
	}

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.Title,
			Width:     fmt.Sprintf("%dpx", cfg.Width),
			Height:    fmt.Sprintf("%dpx", cfg.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XAxis}),
		charts.WithYAxisOpts(opts.YAxis{Name: axisName(c, 0)}),
	}

	var bars, lines []dashboard.SeriesSpec
	for _, s := range c.Series {
		if s.Kind == dashboard.KindBar {
			bars = append(bars, s)
		} else {
			lines = append(lines, s)
		}
	}
	secondary := len(c.SecondarySeries()) > 0 && len(c.YAxes) > 1

	if len(bars) == 0 {
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		if secondary {
			line.ExtendYAxis(opts.YAxis{Name: axisName(c, 1)})
		}
		line.SetXAxis(labels)
		addLines(line, lines)
		return line.Render(w)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(global...)
	if secondary {
		bar.ExtendYAxis(opts.YAxis{Name: axisName(c, 1)})
	}
	bar.SetXAxis(labels)
	for _, s := range bars {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: echartsValue(v)}
		}
		bar.AddSeries(s.Name, data, charts.WithBarChartOpts(opts.BarChart{YAxisIndex: s.Axis}))
	}

	if len(lines) > 0 {
		line := charts.NewLine()
		line.SetXAxis(labels)
		addLines(line, lines)
		bar.Overlap(line)
	}
	return bar.Render(w)
}

func addLines(line *charts.Line, series []dashboard.SeriesSpec) {
	for _, s := range series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: echartsValue(v)}
		}
		line.AddSeries(s.Name, data, charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(s.Smooth),
			ShowSymbol: opts.Bool(true),
			YAxisIndex: s.Axis,
		}))
	}
}

func echartsValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missing
	}
	return v
}

func axisName(c dashboard.ChartSpec, i int) string {
	if i < len(c.YAxes) {
		return c.YAxes[i]
	}
	return ""
}
