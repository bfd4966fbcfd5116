package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
)

// ════════════════════════════════════════════════════════════════════
// Static chart (gonum/plot PNG, SVG, PDF)
// ════════════════════════════════════════════════════════════════════

// pxToPt converts CSS pixels (96 dpi) to points.
const pxToPt = 0.75

// StaticChart draws c with gonum/plot and writes it to w as f (png, svg or
// pdf). gonum has no twin y axes, so series on axis 1 are drawn in a second
// panel below the first, sharing the year axis.
func StaticChart(w io.Writer, c dashboard.ChartSpec, f Format, cfg Config) error {
	if !f.Static() {
		return fmt.Errorf("%w: %q is not an image format", ErrUnsupportedFormat, f)
	}
	cfg = cfg.withDefaults()
	if len(c.Years) == 0 {
		return fmt.Errorf("chart %q has no data", c.Title)
	}

	labels := make([]string, len(c.Years))
	for i, y := range c.Years {
		labels[i] = strconv.Itoa(y)
	}

	primary, err := panelPlot(c.Title, axisName(c, 0), labels, c.PrimarySeries(), 0)
	if err != nil {
		return err
	}
	plots := [][]*plot.Plot{{primary}}

	if sec := c.SecondarySeries(); len(sec) > 0 {
		p, err := panelPlot("", axisName(c, 1), labels, sec, len(c.PrimarySeries()))
		if err != nil {
			return err
		}
		plots = append(plots, []*plot.Plot{p})
	}
	plots[len(plots)-1][0].X.Label.Text = c.XAxis

	width := vg.Points(float64(cfg.Width) * pxToPt)
	height := vg.Points(float64(cfg.Height) * pxToPt)
	canvas, err := draw.NewFormattedCanvas(width, height, string(f))
	if err != nil {
		return fmt.Errorf("creating %s canvas: %w", f, err)
	}
	dc := draw.New(canvas)

	if len(plots) == 1 {
		primary.Draw(dc)
	} else {
		tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Points(8)}
		canvases := plot.Align(plots, tiles, dc)
		for i := range plots {
			plots[i][0].Draw(canvases[i][0])
		}
	}

	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s: %w", f, err)
	}
	return nil
}

// panelPlot builds one panel. Bars are grouped around each year; lines are
// split at missing values so gaps stay visible. colorOffset keeps colours
// distinct across panels.
func panelPlot(title, yLabel string, labels []string, series []dashboard.SeriesSpec, colorOffset int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var bars []dashboard.SeriesSpec
	for _, s := range series {
		if s.Kind == dashboard.KindBar {
			bars = append(bars, s)
		}
	}
	barWidth := vg.Points(10)
	if len(labels) > 0 && len(bars) > 0 {
		// Keep groups from overlapping on long series.
		if w := vg.Points(360 / float64(len(labels)*len(bars))); w < barWidth {
			barWidth = w
		}
	}

	barIdx := 0
	for i, s := range series {
		col := plotutil.Color(colorOffset + i)
		switch s.Kind {
		case dashboard.KindBar:
			values := make(plotter.Values, len(s.Values))
			for j, v := range s.Values {
				// BarChart rejects NaN; a missing bar is drawn with no height.
				if !finite(v) {
					v = 0
				}
				values[j] = v
			}
			b, err := plotter.NewBarChart(values, barWidth)
			if err != nil {
				return nil, fmt.Errorf("series %q: %w", s.Name, err)
			}
			b.Color = col
			b.LineStyle.Width = vg.Length(0)
			b.Offset = vg.Length(float64(barIdx)-float64(len(bars)-1)/2) * barWidth
			barIdx++
			p.Add(b)
			p.Legend.Add(s.Name, b)
		default:
			first := true
			for _, run := range finiteRuns(s.Values) {
				l, pts, err := plotter.NewLinePoints(run)
				if err != nil {
					return nil, fmt.Errorf("series %q: %w", s.Name, err)
				}
				l.Color = col
				l.Width = vg.Points(2)
				pts.GlyphStyle.Color = col
				pts.GlyphStyle.Shape = draw.CircleGlyph{}
				p.Add(l, pts)
				if first {
					p.Legend.Add(s.Name, l, pts)
					first = false
				}
			}
		}
	}

	p.NominalX(labels...)
	return p, nil
}

// finiteRuns splits values into runs of consecutive finite points, with x
// set to the value's index.
func finiteRuns(values []float64) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for i, v := range values {
		if !finite(v) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i), Y: v})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
