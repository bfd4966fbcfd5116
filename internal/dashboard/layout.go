package dashboard

import (
	"fmt"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
)

// SeriesKind is how a series is drawn.
type SeriesKind string

const (
	KindBar  SeriesKind = "bar"
	KindLine SeriesKind = "line"
)

// SeriesDef maps one table column to one plotted series.
type SeriesDef struct {
	Name   string     `json:"name" mapstructure:"name" yaml:"name"`
	Column string     `json:"column" mapstructure:"column" yaml:"column"`
	Kind   SeriesKind `json:"kind" mapstructure:"kind" yaml:"kind"`
	Axis   int        `json:"axis" mapstructure:"axis" yaml:"axis"` // 0 primary, 1 secondary
	Smooth bool       `json:"smooth,omitempty" mapstructure:"smooth" yaml:"smooth"`
}

// Layout describes a view as data: the series it plots, its axis titles, the
// columns of its data table and the snippet shown under "Show code".
type Layout struct {
	Title   string      `json:"title"`
	XAxis   string      `json:"x_axis"`
	YAxes   []string    `json:"y_axes"`
	BarMode string      `json:"bar_mode,omitempty"`
	Series  []SeriesDef `json:"series"`
	Columns []string    `json:"columns"`
	Snippet string      `json:"-"`
}

// HasSecondaryAxis reports whether any series is plotted on axis 1.
func (l Layout) HasSecondaryAxis() bool {
	for _, s := range l.Series {
		if s.Axis == 1 {
			return true
		}
	}
	return false
}

// Validate checks that every series references a numeric column and an
// existing axis, and that every table column exists.
func (l Layout) Validate() error {
	if len(l.Series) == 0 {
		return fmt.Errorf("layout %q: no series", l.Title)
	}
	if len(l.YAxes) == 0 || len(l.YAxes) > 2 {
		return fmt.Errorf("layout %q: want 1 or 2 y axes, got %d", l.Title, len(l.YAxes))
	}
	for _, s := range l.Series {
		if !models.IsNumericColumn(s.Column) || s.Column == models.ColYear {
			return fmt.Errorf("layout %q: series %q: column %q is not a plottable column", l.Title, s.Name, s.Column)
		}
		if s.Kind != KindBar && s.Kind != KindLine {
			return fmt.Errorf("layout %q: series %q: unknown kind %q", l.Title, s.Name, s.Kind)
		}
		if s.Axis < 0 || s.Axis >= len(l.YAxes) {
			return fmt.Errorf("layout %q: series %q: axis %d out of range", l.Title, s.Name, s.Axis)
		}
	}
	for _, c := range l.Columns {
		if c != models.ColCrop && !models.IsNumericColumn(c) {
			return fmt.Errorf("layout %q: unknown table column %q", l.Title, c)
		}
	}
	return nil
}

// DefaultLayouts returns the built-in layout of every view.
func DefaultLayouts() map[View]Layout {
	return map[View]Layout{
		ViewProduction: {
			Title:   "Production and area trends analysis",
			XAxis:   "Year",
			YAxes:   []string{"Production (MT) & Area (Acre)", "Yield (Kg/Acre)"},
			BarMode: "group",
			Series: []SeriesDef{
				{Name: "Production (MT)", Column: models.ColProduction, Kind: KindBar},
				{Name: "Area (Acre)", Column: models.ColArea, Kind: KindBar},
				{Name: "Yield (kg/acre)", Column: models.ColYield, Kind: KindLine, Axis: 1, Smooth: true},
			},
			Columns: []string{models.ColYear, models.ColProduction, models.ColArea, models.ColYield},
			Snippet: productionSnippet,
		},
		ViewTrade: {
			Title:   "Export and import analysis",
			XAxis:   "Year",
			YAxes:   []string{"Export and Import (MT)"},
			BarMode: "group",
			Series: []SeriesDef{
				{Name: "Export (MT)", Column: models.ColExport, Kind: KindBar},
				{Name: "Import (MT)", Column: models.ColImport, Kind: KindBar},
			},
			Columns: []string{models.ColYear, models.ColExport, models.ColImport},
			Snippet: tradeSnippet,
		},
		ViewSelfSufficiency: {
			Title: "Self Sufficiency Analysis",
			XAxis: "Year",
			YAxes: []string{"SSR & DES (%)", "IDR (%)"},
			Series: []SeriesDef{
				{Name: "Sufficiency rate (%)", Column: models.ColSSR, Kind: KindLine, Smooth: true},
				{Name: "IDR (%)", Column: models.ColIDR, Kind: KindLine, Axis: 1, Smooth: true},
				{Name: "DES (%)", Column: models.ColDES, Kind: KindLine, Smooth: true},
			},
			Columns: []string{
				models.ColYear, models.ColProduction, models.ColArea, models.ColYield,
				models.ColExport, models.ColImport, models.ColSSR, models.ColIDR, models.ColDES,
			},
			Snippet: selfSufficiencySnippet,
		},
	}
}

// Override replaces the non-empty fields of l with those of o.
func (l Layout) Override(o Layout) Layout {
	if o.Title != "" {
		l.Title = o.Title
	}
	if o.XAxis != "" {
		l.XAxis = o.XAxis
	}
	if len(o.YAxes) > 0 {
		l.YAxes = append([]string(nil), o.YAxes...)
	}
	if o.BarMode != "" {
		l.BarMode = o.BarMode
	}
	if len(o.Series) > 0 {
		l.Series = append([]SeriesDef(nil), o.Series...)
	}
	if len(o.Columns) > 0 {
		l.Columns = append([]string(nil), o.Columns...)
	}
	if o.Snippet != "" {
		l.Snippet = o.Snippet
	}
	return l
}

const productionSnippet = `crop := table.Filter(selection.Crop)

chart := dashboard.ChartSpec{
	XAxis: "Year",
	YAxes: []string{"Production (MT) & Area (Acre)", "Yield (Kg/Acre)"},
	Years: crop.Years(),
}
production, _ := crop.Column("Production")
area, _ := crop.Column("Area")
yield, _ := crop.Column("Yield") // Production*1000/Area

chart.Series = append(chart.Series,
	dashboard.SeriesSpec{Name: "Production (MT)", Kind: "bar", Values: production},
	dashboard.SeriesSpec{Name: "Area (Acre)", Kind: "bar", Values: area},
	dashboard.SeriesSpec{Name: "Yield (kg/acre)", Kind: "line", Axis: 1, Smooth: true, Values: yield},
)
`

const tradeSnippet = `crop := table.Filter(selection.Crop)

exports, _ := crop.Column("Export")
imports, _ := crop.Column("Import")

chart := dashboard.ChartSpec{
	XAxis:   "Year",
	YAxes:   []string{"Export and Import (MT)"},
	Years:   crop.Years(),
	BarMode: "group",
	Series: []dashboard.SeriesSpec{
		{Name: "Export (MT)", Kind: "bar", Values: exports},
		{Name: "Import (MT)", Kind: "bar", Values: imports},
	},
}
`

const selfSufficiencySnippet = `crop := table.Filter(selection.Crop)

ssr, _ := crop.Column("SSR")
idr, _ := crop.Column("IDR")
des, _ := crop.Column("DES")

chart := dashboard.ChartSpec{
	XAxis: "Year",
	YAxes: []string{"SSR & DES (%)", "IDR (%)"},
	Years: crop.Years(),
	Series: []dashboard.SeriesSpec{
		{Name: "Sufficiency rate (%)", Kind: "line", Smooth: true, Values: ssr},
		{Name: "IDR (%)", Kind: "line", Axis: 1, Smooth: true, Values: idr},
		{Name: "DES (%)", Kind: "line", Smooth: true, Values: des},
	},
}
`
