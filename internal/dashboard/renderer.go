package dashboard

import (
	"encoding/json"
	"fmt"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
)

// SeriesSpec is one plotted series with its values aligned to ChartSpec.Years.
// Missing values are NaN and render as gaps.
type SeriesSpec struct {
	Name   string     `json:"name"`
	Column string     `json:"column"`
	Kind   SeriesKind `json:"kind"`
	Axis   int        `json:"axis"`
	Smooth bool       `json:"smooth,omitempty"`
	Values []float64  `json:"values"`
}

// MarshalJSON encodes NaN values as null.
func (s SeriesSpec) MarshalJSON() ([]byte, error) {
	type alias SeriesSpec
	return json.Marshal(struct {
		alias
		Values []*float64 `json:"values"`
	}{alias: alias(s), Values: models.NullableSlice(s.Values)})
}

// ChartSpec is a renderer-neutral description of one chart.
type ChartSpec struct {
	Title   string       `json:"title"`
	XAxis   string       `json:"x_axis"`
	YAxes   []string     `json:"y_axes"`
	Years   []int        `json:"years"`
	BarMode string       `json:"bar_mode,omitempty"`
	Series  []SeriesSpec `json:"series"`
}

// SecondarySeries returns the series plotted on axis 1.
func (c ChartSpec) SecondarySeries() []SeriesSpec {
	var out []SeriesSpec
	for _, s := range c.Series {
		if s.Axis == 1 {
			out = append(out, s)
		}
	}
	return out
}

// PrimarySeries returns the series plotted on axis 0.
func (c ChartSpec) PrimarySeries() []SeriesSpec {
	var out []SeriesSpec
	for _, s := range c.Series {
		if s.Axis == 0 {
			out = append(out, s)
		}
	}
	return out
}

// Renderer builds the chart specifications of a view from a filtered table.
type Renderer interface {
	Draw(t *dataset.Table) ([]ChartSpec, error)
}

type layoutRenderer struct {
	layout Layout
}

func (r layoutRenderer) Draw(t *dataset.Table) ([]ChartSpec, error) {
	chart := ChartSpec{
		Title:   r.layout.Title,
		XAxis:   r.layout.XAxis,
		YAxes:   append([]string(nil), r.layout.YAxes...),
		Years:   t.Years(),
		BarMode: r.layout.BarMode,
	}
	for _, def := range r.layout.Series {
		values, err := t.Column(def.Column)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", def.Name, err)
		}
		chart.Series = append(chart.Series, SeriesSpec{
			Name:   def.Name,
			Column: def.Column,
			Kind:   def.Kind,
			Axis:   def.Axis,
			Smooth: def.Smooth,
			Values: values,
		})
	}
	return []ChartSpec{chart}, nil
}

// Selection is a user's choice of view and crop plus display toggles.
type Selection struct {
	View     View   `json:"view"`
	Crop     string `json:"crop"`
	ShowData bool   `json:"show_data"`
	ShowCode bool   `json:"show_code"`
}

// Panel is everything a display surface needs to show one selection.
// Columns, Rows and Highlight are set only when ShowData was requested;
// Snippet only when ShowCode was.
type Panel struct {
	View      View           `json:"view"`
	Label     string         `json:"label"`
	Crop      string         `json:"crop"`
	Charts    []ChartSpec    `json:"charts"`
	Columns   []string       `json:"columns,omitempty"`
	Rows      [][]any        `json:"rows,omitempty"`
	Highlight map[string]int `json:"highlight,omitempty"`
	Snippet   string         `json:"snippet,omitempty"`
}

// Dashboard maps each view to its renderer.
type Dashboard struct {
	layouts   map[View]Layout
	renderers map[View]Renderer
}

// New builds a dashboard from the default layouts with overrides applied.
// Overrides for unknown views are rejected.
func New(overrides map[View]Layout) (*Dashboard, error) {
	layouts := DefaultLayouts()
	for v, o := range overrides {
		if !v.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownView, v)
		}
		layouts[v] = layouts[v].Override(o)
	}

	d := &Dashboard{
		layouts:   layouts,
		renderers: make(map[View]Renderer, len(layouts)),
	}
	for v, l := range layouts {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("view %s: %w", v, err)
		}
		d.renderers[v] = layoutRenderer{layout: l}
	}
	return d, nil
}

// Layout returns the effective layout of v.
func (d *Dashboard) Layout(v View) (Layout, bool) {
	l, ok := d.layouts[v]
	return l, ok
}

// Render filters t by the selected crop and builds the panel for the selected
// view. A crop with no rows gives *EmptySelectionError.
func (d *Dashboard) Render(t *dataset.Table, sel Selection) (*Panel, error) {
	r, ok := d.renderers[sel.View]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, sel.View)
	}

	rows := t.Filter(sel.Crop)
	if rows.Len() == 0 {
		return nil, &EmptySelectionError{Crop: sel.Crop}
	}

	charts, err := r.Draw(rows)
	if err != nil {
		return nil, fmt.Errorf("rendering %s for %q: %w", sel.View, sel.Crop, err)
	}

	layout := d.layouts[sel.View]
	p := &Panel{
		View:   sel.View,
		Label:  sel.View.Label(),
		Crop:   sel.Crop,
		Charts: charts,
	}
	if sel.ShowData {
		if err := fillTable(p, rows, layout.Columns); err != nil {
			return nil, err
		}
	}
	if sel.ShowCode {
		p.Snippet = layout.Snippet
	}
	return p, nil
}

// fillTable projects rows onto columns. Year cells are ints, other numeric
// cells *float64 (nil when missing), so the panel encodes to JSON.
func fillTable(p *Panel, t *dataset.Table, columns []string) error {
	cells, err := t.Select(columns...)
	if err != nil {
		return err
	}
	for _, row := range cells {
		for j, c := range columns {
			switch v := row[j].(type) {
			case float64:
				if c == models.ColYear {
					row[j] = int(v)
				} else {
					row[j] = models.Nullable(v)
				}
			}
		}
	}
	p.Columns = append([]string(nil), columns...)
	p.Rows = cells

	p.Highlight = make(map[string]int)
	for _, c := range columns {
		if c == models.ColCrop || c == models.ColYear {
			continue
		}
		if i := t.MaxIndex(c); i >= 0 {
			p.Highlight[c] = i
		}
	}
	return nil
}

// Session remembers the last selection and only re-renders when the
// selection or the underlying table changes.
type Session struct {
	d     *Dashboard
	table *dataset.Table
	sel   Selection
	panel *Panel
}

// NewSession returns a session bound to d.
func NewSession(d *Dashboard) *Session {
	return &Session{d: d}
}

// Select renders sel against t. changed is false when neither sel nor t
// differ from the previous call; the cached panel is returned then. A failed
// render clears the session, so the next selection always renders.
func (s *Session) Select(t *dataset.Table, sel Selection) (p *Panel, changed bool, err error) {
	if s.panel != nil && s.table == t && s.sel == sel {
		return s.panel, false, nil
	}
	p, err = s.d.Render(t, sel)
	if err != nil {
		s.table, s.sel, s.panel = nil, Selection{}, nil
		return nil, false, err
	}
	s.table, s.sel, s.panel = t, sel, p
	return p, true, nil
}

// Current returns the last rendered selection, if any.
func (s *Session) Current() (Selection, bool) {
	return s.sel, s.panel != nil
}
