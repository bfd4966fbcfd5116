package dashboard

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
)

const sampleCSV = `Crop,Year,Production,Area,Export,Import,SSR,IDR,DES
Rice,2018,100,50,10,5,95,5,40
Maize,2018,200,100,0,2,99,1,20
Rice,2019,120,60,12,4,96,4,41
Maize,2019,210,0,1,3,98,2,21
`

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.LoadReader(strings.NewReader(sampleCSV), "sample.csv")
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	return tbl
}

func newDashboard(t *testing.T) *Dashboard {
	t.Helper()
	d, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

// ════════════════════════════════════════════════════════════════════
// Views
// ════════════════════════════════════════════════════════════════════

func TestParseView(t *testing.T) {
	tests := []struct {
		in   string
		want View
	}{
		{"production", ViewProduction},
		{"Trade", ViewTrade},
		{"Self Sufficiency Analysis", ViewSelfSufficiency},
		{" export and import analysis ", ViewTrade},
	}
	for _, tt := range tests {
		got, err := ParseView(tt.in)
		if err != nil {
			t.Errorf("ParseView(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseView(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseView("weather"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("ParseView(weather): expected ErrUnknownView, got %v", err)
	}
}

func TestDefaultLayoutsValid(t *testing.T) {
	layouts := DefaultLayouts()
	for _, v := range AllViews {
		l, ok := layouts[v]
		if !ok {
			t.Fatalf("no default layout for %s", v)
		}
		if err := l.Validate(); err != nil {
			t.Errorf("%s: %v", v, err)
		}
		if l.Snippet == "" {
			t.Errorf("%s: empty snippet", v)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Render
// ════════════════════════════════════════════════════════════════════

func TestRenderProduction(t *testing.T) {
	p, err := newDashboard(t).Render(sampleTable(t), Selection{View: ViewProduction, Crop: "Rice"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(p.Charts) != 1 {
		t.Fatalf("charts: got %d, want 1", len(p.Charts))
	}
	c := p.Charts[0]
	if len(c.Series) != 3 {
		t.Fatalf("series: got %d, want 3", len(c.Series))
	}
	yield := c.Series[2]
	if yield.Kind != KindLine || yield.Axis != 1 {
		t.Errorf("yield series: kind %s axis %d, want line on axis 1", yield.Kind, yield.Axis)
	}
	for i, v := range yield.Values {
		if math.Abs(v-2000) > 1e-9 {
			t.Errorf("yield[%d] = %v, want 2000", i, v)
		}
	}
	if len(c.PrimarySeries()) != 2 || len(c.SecondarySeries()) != 1 {
		t.Error("production chart should have 2 primary and 1 secondary series")
	}
	if p.Rows != nil || p.Snippet != "" {
		t.Error("rows and snippet should be empty unless requested")
	}
}

func TestRenderTradeUsesCropYears(t *testing.T) {
	p, err := newDashboard(t).Render(sampleTable(t), Selection{View: ViewTrade, Crop: "Rice"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := p.Charts[0]
	if len(c.Series) != 2 {
		t.Fatalf("series: got %d, want 2", len(c.Series))
	}
	if !reflect.DeepEqual(c.Years, []int{2018, 2019}) {
		t.Errorf("years: got %v", c.Years)
	}
	if !reflect.DeepEqual(c.Series[0].Values, []float64{10, 12}) {
		t.Errorf("export values: got %v", c.Series[0].Values)
	}
	if !reflect.DeepEqual(c.Series[1].Values, []float64{5, 4}) {
		t.Errorf("import values: got %v", c.Series[1].Values)
	}
	if c.BarMode != "group" {
		t.Errorf("bar mode: got %q", c.BarMode)
	}
}

func TestRenderSelfSufficiency(t *testing.T) {
	p, err := newDashboard(t).Render(sampleTable(t), Selection{View: ViewSelfSufficiency, Crop: "Maize", ShowCode: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := p.Charts[0]
	names := make([]string, len(c.Series))
	for i, s := range c.Series {
		names[i] = s.Name
	}
	want := []string{"Sufficiency rate (%)", "IDR (%)", "DES (%)"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("series: got %v, want %v", names, want)
	}
	if !strings.Contains(p.Snippet, "SSR") {
		t.Error("snippet missing")
	}
}

func TestRenderEmptySelection(t *testing.T) {
	_, err := newDashboard(t).Render(sampleTable(t), Selection{View: ViewTrade, Crop: "Quinoa"})
	var ee *EmptySelectionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EmptySelectionError, got %v", err)
	}
	if ee.Error() != `no data for crop "Quinoa"` {
		t.Errorf("message: %s", ee.Error())
	}
}

func TestRenderUnknownView(t *testing.T) {
	_, err := newDashboard(t).Render(sampleTable(t), Selection{View: "weather", Crop: "Rice"})
	if !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}

func TestRenderShowData(t *testing.T) {
	p, err := newDashboard(t).Render(sampleTable(t), Selection{View: ViewProduction, Crop: "Maize", ShowData: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !reflect.DeepEqual(p.Columns, []string{"Year", "Production", "Area", "Yield"}) {
		t.Errorf("columns: got %v", p.Columns)
	}
	if len(p.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(p.Rows))
	}
	if p.Rows[0][0] != 2018 {
		t.Errorf("year cell: got %#v", p.Rows[0][0])
	}
	// Maize 2019 has Area 0, so Yield is missing.
	if y, ok := p.Rows[1][3].(*float64); !ok || y != nil {
		t.Errorf("missing yield cell: got %#v", p.Rows[1][3])
	}
	if p.Highlight["Production"] != 1 || p.Highlight["Yield"] != 0 {
		t.Errorf("highlight: got %v", p.Highlight)
	}

	// NaN must not break JSON encoding.
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), "null") {
		t.Errorf("expected null for missing values: %s", b)
	}
}

func TestSeriesSpecJSON(t *testing.T) {
	s := SeriesSpec{Name: "Yield", Kind: KindLine, Values: []float64{1.5, math.NaN()}}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"values":[1.5,null]`) {
		t.Errorf("got %s", b)
	}
	if !strings.Contains(string(b), `"name":"Yield"`) {
		t.Errorf("name missing: %s", b)
	}
}

// ════════════════════════════════════════════════════════════════════
// Overrides and sessions
// ════════════════════════════════════════════════════════════════════

func TestNewWithOverride(t *testing.T) {
	d, err := New(map[View]Layout{
		ViewTrade: {Title: "Trade balance", Columns: []string{models.ColYear, models.ColExport}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l, _ := d.Layout(ViewTrade)
	if l.Title != "Trade balance" {
		t.Errorf("title: got %q", l.Title)
	}
	if len(l.Series) != 2 {
		t.Errorf("series should fall back to defaults, got %d", len(l.Series))
	}
}

func TestNewRejectsBadOverride(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[View]Layout
	}{
		{"unknown view", map[View]Layout{"weather": {Title: "x"}}},
		{"bad column", map[View]Layout{ViewTrade: {Series: []SeriesDef{{Name: "Rain", Column: "Rain", Kind: KindBar}}}}},
		{"bad axis", map[View]Layout{ViewTrade: {Series: []SeriesDef{{Name: "Export", Column: models.ColExport, Kind: KindBar, Axis: 1}}}}},
		{"bad kind", map[View]Layout{ViewTrade: {Series: []SeriesDef{{Name: "Export", Column: models.ColExport, Kind: "pie"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.overrides); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSessionOnlyRendersOnChange(t *testing.T) {
	tbl := sampleTable(t)
	s := NewSession(newDashboard(t))

	sel := Selection{View: ViewProduction, Crop: "Rice"}
	p1, changed, err := s.Select(tbl, sel)
	if err != nil || !changed {
		t.Fatalf("first select: changed=%v err=%v", changed, err)
	}
	p2, changed, _ := s.Select(tbl, sel)
	if changed || p2 != p1 {
		t.Error("same selection should reuse the previous panel")
	}

	sel.Crop = "Maize"
	if _, changed, _ = s.Select(tbl, sel); !changed {
		t.Error("new crop should re-render")
	}

	// A reloaded table re-renders even with the same selection.
	if _, changed, _ = s.Select(sampleTable(t), sel); !changed {
		t.Error("new table should re-render")
	}

	// A failed render clears the session.
	if _, _, err := s.Select(tbl, Selection{View: ViewProduction, Crop: "Quinoa"}); err == nil {
		t.Error("expected error for unknown crop")
	}
	if cur, ok := s.Current(); ok {
		t.Errorf("current after error: got %+v, want none", cur)
	}
}

func TestSessionReselectAfterError(t *testing.T) {
	tbl := sampleTable(t)
	s := NewSession(newDashboard(t))

	rice := Selection{View: ViewProduction, Crop: "Rice"}
	if _, changed, err := s.Select(tbl, rice); err != nil || !changed {
		t.Fatalf("select Rice: changed=%v err=%v", changed, err)
	}

	_, _, err := s.Select(tbl, Selection{View: ViewProduction, Crop: "Wheat"})
	var empty *EmptySelectionError
	if !errors.As(err, &empty) {
		t.Fatalf("select Wheat: got %v, want *EmptySelectionError", err)
	}

	// The client now shows the error, so the earlier selection must render again.
	p, changed, err := s.Select(tbl, rice)
	if err != nil || !changed || p == nil {
		t.Errorf("reselect Rice: panel=%v changed=%v err=%v", p != nil, changed, err)
	}
}
