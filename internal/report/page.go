package report

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
)

// ════════════════════════════════════════════════════════════════════
// Dashboard page, flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// NoDataMessage replaces the chart when the selected crop has no rows.
const NoDataMessage = "No data available"

var pageTmpl = template.Must(template.New("page").Parse(PageTemplate))

// PageData is the template model of the dashboard page.
type PageData struct {
	Title       string
	Heading     string
	Views       []ViewOption
	Crops       []CropOption
	ChartURLs   []string
	ChartHeight int
	Message     string
	ShowData    bool
	ShowCode    bool
	Table       *TableView
	Snippet     string
	DataURI     template.URL
	ExportName  string
	Credits     string
	SourceURL   string
	GeneratedAt string
}

// ViewOption is one radio button of the view selector.
type ViewOption struct {
	Key      string
	Label    string
	Selected bool
}

// CropOption is one entry of the crop dropdown.
type CropOption struct {
	Name     string
	Selected bool
}

// TableView is the formatted data table.
type TableView struct {
	Columns []string
	Rows    [][]CellView
}

// CellView is one formatted cell. Max marks the column maximum.
type CellView struct {
	Text string
	Max  bool
}

// PageInput collects what BuildPage needs.
type PageInput struct {
	Title      string
	Crops      []string
	Selection  dashboard.Selection
	Panel      *dashboard.Panel
	Err        error // from Dashboard.Render
	DataURI    string
	ExportName string
	Credits    string
	SourceURL  string
	Config     Config
	Now        time.Time
}

// BuildPage flattens a rendered panel into PageData. An empty selection is
// shown as NoDataMessage; any other error is shown verbatim.
func BuildPage(in PageInput) PageData {
	cfg := in.Config.withDefaults()
	sel := in.Selection

	data := PageData{
		Title:       in.Title,
		Heading:     sel.View.Label(),
		ChartHeight: cfg.Height + 20,
		ShowData:    sel.ShowData,
		ShowCode:    sel.ShowCode,
		DataURI:     template.URL(in.DataURI),
		ExportName:  in.ExportName,
		Credits:     in.Credits,
		SourceURL:   in.SourceURL,
		GeneratedAt: Timestamp(in.Now),
	}
	for _, v := range dashboard.AllViews {
		data.Views = append(data.Views, ViewOption{Key: string(v), Label: v.Label(), Selected: v == sel.View})
	}
	for _, c := range in.Crops {
		data.Crops = append(data.Crops, CropOption{Name: c, Selected: c == sel.Crop})
	}

	if in.Err != nil {
		var empty *dashboard.EmptySelectionError
		if errors.As(in.Err, &empty) {
			data.Message = NoDataMessage
		} else {
			data.Message = in.Err.Error()
		}
		return data
	}
	if in.Panel == nil {
		data.Message = NoDataMessage
		return data
	}

	for i := range in.Panel.Charts {
		data.ChartURLs = append(data.ChartURLs, ChartURL(sel.View, sel.Crop, i))
	}
	if len(in.Panel.Columns) > 0 {
		data.Table = tableView(in.Panel)
	}
	data.Snippet = in.Panel.Snippet
	return data
}

// GeneratePage writes the dashboard page to w.
func GeneratePage(w io.Writer, data PageData) error {
	if err := pageTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	return nil
}

// ChartURL returns the path of the interactive chart for a selection.
func ChartURL(v dashboard.View, crop string, index int) string {
	q := url.Values{}
	q.Set("crop", crop)
	if index > 0 {
		q.Set("chart", fmt.Sprint(index))
	}
	return "/api/v1/views/" + url.PathEscape(string(v)) + "/chart.html?" + q.Encode()
}

func tableView(p *dashboard.Panel) *TableView {
	tv := &TableView{Columns: p.Columns}
	for i, row := range p.Rows {
		cells := make([]CellView, len(row))
		for j, v := range row {
			top, ok := p.Highlight[p.Columns[j]]
			cells[j] = CellView{
				Text: FormatCell(p.Columns[j], v),
				Max:  ok && top == i,
			}
		}
		tv.Rows = append(tv.Rows, cells)
	}
	return tv
}
