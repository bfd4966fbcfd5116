package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Plain-text output for the terminal
// ════════════════════════════════════════════════════════════════════

// WriteChartText writes a chart as a table: one row per year, one column per
// series.
func WriteChartText(w io.Writer, c dashboard.ChartSpec) error {
	fmt.Fprintf(w, "%s\n", c.Title)

	header := []string{c.XAxis}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, y := range c.Years {
		row := []string{strconv.Itoa(y)}
		for _, s := range c.Series {
			row = append(row, utils.FormatQuantity(s.Values[i], 2))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

// WriteTable writes the panel's data rows. The maximum of each column is
// marked with an asterisk.
func WriteTable(w io.Writer, p *dashboard.Panel) error {
	if len(p.Columns) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(p.Columns)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, row := range p.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatCell(p.Columns[j], v)
			if top, ok := p.Highlight[p.Columns[j]]; ok && top == i {
				cells[j] += " *"
			}
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

// GenerateText renders a whole panel for the terminal: header, one table per
// chart and, when present, the data rows and snippet.
func GenerateText(w io.Writer, p *dashboard.Panel) error {
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	fmt.Fprintf(w, "%s\n  %s: %s\n%s\n\n", line, p.Label, p.Crop, line)
	for _, c := range p.Charts {
		if err := WriteChartText(w, c); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if len(p.Rows) > 0 {
		fmt.Fprintf(w, "%s\n  ■ DATA\n", thinLine)
		if err := WriteTable(w, p); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if p.Snippet != "" {
		fmt.Fprintf(w, "%s\n  ■ CODE\n%s\n", thinLine, p.Snippet)
	}
	return nil
}

// FormatCell formats a panel cell for display. Percent columns get a % sign;
// missing values use utils.Missing.
func FormatCell(column string, v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case *float64:
		if x == nil {
			return utils.Missing
		}
		return formatValue(column, *x)
	case float64:
		return formatValue(column, x)
	}
	return fmt.Sprint(v)
}

func formatValue(column string, v float64) string {
	switch column {
	case models.ColSSR, models.ColIDR:
		return utils.FormatPercent(v)
	case models.ColYear:
		return strconv.Itoa(int(v))
	}
	return utils.FormatQuantity(v, 2)
}
