// Package dataset loads the crop statistics table, derives the yield column,
// and provides the filter and export operations used by every dashboard view.
package dataset

import (
	"fmt"
	"math"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
)

// Table is an immutable, ordered set of observations. Methods never modify
// the receiver; derived tables share no row storage with their parent.
type Table struct {
	rows []models.Observation
}

// NewTable builds a table from rows, recomputing Yield for each one.
func NewTable(rows []models.Observation) *Table {
	cp := make([]models.Observation, len(rows))
	copy(cp, rows)
	for i := range cp {
		cp[i].Yield = models.ComputeYield(cp[i].Production, cp[i].Area)
	}
	return &Table{rows: cp}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the rows in stored order.
func (t *Table) Rows() []models.Observation {
	if t == nil {
		return nil
	}
	out := make([]models.Observation, len(t.rows))
	copy(out, t.rows)
	return out
}

// Row returns the i-th row.
func (t *Table) Row(i int) models.Observation {
	return t.rows[i]
}

// Filter returns the rows whose Crop equals crop, preserving order.
// An unknown crop yields an empty table.
func (t *Table) Filter(crop string) *Table {
	out := &Table{}
	if t == nil {
		return out
	}
	for _, r := range t.rows {
		if r.Crop == crop {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Crops returns the distinct crop names in order of first appearance.
func (t *Table) Crops() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var crops []string
	for _, r := range t.rows {
		if !seen[r.Crop] {
			seen[r.Crop] = true
			crops = append(crops, r.Crop)
		}
	}
	return crops
}

// Years returns the Year of each row in stored order.
func (t *Table) Years() []int {
	years := make([]int, t.Len())
	for i := range years {
		years[i] = t.rows[i].Year
	}
	return years
}

// Column returns the values of a numeric column in stored order.
func (t *Table) Column(name string) ([]float64, error) {
	if !models.IsNumericColumn(name) {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	values := make([]float64, t.Len())
	for i := range values {
		values[i], _ = t.rows[i].Value(name)
	}
	return values, nil
}

// Select projects each row onto columns, returning the cell values. Crop
// cells are strings; every other cell is a float64 (Year included).
func (t *Table) Select(columns ...string) ([][]any, error) {
	for _, c := range columns {
		if c != models.ColCrop && !models.IsNumericColumn(c) {
			return nil, fmt.Errorf("column %q not found", c)
		}
	}
	out := make([][]any, t.Len())
	for i, r := range t.rows {
		cells := make([]any, len(columns))
		for j, c := range columns {
			if c == models.ColCrop {
				cells[j] = r.Crop
				continue
			}
			cells[j], _ = r.Value(c)
		}
		out[i] = cells
	}
	return out, nil
}

// MaxIndex returns the index of the row holding the largest value of a
// numeric column, ignoring NaN. It returns -1 when there is no such row.
func (t *Table) MaxIndex(column string) int {
	if !models.IsNumericColumn(column) {
		return -1
	}
	idx := -1
	best := math.Inf(-1)
	for i, r := range t.rows {
		v, _ := r.Value(column)
		if math.IsNaN(v) {
			continue
		}
		if idx == -1 || v > best {
			idx, best = i, v
		}
	}
	return idx
}
