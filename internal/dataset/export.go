package dataset

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
)

// ExportFileName is the download name offered for the CSV export.
const ExportFileName = "df.csv"

// ExportSheet is the worksheet name used by ExportXLSX.
const ExportSheet = "data"

// WriteCSV writes the full table to w as UTF-8 CSV with a header row and no
// index column. Floats use the shortest round-trip form; NaN is an empty cell.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(models.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(models.Columns))
	for _, r := range t.Rows() {
		for i, col := range models.Columns {
			record[i] = formatCell(r, col)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportCSV returns the CSV encoding of the full table.
func ExportCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes an export payload for transport in a data URI.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DataURI returns the table as a data:file/csv;base64 URI suitable for an
// <a download="df.csv"> link.
func DataURI(t *Table) (string, error) {
	b, err := ExportCSV(t)
	if err != nil {
		return "", err
	}
	return "data:file/csv;base64," + EncodeBase64(b), nil
}

// ExportXLSX returns the full table as an Excel workbook with a single sheet.
// Missing values are left as empty cells.
func ExportXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	for i, header := range models.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(ExportSheet, cell, header)
	}
	f.SetColWidth(ExportSheet, "A", "A", 18)

	for r, obs := range t.Rows() {
		for c, col := range models.Columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			switch col {
			case models.ColCrop:
				f.SetCellValue(ExportSheet, cell, obs.Crop)
			case models.ColYear:
				f.SetCellValue(ExportSheet, cell, obs.Year)
			default:
				v, _ := obs.Value(col)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				f.SetCellValue(ExportSheet, cell, v)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCell(o models.Observation, col string) string {
	switch col {
	case models.ColCrop:
		return o.Crop
	case models.ColYear:
		return strconv.Itoa(o.Year)
	}
	v, _ := o.Value(col)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
