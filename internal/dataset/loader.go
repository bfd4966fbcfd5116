package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/models"
)

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("required column missing")

// ZeroAreaPolicy decides what happens to Yield when a row has Area == 0.
type ZeroAreaPolicy string

const (
	// ZeroAreaNaN keeps the row and leaves Yield as NaN; charts show a gap.
	ZeroAreaNaN ZeroAreaPolicy = "nan"
	// ZeroAreaReject fails the whole load.
	ZeroAreaReject ZeroAreaPolicy = "reject"
)

// ParseZeroAreaPolicy parses "nan" or "reject". Empty means ZeroAreaNaN.
func ParseZeroAreaPolicy(s string) (ZeroAreaPolicy, error) {
	switch ZeroAreaPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ZeroAreaNaN:
		return ZeroAreaNaN, nil
	case ZeroAreaReject:
		return ZeroAreaReject, nil
	}
	return "", fmt.Errorf("unknown zero-area policy %q (want nan or reject)", s)
}

type loadConfig struct {
	zeroArea  ZeroAreaPolicy
	delimiter rune
}

// LoadOption configures Load and LoadReader.
type LoadOption func(*loadConfig)

// WithZeroAreaPolicy sets the Area == 0 policy. The default is ZeroAreaNaN.
func WithZeroAreaPolicy(p ZeroAreaPolicy) LoadOption {
	return func(c *loadConfig) {
		c.zeroArea = p
	}
}

// WithDelimiter sets the CSV field delimiter. The default is ','.
func WithDelimiter(r rune) LoadOption {
	return func(c *loadConfig) {
		c.delimiter = r
	}
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	cfg := &loadConfig{zeroArea: ZeroAreaNaN, delimiter: ','}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Load reads the statistics table from path. Files ending in .xlsx are read
// from their first sheet; anything else is parsed as delimited text with a
// header row. All failures are returned as *DataLoadError.
func Load(path string, opts ...LoadOption) (*Table, error) {
	cfg := newLoadConfig(opts)

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path, cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	return loadCSV(f, path, cfg)
}

// LoadReader parses delimited text from r. name is used in error messages.
func LoadReader(r io.Reader, name string, opts ...LoadOption) (*Table, error) {
	return loadCSV(r, name, newLoadConfig(opts))
}

func loadCSV(r io.Reader, name string, cfg *loadConfig) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = cfg.delimiter
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &DataLoadError{Path: name, Line: pe.Line, Err: pe.Err}
		}
		return nil, &DataLoadError{Path: name, Err: err}
	}
	return parseRecords(name, records, cfg)
}

func loadXLSX(path string, cfg *loadConfig) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DataLoadError{Path: path, Err: ErrEmptyFile}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}

	// GetRows trims trailing empty cells and keeps blank rows.
	records := make([][]string, 0, len(rows))
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		for len(row) < width {
			row = append(row, "")
		}
		records = append(records, row)
	}
	return parseRecords(path, records, cfg)
}

func parseRecords(name string, records [][]string, cfg *loadConfig) (*Table, error) {
	if len(records) == 0 {
		return nil, &DataLoadError{Path: name, Err: ErrEmptyFile}
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &DataLoadError{Path: name, Column: col, Err: ErrMissingColumn}
		}
	}

	rows := make([]models.Observation, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != len(records[0]) {
			return nil, &DataLoadError{Path: name, Line: line,
				Err: fmt.Errorf("expected %d fields, got %d", len(records[0]), len(rec))}
		}

		cell := func(col string) string { return strings.TrimSpace(rec[index[col]]) }

		obs := models.Observation{Crop: cell(models.ColCrop)}
		if obs.Crop == "" {
			return nil, &DataLoadError{Path: name, Line: line, Column: models.ColCrop,
				Err: errors.New("crop is empty")}
		}

		year, err := parseYear(cell(models.ColYear))
		if err != nil {
			return nil, &DataLoadError{Path: name, Line: line, Column: models.ColYear, Err: err}
		}
		obs.Year = year

		numeric := []struct {
			col string
			dst *float64
		}{
			{models.ColProduction, &obs.Production},
			{models.ColArea, &obs.Area},
			{models.ColExport, &obs.Export},
			{models.ColImport, &obs.Import},
			{models.ColSSR, &obs.SSR},
			{models.ColIDR, &obs.IDR},
			{models.ColDES, &obs.DES},
		}
		for _, n := range numeric {
			v, err := parseNumber(cell(n.col))
			if err != nil {
				return nil, &DataLoadError{Path: name, Line: line, Column: n.col, Err: err}
			}
			*n.dst = v
		}

		if obs.Area == 0 && cfg.zeroArea == ZeroAreaReject {
			return nil, &DataLoadError{Path: name, Line: line, Column: models.ColArea, Err: ErrZeroArea}
		}

		rows = append(rows, obs)
	}

	return NewTable(rows), nil
}

func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return int(f), nil
}

// parseNumber parses a numeric cell. Empty cells are missing values (NaN);
// explicit NaN and infinity literals are rejected.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, s)
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
