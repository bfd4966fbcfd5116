// Package models holds the shared data types of the agriculture dashboard.
package models

import (
	"encoding/json"
	"math"
)

// Column names as they appear in the source file and in exports.
const (
	ColCrop       = "Crop"
	ColYear       = "Year"
	ColProduction = "Production"
	ColArea       = "Area"
	ColYield      = "Yield"
	ColExport     = "Export"
	ColImport     = "Import"
	ColSSR        = "SSR"
	ColIDR        = "IDR"
	ColDES        = "DES"
)

// Columns is the canonical column order of a loaded table.
var Columns = []string{
	ColCrop, ColYear, ColProduction, ColArea, ColYield,
	ColExport, ColImport, ColSSR, ColIDR, ColDES,
}

// RequiredColumns must be present in the header of an input file.
// Yield is derived and therefore not required.
var RequiredColumns = []string{
	ColCrop, ColYear, ColProduction, ColArea,
	ColExport, ColImport, ColSSR, ColIDR, ColDES,
}

// Observation is one crop/year row of the statistics table.
// Missing numeric cells are NaN.
type Observation struct {
	Crop       string  `json:"crop"`
	Year       int     `json:"year"`
	Production float64 `json:"production"` // metric tonnes
	Area       float64 `json:"area"`       // acres
	Yield      float64 `json:"yield"`      // kg/acre, derived
	Export     float64 `json:"export"`     // metric tonnes
	Import     float64 `json:"import"`     // metric tonnes
	SSR        float64 `json:"ssr"`        // self-sufficiency ratio, %
	IDR        float64 `json:"idr"`        // import dependency ratio, %
	DES        float64 `json:"des"`
}

// ComputeYield returns Production*1000/Area. A zero or missing area gives NaN.
func ComputeYield(production, area float64) float64 {
	if area == 0 || math.IsNaN(area) || math.IsNaN(production) {
		return math.NaN()
	}
	return production * 1000 / area
}

// Value returns the numeric value of the named column. ok is false for
// Crop and for unknown names.
func (o Observation) Value(column string) (v float64, ok bool) {
	switch column {
	case ColYear:
		return float64(o.Year), true
	case ColProduction:
		return o.Production, true
	case ColArea:
		return o.Area, true
	case ColYield:
		return o.Yield, true
	case ColExport:
		return o.Export, true
	case ColImport:
		return o.Import, true
	case ColSSR:
		return o.SSR, true
	case ColIDR:
		return o.IDR, true
	case ColDES:
		return o.DES, true
	}
	return 0, false
}

// IsNumericColumn reports whether column names a numeric field.
func IsNumericColumn(column string) bool {
	_, ok := Observation{}.Value(column)
	return ok
}

// MarshalJSON writes missing values as null; encoding/json rejects NaN.
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Crop       string   `json:"crop"`
		Year       int      `json:"year"`
		Production *float64 `json:"production"`
		Area       *float64 `json:"area"`
		Yield      *float64 `json:"yield"`
		Export     *float64 `json:"export"`
		Import     *float64 `json:"import"`
		SSR        *float64 `json:"ssr"`
		IDR        *float64 `json:"idr"`
		DES        *float64 `json:"des"`
	}{
		Crop:       o.Crop,
		Year:       o.Year,
		Production: Nullable(o.Production),
		Area:       Nullable(o.Area),
		Yield:      Nullable(o.Yield),
		Export:     Nullable(o.Export),
		Import:     Nullable(o.Import),
		SSR:        Nullable(o.SSR),
		IDR:        Nullable(o.IDR),
		DES:        Nullable(o.DES),
	})
}

// Nullable returns nil for NaN and infinities, otherwise a pointer to v.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NullableSlice maps Nullable over values.
func NullableSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = Nullable(v)
	}
	return out
}
