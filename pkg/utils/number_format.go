// Package utils provides formatting and lookup helpers shared by the
// dashboard surfaces.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Missing is shown in place of NaN cells.
const Missing = "–"

// FormatQuantity formats a value with Indian digit grouping (12,34,567.5),
// the convention used by the Bhutanese statistical yearbooks. Trailing
// decimal zeros are removed. NaN prints as Missing.
func FormatQuantity(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	negative := v < 0
	v = math.Abs(v)

	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, decPart, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Too large for grouping; leave as-is.
		return s
	}

	formatted := formatIndianNumber(n)
	decPart = strings.TrimRight(decPart, "0")
	if decPart != "" {
		formatted += "." + decPart
	}
	if negative && formatted != "0" {
		return "-" + formatted
	}
	return formatted
}

// FormatPercent formats a ratio already expressed in percent, e.g. 87.5 → "87.5%".
func FormatPercent(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return Missing
	}
	return formatWithDecimals(pct) + "%"
}

// formatIndianNumber formats an integer with Indian grouping (last 3, then 2s).
func formatIndianNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	length := len(s)

	result := s[length-3:]
	remaining := s[:length-3]

	for len(remaining) > 0 {
		if len(remaining) > 2 {
			result = remaining[len(remaining)-2:] + "," + result
			remaining = remaining[:len(remaining)-2]
		} else {
			result = remaining + "," + result
			remaining = ""
		}
	}

	return result
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
