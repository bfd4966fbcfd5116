package dataset

import (
	"errors"
	"fmt"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("file is empty")

// ErrZeroArea is returned under ZeroAreaReject when a row has Area == 0.
var ErrZeroArea = errors.New("area is zero; yield is undefined")

// ErrNonFinite is returned for NaN or infinite literals in a numeric cell.
// Missing values must be left empty.
var ErrNonFinite = errors.New("number is not finite")

// DataLoadError reports a missing, unreadable or malformed input file.
// Line is 1-based and counts the header; zero means the error is not tied to
// a row.
type DataLoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *DataLoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("load %s: line %d, column %s: %v", e.Path, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("load %s: line %d: %v", e.Path, e.Line, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load %s: column %s: %v", e.Path, e.Column, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
}

func (e *DataLoadError) Unwrap() error { return e.Err }
