// Package dashboard turns a crop selection into chart specifications for one
// of the three report views. It has no I/O; display surfaces live in
// internal/report and api.
package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

// View identifies one of the report views.
type View string

const (
	ViewProduction      View = "production"
	ViewTrade           View = "trade"
	ViewSelfSufficiency View = "selfsufficiency"
)

// AllViews lists the views in menu order.
var AllViews = []View{ViewProduction, ViewTrade, ViewSelfSufficiency}

var viewLabels = map[View]string{
	ViewProduction:      "Crop Production Analysis",
	ViewTrade:           "Export and Import Analysis",
	ViewSelfSufficiency: "Self Sufficiency Analysis",
}

// ErrUnknownView is returned for a view key or label that is not recognised.
var ErrUnknownView = errors.New("unknown view")

// Label returns the menu label of the view.
func (v View) Label() string {
	if l, ok := viewLabels[v]; ok {
		return l
	}
	return string(v)
}

// Valid reports whether v is one of AllViews.
func (v View) Valid() bool {
	_, ok := viewLabels[v]
	return ok
}

// ParseView accepts a view key ("trade") or its label
// ("Export and Import Analysis"), case-insensitively.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	for _, v := range AllViews {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Label()) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// EmptySelectionError is returned when the selected crop has no rows.
type EmptySelectionError struct {
	Crop string
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("no data for crop %q", e.Crop)
}
