package forms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// ColoringForm collects zones, their conflict matrix and the slot cap.
type ColoringForm struct {
	Zones     []Field
	Cells     [][]Field
	Threshold string // km, for the auto-fill action
	MaxColors string
}

// NewColoringForm builds a form for n zones (clamped to the allowed range).
func NewColoringForm(n int) *ColoringForm {
	n = clampCount(n)
	return &ColoringForm{
		Zones:     newNameFields(n, "cname", "Zone", "e.g., Zone %d"),
		Cells:     newGrid("cw", n),
		Threshold: strconv.FormatFloat(model.DefaultThresholdKm, 'f', -1, 64),
		MaxColors: "0",
	}
}

// ParseColoringForm rebuilds a submitted form. The size comes from "count".
func ParseColoringForm(values url.Values) *ColoringForm {
	f := NewColoringForm(ParseCount(values.Get("count")))
	readFields(f.Zones, values)
	readGrid(f.Cells, values)
	if values.Has("threshold_km") {
		f.Threshold = strings.TrimSpace(values.Get("threshold_km"))
	}
	if values.Has("max_colors") {
		f.MaxColors = strings.TrimSpace(values.Get("max_colors"))
	}
	return f
}

// Count is the number of zones.
func (f *ColoringForm) Count() int {
	return len(f.Zones)
}

// CountValue is the count as a form value.
func (f *ColoringForm) CountValue() string {
	return strconv.Itoa(f.Count())
}

// Headers returns the matrix row/column labels (Z<i> for blanks).
func (f *ColoringForm) Headers() []string {
	return namesOrDefault(f.Zones, "Z")
}

// ZoneNames returns trimmed names for geocoding. Every zone must be named.
func (f *ColoringForm) ZoneNames() ([]string, error) {
	return requiredNames(f.Zones, "Zone")
}

// ThresholdKm parses the threshold; blank or invalid means the default.
func (f *ColoringForm) ThresholdKm() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(f.Threshold), 64)
	if err != nil {
		return model.DefaultThresholdKm
	}
	return v
}

// Request builds the coloring request. A blank or non-numeric cap means
// no cap.
func (f *ColoringForm) Request() (model.ColoringRequest, error) {
	adj, err := gridValues(f.Cells)
	if err != nil {
		return model.ColoringRequest{}, err
	}
	maxColors, err := strconv.Atoi(strings.TrimSpace(f.MaxColors))
	if err != nil {
		maxColors = 0
	}
	if maxColors < 0 {
		return model.ColoringRequest{}, invalid("max_colors", "Max colors must not be negative.")
	}
	names := f.Headers()
	if err := uniqueNames(f.Zones, names, "Zone"); err != nil {
		return model.ColoringRequest{}, err
	}
	return model.ColoringRequest{
		Network:   model.Network{Names: names, Adjacency: adj},
		MaxColors: maxColors,
	}, nil
}

// Fill replaces the conflict matrix, e.g. after a threshold auto-fill.
func (f *ColoringForm) Fill(adjacency [][]int) {
	values := make([][]float64, len(adjacency))
	for i, row := range adjacency {
		values[i] = make([]float64, len(row))
		for j, v := range row {
			values[i][j] = float64(v)
		}
	}
	setGrid(f.Cells, values)
}
