// Package forms builds and reads the input forms for the three planning
// scenarios: route search, supply allocation and zone scheduling.
//
// Forms are plain values. The web UI renders them with html/template and
// reads submissions back with the Parse functions; the CLI fills them from
// terminal prompts.
package forms

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Count limits for place and zone lists.
const (
	MinCount = 2
	MaxCount = 25
)

// MaxItems caps the rows of an allocation table.
const MaxItems = 500

// ValidationError is a user input problem. Its message is shown verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Field is one labeled text input.
type Field struct {
	ID          string
	Label       string
	Placeholder string
	Value       string
}

// ParseCount reads a list size. Anything that is not an integer means 2;
// the result is clamped to [MinCount, MaxCount].
func ParseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		n = MinCount
	}
	return clampCount(n)
}

func clampCount(n int) int {
	return min(max(n, MinCount), MaxCount)
}

// newGrid returns an n x n grid of inputs with ids prefix-i-j and a zero
// diagonal.
func newGrid(prefix string, n int) [][]Field {
	grid := make([][]Field, n)
	for i := range grid {
		grid[i] = make([]Field, n)
		for j := range grid[i] {
			f := Field{ID: fmt.Sprintf("%s-%d-%d", prefix, i, j)}
			if i == j {
				f.Placeholder = "0"
				f.Value = "0"
			}
			grid[i][j] = f
		}
	}
	return grid
}

func readGrid(grid [][]Field, values url.Values) {
	for i := range grid {
		for j := range grid[i] {
			if values.Has(grid[i][j].ID) {
				grid[i][j].Value = strings.TrimSpace(values.Get(grid[i][j].ID))
			}
		}
	}
}

// gridValues converts grid inputs to numbers. Blank cells are 0.
func gridValues(grid [][]Field) ([][]float64, error) {
	out := make([][]float64, len(grid))
	for i, row := range grid {
		out[i] = make([]float64, len(row))
		for j, f := range row {
			if f.Value == "" {
				continue
			}
			v, err := strconv.ParseFloat(f.Value, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, invalid(f.ID, "Cell %d,%d is not a number.", i+1, j+1)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func setGrid(grid [][]Field, values [][]float64) {
	for i := range grid {
		for j := range grid[i] {
			switch {
			case i == j:
				grid[i][j].Value = "0"
			case i < len(values) && j < len(values[i]):
				grid[i][j].Value = strconv.FormatFloat(values[i][j], 'f', -1, 64)
			}
		}
	}
}

func newNameFields(n int, idPrefix, label, placeholder string) []Field {
	fields := make([]Field, n)
	for i := range fields {
		fields[i] = Field{
			ID:          fmt.Sprintf("%s-%d", idPrefix, i),
			Label:       fmt.Sprintf("%s %d", label, i+1),
			Placeholder: fmt.Sprintf(placeholder, i+1),
		}
	}
	return fields
}

func readFields(fields []Field, values url.Values) {
	for i := range fields {
		if values.Has(fields[i].ID) {
			fields[i].Value = values.Get(fields[i].ID)
		}
	}
}

// namesOrDefault trims each field and substitutes prefix<i> for blanks.
func namesOrDefault(fields []Field, prefix string) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimSpace(f.Value)
		if names[i] == "" {
			names[i] = fmt.Sprintf("%s%d", prefix, i+1)
		}
	}
	return names
}

// requiredNames returns trimmed names, failing on the first blank one.
func requiredNames(fields []Field, label string) ([]string, error) {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimSpace(f.Value)
		if names[i] == "" {
			return nil, invalid(f.ID, "%s %d is empty", label, i+1)
		}
	}
	return names, nil
}

// uniqueNames rejects a repeated name; solver results are keyed by name.
func uniqueNames(fields []Field, names []string, label string) error {
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if j, dup := seen[name]; dup {
			return invalid(fields[i].ID, "%s %d repeats %q from %s %d. Names must be unique.", label, i+1, name, label, j+1)
		}
		seen[name] = i
	}
	return nil
}

func setNames(fields []Field, names []string) {
	for i := range fields {
		if i < len(names) {
			fields[i].Value = names[i]
		}
	}
}
