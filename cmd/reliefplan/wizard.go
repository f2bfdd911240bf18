package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/reliefplan/pkg/forms"
	"github.com/vanderheijden86/reliefplan/pkg/model"
	"github.com/vanderheijden86/reliefplan/pkg/ui"
)

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm falls back to accessible (line-by-line) prompts without a TTY.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// splitLines returns trimmed, non-blank lines.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func validatePlaces(text string) error {
	names := splitLines(text)
	switch n := len(names); {
	case n < forms.MinCount:
		return fmt.Errorf("enter at least %d names, one per line", forms.MinCount)
	case n > forms.MaxCount:
		return fmt.Errorf("at most %d names", forms.MaxCount)
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("%q is listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// splitRow splits one matrix row typed as numbers separated by spaces or
// commas. A blank row is all zeros.
func splitRow(s string, n int) ([]string, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return make([]string, n), nil
	}
	if len(fields) != n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	for i, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return nil, fmt.Errorf("value %d (%q) is not a number", i+1, f)
		}
	}
	return fields, nil
}

// parseItems reads "name, weight, value" lines. The name may itself hold
// commas; the last two fields are the numbers.
func parseItems(text string) (*forms.AllocationForm, error) {
	f := &forms.AllocationForm{}
	for i, line := range splitLines(text) {
		k := strings.LastIndex(line, ",")
		j := -1
		if k > 0 {
			j = strings.LastIndex(line[:k], ",")
		}
		if j < 0 {
			return nil, fmt.Errorf("line %d: want \"name, weight, value\"", i+1)
		}
		if err := f.AddItem(line[:j], line[j+1:k], line[k+1:]); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("add at least one item")
	}
	return f, nil
}

func itemsText(items []model.Item) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s, %s, %s", it.Name, formatNumber(it.Weight), formatNumber(it.Demand))
	}
	return strings.Join(lines, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func routeWizard(ctx context.Context, p ui.Planner, metric string) (model.ShortestPathRequest, error) {
	var placesText string
	fetch := true
	if err := newForm(huh.NewGroup(
		huh.NewText().
			Title("Places").
			Description("One per line").
			Value(&placesText).
			Validate(validatePlaces),
		huh.NewConfirm().
			Title("Fetch real distances?").
			Description("Geocode the places and fill the matrix automatically").
			Value(&fetch),
		huh.NewSelect[string]().
			Title("Distance").
			Options(huh.NewOptions(string(model.MetricRoad), string(model.MetricAir))...).
			Value(&metric),
	)).Run(); err != nil {
		return model.ShortestPathRequest{}, err
	}

	names := splitLines(placesText)
	n := len(names)
	f := forms.NewRouteForm(n)
	for i := range f.Places {
		f.Places[i].Value = names[i]
	}

	if fetch {
		resp, err := p.AutoMatrix(ctx, model.AutoMatrixRequest{Places: names, Metric: metric})
		if err != nil {
			return model.ShortestPathRequest{}, err
		}
		f.Fill(nil, resp.Adjacency)
	} else {
		rows := make([]string, n)
		fields := make([]huh.Field, n)
		for i, name := range names {
			fields[i] = huh.NewInput().
				Title("Distances from " + name).
				Description(fmt.Sprintf("%d numbers in place order; 0 = no edge", n)).
				Value(&rows[i]).
				Validate(func(s string) error {
					_, err := splitRow(s, n)
					return err
				})
		}
		if err := newForm(huh.NewGroup(fields...)).Run(); err != nil {
			return model.ShortestPathRequest{}, err
		}
		for i, row := range rows {
			cells, _ := splitRow(row, n)
			for j, c := range cells {
				f.Weights[i][j].Value = c
			}
		}
	}

	f.Source, f.Destination = names[0], names[n-1]
	if err := newForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Source").Options(huh.NewOptions(names...)...).Value(&f.Source),
		huh.NewSelect[string]().Title("Destination").Options(huh.NewOptions(names...)...).Value(&f.Destination),
	)).Run(); err != nil {
		return model.ShortestPathRequest{}, err
	}
	return f.Request()
}

func allocateWizard(capacity string) (model.KnapsackRequest, error) {
	text := itemsText(model.DefaultItems())
	if err := newForm(huh.NewGroup(
		huh.NewText().
			Title("Items").
			Description("One per line: name, weight (kg), value").
			Value(&text).
			Validate(func(s string) error {
				_, err := parseItems(s)
				return err
			}),
		huh.NewInput().
			Title("Vehicle capacity (kg)").
			Value(&capacity).
			Validate(func(s string) error {
				_, err := (&forms.AllocationForm{Capacity: s}).CapacityValue()
				return err
			}),
	)).Run(); err != nil {
		return model.KnapsackRequest{}, err
	}

	f, err := parseItems(text)
	if err != nil {
		return model.KnapsackRequest{}, err
	}
	f.Capacity = capacity
	return f.Request()
}

func colorWizard(ctx context.Context, p ui.Planner, metric string, thresholdKm float64) (model.ColoringRequest, error) {
	var zonesText string
	threshold := formatNumber(thresholdKm)
	maxColors := "0"
	if err := newForm(huh.NewGroup(
		huh.NewText().
			Title("Zones").
			Description("One per line").
			Value(&zonesText).
			Validate(validatePlaces),
		huh.NewInput().
			Title("Threshold (km)").
			Description("Zones closer than this need different slots").
			Value(&threshold),
		huh.NewSelect[string]().
			Title("Distance").
			Options(huh.NewOptions(string(model.MetricRoad), string(model.MetricAir))...).
			Value(&metric),
		huh.NewInput().
			Title("Max colors").
			Description("0 = no limit").
			Value(&maxColors),
	)).Run(); err != nil {
		return model.ColoringRequest{}, err
	}

	names := splitLines(zonesText)
	f := forms.NewColoringForm(len(names))
	for i := range f.Zones {
		f.Zones[i].Value = names[i]
	}
	f.Threshold = threshold
	f.MaxColors = maxColors

	zones, err := f.ZoneNames()
	if err != nil {
		return model.ColoringRequest{}, err
	}
	resp, err := p.ThresholdAdjacency(ctx, model.ThresholdRequest{
		Places:      zones,
		ThresholdKm: model.Float(f.ThresholdKm()),
		Metric:      metric,
	})
	if err != nil {
		return model.ColoringRequest{}, err
	}
	f.Fill(resp.Adjacency)
	return f.Request()
}

func placesWizard() ([]string, error) {
	var text string
	if err := newForm(huh.NewGroup(
		huh.NewText().Title("Places").Description("One per line").Value(&text).Validate(validatePlaces),
	)).Run(); err != nil {
		return nil, err
	}
	return splitLines(text), nil
}
