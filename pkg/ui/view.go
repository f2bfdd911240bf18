package ui

import (
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/vanderheijden86/reliefplan/pkg/client"
	"github.com/vanderheijden86/reliefplan/pkg/forms"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// Output states.
const (
	statusInfo    = ""
	statusSuccess = "success"
	statusError   = "error"
)

type pageData struct {
	Title string
	Nav   string

	Route      *forms.RouteForm
	Allocation *forms.AllocationForm
	Coloring   *forms.ColoringForm
	Metric     string
	Names      []string // route endpoint options

	Output Output
	Graph  template.HTML
}

// Line is one output row: an optional bold label and its text.
type Line struct {
	Label string
	Text  string
}

// Output is the result block under a form.
type Output struct {
	Status string
	Lines  []Line
}

// Text flattens the output, one line per row.
func (o Output) Text() string {
	parts := make([]string, len(o.Lines))
	for i, l := range o.Lines {
		if l.Label != "" {
			parts[i] = l.Label + " " + l.Text
		} else {
			parts[i] = l.Text
		}
	}
	return strings.Join(parts, "\n")
}

func message(status, text string) Output {
	return Output{Status: status, Lines: []Line{{Text: text}}}
}

// Transport failure messages per action.
const (
	msgFetchDistances   = "Network/Service error while fetching distances."
	msgComputeAdjacency = "Network/Service error while computing adjacency."
	msgRunFailed        = "Network/Service error."
	msgKnapsackFailed   = "Knapsack error."
	msgColoringFailed   = "Coloring error."
)

// errorText is what "Error: ..." shows for a failed call: the server's
// message or, when it sent none, the status code.
func errorText(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

func isTransport(err error) bool {
	var te *client.TransportError
	return errors.As(err, &te)
}

// callError renders a failed planner call. transportMsg replaces the
// detail when the server was unreachable.
func callError(err error, transportMsg string) Output {
	if isTransport(err) {
		return message(statusError, transportMsg)
	}
	return message(statusError, "Error: "+errorText(err))
}

func validationError(err error) Output {
	return message(statusError, err.Error())
}

// formatNumber prints a float the shortest way that round-trips.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func routeOutput(resp model.ShortestPathResponse) Output {
	return Output{Lines: []Line{
		{Label: "Shortest Distance:", Text: formatNumber(resp.Distance)},
		{Label: "Optimized Path:", Text: strings.Join(resp.Path, " → ")},
	}}
}

func allocationOutput(resp model.KnapsackResponse) Output {
	out := Output{Lines: []Line{
		{Label: "Total Value:", Text: fmt.Sprintf("%.2f", resp.TotalValue)},
		{Label: "Allocated:"},
	}}
	for _, row := range resp.Allocation {
		out.Lines = append(out.Lines, Line{
			Text: fmt.Sprintf("%s: %.2f kg (%.1f%%)", row.Name, row.WeightTaken, row.Fraction*100),
		})
	}
	return out
}

func coloringOutput(names []string, resp model.ColoringResponse) Output {
	slots := make([]string, 0, len(resp.Coloring))
	for _, name := range names {
		if slot, ok := resp.Coloring[name]; ok {
			slots = append(slots, fmt.Sprintf("%s: Slot %d", name, slot))
		}
	}
	out := Output{Lines: []Line{
		{Label: "Colors used:", Text: strconv.Itoa(resp.NumColors)},
		{Text: strings.Join(slots, " · ")},
	}}
	if len(resp.Conflicts) > 0 {
		pairs := make([]string, len(resp.Conflicts))
		for i, c := range resp.Conflicts {
			pairs[i] = c[0] + " / " + c[1]
		}
		out.Lines = append(out.Lines, Line{Label: "Shared slots:", Text: strings.Join(pairs, ", ")})
	}
	return out
}

func autoMatrixOutput(resp model.AutoMatrixResponse) Output {
	return message(statusSuccess, fmt.Sprintf(
		"Auto-filled adjacency with real distances (%s, %s). You can now run Bellman–Ford.",
		resp.Metric, resp.Unit))
}

func thresholdOutput(threshold float64) Output {
	return message(statusSuccess, fmt.Sprintf(
		"Filled adjacency using threshold ≤ %s km (1 = connected, 0 = not connected).",
		formatNumber(threshold)))
}
