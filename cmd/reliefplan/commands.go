package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

const graphUsage = "Write the drawn graph to `file` (.svg or .png)"

// parseArgs parses fs and rejects stray positional arguments unless
// positional is set.
func parseArgs(fs *flag.FlagSet, args []string, positional bool) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !positional && fs.NArg() > 0 {
		fs.Usage()
		return errUsage
	}
	return nil
}

func runRoute(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "route", "")
	var pf plannerFlags
	pf.register(fs, a, "graph", graphUsage)
	metric := fs.String("metric", string(model.MetricRoad), "Distance for fetched matrices: road or air")
	source := fs.String("source", "", "Start place (default: first)")
	dest := fs.String("destination", "", "End place (default: last)")
	if err := parseArgs(fs, args, false); err != nil {
		return err
	}

	p := a.planner(&pf)
	defer p.close()

	var req model.ShortestPathRequest
	if pf.in != "" {
		var in routeInput
		if err := readInput(a.stdin, pf.in, &in); err != nil {
			return err
		}
		if in.Metric == "" {
			in.Metric = *metric
		}
		var err error
		if req, err = resolveRoute(ctx, p, in); err != nil {
			return err
		}
	} else {
		var err error
		if req, err = routeWizard(ctx, p, *metric); err != nil {
			return err
		}
	}
	if *source != "" {
		req.Source = *source
	}
	if *dest != "" {
		req.Destination = *dest
	}

	resp, err := p.ShortestPath(ctx, req)
	if err != nil {
		return err
	}
	if pf.graph != "" {
		if err := a.writeGraph(ctx, p, pf.graph, model.GraphRenderRequest{Network: req.Network, Path: resp.Path}); err != nil {
			return err
		}
	}
	return a.emit(routeReport(resp), &pf)
}

// resolveRoute fills the matrix from places when the input names none, and
// defaults the endpoints to the first and last name.
func resolveRoute(ctx context.Context, p *planner, in routeInput) (model.ShortestPathRequest, error) {
	req := in.ShortestPathRequest
	if len(req.Names) == 0 && len(in.Places) > 0 {
		resp, err := p.AutoMatrix(ctx, model.AutoMatrixRequest{Places: in.Places, Metric: in.Metric})
		if err != nil {
			return req, err
		}
		req.Names, req.Adjacency = resp.Names, resp.Adjacency
	}
	if len(req.Names) == 0 {
		return req, fmt.Errorf("input needs names and adjacency, or places")
	}
	if req.Source == "" {
		req.Source = req.Names[0]
	}
	if req.Destination == "" {
		req.Destination = req.Names[len(req.Names)-1]
	}
	return req, nil
}

func runAllocate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "allocate", "")
	var pf plannerFlags
	pf.register(fs, a, "chart", "Write the allocation pie chart to `file` (.svg)")
	capacity := fs.Float64("capacity", 0, "Vehicle capacity in kg (overrides the input)")
	if err := parseArgs(fs, args, false); err != nil {
		return err
	}

	p := a.planner(&pf)
	defer p.close()

	var req model.KnapsackRequest
	if pf.in != "" {
		if err := readInput(a.stdin, pf.in, &req); err != nil {
			return err
		}
	} else {
		start := ""
		if *capacity > 0 {
			start = formatNumber(*capacity)
		}
		var err error
		if req, err = allocateWizard(start); err != nil {
			return err
		}
	}
	if *capacity > 0 {
		req.Capacity = *capacity
	}

	resp, err := p.Knapsack(ctx, req)
	if err != nil {
		return err
	}
	if pf.graph != "" {
		if err := a.writeChart(ctx, p, pf.graph, resp.Allocation); err != nil {
			return err
		}
	}
	return a.emit(allocationReport(resp), &pf)
}

func runColor(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "color", "")
	var pf plannerFlags
	pf.register(fs, a, "graph", graphUsage)
	metric := fs.String("metric", string(model.MetricRoad), "Distance for derived adjacency: road or air")
	maxColors := fs.Int("max-colors", -1, "Cap on time slots, 0 = no limit (overrides the input)")
	if err := parseArgs(fs, args, false); err != nil {
		return err
	}

	p := a.planner(&pf)
	defer p.close()

	var req model.ColoringRequest
	if pf.in != "" {
		var in colorInput
		if err := readInput(a.stdin, pf.in, &in); err != nil {
			return err
		}
		if in.Metric == "" {
			in.Metric = *metric
		}
		var err error
		if req, err = resolveColoring(ctx, p, in, a.cfg.UI.ThresholdKm); err != nil {
			return err
		}
	} else {
		var err error
		if req, err = colorWizard(ctx, p, *metric, a.cfg.UI.ThresholdKm); err != nil {
			return err
		}
	}
	if *maxColors >= 0 {
		req.MaxColors = *maxColors
	}

	resp, err := p.Coloring(ctx, req)
	if err != nil {
		return err
	}
	if pf.graph != "" {
		if err := a.writeGraph(ctx, p, pf.graph, model.GraphRenderRequest{Network: req.Network, Coloring: resp.Coloring}); err != nil {
			return err
		}
	}
	return a.emit(coloringReport(req.Names, resp), &pf)
}

// resolveColoring derives the conflict matrix from places when the input
// names none.
func resolveColoring(ctx context.Context, p *planner, in colorInput, defaultKm float64) (model.ColoringRequest, error) {
	req := in.ColoringRequest
	if len(req.Names) == 0 && len(in.Places) > 0 {
		if !in.ThresholdKm.Set {
			in.ThresholdKm = model.Float(defaultKm)
		}
		resp, err := p.ThresholdAdjacency(ctx, model.ThresholdRequest{Places: in.Places, ThresholdKm: in.ThresholdKm, Metric: in.Metric})
		if err != nil {
			return req, err
		}
		req.Names = resp.Names
		req.Adjacency = make([][]float64, len(resp.Adjacency))
		for i, row := range resp.Adjacency {
			req.Adjacency[i] = make([]float64, len(row))
			for j, v := range row {
				req.Adjacency[i][j] = float64(v)
			}
		}
	}
	if len(req.Names) == 0 {
		return req, fmt.Errorf("input needs names and adjacency, or places")
	}
	return req, nil
}

func runMatrix(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "matrix", "[place ...]")
	var pf plannerFlags
	pf.register(fs, a, "", "")
	metric := fs.String("metric", string(model.MetricRoad), "Distance: road or air")
	threshold := fs.Float64("threshold", 0, "Output 0/1 adjacency for places within this many km")
	if err := parseArgs(fs, args, true); err != nil {
		return err
	}

	in := matrixInput{Places: fs.Args(), Metric: *metric}
	if pf.in != "" {
		if err := readInput(a.stdin, pf.in, &in); err != nil {
			return err
		}
		if in.Metric == "" {
			in.Metric = *metric
		}
	}
	if *threshold > 0 {
		in.ThresholdKm = model.Float(*threshold)
	}

	p := a.planner(&pf)
	defer p.close()

	if len(in.Places) == 0 {
		places, err := placesWizard()
		if err != nil {
			return err
		}
		in.Places = places
	}

	if in.ThresholdKm.Set {
		resp, err := p.ThresholdAdjacency(ctx, model.ThresholdRequest{Places: in.Places, ThresholdKm: in.ThresholdKm, Metric: in.Metric})
		if err != nil {
			return err
		}
		return a.emit(thresholdReport(resp), &pf)
	}
	resp, err := p.AutoMatrix(ctx, model.AutoMatrixRequest{Places: in.Places, Metric: in.Metric})
	if err != nil {
		return err
	}
	return a.emit(matrixReport(resp), &pf)
}

func routeReport(resp model.ShortestPathResponse) report {
	return report{
		Title: "Shortest Relief Route",
		Lines: []reportLine{
			{Label: "Shortest Distance:", Text: formatNumber(resp.Distance)},
			{Label: "Optimized Path:", Text: strings.Join(resp.Path, " → ")},
		},
	}
}

func allocationReport(resp model.KnapsackResponse) report {
	r := report{
		Title: "Supply Allocation",
		Lines: []reportLine{{Label: "Total Value:", Text: fmt.Sprintf("%.2f", resp.TotalValue)}},
	}
	r.Header = []string{"Item", "Weight (kg)", "Share"}
	for _, row := range resp.Allocation {
		r.Rows = append(r.Rows, []string{row.Name, fmt.Sprintf("%.2f", row.WeightTaken), fmt.Sprintf("%.1f%%", row.Fraction*100)})
	}
	if len(resp.Allocation) == 0 {
		r.Notes = append(r.Notes, "Nothing fits in the vehicle.")
	}
	return r
}

func coloringReport(names []string, resp model.ColoringResponse) report {
	r := report{
		Title: "Zone Scheduling",
		Lines: []reportLine{{Label: "Colors used:", Text: strconv.Itoa(resp.NumColors)}},
	}
	r.Header = []string{"Zone", "Slot"}
	for _, name := range names {
		if slot, ok := resp.Coloring[name]; ok {
			r.Rows = append(r.Rows, []string{name, strconv.Itoa(slot)})
		}
	}
	for _, c := range resp.Conflicts {
		r.Notes = append(r.Notes, fmt.Sprintf("%s and %s share a slot (max colors reached).", c[0], c[1]))
	}
	return r
}

func matrixReport(resp model.AutoMatrixResponse) report {
	r := report{Title: fmt.Sprintf("Distances (%s, %s)", resp.Metric, resp.Unit)}
	r.Header = append([]string{""}, resp.Names...)
	for i, name := range resp.Names {
		row := []string{name}
		for _, v := range resp.Adjacency[i] {
			row = append(row, formatNumber(v))
		}
		r.Rows = append(r.Rows, row)
	}
	for i, c := range resp.Coords {
		if i < len(resp.Names) {
			r.Notes = append(r.Notes, fmt.Sprintf("%s: %s", resp.Names[i], c))
		}
	}
	return r
}

func thresholdReport(resp model.ThresholdResponse) report {
	r := report{Title: fmt.Sprintf("Adjacency within %s km", formatNumber(resp.ThresholdKm))}
	r.Header = append([]string{""}, resp.Names...)
	for i, name := range resp.Names {
		row := []string{name}
		for _, v := range resp.Adjacency[i] {
			row = append(row, strconv.Itoa(v))
		}
		r.Rows = append(r.Rows, row)
	}
	r.Notes = append(r.Notes, "1 = connected, 0 = not connected")
	return r
}
