package ui

import (
	"net/http"
	"strconv"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/forms"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// Form actions. Each submission carries at most one; a row removal
// carries "remove" instead.
const (
	actionBuild = "build"
	actionAuto  = "auto"
	actionRun   = "run"
	actionAdd   = "add"
)

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	settings := s.Settings()
	data := pageData{Title: "Shortest Relief Route", Nav: "route", Metric: string(settings.Metric)}

	if r.Method == http.MethodGet {
		data.Route = forms.NewRouteForm(settings.PlaceCount)
		data.Names = data.Route.Names()
		s.renderPage(w, "route.html", data)
		return
	}

	action := r.PostForm.Get("action")
	if m := r.PostForm.Get("metric"); m != "" {
		data.Metric = string(model.ParseMetric(m))
	}
	debug.Log("ui route: action=%s", action)

	switch action {
	case actionBuild:
		data.Route = forms.NewRouteForm(forms.ParseCount(r.PostForm.Get("count")))

	case actionAuto:
		f := forms.ParseRouteForm(r.PostForm)
		data.Route = f
		names, err := f.PlaceNames()
		if err != nil {
			data.Output = validationError(err)
			break
		}
		resp, err := s.planner.AutoMatrix(r.Context(), model.AutoMatrixRequest{Places: names, Metric: data.Metric})
		if err != nil {
			data.Output = callError(err, msgFetchDistances)
			break
		}
		f.Fill(nil, resp.Adjacency)
		data.Output = autoMatrixOutput(resp)

	case actionRun:
		f := forms.ParseRouteForm(r.PostForm)
		data.Route = f
		req, err := f.Request()
		if err != nil {
			data.Output = validationError(err)
			break
		}
		graph := model.GraphRenderRequest{Network: req.Network}
		resp, err := s.planner.ShortestPath(r.Context(), req)
		if err != nil {
			data.Output = callError(err, msgRunFailed)
		} else {
			data.Output = routeOutput(resp)
			graph.Path = resp.Path
		}
		data.Graph = s.graphSVG(graph)

	default:
		data.Route = forms.ParseRouteForm(r.PostForm)
	}

	data.Names = data.Route.Names()
	s.renderPage(w, "route.html", data)
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	data := pageData{Title: "Supply Allocation", Nav: "allocation"}

	if r.Method == http.MethodGet {
		data.Allocation = forms.NewAllocationForm()
		s.renderPage(w, "allocation.html", data)
		return
	}

	// Removal is folded into parsing; "remove" carries the row index.
	f := forms.ParseAllocationForm(r.PostForm)
	data.Allocation = f

	switch r.PostForm.Get("action") {
	case actionAdd:
		if err := f.AddItem(r.PostForm.Get("new-name"), r.PostForm.Get("new-weight"), r.PostForm.Get("new-value")); err != nil {
			data.Output = validationError(err)
		}

	case actionRun:
		req, err := f.Request()
		if err != nil {
			data.Output = validationError(err)
			break
		}
		resp, err := s.planner.Knapsack(r.Context(), req)
		if err != nil {
			data.Output = message(statusError, msgKnapsackFailed)
			if !isTransport(err) {
				data.Output.Lines = append(data.Output.Lines, Line{Text: errorText(err)})
			}
			break
		}
		data.Output = allocationOutput(resp)
		data.Graph = s.pieSVG(resp.Allocation)
	}

	s.renderPage(w, "allocation.html", data)
}

func (s *Server) handleColoring(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	settings := s.Settings()
	data := pageData{Title: "Zone Scheduling", Nav: "coloring", Metric: string(settings.Metric)}

	if r.Method == http.MethodGet {
		f := forms.NewColoringForm(settings.ZoneCount)
		f.Threshold = strconv.FormatFloat(settings.ThresholdKm, 'f', -1, 64)
		data.Coloring = f
		s.renderPage(w, "coloring.html", data)
		return
	}

	action := r.PostForm.Get("action")
	if m := r.PostForm.Get("metric"); m != "" {
		data.Metric = string(model.ParseMetric(m))
	}
	debug.Log("ui coloring: action=%s", action)

	switch action {
	case actionBuild:
		f := forms.NewColoringForm(forms.ParseCount(r.PostForm.Get("count")))
		if t := r.PostForm.Get("threshold_km"); t != "" {
			f.Threshold = t
		}
		if m := r.PostForm.Get("max_colors"); m != "" {
			f.MaxColors = m
		}
		data.Coloring = f

	case actionAuto:
		f := forms.ParseColoringForm(r.PostForm)
		data.Coloring = f
		names, err := f.ZoneNames()
		if err != nil {
			data.Output = validationError(err)
			break
		}
		threshold := f.ThresholdKm()
		resp, err := s.planner.ThresholdAdjacency(r.Context(), model.ThresholdRequest{
			Places:      names,
			ThresholdKm: model.Float(threshold),
			Metric:      data.Metric,
		})
		if err != nil {
			data.Output = callError(err, msgComputeAdjacency)
			break
		}
		f.Fill(resp.Adjacency)
		data.Output = thresholdOutput(threshold)

	case actionRun:
		f := forms.ParseColoringForm(r.PostForm)
		data.Coloring = f
		req, err := f.Request()
		if err != nil {
			data.Output = validationError(err)
			break
		}
		resp, err := s.planner.Coloring(r.Context(), req)
		if err != nil {
			data.Output = message(statusError, msgColoringFailed)
			if !isTransport(err) {
				data.Output.Lines = append(data.Output.Lines, Line{Text: errorText(err)})
			}
			break
		}
		data.Output = coloringOutput(req.Names, resp)
		data.Graph = s.graphSVG(model.GraphRenderRequest{Network: req.Network, Coloring: resp.Coloring})

	default:
		data.Coloring = forms.ParseColoringForm(r.PostForm)
	}

	s.renderPage(w, "coloring.html", data)
}
