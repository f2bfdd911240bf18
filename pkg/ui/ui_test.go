package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/vanderheijden86/reliefplan/pkg/client"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

type fakePlanner struct {
	err error

	autoReq      *model.AutoMatrixRequest
	pathReq      *model.ShortestPathRequest
	knapsackReq  *model.KnapsackRequest
	thresholdReq *model.ThresholdRequest
	coloringReq  *model.ColoringRequest
}

func (f *fakePlanner) AutoMatrix(_ context.Context, req model.AutoMatrixRequest) (model.AutoMatrixResponse, error) {
	f.autoReq = &req
	if f.err != nil {
		return model.AutoMatrixResponse{}, f.err
	}
	n := len(req.Places)
	adj := make([][]float64, n)
	for i := range adj {
		adj[i] = make([]float64, n)
		for j := range adj[i] {
			if i != j {
				adj[i][j] = 12.5
			}
		}
	}
	return model.AutoMatrixResponse{Names: req.Places, Adjacency: adj, Unit: "km", Metric: model.ParseMetric(req.Metric)}, nil
}

func (f *fakePlanner) ShortestPath(_ context.Context, req model.ShortestPathRequest) (model.ShortestPathResponse, error) {
	f.pathReq = &req
	if f.err != nil {
		return model.ShortestPathResponse{}, f.err
	}
	return model.ShortestPathResponse{Distance: 7, Path: []string{req.Source, req.Destination}}, nil
}

func (f *fakePlanner) Knapsack(_ context.Context, req model.KnapsackRequest) (model.KnapsackResponse, error) {
	f.knapsackReq = &req
	if f.err != nil {
		return model.KnapsackResponse{}, f.err
	}
	return model.KnapsackResponse{
		Capacity:   req.Capacity,
		TotalValue: 2.5,
		Allocation: []model.AllocationRow{{Name: "rice", WeightTaken: 5, ValueTaken: 2.5, Fraction: 0.5}},
	}, nil
}

func (f *fakePlanner) ThresholdAdjacency(_ context.Context, req model.ThresholdRequest) (model.ThresholdResponse, error) {
	f.thresholdReq = &req
	if f.err != nil {
		return model.ThresholdResponse{}, f.err
	}
	n := len(req.Places)
	adj := make([][]int, n)
	for i := range adj {
		adj[i] = make([]int, n)
		for j := range adj[i] {
			if i != j {
				adj[i][j] = 1
			}
		}
	}
	return model.ThresholdResponse{Names: req.Places, Adjacency: adj, ThresholdKm: req.ThresholdKm.Or(model.DefaultThresholdKm)}, nil
}

func (f *fakePlanner) Coloring(_ context.Context, req model.ColoringRequest) (model.ColoringResponse, error) {
	f.coloringReq = &req
	if f.err != nil {
		return model.ColoringResponse{}, f.err
	}
	coloring := make(map[string]int, len(req.Names))
	for i, name := range req.Names {
		coloring[name] = i + 1
	}
	return model.ColoringResponse{Coloring: coloring, NumColors: len(req.Names)}, nil
}

func newTestServer(t *testing.T, p Planner) *Server {
	t.Helper()
	s, err := New(p, DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func post(t *testing.T, s *Server, path string, form url.Values) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST %s: status %d", path, rec.Code)
	}
	return rec.Body.String()
}

func mustContain(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestIndexAndStatic(t *testing.T) {
	s := newTestServer(t, &fakePlanner{})

	code, body := get(t, s, "/")
	if code != http.StatusOK {
		t.Fatalf("index status %d", code)
	}
	mustContain(t, body, `href="/ui/route"`, `href="/ui/allocation"`, `href="/ui/coloring"`)

	if code, _ := get(t, s, "/nope"); code != http.StatusNotFound {
		t.Errorf("unknown path status %d, want 404", code)
	}
	code, body = get(t, s, "/ui/static/style.css")
	if code != http.StatusOK || !strings.Contains(body, ".output") {
		t.Errorf("stylesheet: status %d", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakePlanner{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/ui/route", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("Allow = %q", got)
	}
}

func TestRouteBuild(t *testing.T) {
	s := newTestServer(t, &fakePlanner{})

	_, body := get(t, s, "/ui/route")
	mustContain(t, body, `id="name-4"`, "Place 5")
	if strings.Contains(body, `id="name-5"`) {
		t.Error("default form has more than 5 places")
	}

	body = post(t, s, "/ui/route", url.Values{"action": {"build"}, "count": {"3"}})
	mustContain(t, body, "Place 1", "Place 2", "Place 3", `id="w-2-2"`, `placeholder="e.g., P3"`)
	if strings.Contains(body, "Place 4") {
		t.Error("form for 3 places shows a fourth")
	}
	mustContain(t, body, `id="w-1-1" name="w-1-1" type="number" step="any" placeholder="0" value="0"`)
}

func TestRouteAutoFill(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)

	body := post(t, s, "/ui/route", url.Values{
		"action": {"auto"}, "count": {"2"}, "metric": {"air"},
		"name-0": {"Delhi"}, "name-1": {"Agra"},
	})
	if p.autoReq == nil {
		t.Fatal("planner not called")
	}
	if p.autoReq.Metric != "air" || strings.Join(p.autoReq.Places, ",") != "Delhi,Agra" {
		t.Errorf("request = %+v", *p.autoReq)
	}
	mustContain(t, body,
		"Auto-filled adjacency with real distances (air, km). You can now run Bellman–Ford.",
		`value="12.5"`,
	)
}

func TestRouteAutoFillBlankName(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)

	body := post(t, s, "/ui/route", url.Values{
		"action": {"auto"}, "count": {"3"},
		"name-0": {"Delhi"}, "name-1": {"  "}, "name-2": {"Agra"},
	})
	if p.autoReq != nil {
		t.Error("planner called with a blank place")
	}
	mustContain(t, body, "Place 2 is empty", `class="output error"`)
}

func TestRouteErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &client.StatusError{Status: 502, Message: "Distance service failed"}, "Error: Distance service failed"},
		{"status only", &client.StatusError{Status: 500}, "Error: 500"},
		{"unreachable", &client.TransportError{Op: "POST /api/auto-matrix", Err: errors.New("refused")}, "Network/Service error while fetching distances."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakePlanner{err: tt.err})
			body := post(t, s, "/ui/route", url.Values{
				"action": {"auto"}, "count": {"2"}, "name-0": {"A"}, "name-1": {"B"},
			})
			mustContain(t, body, tt.want)
		})
	}
}

func TestRouteRun(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)

	body := post(t, s, "/ui/route", url.Values{
		"action": {"run"}, "count": {"3"},
		"name-0": {"A"}, "name-1": {""}, "name-2": {"C"},
		"w-0-1": {"4"}, "w-1-2": {"3"},
	})
	if p.pathReq == nil {
		t.Fatal("planner not called")
	}
	if got := strings.Join(p.pathReq.Names, ","); got != "A,P2,C" {
		t.Errorf("names = %s", got)
	}
	if p.pathReq.Source != "A" || p.pathReq.Destination != "C" {
		t.Errorf("endpoints = %s -> %s", p.pathReq.Source, p.pathReq.Destination)
	}
	if p.pathReq.Adjacency[0][1] != 4 || p.pathReq.Adjacency[1][2] != 3 {
		t.Errorf("adjacency = %v", p.pathReq.Adjacency)
	}
	mustContain(t, body,
		"<strong>Shortest Distance:</strong> 7",
		"<strong>Optimized Path:</strong> A → C",
		"<svg", `id="route"`,
	)
}

func TestRouteRunAfterRenamingPlaces(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)

	_, body := get(t, s, "/ui/route")
	mustContain(t, body, `<option value="0" selected>P1</option>`, `<option value="4" selected>P5</option>`)

	// The selects still carry what the page showed before the names were typed.
	form := url.Values{
		"action": {"run"}, "count": {"5"},
		"name-0": {"Delhi"}, "name-1": {"Agra"}, "name-2": {"Jaipur"}, "name-3": {"Kota"}, "name-4": {"Ajmer"},
		"w-0-1": {"4"}, "w-1-4": {"3"},
		"source": {"P1"}, "destination": {"P1"},
	}
	body = post(t, s, "/ui/route", form)
	if p.pathReq == nil {
		t.Fatal("planner not called")
	}
	if p.pathReq.Source != "Delhi" || p.pathReq.Destination != "Ajmer" {
		t.Errorf("stale endpoints: %s -> %s, want Delhi -> Ajmer", p.pathReq.Source, p.pathReq.Destination)
	}
	mustContain(t, body, "Delhi → Ajmer")

	form.Set("source", "1")
	form.Set("destination", "3")
	body = post(t, s, "/ui/route", form)
	if p.pathReq.Source != "Agra" || p.pathReq.Destination != "Kota" {
		t.Errorf("indexed endpoints: %s -> %s, want Agra -> Kota", p.pathReq.Source, p.pathReq.Destination)
	}
	mustContain(t, body, `<option value="1" selected>Agra</option>`, `<option value="3" selected>Kota</option>`)
}

func TestRouteRunDuplicateNames(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)
	body := post(t, s, "/ui/route", url.Values{
		"action": {"run"}, "count": {"3"},
		"name-0": {"Delhi"}, "name-1": {"Agra"}, "name-2": {"Delhi"},
	})
	if p.pathReq != nil {
		t.Error("planner called with repeated names")
	}
	mustContain(t, body, "Place 3 repeats &#34;Delhi&#34; from Place 1. Names must be unique.")
}

func TestEnterSubmitsRun(t *testing.T) {
	s := newTestServer(t, &fakePlanner{})
	for _, path := range []string{"/ui/route", "/ui/allocation", "/ui/coloring"} {
		_, body := get(t, s, path)
		i := strings.Index(body, "<button")
		if i < 0 {
			t.Fatalf("%s: no buttons", path)
		}
		first := body[i : i+strings.Index(body[i:], ">")]
		if !strings.Contains(first, `name="action" value="run"`) {
			t.Errorf("%s: first button is %s>, want the run action", path, first)
		}
	}
}

func TestAllocationHugeRowCount(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)
	post(t, s, "/ui/allocation", url.Values{
		"action": {"run"}, "items": {"2000000000"}, "capacity": {"5"},
		"item-name-0": {"rice"}, "item-weight-0": {"10"}, "item-value-0": {"5"},
	})
	if p.knapsackReq == nil || len(p.knapsackReq.Items) != 1 {
		t.Fatalf("knapsack request = %+v", p.knapsackReq)
	}
}

func TestRouteRunFailureDrawsPlainGraph(t *testing.T) {
	s := newTestServer(t, &fakePlanner{err: &client.StatusError{Status: 400, Message: "Negative cycle detected."}})
	body := post(t, s, "/ui/route", url.Values{"action": {"run"}, "count": {"2"}, "w-0-1": {"1"}})
	mustContain(t, body, "Error: Negative cycle detected.", "<svg")
	if strings.Contains(body, `id="route"`) {
		t.Error("route highlighted after a failed run")
	}
}

func TestRouteRunBadCell(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)
	body := post(t, s, "/ui/route", url.Values{"action": {"run"}, "count": {"2"}, "w-0-1": {"far"}})
	if p.pathReq != nil {
		t.Error("planner called with a bad cell")
	}
	mustContain(t, body, "is not a number.")
}

func TestAllocation(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)

	_, body := get(t, s, "/ui/allocation")
	mustContain(t, body, `value="rice"`, `value="water"`, `name="items" value="8"`)

	body = post(t, s, "/ui/allocation", url.Values{
		"action": {"add"}, "items": {"1"},
		"item-name-0": {"rice"}, "item-weight-0": {"10"}, "item-value-0": {"5"},
		"new-name": {"blankets"}, "new-weight": {"4"}, "new-value": {"2"},
	})
	mustContain(t, body, `value="blankets"`, `name="items" value="2"`)

	body = post(t, s, "/ui/allocation", url.Values{
		"action": {"add"}, "items": {"0"},
		"new-name": {"x"}, "new-weight": {"0"}, "new-value": {"1"},
	})
	mustContain(t, body, "Weight must be a positive number.")

	body = post(t, s, "/ui/allocation", url.Values{
		"remove": {"0"}, "items": {"2"},
		"item-name-0": {"rice"}, "item-weight-0": {"10"}, "item-value-0": {"5"},
		"item-name-1": {"dal"}, "item-weight-1": {"8"}, "item-value-1": {"4"},
	})
	if strings.Contains(body, `value="rice"`) {
		t.Error("removed row still shown")
	}

	body = post(t, s, "/ui/allocation", url.Values{
		"action": {"run"}, "items": {"1"}, "capacity": {"5"},
		"item-name-0": {"rice"}, "item-weight-0": {"10"}, "item-value-0": {"5"},
	})
	if p.knapsackReq == nil || p.knapsackReq.Capacity != 5 || len(p.knapsackReq.Items) != 1 {
		t.Fatalf("request = %+v", p.knapsackReq)
	}
	mustContain(t, body,
		"<strong>Total Value:</strong> 2.50",
		"rice: 5.00 kg (50.0%)",
		"Allocation by Weight Taken (kg)",
	)
}

func TestAllocationErrors(t *testing.T) {
	form := url.Values{
		"action": {"run"}, "items": {"1"}, "capacity": {"5"},
		"item-name-0": {"rice"}, "item-weight-0": {"10"}, "item-value-0": {"5"},
	}

	s := newTestServer(t, &fakePlanner{err: &client.StatusError{Status: 400, Message: "Capacity must be positive."}})
	mustContain(t, post(t, s, "/ui/allocation", form), "Knapsack error.", "Capacity must be positive.")

	s = newTestServer(t, &fakePlanner{err: &client.TransportError{Op: "POST /api/knapsack", Err: errors.New("refused")}})
	body := post(t, s, "/ui/allocation", form)
	mustContain(t, body, "Knapsack error.")
	if strings.Contains(body, "refused") {
		t.Error("transport detail leaked into output")
	}

	p := &fakePlanner{}
	s = newTestServer(t, p)
	form.Set("capacity", "lots")
	mustContain(t, post(t, s, "/ui/allocation", form), "Enter a valid capacity.")
	if p.knapsackReq != nil {
		t.Error("planner called with a bad capacity")
	}
}

func TestColoring(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)

	_, body := get(t, s, "/ui/coloring")
	mustContain(t, body, `id="chdr-top-3"`, ">Z4<", `name="threshold_km" type="number" step="any" value="20"`)

	body = post(t, s, "/ui/coloring", url.Values{
		"action": {"auto"}, "count": {"2"}, "threshold_km": {"35"},
		"cname-0": {"Delhi"}, "cname-1": {"Noida"},
	})
	if p.thresholdReq == nil || p.thresholdReq.ThresholdKm.Or(0) != 35 {
		t.Fatalf("threshold request = %+v", p.thresholdReq)
	}
	mustContain(t, body, "Filled adjacency using threshold ≤ 35 km (1 = connected, 0 = not connected).", `id="cw-0-1"`)

	body = post(t, s, "/ui/coloring", url.Values{
		"action": {"run"}, "count": {"2"}, "max_colors": {"0"},
		"cname-0": {"Delhi"}, "cw-0-1": {"1"}, "cw-1-0": {"1"},
	})
	if p.coloringReq == nil {
		t.Fatal("coloring not called")
	}
	mustContain(t, body, "<strong>Colors used:</strong> 2", "Delhi: Slot 1 · Z2: Slot 2", "Slot 2</text>")
}

func TestColoringBlankZone(t *testing.T) {
	p := &fakePlanner{}
	s := newTestServer(t, p)
	body := post(t, s, "/ui/coloring", url.Values{"action": {"auto"}, "count": {"2"}, "cname-0": {"A"}})
	if p.thresholdReq != nil {
		t.Error("planner called with a blank zone")
	}
	mustContain(t, body, "Zone 2 is empty")
}

func TestSettingsSwap(t *testing.T) {
	s := newTestServer(t, &fakePlanner{})
	settings := s.Settings()
	settings.PlaceCount = 3
	settings.ThresholdKm = 12.5
	s.SetSettings(settings)

	_, body := get(t, s, "/ui/route")
	if strings.Contains(body, `id="name-3"`) {
		t.Error("route form ignores PlaceCount")
	}
	_, body = get(t, s, "/ui/coloring")
	mustContain(t, body, `value="12.5"`)
}

func TestOutputText(t *testing.T) {
	out := coloringOutput([]string{"A", "B"}, model.ColoringResponse{
		Coloring:  map[string]int{"A": 1, "B": 1},
		NumColors: 1,
		Conflicts: [][2]string{{"A", "B"}},
	})
	want := "Colors used: 1\nA: Slot 1 · B: Slot 1\nShared slots: A / B"
	if got := out.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestInlineSVG(t *testing.T) {
	got := inlineSVG([]byte("<?xml version=\"1.0\"?>\n<svg width=\"1\"></svg>"))
	if string(got) != `<svg width="1"></svg>` {
		t.Errorf("inlineSVG = %q", got)
	}
}
