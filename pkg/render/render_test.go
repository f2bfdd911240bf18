package render

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

func sampleGraph() model.GraphRenderRequest {
	return model.GraphRenderRequest{
		Network: model.Network{
			Names: []string{"A", "B", "C", "D"},
			Adjacency: [][]float64{
				{0, 4, 0, 0},
				{4, 0, 2, 0},
				{0, 2, 0, 7},
				{0, 0, 7, 0},
			},
		},
	}
}

func TestNewLayoutGeometry(t *testing.T) {
	l := NewLayout(sampleGraph(), Options{})
	if l.Width != DefaultWidth || l.Height != DefaultHeight {
		t.Fatalf("canvas = %dx%d", l.Width, l.Height)
	}
	if len(l.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(l.Nodes))
	}

	r := math.Min(DefaultWidth, DefaultHeight)/2.2 - 50
	top := l.Nodes[0]
	if math.Abs(top.X-DefaultWidth/2) > 1e-9 || math.Abs(top.Y-(DefaultHeight/2-r)) > 1e-9 {
		t.Errorf("first node at (%.2f,%.2f), want top of circle", top.X, top.Y)
	}
	// Second of four is a quarter turn clockwise: right of center.
	if right := l.Nodes[1]; math.Abs(right.X-(DefaultWidth/2+r)) > 1e-9 {
		t.Errorf("second node X = %.2f, want %.2f", right.X, DefaultWidth/2+r)
	}

	want := []Edge{{0, 1}, {1, 2}, {2, 3}}
	if len(l.Edges) != len(want) {
		t.Fatalf("edges = %v, want %v", l.Edges, want)
	}
	for i := range want {
		if l.Edges[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, l.Edges[i], want[i])
		}
	}
}

func TestHighlightOverlay(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want int
	}{
		{"empty path", nil, 0},
		{"single node", []string{"A"}, 0},
		{"route", []string{"A", "B", "C"}, 2},
		{"unknown hop skipped", []string{"A", "X", "C"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sampleGraph()
			g.Path = tt.path
			l := NewLayout(g, Options{})
			if len(l.Highlight) != tt.want {
				t.Errorf("highlight = %v, want %d segments", l.Highlight, tt.want)
			}

			var buf bytes.Buffer
			if err := SVG(&buf, l); err != nil {
				t.Fatal(err)
			}
			hasRoute := strings.Contains(buf.String(), `id="route"`)
			if hasRoute != (tt.want > 0) {
				t.Errorf("route group present = %v, want %v", hasRoute, tt.want > 0)
			}
		})
	}
}

func TestSlots(t *testing.T) {
	g := sampleGraph()
	l := NewLayout(g, Options{})
	for i, n := range l.Nodes {
		if n.Slot != i%6+1 {
			t.Errorf("uncolored node %d slot = %d", i, n.Slot)
		}
	}
	if l.Colored {
		t.Error("Colored without a coloring")
	}

	g.Coloring = map[string]int{"A": 2, "B": 1, "C": 2}
	l = NewLayout(g, Options{})
	wantSlots := []int{2, 1, 2, 1} // D missing -> 1
	for i, n := range l.Nodes {
		if n.Slot != wantSlots[i] {
			t.Errorf("node %s slot = %d, want %d", n.Name, n.Slot, wantSlots[i])
		}
	}

	var buf bytes.Buffer
	if err := SVG(&buf, l); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), "Slot "); got != 4 {
		t.Errorf("slot captions = %d, want 4", got)
	}

	if SlotColor(1) != SlotColor(7) {
		t.Error("palette should wrap after six slots")
	}
}

func TestSVGEscapesLabels(t *testing.T) {
	g := model.GraphRenderRequest{Network: model.Network{
		Names:     []string{"<b>x</b>", "A&B"},
		Adjacency: [][]float64{{0, 1}, {1, 0}},
	}}
	var buf bytes.Buffer
	if err := SVG(&buf, NewLayout(g, Options{})); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>") || strings.Contains(out, "A&B") {
		t.Errorf("labels not escaped:\n%s", out)
	}
}

func TestLongLabelsTruncated(t *testing.T) {
	g := model.GraphRenderRequest{Network: model.Network{
		Names:     []string{"Thiruvananthapuram"},
		Adjacency: [][]float64{{0}},
	}}
	l := NewLayout(g, Options{})
	if l.Nodes[0].Label == l.Nodes[0].Name || !strings.HasSuffix(l.Nodes[0].Label, "…") {
		t.Errorf("label = %q", l.Nodes[0].Label)
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	g := sampleGraph()
	g.Path = []string{"A", "B"}
	if err := PNG(&buf, NewLayout(g, Options{Width: 320, Height: 240})); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("size = %v", b)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	l := NewLayout(sampleGraph(), Options{})

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"graph.svg", "graph.svg", false},
		{"nested/graph.PNG", "nested/graph.PNG", false},
		{"noext", "noext.svg", false},
		{"graph.gif", "", true},
	}
	for _, tt := range tests {
		got, err := Save(filepath.Join(dir, tt.in), l)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Save(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Save(%q): %v", tt.in, err)
		}
		if got != filepath.Join(dir, tt.want) {
			t.Errorf("Save(%q) path = %q", tt.in, got)
		}
		if info, err := os.Stat(got); err != nil || info.Size() == 0 {
			t.Errorf("Save(%q) wrote nothing: %v", tt.in, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatSVG, "svg": FormatSVG, ".PNG": FormatPNG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("jpeg"); err == nil {
		t.Error("ParseFormat(jpeg) expected error")
	}
	if FormatPNG.ContentType() != "image/png" || FormatSVG.ContentType() != "image/svg+xml" {
		t.Error("unexpected content types")
	}
}

func TestAllocationPie(t *testing.T) {
	rows := []model.AllocationRow{
		{Name: "water", WeightTaken: 50, Fraction: 1},
		{Name: "rice", WeightTaken: 30, Fraction: 0.5},
		{Name: "tents", WeightTaken: 0, Fraction: 0},
	}
	var buf bytes.Buffer
	if err := AllocationPie(&buf, rows, "", Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if got := strings.Count(out, "<path"); got != 2 {
		t.Errorf("slices = %d, want 2", got)
	}
	for _, want := range []string{DefaultPieTitle, "water: 50.00 kg", "tents: 0.00 kg"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}

	// A single item fills the whole disc.
	buf.Reset()
	if err := AllocationPie(&buf, rows[:1], "Load", Options{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<path") {
		t.Error("single slice should be a circle, not an arc")
	}
}
