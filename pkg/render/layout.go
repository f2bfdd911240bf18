// Package render draws relief networks and allocations as SVG or PNG.
//
// Nodes sit on a circle with the first one at the top, edges follow the
// upper triangle of the adjacency matrix, and an optional route is drawn
// over the edges in the accent color.
package render

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// Default canvas size.
const (
	DefaultWidth  = 650
	DefaultHeight = 480

	nodeRadius    = 28.0
	maxLabelWidth = 10 // terminal cells, wide runes count double
)

// Options controls the canvas.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Node is a placed vertex.
type Node struct {
	Name  string
	Label string // truncated Name
	X, Y  float64
	Slot  int
}

// Edge joins two node indices.
type Edge struct {
	From, To int
}

// Layout is a fully positioned drawing, independent of output format.
type Layout struct {
	Width     int
	Height    int
	Title     string
	Nodes     []Node
	Edges     []Edge
	Highlight []Edge // route overlay; empty when no route was given
	Colored   bool   // draw "Slot k" captions
}

// NewLayout positions g on a canvas described by opts.
func NewLayout(g model.GraphRenderRequest, opts Options) *Layout {
	w, h := opts.size()
	n := len(g.Names)
	l := &Layout{
		Width:   w,
		Height:  h,
		Title:   g.Title,
		Nodes:   make([]Node, n),
		Colored: g.Coloring != nil,
	}

	cx, cy := float64(w)/2, float64(h)/2
	r := math.Min(float64(w), float64(h))/2.2 - 50
	for i, name := range g.Names {
		theta := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
		slot := i%len(palette) + 1
		if g.Coloring != nil {
			slot = g.Coloring[name]
			if slot <= 0 {
				slot = 1
			}
		}
		l.Nodes[i] = Node{
			Name:  name,
			Label: runewidth.Truncate(name, maxLabelWidth, "…"),
			X:     cx + r*math.Cos(theta),
			Y:     cy + r*math.Sin(theta),
			Slot:  slot,
		}
	}

	for i := 0; i < n && i < len(g.Adjacency); i++ {
		for j := i + 1; j < n && j < len(g.Adjacency[i]); j++ {
			if g.Adjacency[i][j] != 0 {
				l.Edges = append(l.Edges, Edge{From: i, To: j})
			}
		}
	}

	if len(g.Path) > 1 {
		index := make(map[string]int, n)
		for i, name := range g.Names {
			index[name] = i
		}
		for k := 0; k+1 < len(g.Path); k++ {
			a, okA := index[g.Path[k]]
			b, okB := index[g.Path[k+1]]
			if okA && okB {
				l.Highlight = append(l.Highlight, Edge{From: a, To: b})
			}
		}
	}
	return l
}

// SlotColor returns the fill for a slot; slots wrap around the palette.
func SlotColor(slot int) string {
	if slot <= 0 {
		slot = 1
	}
	return css(palette[(slot-1)%len(palette)])
}
