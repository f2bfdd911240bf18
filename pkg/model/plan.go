// Package model defines the request and response payloads exchanged between
// the planner API, its HTTP client, the web forms and the CLI.
package model

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Metric selects how distances between places are measured.
type Metric string

const (
	MetricRoad Metric = "road" // driving distance, straight line as fallback
	MetricAir  Metric = "air"  // great-circle distance
)

// ParseMetric normalizes a metric name; anything unknown means road.
func ParseMetric(s string) Metric {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricAir:
		return MetricAir
	default:
		return MetricRoad
	}
}

// UnitKm is the only distance unit the geography endpoints report.
const UnitKm = "km"

// DefaultThresholdKm is used when a threshold request carries no usable value.
const DefaultThresholdKm = 20.0

// Coord is a WGS84 position. It travels as a [lat, lon] pair.
type Coord struct {
	Lat float64
	Lon float64
}

func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

func (c *Coord) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate needs 2 values, got %d", len(pair))
	}
	c.Lat, c.Lon = pair[0], pair[1]
	return nil
}

func (c Coord) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

// Network is a set of named nodes and the square matrix of edge weights
// between them. A zero cell means "no edge".
type Network struct {
	Names     []string    `json:"names"`
	Adjacency [][]float64 `json:"adjacency"`
}

// Validate checks that the matrix is square and matches the names.
func (n Network) Validate() error {
	if len(n.Names) == 0 {
		return fmt.Errorf("no names given")
	}
	if len(n.Adjacency) != len(n.Names) {
		return fmt.Errorf("adjacency has %d rows for %d names", len(n.Adjacency), len(n.Names))
	}
	for i, row := range n.Adjacency {
		if len(row) != len(n.Names) {
			return fmt.Errorf("adjacency row %d has %d columns, want %d", i, len(row), len(n.Names))
		}
	}
	seen := make(map[string]int, len(n.Names))
	for i, name := range n.Names {
		if j, dup := seen[name]; dup {
			return fmt.Errorf("duplicate name %q at positions %d and %d", name, j+1, i+1)
		}
		seen[name] = i
	}
	return nil
}

// Index returns the position of name, or -1.
func (n Network) Index(name string) int {
	for i, nm := range n.Names {
		if nm == name {
			return i
		}
	}
	return -1
}

// AutoMatrixRequest asks for a distance matrix between places.
type AutoMatrixRequest struct {
	Places []string `json:"places"`
	Metric string   `json:"metric,omitempty"`
}

// AutoMatrixResponse is a symmetric distance matrix in kilometres.
type AutoMatrixResponse struct {
	Names     []string    `json:"names"`
	Coords    []Coord     `json:"coords,omitempty"`
	Adjacency [][]float64 `json:"adjacency"`
	Unit      string      `json:"unit"`
	Metric    Metric      `json:"metric"`
}

// ShortestPathRequest is the Bellman-Ford input.
type ShortestPathRequest struct {
	Network
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// ShortestPathResponse is the cheapest route from source to destination.
type ShortestPathResponse struct {
	Distance float64  `json:"distance"`
	Path     []string `json:"path"`
}

// Item is a relief supply. Demand is its value to the receiving area.
type Item struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Demand float64 `json:"demand"`
}

// KnapsackRequest asks for a capacity-bounded allocation of items.
type KnapsackRequest struct {
	Items    []Item  `json:"items"`
	Capacity float64 `json:"capacity"`
}

// AllocationRow is the share of one item that was loaded.
type AllocationRow struct {
	Name        string  `json:"name"`
	WeightTaken float64 `json:"weight_taken"`
	ValueTaken  float64 `json:"value_taken"`
	Fraction    float64 `json:"fraction"`
}

// KnapsackResponse is the chosen allocation.
type KnapsackResponse struct {
	Capacity   float64         `json:"capacity"`
	TotalValue float64         `json:"total_value"`
	Allocation []AllocationRow `json:"allocation"`
}

// ThresholdRequest asks for a 0/1 adjacency of places closer than a threshold.
type ThresholdRequest struct {
	Places      []string      `json:"places"`
	ThresholdKm OptionalFloat `json:"threshold_km"`
	Metric      string        `json:"metric,omitempty"`
}

// ThresholdResponse carries both the raw distances and the derived adjacency.
type ThresholdResponse struct {
	Names       []string    `json:"names"`
	Coords      []Coord     `json:"coords,omitempty"`
	Distance    [][]float64 `json:"distance"`
	Adjacency   [][]int     `json:"adjacency"`
	ThresholdKm float64     `json:"threshold_km"`
}

// ColoringRequest asks for a slot assignment; MaxColors 0 means unbounded.
type ColoringRequest struct {
	Network
	MaxColors int `json:"max_colors"`
}

// ColoringResponse maps each name to a slot starting at 1.
type ColoringResponse struct {
	Coloring  map[string]int `json:"coloring"`
	NumColors int            `json:"num_colors"`
	// Conflicts lists adjacent pairs sharing a slot after MaxColors folding.
	Conflicts [][2]string `json:"conflicts,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}

// GraphRenderRequest describes a graph drawing.
type GraphRenderRequest struct {
	Network
	Path     []string       `json:"path,omitempty"`
	Coloring map[string]int `json:"coloring,omitempty"`
	Title    string         `json:"title,omitempty"`
}

// AllocationRenderRequest describes an allocation pie chart.
type AllocationRenderRequest struct {
	Allocation []AllocationRow `json:"allocation"`
	Title      string          `json:"title,omitempty"`
}

// OptionalFloat accepts a JSON number or numeric string. Anything else,
// including null, leaves it unset instead of failing the request.
type OptionalFloat struct {
	Value float64
	Set   bool
}

// Float returns a set OptionalFloat.
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Set: true}
}

// Or returns the value, or def when unset.
func (o OptionalFloat) Or(def float64) float64 {
	if !o.Set {
		return def
	}
	return o.Value
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	*o = OptionalFloat{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		*o = Float(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			*o = Float(f)
		}
	}
	return nil
}

// DefaultItems are the supplies a fresh allocation form starts with.
func DefaultItems() []Item {
	names := []string{"rice", "dal", "potato", "medicines", "tent material", "torch", "clothes", "water"}
	items := make([]Item, len(names))
	for i, name := range names {
		items[i] = Item{
			Name:   name,
			Weight: float64(100 + i*10),
			Demand: float64(50 + i*5),
		}
	}
	return items
}

// CleanPlaces trims place names and drops blanks.
func CleanPlaces(places []string) []string {
	out := make([]string, 0, len(places))
	for _, p := range places {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
