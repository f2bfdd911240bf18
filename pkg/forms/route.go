package forms

import (
	"net/url"
	"strconv"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// RouteForm collects places, distances and the route endpoints.
type RouteForm struct {
	Places      []Field
	Weights     [][]Field
	Source      string
	Destination string
}

// NewRouteForm builds a form for n places (clamped to the allowed range).
func NewRouteForm(n int) *RouteForm {
	n = clampCount(n)
	return &RouteForm{
		Places:  newNameFields(n, "name", "Place", "e.g., P%d"),
		Weights: newGrid("w", n),
	}
}

// ParseRouteForm rebuilds a submitted form. The size comes from "count".
func ParseRouteForm(values url.Values) *RouteForm {
	f := NewRouteForm(ParseCount(values.Get("count")))
	readFields(f.Places, values)
	readGrid(f.Weights, values)
	names := f.Names()
	f.Source = resolveEndpoint(values.Get("source"), names)
	f.Destination = resolveEndpoint(values.Get("destination"), names)
	return f
}

// resolveEndpoint maps a submitted endpoint to a current place name. The
// page posts option indices so renamed places still resolve; a name is
// accepted too. Anything else is dropped and Request falls back to the
// default endpoint.
func resolveEndpoint(v string, names []string) string {
	if i, err := strconv.Atoi(v); err == nil && i >= 0 && i < len(names) {
		return names[i]
	}
	for _, name := range names {
		if name == v {
			return v
		}
	}
	return ""
}

// Count is the number of places.
func (f *RouteForm) Count() int {
	return len(f.Places)
}

// Names returns place names with P<i> for blanks.
func (f *RouteForm) Names() []string {
	return namesOrDefault(f.Places, "P")
}

// PlaceNames returns trimmed names for geocoding. Every place must be named.
func (f *RouteForm) PlaceNames() ([]string, error) {
	return requiredNames(f.Places, "Place")
}

// Network reads the names and weight grid.
func (f *RouteForm) Network() (model.Network, error) {
	adj, err := gridValues(f.Weights)
	if err != nil {
		return model.Network{}, err
	}
	names := f.Names()
	if err := uniqueNames(f.Places, names, "Place"); err != nil {
		return model.Network{}, err
	}
	return model.Network{Names: names, Adjacency: adj}, nil
}

// Request builds the shortest-path request. Missing endpoints default to
// the first and last place.
func (f *RouteForm) Request() (model.ShortestPathRequest, error) {
	network, err := f.Network()
	if err != nil {
		return model.ShortestPathRequest{}, err
	}
	req := model.ShortestPathRequest{Network: network, Source: f.Source, Destination: f.Destination}
	if req.Source == "" {
		req.Source = network.Names[0]
	}
	if req.Destination == "" {
		req.Destination = network.Names[len(network.Names)-1]
	}
	return req, nil
}

// Fill replaces names and weights, e.g. after an auto-filled matrix.
func (f *RouteForm) Fill(names []string, adjacency [][]float64) {
	setNames(f.Places, names)
	setGrid(f.Weights, adjacency)
}

// SourceIndex is the selected source option, the first place by default.
func (f *RouteForm) SourceIndex() int {
	return f.endpointIndex(f.Source, 0)
}

// DestinationIndex is the selected destination option, the last place by
// default.
func (f *RouteForm) DestinationIndex() int {
	return f.endpointIndex(f.Destination, f.Count()-1)
}

func (f *RouteForm) endpointIndex(name string, def int) int {
	if name == "" {
		return def
	}
	for i, n := range f.Names() {
		if n == name {
			return i
		}
	}
	return def
}

// CountValue is the count as a form value.
func (f *RouteForm) CountValue() string {
	return strconv.Itoa(f.Count())
}
