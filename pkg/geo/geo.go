// Package geo turns place names into coordinates and distance matrices.
//
// Geocoding goes through Nominatim, road distances through OSRM. Both are
// public best-effort services: road lookups that fail fall back to the
// great-circle distance, geocoding failures are reported to the caller.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// ErrNotFound is returned by a Geocoder when a query has no match.
var ErrNotFound = errors.New("place not found")

// GeocodeError reports a place that could not be resolved. Its message is
// safe to show to users.
type GeocodeError struct {
	Place string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("Could not geocode: %s", e.Place)
}

// Geocoder resolves a free-text place name to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (model.Coord, error)
}

// Router reports the driving distance between two points in km. ok is false
// when no route could be obtained.
type Router interface {
	Distance(ctx context.Context, from, to model.Coord) (km float64, ok bool)
}

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b model.Coord) float64 {
	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)
	dlat := lat2 - lat1
	dlon := lon2 - lon1
	x := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(x))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// round3 keeps matrices readable in forms and stable in tests.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
