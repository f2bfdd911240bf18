package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// DefaultConcurrency bounds parallel route lookups when MatrixBuilder has
// no explicit limit.
const DefaultConcurrency = 4

// Matrix is a symmetric distance table between geocoded places.
type Matrix struct {
	Names     []string
	Coords    []model.Coord
	Distances [][]float64 // km, diagonal 0
	Metric    model.Metric
}

// MatrixBuilder geocodes places and measures pairwise distances.
type MatrixBuilder struct {
	Geocoder    Geocoder
	Router      Router // nil means great-circle distances only
	Concurrency int
}

// Build resolves places in order and fills the distance matrix. Places that
// cannot be resolved yield a *GeocodeError; other geocoder failures are
// returned wrapped.
func (b *MatrixBuilder) Build(ctx context.Context, places []string, metric model.Metric) (*Matrix, error) {
	start := time.Now()
	defer func() { metrics.MatrixBuild.Record(time.Since(start)) }()

	coords := make([]model.Coord, len(places))
	// Geocoding stays sequential so the provider's rate limit holds.
	for i, p := range places {
		c, err := b.Geocoder.Geocode(ctx, p)
		if err != nil {
			metrics.MatrixBuild.RecordError()
			if errors.Is(err, ErrNotFound) {
				return nil, &GeocodeError{Place: p}
			}
			return nil, fmt.Errorf("geocode %q: %w", p, err)
		}
		coords[i] = c
	}

	n := len(places)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}

	limit := b.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.Go(func() error {
				d := b.pairDistance(gctx, coords[i], coords[j], metric)
				// Each goroutine owns cells (i,j) and (j,i).
				dist[i][j] = d
				dist[j][i] = d
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	debug.Log("matrix: %d places, metric=%s, took %v", n, metric, time.Since(start))
	return &Matrix{
		Names:     append([]string(nil), places...),
		Coords:    coords,
		Distances: dist,
		Metric:    metric,
	}, nil
}

func (b *MatrixBuilder) pairDistance(ctx context.Context, a, c model.Coord, metric model.Metric) float64 {
	if metric == model.MetricRoad && b.Router != nil {
		if km, ok := b.Router.Distance(ctx, a, c); ok {
			return round3(km)
		}
	}
	return round3(Haversine(a, c))
}
