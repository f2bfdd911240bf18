package geo

import (
	"context"
	"time"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// Cache stores geocoding results between runs.
type Cache interface {
	Get(ctx context.Context, place string) (model.Coord, bool, error)
	Put(ctx context.Context, place string, c model.Coord) error
}

// CachedGeocoder answers from Cache first and only asks Next on a miss.
// Cache failures are logged and otherwise ignored.
type CachedGeocoder struct {
	Next  Geocoder
	Cache Cache
}

// NewCachedGeocoder wraps next with cache. A nil cache returns next as is.
func NewCachedGeocoder(next Geocoder, cache Cache) Geocoder {
	if cache == nil {
		return next
	}
	return &CachedGeocoder{Next: next, Cache: cache}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, place string) (model.Coord, error) {
	start := time.Now()
	c, ok, err := g.Cache.Get(ctx, place)
	if err != nil {
		metrics.GeocodeCache.RecordError()
		debug.Log("geocache get %q: %v", place, err)
	}
	if ok {
		metrics.GeocodeCache.Record(time.Since(start))
		return c, nil
	}

	c, err = g.Next.Geocode(ctx, place)
	if err != nil {
		return model.Coord{}, err
	}
	if err := g.Cache.Put(ctx, place, c); err != nil {
		metrics.GeocodeCache.RecordError()
		debug.Log("geocache put %q: %v", place, err)
	}
	return c, nil
}
