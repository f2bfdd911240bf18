package main

import (
	"context"
	"fmt"
	"log"

	"github.com/vanderheijden86/reliefplan/pkg/api"
	"github.com/vanderheijden86/reliefplan/pkg/config"
	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/geo"
	"github.com/vanderheijden86/reliefplan/pkg/geocache"
	"github.com/vanderheijden86/reliefplan/pkg/render"
	"github.com/vanderheijden86/reliefplan/pkg/ui"
)

// backend is the in-process planning stack: geocoder, router, optional
// coordinate cache and the service on top.
type backend struct {
	svc   *api.Service
	cache *geocache.Store
}

func newBackend(cfg config.Config, logger *log.Logger) *backend {
	var geocoder geo.Geocoder = geo.NewNominatim(
		cfg.Geo.NominatimURL,
		cfg.Geo.CountryBias,
		cfg.Geo.UserAgent,
		cfg.Geo.GeocodeInterval,
		cfg.Geo.RequestTimeout,
	)

	b := &backend{}
	if cfg.CacheEnabled() {
		store, err := geocache.Open(cfg.Cache.Path, geocache.WithTTL(cfg.Cache.TTL))
		if err != nil {
			// The cache only saves lookups; run without it.
			logger.Printf("geocode cache disabled: %v", err)
		} else {
			debug.Log("geocode cache: %s", store.Path())
			if cfg.Cache.TTL > 0 {
				if n, err := store.Purge(context.Background(), cfg.Cache.TTL); err != nil {
					logger.Printf("geocode cache: %v", err)
				} else {
					debug.LogIf(n > 0, "geocode cache: purged %d expired places", n)
				}
			}
			b.cache = store
			geocoder = geo.NewCachedGeocoder(geocoder, store)
		}
	}

	builder := &geo.MatrixBuilder{
		Geocoder:    geocoder,
		Router:      geo.NewOSRM(cfg.Geo.OSRMURL, cfg.Geo.RequestTimeout),
		Concurrency: cfg.Geo.Concurrency,
	}
	b.svc = api.NewService(builder)
	return b
}

func (b *backend) Close() error {
	if b.cache == nil {
		return nil
	}
	if err := b.cache.Close(); err != nil {
		return fmt.Errorf("close geocode cache: %w", err)
	}
	return nil
}

func renderOptions(cfg config.Config) render.Options {
	return render.Options{Width: cfg.Render.Width, Height: cfg.Render.Height}
}

// uiSettings maps config onto page defaults.
func uiSettings(cfg config.Config) ui.Settings {
	s := ui.DefaultSettings()
	if cfg.UI.PlaceCount > 0 {
		s.PlaceCount = cfg.UI.PlaceCount
	}
	if cfg.UI.ZoneCount > 0 {
		s.ZoneCount = cfg.UI.ZoneCount
	}
	if cfg.UI.ThresholdKm > 0 {
		s.ThresholdKm = cfg.UI.ThresholdKm
	}
	s.Render = renderOptions(cfg)
	return s
}
