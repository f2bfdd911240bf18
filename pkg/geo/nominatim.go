package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// Nominatim geocodes with the OpenStreetMap search API.
//
// The public instance asks for at most one request per second, so lookups
// are spaced by Interval.
type Nominatim struct {
	BaseURL     string
	CountryBias string // Appended to every query, e.g. "India"
	UserAgent   string
	Interval    time.Duration
	Client      *http.Client

	mu   sync.Mutex
	last time.Time
}

// NewNominatim creates a geocoder for baseURL.
func NewNominatim(baseURL, countryBias, userAgent string, interval, timeout time.Duration) *Nominatim {
	return &Nominatim{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		CountryBias: countryBias,
		UserAgent:   userAgent,
		Interval:    interval,
		Client:      &http.Client{Timeout: timeout},
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the best match for place, or ErrNotFound.
func (n *Nominatim) Geocode(ctx context.Context, place string) (model.Coord, error) {
	if err := n.pace(ctx); err != nil {
		return model.Coord{}, err
	}
	defer metrics.Timer(metrics.Geocode)()

	q := place
	if n.CountryBias != "" {
		q = place + ", " + n.CountryBias
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return model.Coord{}, fmt.Errorf("build geocode request: %w", err)
	}
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}

	resp, err := n.client().Do(req)
	if err != nil {
		metrics.Geocode.RecordError()
		return model.Coord{}, fmt.Errorf("geocode %q: %w", place, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Geocode.RecordError()
		return model.Coord{}, fmt.Errorf("geocode %q: unexpected status %d", place, resp.StatusCode)
	}

	var results []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		metrics.Geocode.RecordError()
		return model.Coord{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return model.Coord{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Coord{}, fmt.Errorf("geocode %q: bad latitude %q", place, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Coord{}, fmt.Errorf("geocode %q: bad longitude %q", place, results[0].Lon)
	}
	debug.Log("geocoded %q -> %.5f,%.5f", place, lat, lon)
	return model.Coord{Lat: lat, Lon: lon}, nil
}

// pace blocks until Interval has passed since the previous request.
func (n *Nominatim) pace(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Interval > 0 && !n.last.IsZero() {
		if wait := n.Interval - time.Since(n.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	n.last = time.Now()
	return nil
}

func (n *Nominatim) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}
	return http.DefaultClient
}
