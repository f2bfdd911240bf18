package geo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// OSRM asks an OSRM server for driving distances.
type OSRM struct {
	BaseURL string
	Client  *http.Client
}

// NewOSRM creates a router for baseURL.
func NewOSRM(baseURL string, timeout time.Duration) *OSRM {
	return &OSRM{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // metres
	} `json:"routes"`
}

// Distance returns the driving distance in km. Any failure yields ok=false
// so callers can fall back to Haversine.
func (o *OSRM) Distance(ctx context.Context, from, to model.Coord) (float64, bool) {
	defer metrics.Timer(metrics.Route)()

	// OSRM wants lon,lat order.
	endpoint := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		o.BaseURL, from.Lon, from.Lat, to.Lon, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		metrics.Route.RecordError()
		debug.Log("osrm %s -> %s: %v", from, to, err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Route.RecordError()
		debug.Log("osrm %s -> %s: status %d", from, to, resp.StatusCode)
		return 0, false
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Routes) == 0 {
		metrics.Route.RecordError()
		return 0, false
	}
	return body.Routes[0].Distance / 1000.0, true
}
