// Package client calls a reliefplan server over HTTP.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// DefaultTimeout bounds a single call, geocoding included.
const DefaultTimeout = 2 * time.Minute

// StatusError is a non-2xx answer. Message is the server's "error" field
// and may be empty.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return strconv.Itoa(e.Status)
}

// TransportError means the server could not be reached or its answer could
// not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to the JSON API rooted at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// AutoMatrix fetches a distance matrix for places.
func (c *Client) AutoMatrix(ctx context.Context, req model.AutoMatrixRequest) (model.AutoMatrixResponse, error) {
	var resp model.AutoMatrixResponse
	err := c.postJSON(ctx, "/api/auto-matrix", req, &resp)
	return resp, err
}

// ShortestPath runs Bellman-Ford on the server.
func (c *Client) ShortestPath(ctx context.Context, req model.ShortestPathRequest) (model.ShortestPathResponse, error) {
	var resp model.ShortestPathResponse
	err := c.postJSON(ctx, "/api/bellman-ford", req, &resp)
	return resp, err
}

// Knapsack asks for a supply allocation.
func (c *Client) Knapsack(ctx context.Context, req model.KnapsackRequest) (model.KnapsackResponse, error) {
	var resp model.KnapsackResponse
	err := c.postJSON(ctx, "/api/knapsack", req, &resp)
	return resp, err
}

// ThresholdAdjacency fetches a 0/1 proximity matrix for places.
func (c *Client) ThresholdAdjacency(ctx context.Context, req model.ThresholdRequest) (model.ThresholdResponse, error) {
	var resp model.ThresholdResponse
	err := c.postJSON(ctx, "/api/threshold-adjacency", req, &resp)
	return resp, err
}

// Coloring asks for a zone schedule.
func (c *Client) Coloring(ctx context.Context, req model.ColoringRequest) (model.ColoringResponse, error) {
	var resp model.ColoringResponse
	err := c.postJSON(ctx, "/api/coloring", req, &resp)
	return resp, err
}

// RenderGraph returns the drawn graph in format ("svg" or "png").
func (c *Client) RenderGraph(ctx context.Context, req model.GraphRenderRequest, format string) ([]byte, error) {
	path := "/api/render/graph"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	return c.postRaw(ctx, path, req)
}

// RenderAllocation returns the allocation pie chart as SVG.
func (c *Client) RenderAllocation(ctx context.Context, req model.AllocationRenderRequest) ([]byte, error) {
	return c.postRaw(ctx, "/api/render/allocation", req)
}

// Health is the /healthz answer.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return h, err
	}
	body, err := c.do(httpReq)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(body, &h); err != nil {
		return h, &TransportError{Op: "decode /healthz", Err: err}
	}
	return h, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := c.postRaw(ctx, path, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: "decode " + path, Err: err}
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, path string, in any) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read " + req.URL.Path, Err: err}
	}
	debug.LogTiming(req.Method+" "+req.URL.Path, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		var e model.ErrorResponse
		// Bodies that are not JSON leave Message empty.
		if json.Unmarshal(body, &e) == nil {
			se.Message = e.Error
		}
		return nil, se
	}
	return body, nil
}
