package api

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/reliefplan/pkg/metrics"
	"github.com/vanderheijden86/reliefplan/pkg/model"
	"github.com/vanderheijden86/reliefplan/pkg/render"
	"github.com/vanderheijden86/reliefplan/pkg/version"
)

// maxBodyBytes caps request bodies; a 25x25 matrix is far below this.
const maxBodyBytes = 1 << 20

// Handler serves the JSON API.
type Handler struct {
	svc       *Service
	mux       *http.ServeMux
	logger    *log.Logger
	renderOpt atomic.Pointer[render.Options]
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger enables one access-log line per request.
func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRenderOptions sets the canvas used by the render endpoints.
func WithRenderOptions(o render.Options) Option {
	return func(h *Handler) {
		h.renderOpt.Store(&o)
	}
}

// NewHandler mounts all API routes for svc.
func NewHandler(svc *Service, opts ...Option) *Handler {
	h := &Handler{
		svc:    svc,
		mux:    http.NewServeMux(),
		logger: log.New(io.Discard, "", 0),
	}
	h.renderOpt.Store(&render.Options{})
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("/api/auto-matrix", post(h.autoMatrix))
	h.mux.HandleFunc("/api/bellman-ford", post(h.bellmanFord))
	h.mux.HandleFunc("/api/knapsack", post(h.knapsack))
	h.mux.HandleFunc("/api/threshold-adjacency", post(h.thresholdAdjacency))
	h.mux.HandleFunc("/api/coloring", post(h.coloring))
	h.mux.HandleFunc("/api/render/graph", post(h.renderGraph))
	h.mux.HandleFunc("/api/render/allocation", post(h.renderAllocation))
	h.mux.HandleFunc("/api/metrics", get(h.serveMetrics))
	h.mux.HandleFunc("/healthz", get(h.health))
	h.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, MsgNotFound)
	})
	return h
}

// SetRenderOptions swaps the canvas settings, e.g. after a config reload.
func (h *Handler) SetRenderOptions(o render.Options) {
	h.renderOpt.Store(&o)
}

// RenderOptions returns the current canvas settings.
func (h *Handler) RenderOptions() render.Options {
	return *h.renderOpt.Load()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)

	elapsed := time.Since(start)
	metrics.HTTPRequest.Record(elapsed)
	if rec.status >= 500 {
		metrics.HTTPRequest.RecordError()
	}
	h.logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed.Round(time.Microsecond))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func post(fn http.HandlerFunc) http.HandlerFunc {
	return only(http.MethodPost, fn)
}

func get(fn http.HandlerFunc) http.HandlerFunc {
	return only(http.MethodGet, fn)
}

func only(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}

// decode reads a JSON body whatever its declared content type.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(model.ErrorResponse{Error: MsgInternal})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, msg := StatusOf(err)
	if status >= 500 {
		h.logger.Printf("error: %v", errorCause(err))
	}
	writeError(w, status, msg)
}

func errorCause(err error) error {
	if e, ok := err.(*Error); ok && e.Err != nil {
		return e.Err
	}
	return err
}

// handle decodes Req, calls op and writes its result.
func handle[Req, Resp any](h *Handler, w http.ResponseWriter, r *http.Request, op func(context.Context, Req) (Resp, error)) {
	var req Req
	if !decode(w, r, &req) {
		return
	}
	resp, err := op(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) autoMatrix(w http.ResponseWriter, r *http.Request) {
	handle(h, w, r, h.svc.AutoMatrix)
}

func (h *Handler) bellmanFord(w http.ResponseWriter, r *http.Request) {
	handle(h, w, r, h.svc.ShortestPath)
}

func (h *Handler) knapsack(w http.ResponseWriter, r *http.Request) {
	handle(h, w, r, h.svc.Knapsack)
}

func (h *Handler) thresholdAdjacency(w http.ResponseWriter, r *http.Request) {
	handle(h, w, r, h.svc.ThresholdAdjacency)
}

func (h *Handler) coloring(w http.ResponseWriter, r *http.Request) {
	handle(h, w, r, h.svc.Coloring)
}

func (h *Handler) renderGraph(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported format. Use svg or png.")
		return
	}
	var req model.GraphRenderRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Network.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid network: "+err.Error()+".")
		return
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, render.NewLayout(req, h.RenderOptions()), format); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

func (h *Handler) renderAllocation(w http.ResponseWriter, r *http.Request) {
	var req model.AllocationRenderRequest
	if !decode(w, r, &req) {
		return
	}
	var buf bytes.Buffer
	if err := render.AllocationPie(&buf, req.Allocation, req.Title, h.RenderOptions()); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", render.FormatSVG.ContentType())
	w.Write(buf.Bytes())
}

// MetricsSnapshot is the /api/metrics body.
type MetricsSnapshot struct {
	Enabled bool                  `json:"enabled"`
	Timings []metrics.TimingStats `json:"timings"`
}

func (h *Handler) serveMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetricsSnapshot{
		Enabled: metrics.Enabled(),
		Timings: metrics.AllTimingStats(),
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
