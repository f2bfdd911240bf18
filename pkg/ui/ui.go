// Package ui serves the browser front end: one page per planning scenario,
// each built from a form, submitted back to the server and answered with
// text plus an inline drawing. Pages work without JavaScript.
package ui

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/vanderheijden86/reliefplan/pkg/model"
	"github.com/vanderheijden86/reliefplan/pkg/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Planner is the set of planning operations the pages call. The HTTP
// client and the in-process API service both satisfy it.
type Planner interface {
	AutoMatrix(ctx context.Context, req model.AutoMatrixRequest) (model.AutoMatrixResponse, error)
	ShortestPath(ctx context.Context, req model.ShortestPathRequest) (model.ShortestPathResponse, error)
	Knapsack(ctx context.Context, req model.KnapsackRequest) (model.KnapsackResponse, error)
	ThresholdAdjacency(ctx context.Context, req model.ThresholdRequest) (model.ThresholdResponse, error)
	Coloring(ctx context.Context, req model.ColoringRequest) (model.ColoringResponse, error)
}

// Settings are the page defaults. They can be swapped while serving.
type Settings struct {
	PlaceCount  int
	ZoneCount   int
	ThresholdKm float64
	Metric      model.Metric
	Render      render.Options
}

// DefaultSettings matches a fresh install.
func DefaultSettings() Settings {
	return Settings{
		PlaceCount:  5,
		ZoneCount:   4,
		ThresholdKm: model.DefaultThresholdKm,
		Metric:      model.MetricRoad,
	}
}

// Server renders the pages.
type Server struct {
	planner  Planner
	pages    map[string]*template.Template
	settings atomic.Pointer[Settings]
	logger   *log.Logger
	mux      *http.ServeMux
}

// New parses the embedded templates and mounts the page routes.
func New(planner Planner, settings Settings, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		planner: planner,
		pages:   make(map[string]*template.Template),
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.settings.Store(&settings)

	for _, page := range []string{"index.html", "route.html", "allocation.html", "coloring.html"} {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		s.pages[page] = t
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	s.mux.Handle("/ui/static/", http.StripPrefix("/ui/static/", http.FileServer(http.FS(static))))
	s.mux.HandleFunc("/ui/route", s.handleRoute)
	s.mux.HandleFunc("/ui/allocation", s.handleAllocation)
	s.mux.HandleFunc("/ui/coloring", s.handleColoring)
	s.mux.HandleFunc("/", s.handleIndex)
	return s, nil
}

// Settings returns the current page defaults.
func (s *Server) Settings() Settings {
	return *s.settings.Load()
}

// SetSettings swaps the page defaults.
func (s *Server) SetSettings(settings Settings) {
	s.settings.Store(&settings)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func (s *Server) renderPage(w http.ResponseWriter, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		s.logger.Printf("render %s: %v", page, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, "index.html", pageData{Title: "Disaster Relief Planner", Nav: "home"})
}

// inlineSVG returns svg markup without the XML prolog so it can sit inside
// an HTML document. svgo escapes all text it writes.
func inlineSVG(raw []byte) template.HTML {
	out := string(raw)
	if i := strings.Index(out, "<svg"); i > 0 {
		out = out[i:]
	}
	return template.HTML(out)
}

func (s *Server) graphSVG(req model.GraphRenderRequest) template.HTML {
	var buf bytes.Buffer
	if err := render.SVG(&buf, render.NewLayout(req, s.Settings().Render)); err != nil {
		s.logger.Printf("draw graph: %v", err)
		return ""
	}
	return inlineSVG(buf.Bytes())
}

func (s *Server) pieSVG(rows []model.AllocationRow) template.HTML {
	var buf bytes.Buffer
	if err := render.AllocationPie(&buf, rows, "", s.Settings().Render); err != nil {
		s.logger.Printf("draw allocation: %v", err)
		return ""
	}
	return inlineSVG(buf.Bytes())
}
