// Package api serves the planning endpoints as JSON over HTTP.
//
// Service holds the operations and can be used in-process; Handler maps
// them to routes and turns errors into status codes.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/vanderheijden86/reliefplan/pkg/debug"
	"github.com/vanderheijden86/reliefplan/pkg/geo"
	"github.com/vanderheijden86/reliefplan/pkg/model"
	"github.com/vanderheijden86/reliefplan/pkg/solver"
)

// User-facing messages.
const (
	MsgTooFewPlaces     = "Provide at least two place names."
	MsgTooFewZones      = "Provide at least two place/zone names."
	MsgDistanceService  = "Distance service error. Try again."
	MsgInvalidJSON      = "Invalid JSON body."
	MsgMethodNotAllowed = "Method not allowed."
	MsgNotFound         = "Not found."
	MsgInternal         = "Internal server error."
)

// Error is a failure with a fixed HTTP status and user-facing message.
type Error struct {
	Status  int
	Message string
	Err     error // underlying cause, never shown to users
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf maps an error from Service to an HTTP status and message.
func StatusOf(err error) (int, string) {
	var apiErr *Error
	var solverErr *solver.Error
	var geoErr *geo.GeocodeError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status, apiErr.Message
	case errors.As(err, &solverErr):
		return http.StatusBadRequest, solverErr.Message
	case errors.As(err, &geoErr):
		return http.StatusBadRequest, geoErr.Error()
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// MatrixSource builds distance matrices for place names.
type MatrixSource interface {
	Build(ctx context.Context, places []string, metric model.Metric) (*geo.Matrix, error)
}

// Service runs the planning operations in-process.
type Service struct {
	matrix MatrixSource
}

// NewService creates a Service. matrix may be nil when the geography
// endpoints are not needed; they then fail with a service error.
func NewService(matrix MatrixSource) *Service {
	return &Service{matrix: matrix}
}

// AutoMatrix geocodes places and returns their distance matrix in km.
func (s *Service) AutoMatrix(ctx context.Context, req model.AutoMatrixRequest) (model.AutoMatrixResponse, error) {
	places := model.CleanPlaces(req.Places)
	if len(places) < 2 {
		return model.AutoMatrixResponse{}, &Error{Status: http.StatusBadRequest, Message: MsgTooFewPlaces}
	}
	metric := model.ParseMetric(req.Metric)

	m, err := s.buildMatrix(ctx, places, metric)
	if err != nil {
		return model.AutoMatrixResponse{}, err
	}
	return model.AutoMatrixResponse{
		Names:     m.Names,
		Coords:    m.Coords,
		Adjacency: m.Distances,
		Unit:      model.UnitKm,
		Metric:    metric,
	}, nil
}

// ThresholdAdjacency connects places no further apart than the threshold.
func (s *Service) ThresholdAdjacency(ctx context.Context, req model.ThresholdRequest) (model.ThresholdResponse, error) {
	places := model.CleanPlaces(req.Places)
	if len(places) < 2 {
		return model.ThresholdResponse{}, &Error{Status: http.StatusBadRequest, Message: MsgTooFewZones}
	}
	metric := model.ParseMetric(req.Metric)
	threshold := req.ThresholdKm.Or(model.DefaultThresholdKm)

	m, err := s.buildMatrix(ctx, places, metric)
	if err != nil {
		return model.ThresholdResponse{}, err
	}
	return model.ThresholdResponse{
		Names:       m.Names,
		Coords:      m.Coords,
		Distance:    m.Distances,
		Adjacency:   solver.ThresholdAdjacency(m.Distances, threshold),
		ThresholdKm: threshold,
	}, nil
}

func (s *Service) buildMatrix(ctx context.Context, places []string, metric model.Metric) (*geo.Matrix, error) {
	if s.matrix == nil {
		return nil, &Error{Status: http.StatusBadGateway, Message: MsgDistanceService, Err: errors.New("no distance source configured")}
	}
	m, err := s.matrix.Build(ctx, places, metric)
	if err != nil {
		var geoErr *geo.GeocodeError
		if errors.As(err, &geoErr) {
			return nil, geoErr
		}
		debug.Log("matrix build failed: %v", err)
		return nil, &Error{Status: http.StatusBadGateway, Message: MsgDistanceService, Err: err}
	}
	return m, nil
}

// ShortestPath runs Bellman-Ford.
func (s *Service) ShortestPath(_ context.Context, req model.ShortestPathRequest) (model.ShortestPathResponse, error) {
	return solver.ShortestPath(req)
}

// Knapsack runs the fractional knapsack allocation.
func (s *Service) Knapsack(_ context.Context, req model.KnapsackRequest) (model.KnapsackResponse, error) {
	return solver.Allocate(req)
}

// Coloring runs greedy zone scheduling.
func (s *Service) Coloring(_ context.Context, req model.ColoringRequest) (model.ColoringResponse, error) {
	return solver.Color(req)
}
