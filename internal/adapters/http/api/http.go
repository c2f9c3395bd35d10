// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/athletix/internal/app"
	"github.com/okian/athletix/internal/domain/cohort"
	"github.com/okian/athletix/internal/domain/interpret"
	"github.com/okian/athletix/internal/domain/model"
	"github.com/okian/athletix/internal/domain/query"
	"github.com/okian/athletix/internal/domain/scoring"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	IngestDependencies
	GeneticsDependencies
	BiometricsDependencies
}

// IngestDependencies accept raw upstream documents.
type IngestDependencies interface {
	SubmitGenetic(ctx context.Context, athleteID, key string, docs []json.RawMessage) (service.Submission, error)
	SubmitBiometrics(ctx context.Context, athleteID, key string, docs []json.RawMessage) (service.Submission, error)
}

// GeneticsDependencies expose marker listing and interpretation.
type GeneticsDependencies interface {
	Markers(ctx context.Context, athleteID string, opts query.Options) ([]model.MarkerRecord, error)
	Profile(ctx context.Context, athleteID string) (service.Profile, error)
	Interpret(category, gene, genotype string) (interpret.Judgment, error)
}

// BiometricsDependencies expose readiness and cohort views.
type BiometricsDependencies interface {
	Readiness(ctx context.Context, athleteID string) (scoring.Result, error)
	BiometricHistory(ctx context.Context, athleteID string) ([]service.HistoryPoint, error)
	TeamAverage(ctx context.Context, metric, excludeAthleteID string) (float64, bool, error)
	Compare(ctx context.Context, athleteID, metric string) (cohort.Comparison, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	ingestHandler     *IngestHandler
	geneticsHandler   *GeneticsHandler
	biometricsHandler *BiometricsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		ingestHandler:     NewIngestHandler(deps),
		geneticsHandler:   NewGeneticsHandler(deps),
		biometricsHandler: NewBiometricsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /athletes/{id}/genetics", MetricsMiddleware(s.ingestHandler.HandlePostGenetics, "post_genetics"))
	mux.HandleFunc("POST /athletes/{id}/biometrics", MetricsMiddleware(s.ingestHandler.HandlePostBiometrics, "post_biometrics"))

	mux.HandleFunc("GET /athletes/{id}/markers", MetricsMiddleware(s.geneticsHandler.HandleGetMarkers, "markers"))
	mux.HandleFunc("GET /athletes/{id}/profile", MetricsMiddleware(s.geneticsHandler.HandleGetProfile, "profile"))
	mux.HandleFunc("GET /interpret", MetricsMiddleware(s.geneticsHandler.HandleInterpret, "interpret"))

	mux.HandleFunc("GET /athletes/{id}/readiness", MetricsMiddleware(s.biometricsHandler.HandleGetReadiness, "readiness"))
	mux.HandleFunc("GET /athletes/{id}/biometrics", MetricsMiddleware(s.biometricsHandler.HandleGetHistory, "biometrics"))
	mux.HandleFunc("GET /athletes/{id}/compare", MetricsMiddleware(s.biometricsHandler.HandleCompare, "compare"))
	mux.HandleFunc("GET /team/average", MetricsMiddleware(s.biometricsHandler.HandleTeamAverage, "team_average"))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Details: validationErrors(err)})
}

// writeFailure maps service and API sentinels to HTTP statuses.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownMetric):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrNoReadiness):
		writeError(w, http.StatusNotFound, "no_readiness", Wrap(op, err))
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
