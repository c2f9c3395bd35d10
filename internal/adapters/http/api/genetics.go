package api

import (
	"net/http"

	"github.com/okian/athletix/internal/domain/query"
)

// markersRequest mirrors the query parameters of GET /athletes/{id}/markers.
type markersRequest struct {
	Search   string `query:"search" validate:"max=128"`
	Category string `query:"category" validate:"max=128"`
	Band     string `query:"band" default:"all" validate:"oneof=all high medium low"`
	Sort     string `query:"sort" default:"none" validate:"oneof=none gene genotype rsid dbsnpId category"`
	Limit    int    `query:"limit" validate:"gte=0,lte=10000"`
}

// interpretRequest mirrors the query parameters of GET /interpret.
type interpretRequest struct {
	Category string `query:"category" validate:"required"`
	Gene     string `query:"gene" validate:"required"`
	Genotype string `query:"genotype"`
}

type markersResponse struct {
	AthleteID string      `json:"athleteId"`
	Count     int         `json:"count"`
	Markers   interface{} `json:"markers"`
}

// GeneticsHandler serves marker listings and interpretations.
type GeneticsHandler struct {
	deps GeneticsDependencies
}

// NewGeneticsHandler creates a new genetics handler.
func NewGeneticsHandler(deps GeneticsDependencies) *GeneticsHandler {
	return &GeneticsHandler{deps: deps}
}

// HandleGetMarkers handles GET /athletes/{id}/markers requests.
func (h *GeneticsHandler) HandleGetMarkers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_markers"
	var req markersRequest
	if err := bindQuery(r.Context(), r.URL.Query(), &req); err != nil {
		writeFailure(w, op, err)
		return
	}

	athleteID := r.PathValue("id")
	markers, err := h.deps.Markers(r.Context(), athleteID, query.Options{
		SearchTerm: req.Search,
		Category:   req.Category,
		ImpactBand: req.Band,
		SortKey:    req.Sort,
		Limit:      req.Limit,
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, markersResponse{AthleteID: athleteID, Count: len(markers), Markers: markers})
}

// HandleGetProfile handles GET /athletes/{id}/profile requests.
func (h *GeneticsHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.get_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleInterpret handles GET /interpret?category=&gene=&genotype= requests.
func (h *GeneticsHandler) HandleInterpret(w http.ResponseWriter, r *http.Request) {
	const op = "api.interpret"
	var req interpretRequest
	if err := bindQuery(r.Context(), r.URL.Query(), &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	j, err := h.deps.Interpret(req.Category, req.Gene, req.Genotype)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}
