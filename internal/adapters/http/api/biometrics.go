package api

import (
	"net/http"
)

// metricRequest mirrors the query parameters of GET /athletes/{id}/compare.
type metricRequest struct {
	Metric string `query:"metric" default:"hrv_night" validate:"max=64"`
}

// teamAverageRequest mirrors the query parameters of GET /team/average.
type teamAverageRequest struct {
	Metric  string `query:"metric" validate:"required,max=64"`
	Exclude string `query:"exclude" validate:"max=128"`
}

type teamAverageResponse struct {
	Metric    string   `json:"metric"`
	Excluded  string   `json:"excluded,omitempty"`
	Available bool     `json:"available"`
	Average   *float64 `json:"average,omitempty"`
}

// BiometricsHandler serves readiness and cohort views.
type BiometricsHandler struct {
	deps BiometricsDependencies
}

// NewBiometricsHandler creates a new biometrics handler.
func NewBiometricsHandler(deps BiometricsDependencies) *BiometricsHandler {
	return &BiometricsHandler{deps: deps}
}

// HandleGetReadiness handles GET /athletes/{id}/readiness requests.
func (h *BiometricsHandler) HandleGetReadiness(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Readiness(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.get_readiness", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetHistory handles GET /athletes/{id}/biometrics requests.
func (h *BiometricsHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.deps.BiometricHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.get_biometrics", err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// HandleCompare handles GET /athletes/{id}/compare?metric= requests.
func (h *BiometricsHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	var req metricRequest
	if err := bindQuery(r.Context(), r.URL.Query(), &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	c, err := h.deps.Compare(r.Context(), r.PathValue("id"), req.Metric)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleTeamAverage handles GET /team/average?metric=&exclude= requests. An
// empty cohort is reported as unavailable rather than as zero.
func (h *BiometricsHandler) HandleTeamAverage(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_average"
	var req teamAverageRequest
	if err := bindQuery(r.Context(), r.URL.Query(), &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	avg, ok, err := h.deps.TeamAverage(r.Context(), req.Metric, req.Exclude)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	resp := teamAverageResponse{Metric: req.Metric, Excluded: req.Exclude, Available: ok}
	if ok {
		resp.Average = &avg
	}
	writeJSON(w, http.StatusOK, resp)
}
