package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saptarishi/jyotishai/internal/chart"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// SaveChartRequest is the body of POST /api/v1/birth-charts.
type SaveChartRequest struct {
	Label string           `json:"label"`
	Birth models.BirthData `json:"birth_data"`
}

func (r *SaveChartRequest) birth() models.BirthData { return r.Birth }

// handleSaveBirthChart computes and persists a chart under the caller's
// user id. Birth fields are sealed when an encryption key is configured.
func (s *Server) handleSaveBirthChart(w http.ResponseWriter, r *http.Request) {
	var req SaveChartRequest
	if !decodeBirth(w, r, &req) {
		return
	}

	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chartJSON, err := json.Marshal(natal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hash, err := s.store.SaveBirthChart(r.Context(), userID(r), req.Label, req.Birth, chartJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: map[string]interface{}{
		"birth_hash": hash,
		"chart":      natal,
	}})
}

func (s *Server) handleListBirthCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := s.store.BirthChartsForUser(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: charts})
}

func (s *Server) handleGetBirthChart(w http.ResponseWriter, r *http.Request) {
	saved, chartJSON, err := s.store.BirthChart(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if saved == nil {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"saved": saved,
		"chart": json.RawMessage(chartJSON),
	}})
}

// handleDeleteBirthChart removes the chart and every stored insight
// derived from it.
func (s *Server) handleDeleteBirthChart(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	saved, _, err := s.store.BirthChart(r.Context(), hash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if saved == nil {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	if err := s.store.DeleteBirthChart(r.Context(), hash); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{"deleted": true}})
}
