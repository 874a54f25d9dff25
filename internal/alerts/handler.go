package alerts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetPatientAlerts handles GET /api/patients/{id}/alerts.
func (h *Handler) GetPatientAlerts(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	alerts, err := h.service.ForPatient(patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute alerts"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetAllAlerts handles GET /api/alerts.
func (h *Handler) GetAllAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.service.All()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
