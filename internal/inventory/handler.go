package inventory

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/CareMeds-Health/medication-service/internal/telemetry"
)

type Handler struct {
	service *Service
	metrics *telemetry.Metrics
}

func NewHandler(service *Service, metrics *telemetry.Metrics) *Handler {
	return &Handler{service: service, metrics: metrics}
}

// AddRefill handles POST /api/medicines/{id}/refills.
func (h *Handler) AddRefill(w http.ResponseWriter, r *http.Request) {
	medicineID := mux.Vars(r)["id"]

	var req AddRefillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.service.AddRefill(r.Context(), medicineID, req)
	if err != nil {
		h.writeError(w, err, "add refill")
		return
	}

	if level, ok := h.service.CurrentStock(medicineID); ok {
		h.metrics.RecordStockRefill(r.Context(), medicineID, level)
	}
	writeJSON(w, http.StatusCreated, record)
}

// ListRefills handles GET /api/medicines/{id}/refills.
func (h *Handler) ListRefills(w http.ResponseWriter, r *http.Request) {
	medicineID := mux.Vars(r)["id"]
	refills := h.service.RefillsByMedicine(medicineID)
	writeJSON(w, http.StatusOK, RefillListResponse{Refills: refills, Count: len(refills)})
}

// EditRefill handles PUT /api/refills/{id}.
func (h *Handler) EditRefill(w http.ResponseWriter, r *http.Request) {
	refillID := mux.Vars(r)["id"]

	var req EditRefillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.service.EditRefill(r.Context(), refillID, req)
	if err != nil {
		h.writeError(w, err, "edit refill")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// DeleteRefill handles DELETE /api/refills/{id}.
func (h *Handler) DeleteRefill(w http.ResponseWriter, r *http.Request) {
	refillID := mux.Vars(r)["id"]

	if err := h.service.DeleteRefill(r.Context(), refillID); err != nil {
		h.writeError(w, err, "delete refill")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSummary handles GET /api/inventory/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Summarize(r.URL.Query().Get("patient_id")))
}

// GetProjections handles GET /api/inventory/projections.
func (h *Handler) GetProjections(w http.ResponseWriter, r *http.Request) {
	projections := h.service.Projections(r.URL.Query().Get("patient_id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"projections": projections,
		"count":       len(projections),
	})
}

// GetProjection handles GET /api/medicines/{id}/projection.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	medicineID := mux.Vars(r)["id"]

	projection, err := h.service.Projection(medicineID)
	if err != nil {
		h.writeError(w, err, "project refill date")
		return
	}

	writeJSON(w, http.StatusOK, projection)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrMedicineNotFound), errors.Is(err, ErrRefillNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		log.Printf("Failed to %s: %v", action, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to " + action})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
