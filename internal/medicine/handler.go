package medicine

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/CareMeds-Health/medication-service/internal/model"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	var req CreateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	med, candidates, err := h.service.Create(r.Context(), req)
	if err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: verrs})
		case errors.Is(err, ErrDuplicateMedicine):
			writeJSON(w, http.StatusConflict, DuplicateResponse{Error: err.Error(), Candidates: candidates})
		case errors.Is(err, ErrPatientNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		default:
			log.Printf("Failed to create medicine: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to create medicine"})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(med)
}

func (h *Handler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	meds := h.service.List(q.Get("patient_id"), q.Get("q"), q.Get("sort"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"medicines": meds,
		"count":     len(meds),
	})
}

func (h *Handler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	med, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, ErrMedicineNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		} else {
			log.Printf("Failed to get medicine: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get medicine"})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(med)
}

func (h *Handler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateMedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	med, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: verrs})
		case errors.Is(err, ErrMedicineNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		default:
			log.Printf("Failed to update medicine: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to update medicine"})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(med)
}

func (h *Handler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrMedicineNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		} else {
			log.Printf("Failed to delete medicine: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to delete medicine"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	med, err := h.service.SetStock(r.Context(), id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrMedicineNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			log.Printf("Failed to set stock: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to set stock"})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(med)
}

func (h *Handler) CheckDuplicates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	dosage := q.Get("dosage")
	if name == "" || dosage == "" {
		http.Error(w, "name and dosage are required", http.StatusBadRequest)
		return
	}

	candidates := h.service.CheckDuplicates(name, dosage, q.Get("exclude_id"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
