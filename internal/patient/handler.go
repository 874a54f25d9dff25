package patient

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

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: verrs})
			return
		}
		log.Printf("Failed to create patient: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to create patient"})
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients := h.service.List()
	writeJSON(w, http.StatusOK, ListResponse{Patients: patients, Count: len(patients)})
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		} else {
			log.Printf("Failed to get patient: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get patient"})
		}
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		var verrs model.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: verrs})
		case errors.Is(err, ErrPatientNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		default:
			log.Printf("Failed to update patient: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to update patient"})
		}
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		} else {
			log.Printf("Failed to delete patient: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to delete patient"})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
