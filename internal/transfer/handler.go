package transfer

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ExportData handles GET /api/data/export.
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	bundle := h.service.Export()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="medication-data.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(bundle)
}

// ImportData handles POST /api/data/import?mode=replace|merge.
func (h *Handler) ImportData(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	mode := ImportMode(r.URL.Query().Get("mode"))
	if err := h.service.Import(r.Context(), raw, mode); err != nil {
		var importErr *ImportError
		if errors.As(err, &importErr) {
			writeJSON(w, http.StatusBadRequest, ImportResponse{Imported: false, Errors: importErr.Problems})
			return
		}
		log.Printf("Failed to import data: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to import data"})
		return
	}

	if mode != ModeMerge {
		mode = ModeReplace
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: true, Mode: string(mode)})
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Settings())
}

// UpdateSettings handles PUT /api/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.service.UpdateSettings(req)
	if err != nil {
		var importErr *ImportError
		if errors.As(err, &importErr) {
			writeJSON(w, http.StatusBadRequest, ImportResponse{Imported: false, Errors: importErr.Problems})
			return
		}
		log.Printf("Failed to update settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to update settings"})
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// ClearData handles DELETE /api/data.
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		log.Printf("Failed to clear data: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to clear data"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
