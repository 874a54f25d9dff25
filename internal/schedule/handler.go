package schedule

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/pagination"
	"github.com/CareMeds-Health/medication-service/internal/telemetry"
)

type Handler struct {
	service *Service
	metrics *telemetry.Metrics
}

func NewHandler(service *Service, metrics *telemetry.Metrics) *Handler {
	return &Handler{service: service, metrics: metrics}
}

// GetDosesForDate handles GET /api/doses?date=YYYY-MM-DD&patient_id=...
// Without a date it returns today's schedule.
func (h *Handler) GetDosesForDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patientID := q.Get("patient_id")

	var doses []model.DoseRecord
	var err error
	if date := q.Get("date"); date != "" {
		doses, err = h.service.DosesForDate(date, patientID)
	} else {
		doses, err = h.service.TodayDoses(patientID)
	}
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses": doses,
		"count": len(doses),
	})
}

// GetDosesForRange handles GET /api/doses/range?start=...&end=...
func (h *Handler) GetDosesForRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	doses, err := h.service.DosesForRange(q.Get("start"), q.Get("end"), q.Get("patient_id"))
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses": doses,
		"count": len(doses),
	})
}

// GetWeeklyDoses handles GET /api/doses/week for the current Monday-based week.
func (h *Handler) GetWeeklyDoses(w http.ResponseWriter, r *http.Request) {
	doses, err := h.service.WeeklyDoses(r.URL.Query().Get("patient_id"))
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses": doses,
		"count": len(doses),
	})
}

// GetMonthlyDoses handles GET /api/doses/month for the current calendar month.
func (h *Handler) GetMonthlyDoses(w http.ResponseWriter, r *http.Request) {
	doses, err := h.service.MonthlyDoses(r.URL.Query().Get("patient_id"))
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses": doses,
		"count": len(doses),
	})
}

// GetHistory handles GET /api/doses/history with optional filters and
// page/limit pagination.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := HistoryFilters{
		PatientID:  q.Get("patient_id"),
		MedicineID: q.Get("medicine_id"),
		Status:     model.DoseStatus(q.Get("status")),
		StartDate:  q.Get("start"),
		EndDate:    q.Get("end"),
	}

	records := h.service.History(filters)

	params := pagination.ParseParams(r)
	start, end := params.Bounds(len(records))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses":      records[start:end],
		"pagination": params.CalculateMeta(len(records)),
	})
}

// GetUpcomingDoses handles GET /api/doses/upcoming?limit=N (default 10).
func (h *Handler) GetUpcomingDoses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	doses, err := h.service.UpcomingDoses(q.Get("patient_id"), limit)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses": doses,
		"count": len(doses),
	})
}

// GetOverdueDoses handles GET /api/doses/overdue.
func (h *Handler) GetOverdueDoses(w http.ResponseWriter, r *http.Request) {
	doses, err := h.service.OverdueDoses(r.URL.Query().Get("patient_id"))
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"doses": doses,
		"count": len(doses),
	})
}

// GetAdherence handles GET /api/doses/adherence?start=...&end=...
func (h *Handler) GetAdherence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.service.Adherence(q.Get("start"), q.Get("end"), q.Get("patient_id"))
	if err != nil {
		h.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) MarkTaken(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTransition(w, r)
	if !ok {
		return
	}

	record, err := h.service.MarkTaken(r.Context(), req.MedicineID, req.ScheduledTime, req.Notes)
	if err != nil {
		h.writeTransitionError(w, err, "mark dose taken")
		return
	}

	h.metrics.RecordDoseTransition(r.Context(), "taken")
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) MarkMissed(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTransition(w, r)
	if !ok {
		return
	}

	record, err := h.service.MarkMissed(r.Context(), req.MedicineID, req.ScheduledTime, req.Notes)
	if err != nil {
		h.writeTransitionError(w, err, "mark dose missed")
		return
	}

	h.metrics.RecordDoseTransition(r.Context(), "missed")
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) UndoDose(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTransition(w, r)
	if !ok {
		return
	}

	record, err := h.service.Undo(r.Context(), req.MedicineID, req.ScheduledTime)
	if err != nil {
		h.writeTransitionError(w, err, "undo dose")
		return
	}

	h.metrics.RecordDoseTransition(r.Context(), "undone")
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) decodeTransition(w http.ResponseWriter, r *http.Request) (TransitionRequest, bool) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.MedicineID == "" || req.ScheduledTime.IsZero() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "medicine_id and scheduled_time are required"})
		return req, false
	}
	return req, true
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrMedicineNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		log.Printf("Failed to %s: %v", action, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to " + action})
	}
}

func (h *Handler) writeQueryError(w http.ResponseWriter, err error) {
	var dateErr *InvalidDateError
	if errors.As(err, &dateErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	log.Printf("Failed to query doses: %v", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to query doses"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
