package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// OverdueThresholdMinutes is the grace period after which an unacted
// upcoming dose is reported as overdue. The threshold is exclusive.
const OverdueThresholdMinutes = 30

// StockLedger is the stock side effect the state machine coordinates.
// Decrement floors at zero and never fails for an existing medicine.
type StockLedger interface {
	Decrement(ctx context.Context, medicineID string) error
	Increment(ctx context.Context, medicineID string, n int) error
}

/// Service is the schedule engine: it derives the full dose calendar from
// medicine definitions plus the sparse exception records, classifies each
// instance against the clock, and applies state transitions.
type Service struct {
	store     *store.Store
	ledger    StockLedger
	clock     clock.Clock
	publisher messaging.PublisherInterface
}

func NewService(st *store.Store, ledger StockLedger, clk clock.Clock, publisher messaging.PublisherInterface) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if publisher == nil {
		publisher = messaging.Noop{}
	}
	return &Service{store: st, ledger: ledger, clock: clk, publisher: publisher}
}

// HistoryFilters narrows the dose history view.
type HistoryFilters struct {
	PatientID  string
	MedicineID string
	Status     model.DoseStatus
	StartDate  string
	EndDate    string
}

// AdherenceStats summarizes dose outcomes. Rate counts taken against
// taken+missed; unacted doses do not weigh in.
type AdherenceStats struct {
	Total         int `json:"total"`
	Taken         int `json:"taken"`
	Missed        int `json:"missed"`
	Overdue       int `json:"overdue"`
	Upcoming      int `json:"upcoming"`
	AdherenceRate int `json:"adherence_rate"`
}

// DosesForDate returns every dose instance for the date across all medicines
// (optionally one patient's), with upcoming instances past the overdue
// threshold promoted to overdue, sorted ascending by scheduled time.
func (s *Service) DosesForDate(dateStr, patientID string) ([]model.DoseRecord, error) {
	if !model.ValidDate(dateStr) {
		return nil, &InvalidDateError{Date: dateStr}
	}

	now := s.clock.Now()
	var doses []model.DoseRecord
	s.store.View(func(doc *model.Document) {
		index := doc.DoseIndex()
		for i := range doc.Medicines {
			med := &doc.Medicines[i]
			if patientID != "" && med.PatientID != patientID {
				continue
			}
			if doc.FindPatient(med.PatientID) == nil {
				continue
			}
			doses = append(doses, GenerateForDate(med, dateStr, index)...)
		}
	})

	for i := range doses {
		if doses[i].Status == model.StatusUpcoming &&
			clock.IsOverdue(doses[i].ScheduledTime, now, OverdueThresholdMinutes) {
			doses[i].Status = model.StatusOverdue
		}
	}

	sortDoses(doses, true)
	return doses, nil
}

// TodayDoses is DosesForDate for the current date.
func (s *Service) TodayDoses(patientID string) ([]model.DoseRecord, error) {
	return s.DosesForDate(clock.FormatDate(s.clock.Now()), patientID)
}

// DosesForRange materializes every day in [startDate, endDate] inclusive.
func (s *Service) DosesForRange(startDate, endDate, patientID string) ([]model.DoseRecord, error) {
	start, err := clock.ParseDate(startDate)
	if err != nil {
		return nil, &InvalidDateError{Date: startDate}
	}
	end, err := clock.ParseDate(endDate)
	if err != nil {
		return nil, &InvalidDateError{Date: endDate}
	}

	var all []model.DoseRecord
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		doses, err := s.DosesForDate(clock.FormatDate(day), patientID)
		if err != nil {
			return nil, err
		}
		all = append(all, doses...)
	}
	return all, nil
}

// WeeklyDoses covers the current Monday-to-Sunday week.
func (s *Service) WeeklyDoses(patientID string) ([]model.DoseRecord, error) {
	now := s.clock.Now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	monday := now.AddDate(0, 0, 1-weekday)
	sunday := monday.AddDate(0, 0, 6)
	return s.DosesForRange(clock.FormatDate(monday), clock.FormatDate(sunday), patientID)
}

// MonthlyDoses covers the current calendar month.
func (s *Service) MonthlyDoses(patientID string) ([]model.DoseRecord, error) {
	now := s.clock.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return s.DosesForRange(clock.FormatDate(first), clock.FormatDate(last), patientID)
}

// History returns persisted taken/missed records matching the filters,
/// sorted descending by scheduled time: history reads newest-first. Records
// whose medicine or patient no longer resolves are dropped.
func (s *Service) History(filters HistoryFilters) []model.DoseRecord {
	var start, end time.Time
	if filters.StartDate != "" {
		start, _ = clock.ParseDate(filters.StartDate)
	}
	if filters.EndDate != "" {
		if d, err := clock.ParseDate(filters.EndDate); err == nil {
			end = d.AddDate(0, 0, 1) // inclusive end date
		}
	}

	var out []model.DoseRecord
	s.store.View(func(doc *model.Document) {
		for _, d := range doc.DoseRecords {
			if d.Status != model.StatusTaken && d.Status != model.StatusMissed {
				continue
			}
			if filters.PatientID != "" && d.PatientID != filters.PatientID {
				continue
			}
			if filters.MedicineID != "" && d.MedicineID != filters.MedicineID {
				continue
			}
			if filters.Status != "" && d.Status != filters.Status {
				continue
			}
			if !start.IsZero() && d.ScheduledTime.Before(start) {
				continue
			}
			if !end.IsZero() && !d.ScheduledTime.Before(end) {
				continue
			}
			if doc.FindMedicine(d.MedicineID) == nil || doc.FindPatient(d.PatientID) == nil {
				continue
			}
			out = append(out, d)
		}
	})

	sortDoses(out, false)
	return out
}

// UpcomingDoses returns persisted-or-virtual instances that are strictly in
// the future and still upcoming, soonest first, truncated to limit.
func (s *Service) UpcomingDoses(patientID string, limit int) ([]model.DoseRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	now := s.clock.Now()
	// The horizon spans today plus tomorrow; with a default limit of 10 a
	// same-day schedule never truncates early.
	today, err := s.DosesForDate(clock.FormatDate(now), patientID)
	if err != nil {
		return nil, err
	}
	tomorrow, err := s.DosesForDate(clock.FormatDate(now.AddDate(0, 0, 1)), patientID)
	if err != nil {
		return nil, err
	}

	var out []model.DoseRecord
	for _, d := range append(today, tomorrow...) {
		if d.Status == model.StatusUpcoming && d.ScheduledTime.After(now) {
			out = append(out, d)
		}
	}

	sortDoses(out, true)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// OverdueDoses returns instances past the overdue threshold that were never
// acted on, oldest first: the most urgent lead.
func (s *Service) OverdueDoses(patientID string) ([]model.DoseRecord, error) {
	now := s.clock.Now()
	doses, err := s.DosesForDate(clock.FormatDate(now), patientID)
	if err != nil {
		return nil, err
	}

	var out []model.DoseRecord
	for _, d := range doses {
		if d.Status != model.StatusUpcoming && d.Status != model.StatusOverdue {
			continue
		}
		if clock.IsOverdue(d.ScheduledTime, now, OverdueThresholdMinutes) {
			out = append(out, d)
		}
	}

	sortDoses(out, true)
	return out, nil
}

// Adherence aggregates dose outcomes over a date range.
func (s *Service) Adherence(startDate, endDate, patientID string) (*AdherenceStats, error) {
	doses, err := s.DosesForRange(startDate, endDate, patientID)
	if err != nil {
		return nil, err
	}

	stats := &AdherenceStats{Total: len(doses)}
	for _, d := range doses {
		switch d.Status {
		case model.StatusTaken:
			stats.Taken++
		case model.StatusMissed:
			stats.Missed++
		case model.StatusOverdue:
			stats.Overdue++
		case model.StatusUpcoming:
			stats.Upcoming++
		}
	}
	if completed := stats.Taken + stats.Missed; completed > 0 {
		stats.AdherenceRate = (stats.Taken*100 + completed/2) / completed
	}
	return stats, nil
}

func sortDoses(doses []model.DoseRecord, ascending bool) {
	sort.SliceStable(doses, func(i, j int) bool {
		if ascending {
			return doses[i].ScheduledTime.Before(doses[j].ScheduledTime)
		}
		return doses[j].ScheduledTime.Before(doses[i].ScheduledTime)
	})
}
