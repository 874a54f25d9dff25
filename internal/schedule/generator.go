package schedule

import (
	"log"

	"github.com/google/uuid"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/model"
)

// GenerateForDate materializes the dose instances for one medicine on one
// calendar date. Persisted exception records matching the natural key are
// returned verbatim; every other slot becomes a virtual instance with status
// upcoming. The result follows timing order, not chronological order, and is
// independent of the wall clock: overdue promotion happens downstream.
func GenerateForDate(med *model.Medicine, dateStr string, index map[string]*model.DoseRecord) []model.DoseRecord {
	if med == nil || len(med.Timings) == 0 {
		return nil
	}

	// Calendar dates compare lexically in YYYY-MM-DD form.
	if dateStr < med.StartDate {
		return nil
	}
	if med.EndDate != "" && dateStr > med.EndDate {
		return nil
	}

	doses := make([]model.DoseRecord, 0, len(med.Timings))
	for _, timing := range med.Timings {
		scheduled, err := clock.Combine(dateStr, timing)
		if err != nil {
			log.Printf("Skipping invalid timing %q on medicine %s: %v", timing, med.ID, err)
			continue
		}

		if existing, ok := index[model.DoseKey(med.ID, scheduled)]; ok {
			doses = append(doses, *existing)
			continue
		}

		doses = append(doses, model.DoseRecord{
			ID:            uuid.New().String(),
			MedicineID:    med.ID,
			PatientID:     med.PatientID,
			ScheduledTime: scheduled,
			Status:        model.StatusUpcoming,
		})
	}
	return doses
}
