package schedule

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/model"
)

// MarkTaken transitions the dose identified by its natural key to taken,
// persists the exception record (replacing any record already holding the
// key) and decrements the medicine's stock through the injected ledger.
// A dose already taken is rejected with ErrAlreadyTaken.
func (s *Service) MarkTaken(ctx context.Context, medicineID string, scheduledTime time.Time, notes string) (*model.DoseRecord, error) {
	var result model.DoseRecord
	err := s.store.Update(func(doc *model.Document) error {
		med := doc.FindMedicine(medicineID)
		if med == nil {
			return ErrMedicineNotFound
		}

		existing := doc.FindDoseRecord(medicineID, scheduledTime)
		if existing != nil && existing.Status == model.StatusTaken {
			return ErrAlreadyTaken
		}

		now := s.clock.Now()
		record := model.DoseRecord{
			ID:            uuid.New().String(),
			MedicineID:    medicineID,
			PatientID:     med.PatientID,
			ScheduledTime: scheduledTime,
			Status:        model.StatusTaken,
			ActualTime:    &now,
			Notes:         strings.TrimSpace(notes),
		}
		if existing != nil {
			record.ID = existing.ID
			if record.Notes == "" {
				record.Notes = existing.Notes
			}
			*existing = record
		} else {
			doc.DoseRecords = append(doc.DoseRecords, record)
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A missed dose consumed no inventory, so the stock side effect applies
	// on every entry into taken regardless of the prior status.
	if err := s.ledger.Decrement(ctx, medicineID); err != nil {
		log.Printf("Failed to decrement stock for medicine %s: %v", medicineID, err)
	}

	s.publishDose(ctx, messaging.EventDoseTaken, &result)
	return &result, nil
}

// MarkMissed transitions the dose to missed with the same upsert-by-natural-
// key persistence. A confirmed (taken) dose cannot be demoted. Stock is
// untouched: a missed dose consumes no inventory.
func (s *Service) MarkMissed(ctx context.Context, medicineID string, scheduledTime time.Time, notes string) (*model.DoseRecord, error) {
	var result model.DoseRecord
	err := s.store.Update(func(doc *model.Document) error {
		med := doc.FindMedicine(medicineID)
		if med == nil {
			return ErrMedicineNotFound
		}

		existing := doc.FindDoseRecord(medicineID, scheduledTime)
		if existing != nil && existing.Status == model.StatusTaken {
			return ErrTakenToMissed
		}

		now := s.clock.Now()
		record := model.DoseRecord{
			ID:            uuid.New().String(),
			MedicineID:    medicineID,
			PatientID:     med.PatientID,
			ScheduledTime: scheduledTime,
			Status:        model.StatusMissed,
			ActualTime:    &now,
			Notes:         strings.TrimSpace(notes),
		}
		if existing != nil {
			record.ID = existing.ID
			if record.Notes == "" {
				record.Notes = existing.Notes
			}
			*existing = record
		} else {
			doc.DoseRecords = append(doc.DoseRecords, record)
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDose(ctx, messaging.EventDoseMissed, &result)
	return &result, nil
}

// Undo deletes the exception record for the natural key, reverting the
// instance to virtual/upcoming. When the prior status was taken, the earlier
// stock decrement is reversed through the ledger. An instance with no record
// is rejected with ErrAlreadyPending.
func (s *Service) Undo(ctx context.Context, medicineID string, scheduledTime time.Time) (*model.DoseRecord, error) {
	var wasTaken bool
	var patientID string
	err := s.store.Update(func(doc *model.Document) error {
		existing := doc.FindDoseRecord(medicineID, scheduledTime)
		if existing == nil {
			return ErrAlreadyPending
		}
		wasTaken = existing.Status == model.StatusTaken
		patientID = existing.PatientID

		records := doc.DoseRecords[:0]
		for _, d := range doc.DoseRecords {
			if !(d.MedicineID == medicineID && d.ScheduledTime.Equal(scheduledTime)) {
				records = append(records, d)
			}
		}
		doc.DoseRecords = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasTaken {
		if err := s.ledger.Increment(ctx, medicineID, 1); err != nil {
			log.Printf("Failed to restore stock for medicine %s: %v", medicineID, err)
		}
	}

	reset := &model.DoseRecord{
		ID:            uuid.New().String(),
		MedicineID:    medicineID,
		PatientID:     patientID,
		ScheduledTime: scheduledTime,
		Status:        model.StatusUpcoming,
	}
	s.publishDose(ctx, messaging.EventDoseUndone, reset)
	return reset, nil
}

func (s *Service) publishDose(ctx context.Context, key string, d *model.DoseRecord) {
	stockLeft := 0
	s.store.View(func(doc *model.Document) {
		if m := doc.FindMedicine(d.MedicineID); m != nil {
			stockLeft = m.StockQuantity
		}
	})

	event := messaging.DoseEvent{
		BaseEvent: messaging.NewBaseEvent(key, uuid.New().String()),
		Data: messaging.DoseEventData{
			MedicineID:    d.MedicineID,
			PatientID:     d.PatientID,
			ScheduledTime: d.ScheduledTime,
			Status:        string(d.Status),
			ActualTime:    d.ActualTime,
			StockLeft:     stockLeft,
		},
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		log.Printf("Failed to publish %s event: %v", key, err)
	}
}
