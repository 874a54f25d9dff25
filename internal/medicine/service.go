package medicine

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// Service owns medicine definitions and their stock counter. Every stock
// mutation in the system funnels through this service.
type Service struct {
	store     *store.Store
	publisher messaging.PublisherInterface
}

func NewService(st *store.Store, publisher messaging.PublisherInterface) *Service {
	if publisher == nil {
		publisher = messaging.Noop{}
	}
	return &Service{store: st, publisher: publisher}
}

// Create validates and stores a new medicine. When another medicine in the
// catalog has the same name and dosage (case and whitespace insensitive) and
// the request does not confirm the duplicate, the candidates are returned
// with ErrDuplicateMedicine so the caller can decide.
func (s *Service) Create(ctx context.Context, req CreateMedicineRequest) (*model.Medicine, []model.Medicine, error) {
	settings := s.store.Snapshot().Settings

	timings := req.Timings
	if len(timings) == 0 {
		timings = req.Frequency.DefaultTimings()
	}

	threshold := settings.DefaultLowStockThreshold
	if req.LowStockThreshold != nil {
		threshold = *req.LowStockThreshold
	}
	reminder := settings.DefaultReminderMinutes
	if req.ReminderMinutesBefore != nil {
		reminder = *req.ReminderMinutesBefore
	}

	now := time.Now().UTC()
	med := model.Medicine{
		ID:                    uuid.New().String(),
		PatientID:             req.PatientID,
		Name:                  strings.TrimSpace(req.Name),
		Dosage:                strings.TrimSpace(req.Dosage),
		Frequency:             req.Frequency,
		Timings:               timings,
		Category:              req.Category,
		Notes:                 strings.TrimSpace(req.Notes),
		StockQuantity:         req.StockQuantity,
		LowStockThreshold:     threshold,
		ReminderMinutesBefore: reminder,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if errs := model.ValidateMedicine(&med); errs != nil {
		return nil, nil, errs
	}

	if !req.ConfirmDuplicate {
		if candidates := s.CheckDuplicates(med.Name, med.Dosage, ""); len(candidates) > 0 {
			return nil, candidates, ErrDuplicateMedicine
		}
	}

	err := s.store.Update(func(doc *model.Document) error {
		if doc.FindPatient(med.PatientID) == nil {
			return ErrPatientNotFound
		}
		doc.Medicines = append(doc.Medicines, med)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, messaging.EventMedicineCreated, &med)
	return &med, nil, nil
}

// Get returns the medicine with the given id.
func (s *Service) Get(id string) (*model.Medicine, error) {
	var found *model.Medicine
	s.store.View(func(doc *model.Document) {
		if m := doc.FindMedicine(id); m != nil {
			cp := *m
			cp.Timings = append([]string(nil), m.Timings...)
			found = &cp
		}
	})
	if found == nil {
		return nil, ErrMedicineNotFound
	}
	return found, nil
}

// List returns medicines, optionally filtered by patient and search query,
// sorted by the given field (name, time or stock).
func (s *Service) List(patientID, query, sortBy string) []model.Medicine {
	var out []model.Medicine
	s.store.View(func(doc *model.Document) {
		for _, m := range doc.Medicines {
			if patientID != "" && m.PatientID != patientID {
				continue
			}
			if query != "" && !matchesQuery(&m, query) {
				continue
			}
			out = append(out, m)
		}
	})

	switch sortBy {
	case "time":
		sort.SliceStable(out, func(i, j int) bool {
			return firstTiming(out[i]) < firstTiming(out[j])
		})
	case "stock":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].StockQuantity < out[j].StockQuantity
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	return out
}

// Update applies a partial update and re-validates the merged definition.
func (s *Service) Update(ctx context.Context, id string, req UpdateMedicineRequest) (*model.Medicine, error) {
	var updated model.Medicine
	err := s.store.Update(func(doc *model.Document) error {
		m := doc.FindMedicine(id)
		if m == nil {
			return ErrMedicineNotFound
		}
		if req.Name != nil {
			m.Name = strings.TrimSpace(*req.Name)
		}
		if req.Dosage != nil {
			m.Dosage = strings.TrimSpace(*req.Dosage)
		}
		if req.Frequency != nil {
			m.Frequency = *req.Frequency
			if len(req.Timings) == 0 && len(m.Timings) == 0 {
				m.Timings = req.Frequency.DefaultTimings()
			}
		}
		if req.Timings != nil {
			m.Timings = req.Timings
		}
		if req.Category != nil {
			m.Category = *req.Category
		}
		if req.Notes != nil {
			m.Notes = strings.TrimSpace(*req.Notes)
		}
		if req.LowStockThreshold != nil {
			m.LowStockThreshold = *req.LowStockThreshold
		}
		if req.ReminderMinutesBefore != nil {
			m.ReminderMinutesBefore = *req.ReminderMinutesBefore
		}
		if req.StartDate != nil {
			m.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			m.EndDate = *req.EndDate
		}
		m.UpdatedAt = time.Now().UTC()

		if errs := model.ValidateMedicine(m); errs != nil {
			return errs
		}
		updated = *m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventMedicineUpdated, &updated)
	return &updated, nil
}

// Delete removes a medicine together with its dose exception records and
// refill records, as one state update.
func (s *Service) Delete(ctx context.Context, id string) error {
	var deleted model.Medicine
	err := s.store.Update(func(doc *model.Document) error {
		m := doc.FindMedicine(id)
		if m == nil {
			return ErrMedicineNotFound
		}
		deleted = *m

		meds := doc.Medicines[:0]
		for _, it := range doc.Medicines {
			if it.ID != id {
				meds = append(meds, it)
			}
		}
		doc.Medicines = meds

		doses := doc.DoseRecords[:0]
		for _, d := range doc.DoseRecords {
			if d.MedicineID != id {
				doses = append(doses, d)
			}
		}
		doc.DoseRecords = doses

		refills := doc.RefillRecords[:0]
		for _, r := range doc.RefillRecords {
			if r.MedicineID != id {
				refills = append(refills, r)
			}
		}
		doc.RefillRecords = refills
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, messaging.EventMedicineDeleted, &deleted)
	return nil
}

// CheckDuplicates returns medicines matching name and dosage, case and
// whitespace insensitive, across the whole catalog. The caller decides what
// to do with the candidates; nothing is merged or rejected automatically.
func (s *Service) CheckDuplicates(name, dosage, excludeID string) []model.Medicine {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	dosageLower := strings.ToLower(strings.TrimSpace(dosage))

	var out []model.Medicine
	s.store.View(func(doc *model.Document) {
		for _, m := range doc.Medicines {
			if excludeID != "" && m.ID == excludeID {
				continue
			}
			if strings.ToLower(strings.TrimSpace(m.Name)) == nameLower &&
				strings.ToLower(strings.TrimSpace(m.Dosage)) == dosageLower {
				out = append(out, m)
			}
		}
	})
	return out
}

// Decrement reduces stock by one, flooring at zero. It never fails for a
// medicine that exists, even at zero stock.
func (s *Service) Decrement(ctx context.Context, medicineID string) error {
	var after model.Medicine
	err := s.store.Update(func(doc *model.Document) error {
		m := doc.FindMedicine(medicineID)
		if m == nil {
			return ErrMedicineNotFound
		}
		if m.StockQuantity > 0 {
			m.StockQuantity--
		}
		m.UpdatedAt = time.Now().UTC()
		after = *m
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyStockLevel(ctx, &after)
	return nil
}

// Increment raises stock by n. Used by the undo path to reverse a decrement.
func (s *Service) Increment(ctx context.Context, medicineID string, n int) error {
	if n < 0 {
		return ErrInvalidQuantity
	}
	return s.store.Update(func(doc *model.Document) error {
		m := doc.FindMedicine(medicineID)
		if m == nil {
			return ErrMedicineNotFound
		}
		m.StockQuantity += n
		m.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// SetStock assigns an absolute stock quantity.
func (s *Service) SetStock(ctx context.Context, medicineID string, quantity int) (*model.Medicine, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	var after model.Medicine
	err := s.store.Update(func(doc *model.Document) error {
		m := doc.FindMedicine(medicineID)
		if m == nil {
			return ErrMedicineNotFound
		}
		m.StockQuantity = quantity
		m.UpdatedAt = time.Now().UTC()
		after = *m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStockLevel(ctx, &after)
	return &after, nil
}

// LowStock returns every medicine at or below its threshold.
func (s *Service) LowStock() []model.Medicine {
	var out []model.Medicine
	s.store.View(func(doc *model.Document) {
		for _, m := range doc.Medicines {
			if m.LowStock() {
				out = append(out, m)
			}
		}
	})
	return out
}

func (s *Service) notifyStockLevel(ctx context.Context, m *model.Medicine) {
	key := ""
	switch {
	case m.OutOfStock():
		key = messaging.EventStockOut
	case m.LowStock():
		key = messaging.EventStockLow
	default:
		return
	}

	event := messaging.StockEvent{
		BaseEvent: messaging.NewBaseEvent(key, uuid.New().String()),
		Data: messaging.StockEventData{
			MedicineID:    m.ID,
			MedicineName:  m.Name,
			StockQuantity: m.StockQuantity,
			Threshold:     m.LowStockThreshold,
		},
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		log.Printf("Failed to publish %s event: %v", key, err)
	}
}

func (s *Service) publish(ctx context.Context, key string, m *model.Medicine) {
	event := messaging.MedicineEvent{
		BaseEvent: messaging.NewBaseEvent(key, uuid.New().String()),
		Data: messaging.MedicineEventData{
			MedicineID: m.ID,
			PatientID:  m.PatientID,
			Name:       m.Name,
			Dosage:     m.Dosage,
		},
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		log.Printf("Failed to publish %s event: %v", key, err)
	}
}

func matchesQuery(m *model.Medicine, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(m.Name), q) ||
		strings.Contains(strings.ToLower(m.Dosage), q) ||
		strings.Contains(strings.ToLower(m.Notes), q)
}

func firstTiming(m model.Medicine) string {
	if len(m.Timings) == 0 {
		return "00:00"
	}
	return m.Timings[0]
}
