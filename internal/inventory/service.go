package inventory

import (
	"context"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// RefillSoonDays is the horizon for the needs-refill-soon summary bucket.
const RefillSoonDays = 7

type Service struct {
	store     *store.Store
	clock     clock.Clock
	publisher messaging.PublisherInterface
}

func NewService(st *store.Store, clk clock.Clock, publisher messaging.PublisherInterface) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if publisher == nil {
		publisher = messaging.Noop{}
	}
	return &Service{store: st, clock: clk, publisher: publisher}
}

// AddRefill records a stock addition and applies it to the medicine's
// quantity in the same atomic update.
func (s *Service) AddRefill(ctx context.Context, medicineID string, req AddRefillRequest) (*model.RefillRecord, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	date := req.Date
	if date == "" {
		date = clock.FormatDate(s.clock.Now())
	}

	record := model.RefillRecord{
		ID:            uuid.New().String(),
		MedicineID:    medicineID,
		Date:          date,
		QuantityAdded: req.Quantity,
		Notes:         req.Notes,
	}

	var med model.Medicine
	err := s.store.Update(func(doc *model.Document) error {
		m := doc.FindMedicine(medicineID)
		if m == nil {
			return ErrMedicineNotFound
		}
		m.StockQuantity += req.Quantity
		med = *m
		doc.RefillRecords = append(doc.RefillRecords, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRefill(ctx, &med, req.Quantity)
	return &record, nil
}

// EditRefill rewrites a refill record and applies the quantity delta to the
// medicine's stock, floored at zero.
func (s *Service) EditRefill(ctx context.Context, refillID string, req EditRefillRequest) (*model.RefillRecord, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated model.RefillRecord
	err := s.store.Update(func(doc *model.Document) error {
		r := doc.FindRefill(refillID)
		if r == nil {
			return ErrRefillNotFound
		}
		m := doc.FindMedicine(r.MedicineID)
		if m == nil {
			return ErrMedicineNotFound
		}

		delta := req.Quantity - r.QuantityAdded
		m.StockQuantity += delta
		if m.StockQuantity < 0 {
			m.StockQuantity = 0
		}

		r.QuantityAdded = req.Quantity
		if req.Notes != nil {
			r.Notes = *req.Notes
		}
		updated = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRefill removes the record and subtracts its quantity from stock,
// floored at zero.
func (s *Service) DeleteRefill(ctx context.Context, refillID string) error {
	return s.store.Update(func(doc *model.Document) error {
		r := doc.FindRefill(refillID)
		if r == nil {
			return ErrRefillNotFound
		}

		if m := doc.FindMedicine(r.MedicineID); m != nil {
			m.StockQuantity -= r.QuantityAdded
			if m.StockQuantity < 0 {
				m.StockQuantity = 0
			}
		}

		refills := doc.RefillRecords[:0]
		for _, cand := range doc.RefillRecords {
			if cand.ID != refillID {
				refills = append(refills, cand)
			}
		}
		doc.RefillRecords = refills
		return nil
	})
}

// CurrentStock reports the medicine's stock level, or false when the
// medicine does not exist.
func (s *Service) CurrentStock(medicineID string) (int, bool) {
	var level int
	var found bool
	s.store.View(func(doc *model.Document) {
		if m := doc.FindMedicine(medicineID); m != nil {
			level = m.StockQuantity
			found = true
		}
	})
	return level, found
}

// RefillsByMedicine returns the refill history newest-first.
func (s *Service) RefillsByMedicine(medicineID string) []model.RefillRecord {
	var out []model.RefillRecord
	s.store.View(func(doc *model.Document) {
		for _, r := range doc.RefillRecords {
			if r.MedicineID == medicineID {
				out = append(out, r)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	if out == nil {
		out = []model.RefillRecord{}
	}
	return out
}

// Projection estimates the run-out date at the current dose rate: today plus
// stock divided by doses per day. Medicines with no scheduled doses have no
// projection.
func (s *Service) Projection(medicineID string) (*RefillProjection, error) {
	var med *model.Medicine
	s.store.View(func(doc *model.Document) {
		if m := doc.FindMedicine(medicineID); m != nil {
			cp := *m
			med = &cp
		}
	})
	if med == nil {
		return nil, ErrMedicineNotFound
	}
	return s.project(med), nil
}

func (s *Service) project(med *model.Medicine) *RefillProjection {
	p := &RefillProjection{MedicineID: med.ID, MedicineName: med.Name}
	perDay := med.DailyDoseCount()
	if perDay == 0 {
		return p
	}
	daysLeft := med.StockQuantity / perDay
	p.DaysLeft = daysLeft
	p.Date = clock.FormatDate(s.clock.Now().AddDate(0, 0, daysLeft))
	return p
}

// NeedsRefillSoon reports whether the medicine runs out within the horizon.
func (s *Service) NeedsRefillSoon(med *model.Medicine) bool {
	if med.DailyDoseCount() == 0 {
		return false
	}
	return med.StockQuantity/med.DailyDoseCount() <= RefillSoonDays
}

// Summarize aggregates stock health across the catalog, optionally scoped to
// one patient. Out-of-stock medicines are not double counted as low stock.
func (s *Service) Summarize(patientID string) *Summary {
	sum := &Summary{}
	s.store.View(func(doc *model.Document) {
		for i := range doc.Medicines {
			m := &doc.Medicines[i]
			if patientID != "" && m.PatientID != patientID {
				continue
			}
			sum.TotalMedicines++
			sum.TotalStock += m.StockQuantity
			switch {
			case m.OutOfStock():
				sum.OutOfStockCount++
			case m.LowStock():
				sum.LowStockCount++
			}
			if s.NeedsRefillSoon(m) {
				sum.NeedsRefillSoon++
			}
		}
	})
	return sum
}

// Projections lists run-out estimates for every medicine with scheduled
// doses, soonest first.
func (s *Service) Projections(patientID string) []RefillProjection {
	var out []RefillProjection
	s.store.View(func(doc *model.Document) {
		for i := range doc.Medicines {
			m := &doc.Medicines[i]
			if patientID != "" && m.PatientID != patientID {
				continue
			}
			if m.DailyDoseCount() == 0 {
				continue
			}
			out = append(out, *s.project(m))
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLeft < out[j].DaysLeft
	})
	if out == nil {
		out = []RefillProjection{}
	}
	return out
}

func (s *Service) publishRefill(ctx context.Context, med *model.Medicine, added int) {
	event := messaging.StockEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventStockRefilled, uuid.New().String()),
		Data: messaging.StockEventData{
			MedicineID:    med.ID,
			MedicineName:  med.Name,
			StockQuantity: med.StockQuantity,
			Threshold:     med.LowStockThreshold,
			QuantityAdded: added,
		},
	}
	if err := s.publisher.Publish(ctx, messaging.EventStockRefilled, event); err != nil {
		log.Printf("Failed to publish %s event: %v", messaging.EventStockRefilled, err)
	}
}
