package patient

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

func (s *Service) Create(ctx context.Context, req CreatePatientRequest) (*model.Patient, error) {
	now := time.Now().UTC()
	p := model.Patient{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(req.Name),
		Age:               req.Age,
		Photo:             req.Photo,
		MedicalConditions: req.MedicalConditions,
		Allergies:         req.Allergies,
		CaregiverName:     strings.TrimSpace(req.CaregiverName),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p.MedicalConditions == nil {
		p.MedicalConditions = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}

	if verrs := model.ValidatePatient(&p); !verrs.Empty() {
		return nil, verrs
	}

	err := s.store.Update(func(doc *model.Document) error {
		doc.Patients = append(doc.Patients, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventPatientCreated, &p)
	return &p, nil
}

func (s *Service) Get(id string) (*model.Patient, error) {
	var found *model.Patient
	s.store.View(func(doc *model.Document) {
		if p := doc.FindPatient(id); p != nil {
			cp := *p
			found = &cp
		}
	})
	if found == nil {
		return nil, ErrPatientNotFound
	}
	return found, nil
}

// List returns all patients sorted by name.
func (s *Service) List() []model.Patient {
	var out []model.Patient
	s.store.View(func(doc *model.Document) {
		out = append(out, doc.Patients...)
	})
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if out == nil {
		out = []model.Patient{}
	}
	return out
}

func (s *Service) Update(ctx context.Context, id string, req UpdatePatientRequest) (*model.Patient, error) {
	var updated model.Patient
	err := s.store.Update(func(doc *model.Document) error {
		p := doc.FindPatient(id)
		if p == nil {
			return ErrPatientNotFound
		}

		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Age != nil {
			p.Age = *req.Age
		}
		if req.Photo != nil {
			p.Photo = *req.Photo
		}
		if req.MedicalConditions != nil {
			p.MedicalConditions = *req.MedicalConditions
		}
		if req.Allergies != nil {
			p.Allergies = *req.Allergies
		}
		if req.CaregiverName != nil {
			p.CaregiverName = strings.TrimSpace(*req.CaregiverName)
		}

		if verrs := model.ValidatePatient(p); !verrs.Empty() {
			return verrs
		}

		p.UpdatedAt = time.Now().UTC()
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventPatientUpdated, &updated)
	return &updated, nil
}

// Delete removes the patient and cascades to every medicine, dose record and
// refill record belonging to them, all in a single atomic update.
func (s *Service) Delete(ctx context.Context, id string) error {
	var deleted model.Patient
	err := s.store.Update(func(doc *model.Document) error {
		p := doc.FindPatient(id)
		if p == nil {
			return ErrPatientNotFound
		}
		deleted = *p

		owned := make(map[string]bool)
		for _, m := range doc.Medicines {
			if m.PatientID == id {
				owned[m.ID] = true
			}
		}

		patients := doc.Patients[:0]
		for _, cand := range doc.Patients {
			if cand.ID != id {
				patients = append(patients, cand)
			}
		}
		doc.Patients = patients

		medicines := doc.Medicines[:0]
		for _, m := range doc.Medicines {
			if !owned[m.ID] {
				medicines = append(medicines, m)
			}
		}
		doc.Medicines = medicines

		doses := doc.DoseRecords[:0]
		for _, d := range doc.DoseRecords {
			if d.PatientID != id && !owned[d.MedicineID] {
				doses = append(doses, d)
			}
		}
		doc.DoseRecords = doses

		refills := doc.RefillRecords[:0]
		for _, r := range doc.RefillRecords {
			if !owned[r.MedicineID] {
				refills = append(refills, r)
			}
		}
		doc.RefillRecords = refills
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, messaging.EventPatientDeleted, &deleted)
	return nil
}

func (s *Service) publish(ctx context.Context, key string, p *model.Patient) {
	event := messaging.PatientEvent{
		BaseEvent: messaging.NewBaseEvent(key, uuid.New().String()),
		Data: messaging.PatientEventData{
			PatientID:     p.ID,
			Name:          p.Name,
			CaregiverName: p.CaregiverName,
		},
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		log.Printf("Failed to publish %s event: %v", key, err)
	}
}
