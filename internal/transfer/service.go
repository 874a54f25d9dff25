// Package transfer handles whole-document export, import and settings
// management: the backup/restore surface of the service.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// ImportMode selects how imported data is applied.
type ImportMode string

const (
	// ModeReplace discards the current document entirely.
	ModeReplace ImportMode = "replace"
	// ModeMerge appends entities whose IDs are not already present.
	ModeMerge ImportMode = "merge"
)

// Bundle is the export wire format: the document plus export metadata.
type Bundle struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	Patients      []model.Patient      `json:"patients"`
	Medicines     []model.Medicine     `json:"medicines"`
	DoseRecords   []model.DoseRecord   `json:"dose_records"`
	RefillRecords []model.RefillRecord `json:"refill_records"`
	Settings      model.Settings       `json:"settings"`
}

// ImportError carries the per-entity validation failures of a rejected
// import. Nothing is applied when validation fails.
type ImportError struct {
	Problems []string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected: %d validation problems", len(e.Problems))
}

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Export snapshots the whole document as a portable bundle.
func (s *Service) Export() *Bundle {
	doc := s.store.Snapshot()
	return &Bundle{
		Version:       model.SchemaVersion,
		ExportedAt:    time.Now().UTC(),
		Patients:      doc.Patients,
		Medicines:     doc.Medicines,
		DoseRecords:   doc.DoseRecords,
		RefillRecords: doc.RefillRecords,
		Settings:      doc.Settings,
	}
}

// Import validates and applies a bundle. In replace mode the current
// document is discarded wholesale; in merge mode entities with new IDs are
// appended and existing ones are left alone. A failed validation applies
// nothing.
func (s *Service) Import(ctx context.Context, raw []byte, mode ImportMode) error {
	var bundle Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return &ImportError{Problems: []string{"invalid JSON: " + err.Error()}}
	}

	if problems := validate(&bundle); len(problems) > 0 {
		return &ImportError{Problems: problems}
	}

	if mode != ModeMerge {
		mode = ModeReplace
	}

	return s.store.Update(func(doc *model.Document) error {
		switch mode {
		case ModeReplace:
			doc.Patients = bundle.Patients
			doc.Medicines = bundle.Medicines
			doc.DoseRecords = bundle.DoseRecords
			doc.RefillRecords = bundle.RefillRecords
			doc.Settings = bundle.Settings
		case ModeMerge:
			for _, p := range bundle.Patients {
				if doc.FindPatient(p.ID) == nil {
					doc.Patients = append(doc.Patients, p)
				}
			}
			for _, m := range bundle.Medicines {
				if doc.FindMedicine(m.ID) == nil {
					doc.Medicines = append(doc.Medicines, m)
				}
			}
			index := doc.DoseIndex()
			for _, d := range bundle.DoseRecords {
				if _, exists := index[d.Key()]; !exists {
					doc.DoseRecords = append(doc.DoseRecords, d)
				}
			}
			for _, r := range bundle.RefillRecords {
				if doc.FindRefill(r.ID) == nil {
					doc.RefillRecords = append(doc.RefillRecords, r)
				}
			}
		}
		return nil
	})
}

// Settings returns the current settings.
func (s *Service) Settings() model.Settings {
	var out model.Settings
	s.store.View(func(doc *model.Document) {
		out = doc.Settings
	})
	return out
}

// UpdateSettings applies partial settings changes.
func (s *Service) UpdateSettings(req UpdateSettingsRequest) (model.Settings, error) {
	var out model.Settings
	err := s.store.Update(func(doc *model.Document) error {
		if req.DefaultReminderMinutes != nil {
			if *req.DefaultReminderMinutes < 0 {
				return &ImportError{Problems: []string{"default_reminder_minutes cannot be negative"}}
			}
			doc.Settings.DefaultReminderMinutes = *req.DefaultReminderMinutes
		}
		if req.DefaultLowStockThreshold != nil {
			if *req.DefaultLowStockThreshold < 0 {
				return &ImportError{Problems: []string{"default_low_stock_threshold cannot be negative"}}
			}
			doc.Settings.DefaultLowStockThreshold = *req.DefaultLowStockThreshold
		}
		if req.Theme != nil {
			doc.Settings.Theme = *req.Theme
		}
		if req.NotificationsEnabled != nil {
			doc.Settings.NotificationsEnabled = *req.NotificationsEnabled
		}
		out = doc.Settings
		return nil
	})
	return out, err
}

// Clear wipes the document and the persisted key.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func validate(b *Bundle) []string {
	var problems []string

	if b.Patients == nil {
		problems = append(problems, `missing or invalid "patients" array`)
	}
	if b.Medicines == nil {
		problems = append(problems, `missing or invalid "medicines" array`)
	}
	if b.DoseRecords == nil {
		problems = append(problems, `missing or invalid "dose_records" array`)
	}
	if b.RefillRecords == nil {
		problems = append(problems, `missing or invalid "refill_records" array`)
	}

	for i, p := range b.Patients {
		if p.ID == "" {
			problems = append(problems, fmt.Sprintf("patient %d: missing id", i))
		}
		if p.Name == "" {
			problems = append(problems, fmt.Sprintf("patient %d: missing name", i))
		}
	}
	for i, m := range b.Medicines {
		if m.ID == "" {
			problems = append(problems, fmt.Sprintf("medicine %d: missing id", i))
		}
		if m.Name == "" {
			problems = append(problems, fmt.Sprintf("medicine %d: missing name", i))
		}
		if m.PatientID == "" {
			problems = append(problems, fmt.Sprintf("medicine %d: missing patient_id", i))
		}
	}
	for i, d := range b.DoseRecords {
		if d.MedicineID == "" {
			problems = append(problems, fmt.Sprintf("dose record %d: missing medicine_id", i))
		}
		if !d.Status.Valid() {
			problems = append(problems, fmt.Sprintf("dose record %d: unknown status %q", i, d.Status))
		}
	}
	return problems
}
