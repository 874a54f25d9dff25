package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestCreatePatient(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, nil)

	p, err := svc.Create(context.Background(), CreatePatientRequest{
		Name:          "  Margaret Hill  ",
		Age:           78,
		Allergies:     []string{"penicillin"},
		CaregiverName: "Susan",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == "" {
		t.Error("expected generated ID")
	}
	if p.Name != "Margaret Hill" {
		t.Errorf("name not trimmed: %q", p.Name)
	}
	if p.MedicalConditions == nil {
		t.Error("medical conditions should default to empty slice")
	}

	st.View(func(doc *model.Document) {
		if len(doc.Patients) != 1 {
			t.Errorf("expected 1 stored patient, got %d", len(doc.Patients))
		}
	})
}

func TestCreatePatientValidation(t *testing.T) {
	svc := NewService(newTestStore(t), nil)

	tests := []struct {
		name  string
		req   CreatePatientRequest
		field string
	}{
		{"empty name", CreatePatientRequest{Age: 40}, "name"},
		{"negative age", CreatePatientRequest{Name: "Bob", Age: -1}, "age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			var verrs model.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if _, ok := verrs[tt.field]; !ok {
				t.Errorf("expected error on field %q, got %v", tt.field, verrs)
			}
		})
	}
}

func TestGetPatientNotFound(t *testing.T) {
	svc := NewService(newTestStore(t), nil)

	if _, err := svc.Get("missing"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestListPatientsSortedByName(t *testing.T) {
	svc := NewService(newTestStore(t), nil)

	ctx := context.Background()
	for _, name := range []string{"zoe", "Albert", "martin"} {
		if _, err := svc.Create(ctx, CreatePatientRequest{Name: name, Age: 50}); err != nil {
			t.Fatal(err)
		}
	}

	patients := svc.List()
	if len(patients) != 3 {
		t.Fatalf("expected 3 patients, got %d", len(patients))
	}
	if patients[0].Name != "Albert" || patients[1].Name != "martin" || patients[2].Name != "zoe" {
		t.Errorf("patients not sorted case-insensitively: %v", patients)
	}
}

func TestUpdatePatientPartial(t *testing.T) {
	svc := NewService(newTestStore(t), nil)

	p, err := svc.Create(context.Background(), CreatePatientRequest{Name: "Harold", Age: 80})
	if err != nil {
		t.Fatal(err)
	}

	newAge := 81
	updated, err := svc.Update(context.Background(), p.ID, UpdatePatientRequest{Age: &newAge})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Age != 81 {
		t.Errorf("expected age 81, got %d", updated.Age)
	}
	if updated.Name != "Harold" {
		t.Errorf("absent fields must be preserved, name became %q", updated.Name)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) && !updated.UpdatedAt.Equal(p.UpdatedAt) {
		t.Error("updated timestamp went backwards")
	}
}

func TestDeletePatientCascades(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, nil)

	p, err := svc.Create(context.Background(), CreatePatientRequest{Name: "Margaret", Age: 78})
	if err != nil {
		t.Fatal(err)
	}
	other, err := svc.Create(context.Background(), CreatePatientRequest{Name: "Harold", Age: 80})
	if err != nil {
		t.Fatal(err)
	}

	// Seed medicines, dose records and refills for both patients directly.
	err = st.Update(func(doc *model.Document) error {
		doc.Medicines = append(doc.Medicines,
			model.Medicine{ID: "med-1", PatientID: p.ID, Name: "Aspirin", Dosage: "100mg",
				Frequency: model.FrequencyOnceDaily, Timings: []string{"08:00"}, StartDate: "2024-01-01"},
			model.Medicine{ID: "med-2", PatientID: other.ID, Name: "Metformin", Dosage: "500mg",
				Frequency: model.FrequencyOnceDaily, Timings: []string{"09:00"}, StartDate: "2024-01-01"},
		)
		doc.DoseRecords = append(doc.DoseRecords,
			model.DoseRecord{ID: "d-1", MedicineID: "med-1", PatientID: p.ID,
				ScheduledTime: time.Now(), Status: model.StatusTaken},
			model.DoseRecord{ID: "d-2", MedicineID: "med-2", PatientID: other.ID,
				ScheduledTime: time.Now(), Status: model.StatusMissed},
		)
		doc.RefillRecords = append(doc.RefillRecords,
			model.RefillRecord{ID: "r-1", MedicineID: "med-1", Date: "2024-01-01", QuantityAdded: 30},
			model.RefillRecord{ID: "r-2", MedicineID: "med-2", Date: "2024-01-01", QuantityAdded: 60},
		)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	st.View(func(doc *model.Document) {
		if doc.FindPatient(p.ID) != nil {
			t.Error("patient not removed")
		}
		if doc.FindMedicine("med-1") != nil {
			t.Error("owned medicine not cascaded")
		}
		if doc.FindMedicine("med-2") == nil {
			t.Error("other patient's medicine must survive")
		}
		if len(doc.DoseRecords) != 1 || doc.DoseRecords[0].ID != "d-2" {
			t.Errorf("dose records not cascaded correctly: %v", doc.DoseRecords)
		}
		if len(doc.RefillRecords) != 1 || doc.RefillRecords[0].ID != "r-2" {
			t.Errorf("refill records not cascaded correctly: %v", doc.RefillRecords)
		}
	})
}

func TestDeletePatientNotFound(t *testing.T) {
	svc := NewService(newTestStore(t), nil)

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}
