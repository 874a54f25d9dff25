package medicine

import (
	"context"
	"errors"
	"testing"

	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := st.Update(func(doc *model.Document) error {
		doc.Patients = append(doc.Patients, model.Patient{ID: "pat-1", Name: "Margaret"})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewService(st, nil), st
}

func validCreateRequest() CreateMedicineRequest {
	return CreateMedicineRequest{
		PatientID:     "pat-1",
		Name:          "Ibuprofen",
		Dosage:        "200mg",
		Frequency:     model.FrequencyTwiceDaily,
		Timings:       []string{"08:00", "20:00"},
		Category:      model.CategoryPills,
		StockQuantity: 10,
		StartDate:     "2024-01-01",
	}
}

func TestCreateMedicine(t *testing.T) {
	svc, _ := newTestService(t)

	med, _, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if med.ID == "" {
		t.Error("expected generated ID")
	}
	// Unset threshold and reminder come from settings defaults.
	if med.LowStockThreshold != 5 {
		t.Errorf("expected default threshold 5, got %d", med.LowStockThreshold)
	}
	if med.ReminderMinutesBefore != 15 {
		t.Errorf("expected default reminder 15, got %d", med.ReminderMinutesBefore)
	}
}

func TestCreateMedicine_DefaultTimings(t *testing.T) {
	svc, _ := newTestService(t)

	req := validCreateRequest()
	req.Timings = nil

	med, _, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(med.Timings) != 2 {
		t.Errorf("expected 2 default timings for twice-daily, got %v", med.Timings)
	}
}

func TestCreateMedicine_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*CreateMedicineRequest)
		field  string
	}{
		{"missing name", func(r *CreateMedicineRequest) { r.Name = "  " }, "name"},
		{"missing dosage", func(r *CreateMedicineRequest) { r.Dosage = "" }, "dosage"},
		{"bad frequency", func(r *CreateMedicineRequest) { r.Frequency = "hourly" }, "frequency"},
		{"bad timing", func(r *CreateMedicineRequest) { r.Timings = []string{"25:00"} }, "timings"},
		{"negative stock", func(r *CreateMedicineRequest) { r.StockQuantity = -1 }, "stock_quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			_, _, err := svc.Create(context.Background(), req)
			var verrs model.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected validation errors, got %v", err)
			}
			if _, ok := verrs[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, verrs)
			}
		})
	}
}

func TestCreateMedicine_UnknownPatient(t *testing.T) {
	svc, _ := newTestService(t)

	req := validCreateRequest()
	req.PatientID = "nope"

	_, _, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestCreateMedicine_DuplicateDetection(t *testing.T) {
	svc, _ := newTestService(t)

	if _, _, err := svc.Create(context.Background(), validCreateRequest()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Same name and dosage, differing case and whitespace.
	req := validCreateRequest()
	req.Name = "  ibuprofen "
	req.Dosage = "200MG"

	_, candidates, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrDuplicateMedicine) {
		t.Fatalf("expected ErrDuplicateMedicine, got %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(candidates))
	}

	// Confirming the duplicate lets it through.
	req.ConfirmDuplicate = true
	if _, _, err := svc.Create(context.Background(), req); err != nil {
		t.Errorf("confirmed duplicate should be created: %v", err)
	}
}

func TestListMedicines_SortAndFilter(t *testing.T) {
	svc, _ := newTestService(t)

	for _, entry := range []struct {
		name   string
		timing string
		stock  int
	}{
		{"Zoloft", "20:00", 3},
		{"Aspirin", "08:00", 30},
		{"Metformin", "12:00", 12},
	} {
		req := validCreateRequest()
		req.Name = entry.name
		req.Timings = []string{entry.timing}
		req.Frequency = model.FrequencyOnceDaily
		req.StockQuantity = entry.stock
		if _, _, err := svc.Create(context.Background(), req); err != nil {
			t.Fatalf("create %s: %v", entry.name, err)
		}
	}

	byName := svc.List("", "", "")
	if byName[0].Name != "Aspirin" || byName[2].Name != "Zoloft" {
		t.Errorf("expected name sort, got %v", medicineNames(byName))
	}

	byTime := svc.List("", "", "time")
	if byTime[0].Name != "Aspirin" || byTime[2].Name != "Zoloft" {
		t.Errorf("expected time sort, got %v", medicineNames(byTime))
	}

	byStock := svc.List("", "", "stock")
	if byStock[0].Name != "Zoloft" || byStock[2].Name != "Aspirin" {
		t.Errorf("expected stock sort, got %v", medicineNames(byStock))
	}

	filtered := svc.List("", "metfor", "")
	if len(filtered) != 1 || filtered[0].Name != "Metformin" {
		t.Errorf("expected query filter to match Metformin, got %v", medicineNames(filtered))
	}
}

func TestUpdateMedicine_Partial(t *testing.T) {
	svc, _ := newTestService(t)

	med, _, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}

	newDosage := "400mg"
	updated, err := svc.Update(context.Background(), med.ID, UpdateMedicineRequest{Dosage: &newDosage})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Dosage != "400mg" {
		t.Errorf("dosage not updated: %s", updated.Dosage)
	}
	if updated.Name != "Ibuprofen" {
		t.Errorf("untouched field changed: %s", updated.Name)
	}
}

func TestDeleteMedicine_Cascades(t *testing.T) {
	svc, st := newTestService(t)

	med, _, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatal(err)
	}

	err = st.Update(func(doc *model.Document) error {
		doc.DoseRecords = append(doc.DoseRecords, model.DoseRecord{ID: "d1", MedicineID: med.ID, PatientID: "pat-1", Status: model.StatusTaken})
		doc.RefillRecords = append(doc.RefillRecords, model.RefillRecord{ID: "r1", MedicineID: med.ID, QuantityAdded: 10})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), med.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	st.View(func(doc *model.Document) {
		if len(doc.Medicines) != 0 || len(doc.DoseRecords) != 0 || len(doc.RefillRecords) != 0 {
			t.Errorf("expected cascade delete, got %d medicines, %d doses, %d refills",
				len(doc.Medicines), len(doc.DoseRecords), len(doc.RefillRecords))
		}
	})
}

func TestStockOperations(t *testing.T) {
	svc, _ := newTestService(t)

	req := validCreateRequest()
	req.StockQuantity = 1
	med, _, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Decrement(context.Background(), med.ID); err != nil {
		t.Fatalf("Decrement failed: %v", err)
	}
	// At zero the decrement floors instead of failing.
	if err := svc.Decrement(context.Background(), med.ID); err != nil {
		t.Fatalf("Decrement at zero failed: %v", err)
	}
	got, err := svc.Get(med.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.StockQuantity != 0 {
		t.Errorf("expected stock floored at 0, got %d", got.StockQuantity)
	}

	if err := svc.Increment(context.Background(), med.ID, 5); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	after, err := svc.SetStock(context.Background(), med.ID, 42)
	if err != nil {
		t.Fatalf("SetStock failed: %v", err)
	}
	if after.StockQuantity != 42 {
		t.Errorf("expected stock 42, got %d", after.StockQuantity)
	}

	if _, err := svc.SetStock(context.Background(), med.ID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestLowStock(t *testing.T) {
	svc, _ := newTestService(t)

	low := validCreateRequest()
	low.Name = "Low One"
	low.StockQuantity = 3

	fine := validCreateRequest()
	fine.Name = "Fine One"
	fine.StockQuantity = 50

	for _, r := range []CreateMedicineRequest{low, fine} {
		if _, _, err := svc.Create(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}

	lows := svc.LowStock()
	if len(lows) != 1 || lows[0].Name != "Low One" {
		t.Errorf("expected only Low One at or below threshold, got %v", medicineNames(lows))
	}
}

func medicineNames(meds []model.Medicine) []string {
	names := make([]string, len(meds))
	for i, m := range meds {
		names[i] = m.Name
	}
	return names
}
