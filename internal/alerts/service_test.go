package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

func med(id, name string, stock int) model.Medicine {
	return model.Medicine{
		ID: id, PatientID: "pat-1", Name: name, Dosage: "10mg",
		Frequency: model.FrequencyOnceDaily, Timings: []string{"08:00"},
		StartDate: "2024-01-01", StockQuantity: stock, LowStockThreshold: 5,
	}
}

func TestCheckDrugInteractions(t *testing.T) {
	warfarin := med("m-1", "Warfarin 5mg", 30)
	others := []model.Medicine{
		med("m-2", "Aspirin 100mg", 30),
		med("m-3", "Metformin 500mg", 30),
	}

	alerts := CheckDrugInteractions(&warfarin, others)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 interaction alert, got %d: %v", len(alerts), alerts)
	}
	if alerts[0].Type != TypeDrugInteraction || alerts[0].Severity != SeverityHigh {
		t.Errorf("unexpected alert: %+v", alerts[0])
	}
}

func TestCheckDrugInteractionsReverseDirection(t *testing.T) {
	// Ibuprofen is listed under warfarin's partners, not the other way
	// around; the check must still fire when ibuprofen is the new medicine.
	ibuprofen := med("m-1", "Ibuprofen 200mg", 30)
	others := []model.Medicine{med("m-2", "Warfarin 5mg", 30)}

	if alerts := CheckDrugInteractions(&ibuprofen, others); len(alerts) != 1 {
		t.Fatalf("expected reverse interaction to fire, got %d alerts", len(alerts))
	}
}

func TestCheckAllergyConflictsKeywordClass(t *testing.T) {
	amoxicillin := med("m-1", "Amoxicillin 250mg", 30)

	alerts := CheckAllergyConflicts(&amoxicillin, []string{"Penicillin"})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 allergy alert via keyword class, got %d", len(alerts))
	}
	if alerts[0].Severity != SeverityCritical {
		t.Errorf("allergy alerts must be critical, got %s", alerts[0].Severity)
	}
	if alerts[0].Allergy != "Penicillin" {
		t.Errorf("expected original allergy string preserved, got %q", alerts[0].Allergy)
	}
}

func TestCheckAllergyConflictsDirectMatch(t *testing.T) {
	latex := med("m-1", "Latex bandage", 30)

	if alerts := CheckAllergyConflicts(&latex, []string{"latex"}); len(alerts) != 1 {
		t.Fatalf("expected 1 deduplicated alert for direct match, got %d", len(alerts))
	}
}

func TestCheckAllergyConflictsNoMatch(t *testing.T) {
	metformin := med("m-1", "Metformin 500mg", 30)

	if alerts := CheckAllergyConflicts(&metformin, []string{"penicillin", "sulfa"}); len(alerts) != 0 {
		t.Errorf("expected no alerts, got %v", alerts)
	}
}

func TestCheckDuplicateMedications(t *testing.T) {
	aspirin := med("m-1", "Aspirin", 30)

	exact := CheckDuplicateMedications(&aspirin, []model.Medicine{med("m-2", "aspirin", 30)})
	if len(exact) != 1 || exact[0].Title != "Duplicate Medication" {
		t.Fatalf("expected exact duplicate alert, got %v", exact)
	}

	similar := CheckDuplicateMedications(&aspirin, []model.Medicine{med("m-3", "Aspirtame", 30)})
	if len(similar) != 1 || similar[0].Title != "Similar Medication Found" {
		t.Fatalf("expected similar-name alert, got %v", similar)
	}

	if none := CheckDuplicateMedications(&aspirin, []model.Medicine{med("m-4", "Metformin", 30)}); len(none) != 0 {
		t.Errorf("expected no duplicate alerts, got %v", none)
	}
}

func TestCheckExpired(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	svc := NewService(nil, clock.Fixed{T: now})

	expired := med("m-1", "OldMed", 10)
	expired.EndDate = "2024-06-01"
	expiring := med("m-2", "SoonMed", 10)
	expiring.EndDate = "2024-06-20"
	fine := med("m-3", "FreshMed", 10)
	fine.EndDate = "2024-12-31"
	open := med("m-4", "OpenMed", 10)

	alerts := svc.CheckExpired([]model.Medicine{expired, expiring, fine, open})
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d: %v", len(alerts), alerts)
	}
	if alerts[0].Type != TypeExpired {
		t.Errorf("expected expired alert first, got %s", alerts[0].Type)
	}
	if alerts[1].Type != TypeExpiringSoon {
		t.Errorf("expected expiring-soon alert, got %s", alerts[1].Type)
	}
}

func TestCheckCriticalStock(t *testing.T) {
	out := med("m-1", "Insulin", 0)
	low := med("m-2", "Lisinopril", 3)
	ok := med("m-3", "Metformin", 30)

	alerts := CheckCriticalStock([]model.Medicine{out, low, ok})
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Type != TypeOutOfStock || alerts[0].Severity != SeverityCritical {
		t.Errorf("unexpected first alert: %+v", alerts[0])
	}
	if alerts[1].Type != TypeLowStock || alerts[1].Severity != SeverityHigh {
		t.Errorf("unexpected second alert: %+v", alerts[1])
	}
}

func TestForPatientSortedBySeverity(t *testing.T) {
	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := st.Update(func(doc *model.Document) error {
		doc.Patients = append(doc.Patients, model.Patient{
			ID: "pat-1", Name: "Margaret", Allergies: []string{"penicillin"},
		})
		amox := med("m-1", "Amoxicillin", 3) // allergy (critical) + low stock (high)
		warf := med("m-2", "Warfarin", 30)
		asp := med("m-3", "Aspirin", 30) // interacts with warfarin (high)
		doc.Medicines = append(doc.Medicines, amox, warf, asp)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	svc := NewService(st, clock.Fixed{T: time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)})
	alerts, err := svc.ForPatient("pat-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) == 0 {
		t.Fatal("expected alerts")
	}

	for i := 1; i < len(alerts); i++ {
		if severityRank[alerts[i].Severity] < severityRank[alerts[i-1].Severity] {
			t.Fatalf("alerts not sorted by severity: %s before %s",
				alerts[i-1].Severity, alerts[i].Severity)
		}
	}
	if alerts[0].Type != TypeAllergy {
		t.Errorf("critical allergy alert should lead, got %s", alerts[0].Type)
	}
}

func TestForPatientUnknown(t *testing.T) {
	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	svc := NewService(st, nil)

	if _, err := svc.ForPatient("missing"); err != ErrPatientNotFound {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}
