package alerts

import (
	"sort"
	"strings"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// Severity orders alerts from most to least urgent.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

const (
	TypeDrugInteraction = "drug-interaction"
	TypeAllergy         = "allergy"
	TypeDuplicate       = "duplicate"
	TypeExpired         = "expired"
	TypeExpiringSoon    = "expiring-soon"
	TypeOutOfStock      = "out-of-stock"
	TypeLowStock        = "low-stock"
)

// ExpiryWarningDays is how far ahead an end date triggers an expiring-soon
// alert.
const ExpiryWarningDays = 7

// Alert is a safety warning surfaced to caregivers.
type Alert struct {
	Type      string   `json:"type"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Details   string   `json:"details"`
	Medicines []string `json:"medicines,omitempty"`
	Allergy   string   `json:"allergy,omitempty"`
}

// drugInteractions maps a drug keyword to the keywords it is known to
// interact with. Matching is substring-based on lowercased medicine names.
var drugInteractions = map[string][]string{
	"warfarin":      {"aspirin", "ibuprofen", "naproxen", "vitamin k"},
	"aspirin":       {"warfarin", "ibuprofen", "naproxen", "clopidogrel"},
	"metformin":     {"alcohol", "contrast dye"},
	"lisinopril":    {"potassium", "spironolactone"},
	"levothyroxine": {"calcium", "iron", "antacids"},
	"simvastatin":   {"grapefruit", "clarithromycin", "itraconazole"},
	"amlodipine":    {"grapefruit", "simvastatin"},
	"omeprazole":    {"clopidogrel", "methotrexate"},
	"prednisone":    {"nsaids", "aspirin", "warfarin"},
	"insulin":       {"alcohol", "beta blockers"},
}

// allergenKeywords groups medicine-name keywords under an allergen class so
// "penicillin" in a patient's allergy list also flags amoxicillin.
var allergenKeywords = map[string][]string{
	"penicillin": {"amoxicillin", "ampicillin", "penicillin"},
	"sulfa":      {"sulfamethoxazole", "sulfasalazine", "sulfa"},
	"aspirin":    {"aspirin", "asa", "acetylsalicylic"},
	"nsaid":      {"ibuprofen", "naproxen", "diclofenac", "celecoxib"},
	"latex":      {"latex"},
	"iodine":     {"iodine", "contrast"},
}

type Service struct {
	store *store.Store
	clock clock.Clock
}

func NewService(st *store.Store, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{store: st, clock: clk}
}

// CheckDrugInteractions flags known interaction pairs between a medicine and
// the rest of a list, in both directions.
func CheckDrugInteractions(med *model.Medicine, others []model.Medicine) []Alert {
	var alerts []Alert
	medName := strings.ToLower(med.Name)

	for i := range others {
		other := &others[i]
		if other.ID == med.ID {
			continue
		}
		otherName := strings.ToLower(other.Name)

		for drug, partners := range drugInteractions {
			hit := false
			if strings.Contains(medName, drug) {
				for _, p := range partners {
					if strings.Contains(otherName, p) {
						hit = true
						break
					}
				}
			}
			if !hit && strings.Contains(otherName, drug) {
				for _, p := range partners {
					if strings.Contains(medName, p) {
						hit = true
						break
					}
				}
			}
			if hit {
				alerts = append(alerts, Alert{
					Type:      TypeDrugInteraction,
					Severity:  SeverityHigh,
					Title:     "Drug Interaction Warning",
					Message:   med.Name + " may interact with " + other.Name,
					Details:   "These medications may have interactions. Please consult with a healthcare provider.",
					Medicines: []string{med.Name, other.Name},
				})
			}
		}
	}
	return dedupe(alerts)
}

// CheckAllergyConflicts flags medicines that match a patient's allergy list,
// either through the allergen keyword classes or a direct name match.
func CheckAllergyConflicts(med *model.Medicine, allergies []string) []Alert {
	var alerts []Alert
	medName := strings.ToLower(med.Name)

	for _, allergy := range allergies {
		allergyLower := strings.ToLower(strings.TrimSpace(allergy))
		if allergyLower == "" {
			continue
		}

		for _, keywords := range allergenKeywords {
			isAllergic := false
			for _, kw := range keywords {
				if strings.Contains(allergyLower, kw) {
					isAllergic = true
					break
				}
			}
			if !isAllergic {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(medName, kw) {
					alerts = append(alerts, Alert{
						Type:      TypeAllergy,
						Severity:  SeverityCritical,
						Title:     "Allergy Alert",
						Message:   "Patient is allergic to " + allergy,
						Details:   med.Name + " may contain or be related to " + allergy + ". Do not administer without consulting a doctor.",
						Medicines: []string{med.Name},
						Allergy:   allergy,
					})
					break
				}
			}
		}

		if strings.Contains(medName, allergyLower) || strings.Contains(allergyLower, medName) {
			alerts = append(alerts, Alert{
				Type:      TypeAllergy,
				Severity:  SeverityCritical,
				Title:     "Allergy Alert",
				Message:   "Patient is allergic to " + allergy,
				Details:   med.Name + " matches a listed allergy. Do not administer.",
				Medicines: []string{med.Name},
				Allergy:   allergy,
			})
		}
	}
	return dedupe(alerts)
}

// CheckDuplicateMedications flags exact and similarly named medicines in a
// patient's list.
func CheckDuplicateMedications(med *model.Medicine, others []model.Medicine) []Alert {
	var alerts []Alert
	medName := strings.ToLower(med.Name)

	for i := range others {
		other := &others[i]
		if other.ID == med.ID {
			continue
		}
		otherName := strings.ToLower(other.Name)

		if medName == otherName {
			alerts = append(alerts, Alert{
				Type:      TypeDuplicate,
				Severity:  SeverityMedium,
				Title:     "Duplicate Medication",
				Message:   med.Name + " is already in the medication list",
				Details:   "This patient is already taking this medication. Adding it again may result in double dosing.",
				Medicines: []string{med.Name},
			})
		} else if similarNames(medName, otherName) {
			alerts = append(alerts, Alert{
				Type:      TypeDuplicate,
				Severity:  SeverityMedium,
				Title:     "Similar Medication Found",
				Message:   med.Name + " is similar to " + other.Name,
				Details:   "These medications have similar names. Please verify this is not a duplicate.",
				Medicines: []string{med.Name, other.Name},
			})
		}
	}
	return alerts
}

// CheckExpired flags medicines whose end date has passed or falls within the
// warning window.
func (s *Service) CheckExpired(medicines []model.Medicine) []Alert {
	var alerts []Alert
	today := clock.FormatDate(s.clock.Now())

	for i := range medicines {
		med := &medicines[i]
		if med.EndDate == "" {
			continue
		}

		end, err := clock.ParseDate(med.EndDate)
		if err != nil {
			continue
		}
		now, _ := clock.ParseDate(today)
		daysLeft := int(end.Sub(now).Hours() / 24)

		if daysLeft < 0 {
			alerts = append(alerts, Alert{
				Type:      TypeExpired,
				Severity:  SeverityHigh,
				Title:     "Expired Medication",
				Message:   med.Name + " has expired",
				Details:   "This medication schedule ended. Please remove or update it.",
				Medicines: []string{med.Name},
			})
		} else if daysLeft <= ExpiryWarningDays {
			alerts = append(alerts, Alert{
				Type:      TypeExpiringSoon,
				Severity:  SeverityMedium,
				Title:     "Medication Expiring Soon",
				Message:   med.Name + " schedule ends soon",
				Details:   "This medication schedule ends within a week. Plan for renewal or discontinuation.",
				Medicines: []string{med.Name},
			})
		}
	}
	return alerts
}

// CheckCriticalStock flags out-of-stock and below-threshold medicines.
func CheckCriticalStock(medicines []model.Medicine) []Alert {
	var alerts []Alert
	for i := range medicines {
		med := &medicines[i]
		switch {
		case med.OutOfStock():
			alerts = append(alerts, Alert{
				Type:      TypeOutOfStock,
				Severity:  SeverityCritical,
				Title:     "Out of Stock",
				Message:   med.Name + " is out of stock",
				Details:   "No doses remaining. Refill immediately to avoid missed doses.",
				Medicines: []string{med.Name},
			})
		case med.LowStock():
			alerts = append(alerts, Alert{
				Type:      TypeLowStock,
				Severity:  SeverityHigh,
				Title:     "Low Stock Alert",
				Message:   med.Name + " is running low",
				Details:   "Stock is at or below the minimum level. Refill soon.",
				Medicines: []string{med.Name},
			})
		}
	}
	return alerts
}

// ForPatient aggregates every alert category for one patient's medicines,
// most severe first.
func (s *Service) ForPatient(patientID string) ([]Alert, error) {
	var patient *model.Patient
	var medicines []model.Medicine
	s.store.View(func(doc *model.Document) {
		if p := doc.FindPatient(patientID); p != nil {
			cp := *p
			patient = &cp
		}
		for _, m := range doc.Medicines {
			if m.PatientID == patientID {
				medicines = append(medicines, m)
			}
		}
	})
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	var alerts []Alert
	for i := range medicines {
		med := &medicines[i]
		alerts = append(alerts, CheckAllergyConflicts(med, patient.Allergies)...)
		alerts = append(alerts, CheckDrugInteractions(med, medicines)...)
	}
	alerts = dedupe(alerts)
	alerts = append(alerts, s.CheckExpired(medicines)...)
	alerts = append(alerts, CheckCriticalStock(medicines)...)

	sortBySeverity(alerts)
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

// All aggregates alerts across every patient.
func (s *Service) All() []Alert {
	var ids []string
	s.store.View(func(doc *model.Document) {
		for _, p := range doc.Patients {
			ids = append(ids, p.ID)
		}
	})

	var alerts []Alert
	for _, id := range ids {
		if a, err := s.ForPatient(id); err == nil {
			alerts = append(alerts, a...)
		}
	}
	sortBySeverity(alerts)
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts
}

func similarNames(a, b string) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	pa := a[:min(5, len(a))]
	pb := b[:min(5, len(b))]
	return pa == pb
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func dedupe(alerts []Alert) []Alert {
	seen := make(map[string]bool, len(alerts))
	out := alerts[:0]
	for _, a := range alerts {
		key := a.Type + "|" + a.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func sortBySeverity(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank[alerts[i].Severity] < severityRank[alerts[j].Severity]
	})
}
