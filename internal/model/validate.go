package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation limits.
const (
	PatientNameMax  = 100
	PatientAgeMax   = 150
	MedicineNameMax = 200
	DosageMax       = 100
)

var timeRe = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)
var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidationErrors maps field name to a human-readable message. It is
// returned as a structured failure, never panicked.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Empty reports whether no field failed validation.
func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// ValidTime reports whether s is an HH:MM 24h time-of-day string.
func ValidTime(s string) bool { return timeRe.MatchString(s) }

// ValidDate reports whether s is a YYYY-MM-DD calendar date string.
func ValidDate(s string) bool { return dateRe.MatchString(s) }

// ValidatePatient checks a patient definition field by field.
func ValidatePatient(p *Patient) ValidationErrors {
	errs := ValidationErrors{}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs["name"] = "patient name is required"
	} else if len(name) > PatientNameMax {
		errs["name"] = fmt.Sprintf("patient name must not exceed %d characters", PatientNameMax)
	}

	if p.Age < 0 || p.Age > PatientAgeMax {
		errs["age"] = fmt.Sprintf("age must be between 0 and %d", PatientAgeMax)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateMedicine checks a medicine definition field by field. Timings are
// required unless the frequency is as-needed or custom.
func ValidateMedicine(m *Medicine) ValidationErrors {
	errs := ValidationErrors{}

	name := strings.TrimSpace(m.Name)
	if name == "" {
		errs["name"] = "medicine name is required"
	} else if len(name) > MedicineNameMax {
		errs["name"] = fmt.Sprintf("medicine name must not exceed %d characters", MedicineNameMax)
	}

	dosage := strings.TrimSpace(m.Dosage)
	if dosage == "" {
		errs["dosage"] = "dosage is required"
	} else if len(dosage) > DosageMax {
		errs["dosage"] = fmt.Sprintf("dosage must not exceed %d characters", DosageMax)
	}

	if !m.Frequency.Valid() {
		errs["frequency"] = "unknown frequency"
	}
	if !m.Category.Valid() {
		errs["category"] = "unknown category"
	}

	if m.Frequency.RequiresTimings() && len(m.Timings) == 0 {
		errs["timings"] = "at least one timing is required"
	}
	for i, tm := range m.Timings {
		if !ValidTime(tm) {
			errs["timings"] = fmt.Sprintf("timing %d must be in HH:MM format (00:00 to 23:59)", i+1)
			break
		}
	}

	if m.StockQuantity < 0 {
		errs["stock_quantity"] = "stock quantity cannot be negative"
	}
	if m.LowStockThreshold < 0 {
		errs["low_stock_threshold"] = "low stock threshold cannot be negative"
	}
	if m.ReminderMinutesBefore < 0 {
		errs["reminder_minutes_before"] = "reminder minutes cannot be negative"
	}

	if m.StartDate == "" {
		errs["start_date"] = "start date is required"
	} else if !ValidDate(m.StartDate) {
		errs["start_date"] = "start date must be in YYYY-MM-DD format"
	}
	if m.EndDate != "" {
		if !ValidDate(m.EndDate) {
			errs["end_date"] = "end date must be in YYYY-MM-DD format"
		} else if m.StartDate != "" && m.EndDate <= m.StartDate {
			errs["end_date"] = "end date must be after start date"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
