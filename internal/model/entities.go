package model

import (
	"fmt"
	"time"
)

// Patient is a person whose medication is tracked. Medicines are exclusively
// owned by their patient: deleting a patient cascades to medicines, dose
// records and refill records.
type Patient struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Age               int       `json:"age"`
	Photo             string    `json:"photo,omitempty"`
	MedicalConditions []string  `json:"medical_conditions"`
	Allergies         []string  `json:"allergies"`
	CaregiverName     string    `json:"caregiver_name,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Medicine is a recurring prescription definition. Timings hold HH:MM
// time-of-day strings in administration order; StartDate and EndDate are
// YYYY-MM-DD calendar dates. StockQuantity is never negative.
type Medicine struct {
	ID                    string    `json:"id"`
	PatientID             string    `json:"patient_id"`
	Name                  string    `json:"name"`
	Dosage                string    `json:"dosage"`
	Frequency             Frequency `json:"frequency"`
	Timings               []string  `json:"timings"`
	Category              Category  `json:"category"`
	Notes                 string    `json:"notes,omitempty"`
	StockQuantity         int       `json:"stock_quantity"`
	LowStockThreshold     int       `json:"low_stock_threshold"`
	ReminderMinutesBefore int       `json:"reminder_minutes_before"`
	StartDate             string    `json:"start_date"`
	EndDate               string    `json:"end_date,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DailyDoseCount is the number of scheduled administrations per day.
func (m *Medicine) DailyDoseCount() int {
	return len(m.Timings)
}

// LowStock reports whether the medicine is at or below its threshold.
func (m *Medicine) LowStock() bool {
	return m.StockQuantity <= m.LowStockThreshold
}

// OutOfStock reports whether the medicine has no stock left. Out-of-stock
// supersedes low-stock in summaries.
func (m *Medicine) OutOfStock() bool {
	return m.StockQuantity == 0
}

// DoseRecord is a persisted exception record: a dose instance that was
// explicitly marked taken or missed. Untouched instances are virtual and are
// re-derived on every query; they never appear in the store.
type DoseRecord struct {
	ID            string     `json:"id"`
	MedicineID    string     `json:"medicine_id"`
	PatientID     string     `json:"patient_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        DoseStatus `json:"status"`
	ActualTime    *time.Time `json:"actual_time,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Key returns the natural key used to reconcile virtual and persisted dose
// instances: the (medicineID, scheduledTime) pair.
func (d *DoseRecord) Key() string {
	return DoseKey(d.MedicineID, d.ScheduledTime)
}

// DoseKey builds the natural key for a medicine/scheduled-time pair.
func DoseKey(medicineID string, scheduledTime time.Time) string {
	return fmt.Sprintf("%s|%s", medicineID, scheduledTime.UTC().Format(time.RFC3339))
}

// RefillRecord is one auditable addition of stock for a medicine.
type RefillRecord struct {
	ID            string `json:"id"`
	MedicineID    string `json:"medicine_id"`
	Date          string `json:"date"`
	QuantityAdded int    `json:"quantity_added"`
	Notes         string `json:"notes,omitempty"`
}

// Settings holds user-tunable defaults stored alongside the data.
type Settings struct {
	DefaultReminderMinutes   int    `json:"default_reminder_minutes"`
	DefaultLowStockThreshold int    `json:"default_low_stock_threshold"`
	Theme                    string `json:"theme"`
	NotificationsEnabled     bool   `json:"notifications_enabled"`
}

// DefaultSettings returns the settings applied to a fresh document.
func DefaultSettings() Settings {
	return Settings{
		DefaultReminderMinutes:   15,
		DefaultLowStockThreshold: 5,
		Theme:                    "light",
		NotificationsEnabled:     true,
	}
}
