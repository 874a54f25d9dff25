package messaging

import "time"

// Event routing keys as constants
const (
	// Patient events
	EventPatientCreated = "patient.created"
	EventPatientUpdated = "patient.updated"
	EventPatientDeleted = "patient.deleted"

	// Medicine events
	EventMedicineCreated = "medicine.created"
	EventMedicineUpdated = "medicine.updated"
	EventMedicineDeleted = "medicine.deleted"

	// Dose lifecycle events
	EventDoseTaken  = "dose.taken"
	EventDoseMissed = "dose.missed"
	EventDoseUndone = "dose.undone"

	// Inventory events
	EventStockLow      = "stock.low"
	EventStockOut      = "stock.out"
	EventStockRefilled = "stock.refilled"

	// Reminder notifications
	EventReminderUpcoming = "reminder.upcoming"
	EventReminderDue      = "reminder.due"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// PatientEvent carries patient lifecycle data.
type PatientEvent struct {
	BaseEvent
	Data PatientEventData `json:"data"`
}

type PatientEventData struct {
	PatientID     string `json:"patient_id"`
	Name          string `json:"name"`
	CaregiverName string `json:"caregiver_name,omitempty"`
}

// MedicineEvent carries medicine lifecycle data.
type MedicineEvent struct {
	BaseEvent
	Data MedicineEventData `json:"data"`
}

type MedicineEventData struct {
	MedicineID string `json:"medicine_id"`
	PatientID  string `json:"patient_id"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage,omitempty"`
}

// DoseEvent carries a dose state transition.
type DoseEvent struct {
	BaseEvent
	Data DoseEventData `json:"data"`
}

type DoseEventData struct {
	MedicineID    string     `json:"medicine_id"`
	PatientID     string     `json:"patient_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        string     `json:"status"`
	ActualTime    *time.Time `json:"actual_time,omitempty"`
	StockLeft     int        `json:"stock_left"`
}

// StockEvent carries an inventory level change.
type StockEvent struct {
	BaseEvent
	Data StockEventData `json:"data"`
}

type StockEventData struct {
	MedicineID    string `json:"medicine_id"`
	MedicineName  string `json:"medicine_name"`
	StockQuantity int    `json:"stock_quantity"`
	Threshold     int    `json:"threshold"`
	QuantityAdded int    `json:"quantity_added,omitempty"`
}

// ReminderEvent is the notification payload fired by the reminder scheduler.
type ReminderEvent struct {
	BaseEvent
	Data ReminderEventData `json:"data"`
}

type ReminderEventData struct {
	MedicineID    string    `json:"medicine_id"`
	MedicineName  string    `json:"medicine_name"`
	Dosage        string    `json:"dosage"`
	PatientID     string    `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	ScheduledTime time.Time `json:"scheduled_time"`
	MinutesBefore int       `json:"minutes_before"`
	DueNow        bool      `json:"due_now"`
}

// NewBaseEvent fills the common envelope for a routing key.
func NewBaseEvent(eventType, eventID string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     eventID,
		Timestamp:   time.Now().UTC(),
		ServiceName: "medication-service",
	}
}
