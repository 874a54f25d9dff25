package schedule

import "time"

// TransitionRequest identifies a dose instance by its natural key.
type TransitionRequest struct {
	MedicineID    string    `json:"medicine_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Notes         string    `json:"notes,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
