package medicine

import "github.com/CareMeds-Health/medication-service/internal/model"

// CreateMedicineRequest represents the request to create a new medicine
type CreateMedicineRequest struct {
	PatientID             string          `json:"patient_id"`
	Name                  string          `json:"name"`
	Dosage                string          `json:"dosage"`
	Frequency             model.Frequency `json:"frequency"`
	Timings               []string        `json:"timings"`
	Category              model.Category  `json:"category"`
	Notes                 string          `json:"notes"`
	StockQuantity         int             `json:"stock_quantity"`
	LowStockThreshold     *int            `json:"low_stock_threshold,omitempty"`
	ReminderMinutesBefore *int            `json:"reminder_minutes_before,omitempty"`
	StartDate             string          `json:"start_date"`
	EndDate               string          `json:"end_date,omitempty"`

	// ConfirmDuplicate acknowledges duplicate candidates surfaced by an
	// earlier attempt; without it a create matching an existing name+dosage
	// is rejected with the candidate list.
	ConfirmDuplicate bool `json:"confirm_duplicate,omitempty"`
}

// UpdateMedicineRequest represents a partial medicine update
type UpdateMedicineRequest struct {
	Name                  *string          `json:"name,omitempty"`
	Dosage                *string          `json:"dosage,omitempty"`
	Frequency             *model.Frequency `json:"frequency,omitempty"`
	Timings               []string         `json:"timings,omitempty"`
	Category              *model.Category  `json:"category,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
	LowStockThreshold     *int             `json:"low_stock_threshold,omitempty"`
	ReminderMinutesBefore *int             `json:"reminder_minutes_before,omitempty"`
	StartDate             *string          `json:"start_date,omitempty"`
	EndDate               *string          `json:"end_date,omitempty"`
}

// SetStockRequest sets an absolute stock quantity
type SetStockRequest struct {
	Quantity int `json:"quantity"`
}

// DuplicateResponse lists candidate duplicates for a user decision
type DuplicateResponse struct {
	Success    bool             `json:"success"`
	Error      string           `json:"error"`
	Candidates []model.Medicine `json:"candidates"`
}

// ErrorResponse is the generic failure payload
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ValidationResponse carries field-level validation messages
type ValidationResponse struct {
	Success bool                   `json:"success"`
	Errors  model.ValidationErrors `json:"errors"`
}
