package inventory

import "github.com/CareMeds-Health/medication-service/internal/model"

type AddRefillRequest struct {
	Quantity int    `json:"quantity"`
	Date     string `json:"date,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type EditRefillRequest struct {
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
}

// Summary aggregates inventory health across the whole catalog.
type Summary struct {
	TotalMedicines  int `json:"total_medicines"`
	LowStockCount   int `json:"low_stock_count"`
	OutOfStockCount int `json:"out_of_stock_count"`
	NeedsRefillSoon int `json:"needs_refill_soon"`
	TotalStock      int `json:"total_stock"`
}

// RefillProjection reports when a medicine runs out at the current
// consumption rate. Date is empty when the medicine has no scheduled doses.
type RefillProjection struct {
	MedicineID   string `json:"medicine_id"`
	MedicineName string `json:"medicine_name"`
	Date         string `json:"date,omitempty"`
	DaysLeft     int    `json:"days_left"`
}

type RefillListResponse struct {
	Refills []model.RefillRecord `json:"refills"`
	Count   int                  `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
