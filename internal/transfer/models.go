package transfer

type UpdateSettingsRequest struct {
	DefaultReminderMinutes   *int    `json:"default_reminder_minutes,omitempty"`
	DefaultLowStockThreshold *int    `json:"default_low_stock_threshold,omitempty"`
	Theme                    *string `json:"theme,omitempty"`
	NotificationsEnabled     *bool   `json:"notifications_enabled,omitempty"`
}

type ImportResponse struct {
	Imported bool     `json:"imported"`
	Mode     string   `json:"mode,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
