package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/CareMeds-Health/medication-service/internal/alerts"
	"github.com/CareMeds-Health/medication-service/internal/auth"
	"github.com/CareMeds-Health/medication-service/internal/inventory"
	"github.com/CareMeds-Health/medication-service/internal/medicine"
	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/patient"
	"github.com/CareMeds-Health/medication-service/internal/schedule"
	"github.com/CareMeds-Health/medication-service/internal/store"
	"github.com/CareMeds-Health/medication-service/internal/telemetry"
	"github.com/CareMeds-Health/medication-service/internal/transfer"
)

// SetupRouter initializes all routes for the application
func SetupRouter(st *store.Store, publisher messaging.PublisherInterface, verifier *auth.Verifier, perms auth.Permissions, metrics *telemetry.Metrics) *mux.Router {
	patientService := patient.NewService(st, publisher)
	patientHandler := patient.NewHandler(patientService)

	medicineService := medicine.NewService(st, publisher)
	medicineHandler := medicine.NewHandler(medicineService)

	scheduleService := schedule.NewService(st, medicineService, nil, publisher)
	scheduleHandler := schedule.NewHandler(scheduleService, metrics)

	inventoryService := inventory.NewService(st, nil, publisher)
	inventoryHandler := inventory.NewHandler(inventoryService, metrics)

	alertService := alerts.NewService(st, nil)
	alertHandler := alerts.NewHandler(alertService)

	transferService := transfer.NewService(st)
	transferHandler := transfer.NewHandler(transferService)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("medication-service"))
	r.Use(MetricsMiddleware(metrics))
	r.Use(CORSMiddleware)

	// Public health endpoint; reports degraded persistence.
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "service": "medication-service"}
		if warning := st.Warning(); warning != "" {
			status["status"] = "degraded"
			status["warning"] = warning
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}).Methods("GET")

	guard := func(permission string, h http.HandlerFunc) http.Handler {
		return auth.Middleware(verifier)(
			auth.RequirePermission(permission, perms)(h),
		)
	}

	// Patient routes
	r.Handle("/api/patients", guard("patient:create", patientHandler.CreatePatient)).Methods("POST")
	r.Handle("/api/patients", guard("patient:view", patientHandler.ListPatients)).Methods("GET")
	r.Handle("/api/patients/{id}", guard("patient:view", patientHandler.GetPatient)).Methods("GET")
	r.Handle("/api/patients/{id}", guard("patient:edit", patientHandler.UpdatePatient)).Methods("PUT")
	r.Handle("/api/patients/{id}", guard("patient:delete", patientHandler.DeletePatient)).Methods("DELETE")
	r.Handle("/api/patients/{id}/alerts", guard("alerts:view", alertHandler.GetPatientAlerts)).Methods("GET")

	// Medicine routes
	r.Handle("/api/medicines", guard("medicine:create", medicineHandler.CreateMedicine)).Methods("POST")
	r.Handle("/api/medicines", guard("medicine:view", medicineHandler.ListMedicines)).Methods("GET")
	r.Handle("/api/medicines/check-duplicates", guard("medicine:view", medicineHandler.CheckDuplicates)).Methods("GET")
	r.Handle("/api/medicines/{id}", guard("medicine:view", medicineHandler.GetMedicine)).Methods("GET")
	r.Handle("/api/medicines/{id}", guard("medicine:edit", medicineHandler.UpdateMedicine)).Methods("PUT")
	r.Handle("/api/medicines/{id}", guard("medicine:delete", medicineHandler.DeleteMedicine)).Methods("DELETE")
	r.Handle("/api/medicines/{id}/stock", guard("inventory:manage", medicineHandler.SetStock)).Methods("PUT")

	// Refill routes
	r.Handle("/api/medicines/{id}/refills", guard("inventory:manage", inventoryHandler.AddRefill)).Methods("POST")
	r.Handle("/api/medicines/{id}/refills", guard("inventory:view", inventoryHandler.ListRefills)).Methods("GET")
	r.Handle("/api/medicines/{id}/projection", guard("inventory:view", inventoryHandler.GetProjection)).Methods("GET")
	r.Handle("/api/refills/{id}", guard("inventory:manage", inventoryHandler.EditRefill)).Methods("PUT")
	r.Handle("/api/refills/{id}", guard("inventory:manage", inventoryHandler.DeleteRefill)).Methods("DELETE")

	// Inventory rollups
	r.Handle("/api/inventory/summary", guard("inventory:view", inventoryHandler.GetSummary)).Methods("GET")
	r.Handle("/api/inventory/projections", guard("inventory:view", inventoryHandler.GetProjections)).Methods("GET")

	// Dose schedule routes
	r.Handle("/api/doses", guard("dose:view", scheduleHandler.GetDosesForDate)).Methods("GET")
	r.Handle("/api/doses/range", guard("dose:view", scheduleHandler.GetDosesForRange)).Methods("GET")
	r.Handle("/api/doses/week", guard("dose:view", scheduleHandler.GetWeeklyDoses)).Methods("GET")
	r.Handle("/api/doses/month", guard("dose:view", scheduleHandler.GetMonthlyDoses)).Methods("GET")
	r.Handle("/api/doses/history", guard("dose:view", scheduleHandler.GetHistory)).Methods("GET")
	r.Handle("/api/doses/upcoming", guard("dose:view", scheduleHandler.GetUpcomingDoses)).Methods("GET")
	r.Handle("/api/doses/overdue", guard("dose:view", scheduleHandler.GetOverdueDoses)).Methods("GET")
	r.Handle("/api/doses/adherence", guard("dose:view", scheduleHandler.GetAdherence)).Methods("GET")
	r.Handle("/api/doses/take", guard("dose:transition", scheduleHandler.MarkTaken)).Methods("POST")
	r.Handle("/api/doses/miss", guard("dose:transition", scheduleHandler.MarkMissed)).Methods("POST")
	r.Handle("/api/doses/undo", guard("dose:transition", scheduleHandler.UndoDose)).Methods("POST")

	// Alerts
	r.Handle("/api/alerts", guard("alerts:view", alertHandler.GetAllAlerts)).Methods("GET")

	// Data transfer and settings
	r.Handle("/api/data/export", guard("data:export", transferHandler.ExportData)).Methods("GET")
	r.Handle("/api/data/import", guard("data:import", transferHandler.ImportData)).Methods("POST")
	r.Handle("/api/data", guard("data:clear", transferHandler.ClearData)).Methods("DELETE")
	r.Handle("/api/settings", guard("settings:view", transferHandler.GetSettings)).Methods("GET")
	r.Handle("/api/settings", guard("settings:edit", transferHandler.UpdateSettings)).Methods("PUT")

	return r
}
