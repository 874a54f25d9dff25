package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/auth"
	internalhttp "github.com/CareMeds-Health/medication-service/internal/http"
	"github.com/CareMeds-Health/medication-service/internal/medicine"
	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/reminder"
	"github.com/CareMeds-Health/medication-service/internal/schedule"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
	"github.com/CareMeds-Health/medication-service/internal/telemetry"
)

func main() {
	log.Println("Medication Service - Starting")

	ctx := context.Background()

	// OpenTelemetry. The service runs fine without a collector; the
	// provider degrades gracefully.
	telemetryConfig := telemetry.LoadConfig()
	provider, err := telemetry.InitProvider(ctx, telemetryConfig)
	if err != nil {
		log.Printf("Warning: telemetry initialization failed: %v", err)
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Warning: metrics initialization failed: %v", err)
		metrics = nil
	}

	// Persistence backend. On failure the store runs in-memory only and
	// the health endpoint reports degraded.
	kv, err := storage.Connect(ctx)
	if err != nil {
		log.Printf("Warning: storage unavailable, running in-memory only: %v", err)
		kv = nil
	}

	st := store.New(kv)
	if err := st.Load(ctx); err != nil {
		log.Printf("Warning: failed to load persisted data: %v", err)
	}

	// Event publisher. Falls back to a no-op when RabbitMQ is down so the
	// API keeps serving.
	var publisher messaging.PublisherInterface
	rabbitPublisher, err := messaging.NewPublisher()
	if err != nil {
		log.Printf("Warning: RabbitMQ unavailable, events disabled: %v", err)
		publisher = messaging.Noop{}
	} else {
		publisher = rabbitPublisher
		defer rabbitPublisher.Close()
	}

	authConfig := auth.LoadConfig()
	if authConfig.Secret == "" {
		log.Println("Warning: AUTH_SECRET not set, authentication disabled")
	}
	verifier := auth.NewVerifier(authConfig)

	permissionsFile := os.Getenv("PERMISSIONS_FILE")
	if permissionsFile == "" {
		permissionsFile = "permissions.yml"
	}
	perms, err := auth.LoadPermissions(permissionsFile)
	if err != nil {
		log.Fatalf("Failed to load permissions from %s: %v", permissionsFile, err)
	}

	// The reminder scheduler needs a schedule service of its own; the
	// router wires one for the HTTP handlers internally.
	medicineService := medicine.NewService(st, publisher)
	scheduleService := schedule.NewService(st, medicineService, nil, publisher)
	notifier := reminder.NewEventNotifier(st, publisher, metrics)
	reminderScheduler := reminder.NewScheduler(scheduleService, st, notifier, nil)
	reminderScheduler.Start()

	router := internalhttp.SetupRouter(st, publisher, verifier, perms, metrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("medication-service listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Block until shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	reminderScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := st.Flush(shutdownCtx); err != nil {
		log.Printf("Failed to flush data on shutdown: %v", err)
	}
	if provider != nil {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}

	log.Println("Medication Service - Stopped")
}
