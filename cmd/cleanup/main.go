package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/schedule"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

func main() {
	log.Println("Dose History Cleanup Job - Starting")

	retentionDays := schedule.DefaultRetentionDays
	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			log.Fatalf("Invalid RETENTION_DAYS %q", v)
		}
		retentionDays = parsed
	}
	log.Printf("Retention Policy: %d days", retentionDays)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	kv, err := storage.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to storage: %v", err)
	}

	st := store.New(kv)
	if err := st.Load(ctx); err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}

	cleanupService := schedule.NewCleanupService(st, nil)

	count := cleanupService.ExpiredCount(retentionDays)
	log.Printf("Found %d dose records eligible for deletion", count)

	if count == 0 {
		log.Println("No cleanup needed. Exiting.")
		os.Exit(0)
	}

	removed, err := cleanupService.PruneExpired(ctx, retentionDays)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	if err := st.Flush(ctx); err != nil {
		log.Fatalf("Failed to persist pruned data: %v", err)
	}

	log.Printf("✓ Cleanup completed successfully: %d dose records deleted", removed)
	log.Println("Cleanup Job - Finished")
}
