package schedule

import (
	"context"
	"log"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// DefaultRetentionDays is how long resolved dose records are kept before the
// cleanup job prunes them. Pending doses are virtual and never stored, so
// only taken and missed records accumulate.
const DefaultRetentionDays = 365

// CleanupService prunes dose history older than the retention window.
type CleanupService struct {
	store *store.Store
	clock clock.Clock
}

func NewCleanupService(st *store.Store, clk clock.Clock) *CleanupService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &CleanupService{store: st, clock: clk}
}

// ExpiredCount reports how many dose records fall outside the retention
// window.
func (s *CleanupService) ExpiredCount(retentionDays int) int {
	cutoff := s.cutoff(retentionDays)
	var count int
	s.store.View(func(doc *model.Document) {
		for _, d := range doc.DoseRecords {
			if d.ScheduledTime.Before(cutoff) {
				count++
			}
		}
	})
	return count
}

// PruneExpired deletes dose records scheduled before the retention cutoff
// and returns how many were removed.
func (s *CleanupService) PruneExpired(ctx context.Context, retentionDays int) (int, error) {
	cutoff := s.cutoff(retentionDays)
	log.Printf("Pruning dose history scheduled before %s", cutoff.Format(time.RFC3339))

	var removed int
	err := s.store.Update(func(doc *model.Document) error {
		kept := doc.DoseRecords[:0]
		for _, d := range doc.DoseRecords {
			if d.ScheduledTime.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, d)
		}
		doc.DoseRecords = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *CleanupService) cutoff(retentionDays int) time.Time {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return s.clock.Now().UTC().AddDate(0, 0, -retentionDays)
}
