// Package reminder arms one-shot timers for upcoming doses: an early warning
// ahead of each dose and a due-now notification when the dose time arrives.
// The scheduler only reads schedule state; it never mutates doses or stock.
package reminder

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

// CheckInterval is how often the scheduler rescans today's doses.
const CheckInterval = 60 * time.Second

// DefaultReminderMinutes applies when a medicine has no reminder setting.
const DefaultReminderMinutes = 15

// DoseSource yields today's dose instances; *schedule.Service satisfies it.
type DoseSource interface {
	TodayDoses(patientID string) ([]model.DoseRecord, error)
}

// Notifier receives reminder callbacks. dueNow distinguishes the at-time
// notification from the early warning.
type Notifier interface {
	Remind(ctx context.Context, dose model.DoseRecord, minutesBefore int, dueNow bool)
}

type Scheduler struct {
	source   DoseSource
	store    *store.Store
	notifier Notifier
	clock    clock.Clock

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
	done    chan struct{}
}

func NewScheduler(source DoseSource, st *store.Store, notifier Notifier, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Scheduler{
		source:   source,
		store:    st,
		notifier: notifier,
		clock:    clk,
		timers:   make(map[string]*time.Timer),
	}
}

// Start begins the periodic scan. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("Reminder scheduler already running")
		return
	}
	s.running = true
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	log.Printf("Starting reminder scheduler (interval %s)", CheckInterval)
	s.Check()

	go func() {
		ticker := time.NewTicker(CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Check()
			case <-done:
				return
			}
		}
	}()
}

// Stop halts the scan loop and cancels every armed timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	log.Printf("Stopping reminder scheduler")
	s.running = false
	close(s.done)

	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Running reports whether the scan loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Armed returns the number of pending timers.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Check scans today's doses and arms timers for any upcoming dose whose
// reminder or due time lies ahead. Arming is idempotent per natural key, so
// repeated scans never double-book a dose.
func (s *Scheduler) Check() {
	doses, err := s.source.TodayDoses("")
	if err != nil {
		log.Printf("Reminder scan failed: %v", err)
		return
	}

	now := s.clock.Now()
	for _, dose := range doses {
		if dose.Status != model.StatusUpcoming {
			continue
		}

		minutes := s.reminderMinutes(dose.MedicineID)
		key := dose.Key()

		untilReminder := clock.ReminderTime(dose.ScheduledTime, minutes).Sub(now)
		if untilReminder > 0 {
			s.arm(key, untilReminder, dose, minutes, false)
		}

		// When the dose itself lands within the next scan interval, arm the
		// due-now timer as well.
		untilDose := dose.ScheduledTime.Sub(now)
		if untilDose > 0 && untilDose <= CheckInterval {
			s.arm(key+"-now", untilDose, dose, minutes, true)
		}
	}
}

func (s *Scheduler) arm(key string, after time.Duration, dose model.DoseRecord, minutes int, dueNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A stopped scheduler stays stopped: a stray scan must not re-arm.
	if !s.running && s.done != nil {
		return
	}
	if _, exists := s.timers[key]; exists {
		return
	}
	s.timers[key] = time.AfterFunc(after, func() {
		s.fire(key, dose, minutes, dueNow)
	})
}

func (s *Scheduler) fire(key string, dose model.DoseRecord, minutes int, dueNow bool) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()

	s.notifier.Remind(context.Background(), dose, minutes, dueNow)
}

func (s *Scheduler) reminderMinutes(medicineID string) int {
	minutes := DefaultReminderMinutes
	s.store.View(func(doc *model.Document) {
		if doc.Settings.DefaultReminderMinutes > 0 {
			minutes = doc.Settings.DefaultReminderMinutes
		}
		if m := doc.FindMedicine(medicineID); m != nil && m.ReminderMinutesBefore > 0 {
			minutes = m.ReminderMinutesBefore
		}
	})
	return minutes
}
