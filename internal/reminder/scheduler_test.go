package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/CareMeds-Health/medication-service/internal/clock"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/storage"
	"github.com/CareMeds-Health/medication-service/internal/store"
)

type stubSource struct {
	doses []model.DoseRecord
	err   error
}

func (s *stubSource) TodayDoses(patientID string) ([]model.DoseRecord, error) {
	return s.doses, s.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []struct {
		dose    model.DoseRecord
		minutes int
		dueNow  bool
	}
}

func (n *recordingNotifier) Remind(ctx context.Context, dose model.DoseRecord, minutesBefore int, dueNow bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, struct {
		dose    model.DoseRecord
		minutes int
		dueNow  bool
	}{dose, minutesBefore, dueNow})
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTestStore(t *testing.T, reminderMinutes int) *store.Store {
	t.Helper()
	st := store.New(storage.NewMemory())
	if err := st.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := st.Update(func(doc *model.Document) error {
		doc.Patients = append(doc.Patients, model.Patient{ID: "pat-1", Name: "Margaret"})
		doc.Medicines = append(doc.Medicines, model.Medicine{
			ID: "med-1", PatientID: "pat-1", Name: "Aspirin", Dosage: "100mg",
			Frequency: model.FrequencyOnceDaily, Timings: []string{"08:00"},
			StartDate: "2024-01-01", ReminderMinutesBefore: reminderMinutes,
		})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func upcomingDose(scheduled time.Time) model.DoseRecord {
	return model.DoseRecord{
		ID:            "d-1",
		MedicineID:    "med-1",
		PatientID:     "pat-1",
		ScheduledTime: scheduled,
		Status:        model.StatusUpcoming,
	}
}

func TestCheckArmsReminderTimer(t *testing.T) {
	now := time.Now()
	scheduled := now.Add(2 * time.Hour)
	source := &stubSource{doses: []model.DoseRecord{upcomingDose(scheduled)}}
	notifier := &recordingNotifier{}
	sched := NewScheduler(source, newTestStore(t, 15), notifier, clock.Real{})
	defer sched.Stop()

	sched.Check()

	// Only the early-warning timer: the dose is far outside the due-now
	// window.
	if got := sched.Armed(); got != 1 {
		t.Fatalf("expected 1 armed timer, got %d", got)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	now := time.Now()
	scheduled := now.Add(2 * time.Hour)
	source := &stubSource{doses: []model.DoseRecord{upcomingDose(scheduled)}}
	sched := NewScheduler(source, newTestStore(t, 15), &recordingNotifier{}, clock.Real{})
	defer sched.Stop()

	sched.Check()
	sched.Check()
	sched.Check()

	if got := sched.Armed(); got != 1 {
		t.Fatalf("repeated scans must not double-book, got %d timers", got)
	}
}

func TestCheckArmsDueNowTimer(t *testing.T) {
	now := time.Now()
	scheduled := now.Add(30 * time.Second)
	source := &stubSource{doses: []model.DoseRecord{upcomingDose(scheduled)}}
	sched := NewScheduler(source, newTestStore(t, 15), &recordingNotifier{}, clock.Real{})
	defer sched.Stop()

	sched.Check()

	// The reminder instant (15 minutes before) is already past, so only the
	// due-now timer is armed.
	if got := sched.Armed(); got != 1 {
		t.Fatalf("expected 1 due-now timer, got %d", got)
	}
}

func TestCheckSkipsNonUpcoming(t *testing.T) {
	now := time.Now()
	taken := upcomingDose(now.Add(2 * time.Hour))
	taken.Status = model.StatusTaken
	missed := upcomingDose(now.Add(3 * time.Hour))
	missed.Status = model.StatusMissed

	source := &stubSource{doses: []model.DoseRecord{taken, missed}}
	sched := NewScheduler(source, newTestStore(t, 15), &recordingNotifier{}, clock.Real{})
	defer sched.Stop()

	sched.Check()

	if got := sched.Armed(); got != 0 {
		t.Fatalf("resolved doses must not arm timers, got %d", got)
	}
}

func TestCheckSkipsPastDoses(t *testing.T) {
	now := time.Now()
	source := &stubSource{doses: []model.DoseRecord{upcomingDose(now.Add(-time.Hour))}}
	sched := NewScheduler(source, newTestStore(t, 15), &recordingNotifier{}, clock.Real{})
	defer sched.Stop()

	sched.Check()

	if got := sched.Armed(); got != 0 {
		t.Fatalf("past doses must not arm timers, got %d", got)
	}
}

func TestStopCancelsAllTimers(t *testing.T) {
	now := time.Now()
	source := &stubSource{doses: []model.DoseRecord{
		upcomingDose(now.Add(2 * time.Hour)),
	}}
	notifier := &recordingNotifier{}
	sched := NewScheduler(source, newTestStore(t, 15), notifier, clock.Real{})

	sched.Start()
	if !sched.Running() {
		t.Fatal("scheduler should be running after Start")
	}
	if sched.Armed() == 0 {
		t.Fatal("expected timers armed after Start's immediate scan")
	}

	sched.Stop()
	if sched.Running() {
		t.Error("scheduler should not be running after Stop")
	}
	if got := sched.Armed(); got != 0 {
		t.Errorf("Stop must cancel all timers, %d remain", got)
	}

	// A stray scan after Stop must not resurrect timers.
	sched.Check()
	if got := sched.Armed(); got != 0 {
		t.Errorf("scan after Stop re-armed %d timers", got)
	}
	if notifier.count() != 0 {
		t.Errorf("no notifications should have fired, got %d", notifier.count())
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	source := &stubSource{}
	sched := NewScheduler(source, newTestStore(t, 15), &recordingNotifier{}, clock.Real{})
	defer sched.Stop()

	sched.Start()
	sched.Start()

	if !sched.Running() {
		t.Fatal("scheduler should be running")
	}
}

func TestTimerFiresNotifier(t *testing.T) {
	now := time.Now()
	// Schedule so the due-now timer fires almost immediately.
	scheduled := now.Add(20 * time.Millisecond)
	source := &stubSource{doses: []model.DoseRecord{upcomingDose(scheduled)}}
	notifier := &recordingNotifier{}
	sched := NewScheduler(source, newTestStore(t, 15), notifier, clock.Real{})
	defer sched.Stop()

	sched.Check()

	deadline := time.After(2 * time.Second)
	for notifier.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("notifier never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	notifier.mu.Lock()
	call := notifier.calls[0]
	notifier.mu.Unlock()
	if !call.dueNow {
		t.Error("expected due-now notification")
	}
	if call.minutes != 15 {
		t.Errorf("expected medicine reminder minutes 15, got %d", call.minutes)
	}
	if got := sched.Armed(); got != 0 {
		t.Errorf("fired timer should be released, %d still armed", got)
	}
}
