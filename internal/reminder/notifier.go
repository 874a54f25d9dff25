package reminder

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/CareMeds-Health/medication-service/internal/messaging"
	"github.com/CareMeds-Health/medication-service/internal/model"
	"github.com/CareMeds-Health/medication-service/internal/store"
	"github.com/CareMeds-Health/medication-service/internal/telemetry"
)

// EventNotifier publishes reminder notifications to the message broker,
// enriched with medicine and patient names for downstream consumers.
type EventNotifier struct {
	store     *store.Store
	publisher messaging.PublisherInterface
	metrics   *telemetry.Metrics
}

func NewEventNotifier(st *store.Store, publisher messaging.PublisherInterface, metrics *telemetry.Metrics) *EventNotifier {
	if publisher == nil {
		publisher = messaging.Noop{}
	}
	return &EventNotifier{store: st, publisher: publisher, metrics: metrics}
}

func (n *EventNotifier) Remind(ctx context.Context, dose model.DoseRecord, minutesBefore int, dueNow bool) {
	var medicineName, dosage, patientName string
	n.store.View(func(doc *model.Document) {
		if m := doc.FindMedicine(dose.MedicineID); m != nil {
			medicineName = m.Name
			dosage = m.Dosage
		}
		if p := doc.FindPatient(dose.PatientID); p != nil {
			patientName = p.Name
		}
	})
	if medicineName == "" {
		log.Printf("Skipping reminder for deleted medicine %s", dose.MedicineID)
		return
	}

	key := messaging.EventReminderUpcoming
	if dueNow {
		key = messaging.EventReminderDue
	}

	event := messaging.ReminderEvent{
		BaseEvent: messaging.NewBaseEvent(key, uuid.New().String()),
		Data: messaging.ReminderEventData{
			MedicineID:    dose.MedicineID,
			MedicineName:  medicineName,
			Dosage:        dosage,
			PatientID:     dose.PatientID,
			PatientName:   patientName,
			ScheduledTime: dose.ScheduledTime,
			MinutesBefore: minutesBefore,
			DueNow:        dueNow,
		},
	}
	if err := n.publisher.Publish(ctx, key, event); err != nil {
		log.Printf("Failed to publish %s event: %v", key, err)
	}
	n.metrics.RecordReminderFired(ctx, dueNow)
}
