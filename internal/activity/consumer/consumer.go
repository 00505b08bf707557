package consumer

import (
	"context"
	"fmt"

	"mesa/internal/activity/repository"
	"mesa/pkg/kafka"
	"mesa/pkg/logger"
	"mesa/pkg/model"
)

// ReservationEventConsumer turns reservation events into activity log rows.
type ReservationEventConsumer struct {
	repo repository.ActivityRepository
	log  *logger.Logger
}

func NewReservationEventConsumer(repo repository.ActivityRepository, log *logger.Logger) *ReservationEventConsumer {
	return &ReservationEventConsumer{
		repo: repo,
		log:  log,
	}
}

// Handle is the kafka.MessageHandler wired into the consumer loop. Decode
// failures are permanent (the payload will not improve on retry); storage
// failures are transient and retried before landing in the DLQ.
func (c *ReservationEventConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode reservation event", err)
	}

	if event.ReservationID == "" || event.LocationID == "" || event.Action == "" {
		return kafka.NewPermanentError("reservation event missing required fields", nil)
	}

	entry := &model.ActivityEntry{
		LocationID:    event.LocationID,
		ReservationID: event.ReservationID,
		Action:        event.Action,
		Detail:        describeEvent(&event),
		CreatedAt:     event.OccurredAt,
	}

	if err := c.repo.Create(ctx, entry); err != nil {
		return kafka.NewTransientError("failed to store activity entry", err)
	}

	c.log.Debug("Activity entry recorded",
		"location_id", event.LocationID,
		"reservation_id", event.ReservationID,
		"action", event.Action,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func describeEvent(event *model.ReservationEvent) string {
	switch event.Action {
	case model.ActionReservationCreated:
		if event.EndHour != "" {
			return fmt.Sprintf("reservation for %d on %s %s-%s", event.NumberPeople, event.Date, event.StartHour, event.EndHour)
		}
		return fmt.Sprintf("reservation for %d on %s at %s", event.NumberPeople, event.Date, event.StartHour)
	case model.ActionStatusChanged:
		return fmt.Sprintf("status %s -> %s", event.PrevStatus, event.Status)
	case model.ActionReservationCancelled:
		return fmt.Sprintf("cancelled (was %s)", event.PrevStatus)
	default:
		return fmt.Sprintf("updated, %s on %s at %s", event.Status, event.Date, event.StartHour)
	}
}
