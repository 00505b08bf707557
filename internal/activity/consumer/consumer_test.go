package consumer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mesa/pkg/kafka"
	"mesa/pkg/logger"
	"mesa/pkg/model"
)

type mockActivityRepository struct {
	createFunc func(ctx context.Context, entry *model.ActivityEntry) error
	created    []*model.ActivityEntry
}

func (m *mockActivityRepository) Create(ctx context.Context, entry *model.ActivityEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	m.created = append(m.created, entry)
	return nil
}

func (m *mockActivityRepository) FindByLocation(ctx context.Context, locationID string, limit int, offset int) ([]*model.ActivityEntry, error) {
	return []*model.ActivityEntry{}, nil
}

func (m *mockActivityRepository) CountByLocation(ctx context.Context, locationID string) (int64, error) {
	return 0, nil
}

func testLog() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func testEvent(action string) model.ReservationEvent {
	return model.ReservationEvent{
		ReservationID: "665f1b2a9c3d4e5f6a7b8c9e",
		LocationID:    "665f1b2a9c3d4e5f6a7b8c9d",
		Action:        action,
		Date:          "2030-05-11",
		StartHour:     "18:00",
		NumberPeople:  4,
		Status:        model.StatusPending,
		OccurredAt:    time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandle_RecordsEntry(t *testing.T) {
	repo := &mockActivityRepository{}
	c := NewReservationEventConsumer(repo, testLog())

	msg := kafka.NewMessage().WithValue(testEvent(model.ActionReservationCreated)).Build()
	if err := c.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(repo.created))
	}
	entry := repo.created[0]
	if entry.Action != model.ActionReservationCreated {
		t.Errorf("unexpected action %q", entry.Action)
	}
	if !strings.Contains(entry.Detail, "2030-05-11") || !strings.Contains(entry.Detail, "18:00") {
		t.Errorf("detail must describe the slot, got %q", entry.Detail)
	}
}

func TestHandle_MalformedPayloadIsPermanent(t *testing.T) {
	c := NewReservationEventConsumer(&mockActivityRepository{}, testLog())

	msg := kafka.Message{Value: []byte("{not json"), Headers: map[string]string{}}
	err := c.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error for a malformed payload")
	}
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Error("a payload that cannot improve must be permanent")
	}
}

func TestHandle_MissingFieldsArePermanent(t *testing.T) {
	c := NewReservationEventConsumer(&mockActivityRepository{}, testLog())

	event := testEvent(model.ActionReservationCreated)
	event.ReservationID = ""
	msg := kafka.NewMessage().WithValue(event).Build()

	err := c.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error for an incomplete event")
	}
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Error("an incomplete event must be permanent")
	}
}

func TestHandle_StorageFailureIsTransient(t *testing.T) {
	repo := &mockActivityRepository{
		createFunc: func(ctx context.Context, entry *model.ActivityEntry) error {
			return errors.New("server selection timeout")
		},
	}
	c := NewReservationEventConsumer(repo, testLog())

	msg := kafka.NewMessage().WithValue(testEvent(model.ActionStatusChanged)).Build()
	err := c.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error when storage is down")
	}
	if kafka.ClassifyError(err) != kafka.ErrorTypeTransient {
		t.Error("a storage failure must be retried")
	}
}
