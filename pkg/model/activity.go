package model

import "time"

// Activity actions recorded by the activity worker.
const (
	ActionReservationCreated   = "reservation.created"
	ActionReservationUpdated   = "reservation.updated"
	ActionStatusChanged        = "reservation.status_changed"
	ActionReservationCancelled = "reservation.cancelled"
)

// ActivityEntry is one row of a location's activity log, derived from
// reservation events.
type ActivityEntry struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	LocationID    string    `json:"location_id" bson:"location_id"`
	ReservationID string    `json:"reservation_id" bson:"reservation_id"`
	Action        string    `json:"action" bson:"action"`
	Actor         string    `json:"actor,omitempty" bson:"actor"`
	Detail        string    `json:"detail,omitempty" bson:"detail"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// ReservationEvent is the payload published to Kafka for every reservation
// mutation and consumed by the activity worker.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	LocationID    string    `json:"location_id"`
	CompanyID     string    `json:"company_id"`
	Action        string    `json:"action"`
	Date          string    `json:"date"`
	StartHour     string    `json:"start_hour"`
	EndHour       string    `json:"end_hour,omitempty"`
	NumberPeople  int       `json:"number_people"`
	Status        string    `json:"status"`
	PrevStatus    string    `json:"prev_status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
