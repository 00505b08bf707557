package model

import "time"

// Reservation lifecycle. Cancellation is allowed from every state except
// checkout and cancelled itself.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCheckin   = "checkin"
	StatusCheckout  = "checkout"
	StatusCancelled = "cancelled"
)

var statusTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckin, StatusCancelled},
	StatusCheckin:   {StatusCheckout, StatusCancelled},
	StatusCheckout:  {},
	StatusCancelled: {},
}

// CanTransition reports whether a reservation may move between two states.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions are possible.
func IsTerminalStatus(status string) bool {
	return len(statusTransitions[status]) == 0
}

type Reservation struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	LocationID    string    `json:"location_id" bson:"location_id" validate:"required,mongodb"`
	CompanyID     string    `json:"company_id" bson:"company_id" validate:"required,min=1,max=100"`
	CustomerName  string    `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone string    `json:"customer_phone" bson:"customer_phone" validate:"required,e164"`
	CustomerEmail string    `json:"customer_email,omitempty" bson:"customer_email" validate:"omitempty,email"`
	Date          string    `json:"date" bson:"date" validate:"required,valid_iso_date"`
	StartHour     string    `json:"start_hour" bson:"start_hour" validate:"required,valid_hour"`
	EndHour       string    `json:"end_hour,omitempty" bson:"end_hour" validate:"omitempty,valid_hour"`
	NumberPeople  int       `json:"number_people" bson:"number_people" validate:"required,min=1,max=500"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed checkin checkout cancelled"`
	Notes         string    `json:"notes,omitempty" bson:"notes" validate:"omitempty,max=500"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ReservationUpdate struct {
	CustomerName  *string `json:"customer_name,omitempty" validate:"omitempty,min=2,max=100"`
	CustomerPhone *string `json:"customer_phone,omitempty" validate:"omitempty,e164"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
	Date          *string `json:"date,omitempty" validate:"omitempty,valid_iso_date"`
	StartHour     *string `json:"start_hour,omitempty" validate:"omitempty,valid_hour"`
	EndHour       *string `json:"end_hour,omitempty" validate:"omitempty,valid_hour"`
	NumberPeople  *int    `json:"number_people,omitempty" validate:"omitempty,min=1,max=500"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed checkin checkout cancelled"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// BookingUnits is how many ledger entries the reservation occupies per hour:
// one per seat when the location tracks specific positions, otherwise one
// per reservation regardless of party size.
func (r *Reservation) BookingUnits(settings ScheduleSettings) int {
	if settings.PersonHasSpecificPosition {
		return r.NumberPeople
	}
	return 1
}
