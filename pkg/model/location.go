package model

import "time"

// DayHours is the recurring opening/closing window for one weekday,
// in "HH:mm" 24-hour form.
type DayHours struct {
	Opening string `json:"opening" bson:"opening" validate:"required,valid_hour"`
	Closing string `json:"closing" bson:"closing" validate:"required,valid_hour"`
}

// BlockedRange is a half-open [From, To) range of hours removed from a day.
type BlockedRange struct {
	From string `json:"from" bson:"from" validate:"required,valid_hour"`
	To   string `json:"to" bson:"to" validate:"required,valid_hour"`
}

// BlockDate overrides a single date: the date keeps its weekly hours minus
// the blocked ranges, or is fully closed when Open is false.
type BlockDate struct {
	Open  bool           `json:"open" bson:"open"`
	Hours []BlockedRange `json:"hours" bson:"hours" validate:"omitempty,dive"`
}

// SpecialDate fully replaces the day's window for a single date.
type SpecialDate struct {
	Opening string `json:"opening" bson:"opening" validate:"required_if=IsOpen true,omitempty,valid_hour"`
	Closing string `json:"closing" bson:"closing" validate:"required_if=IsOpen true,omitempty,valid_hour"`
	IsOpen  bool   `json:"isOpen" bson:"isOpen"`
}

// ScheduleSettings carries the capacity and granularity policy of a location.
// Field names are shared with the dashboard clients and must not change.
type ScheduleSettings struct {
	IsEndDateEnable           bool `json:"isEndDateEnable" bson:"isEndDateEnable"`
	NumberBookingsAllow       int  `json:"numberBookingsAllow" bson:"numberBookingsAllow" validate:"required,min=1,max=200"`
	PersonHasSpecificPosition bool `json:"personHasSpecificPosition" bson:"personHasSpecificPosition"`
	IsReservationWholeDay     bool `json:"isReservationWholeDay" bson:"isReservationWholeDay"`
	MaximumCapacity           int  `json:"maximumCapacity" bson:"maximumCapacity" validate:"required,min=1,max=500"`
	BlockTimeMinutes          int  `json:"blockTimeMinutes" bson:"blockTimeMinutes" validate:"oneof=0 30 60"`
}

// Schedule groups the three override layers plus settings. Weekly hours are
// keyed by weekday index "0" (Sunday) through "6"; block and special dates
// are keyed by ISO date "2006-01-02".
type Schedule struct {
	WeeklyDates  map[string]DayHours    `json:"weekly-dates" bson:"weekly-dates" validate:"omitempty,dive,keys,valid_weekday,endkeys"`
	BlockDates   map[string]BlockDate   `json:"block-dates" bson:"block-dates" validate:"omitempty,dive,keys,valid_iso_date,endkeys"`
	SpecialDates map[string]SpecialDate `json:"special-dates" bson:"special-dates" validate:"omitempty,dive,keys,valid_iso_date,endkeys"`
	Settings     ScheduleSettings       `json:"settings" bson:"settings" validate:"required"`
}

// Ledger is the per-location occupancy record: date -> hour -> occupying
// reservation IDs. One entry per booking unit; when the location tracks
// per-seat positions an entry is written per person in the party.
type Ledger map[string]map[string][]string

// OccupiedCount reports how many booking units hold the given hour.
func (l Ledger) OccupiedCount(date, hour string) int {
	if l == nil {
		return 0
	}
	return len(l[date][hour])
}

// MaxOccupiedCount reports the highest per-hour occupancy across a date,
// used for whole-day reservations.
func (l Ledger) MaxOccupiedCount(date string) int {
	maxCount := 0
	for _, ids := range l[date] {
		if len(ids) > maxCount {
			maxCount = len(ids)
		}
	}
	return maxCount
}

type Location struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CompanyID    string    `json:"company_id" bson:"company_id" validate:"required,min=1,max=100"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	City         string    `json:"city" bson:"city" validate:"required,min=2,max=50"`
	Address      string    `json:"address" bson:"address" validate:"required,min=2,max=200"`
	Phone        string    `json:"phone,omitempty" bson:"phone" validate:"omitempty,e164"`
	TimeZone     string    `json:"time_zone,omitempty" bson:"time_zone" validate:"omitempty,timezone"`
	Schedule     Schedule  `json:"schedule" bson:"schedule" validate:"required"`
	Reservations Ledger    `json:"reservations,omitempty" bson:"reservations"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type LocationUpdate struct {
	Name         *string                 `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	City         *string                 `json:"city,omitempty" validate:"omitempty,min=2,max=50"`
	Address      *string                 `json:"address,omitempty" validate:"omitempty,min=2,max=200"`
	Phone        *string                 `json:"phone,omitempty" validate:"omitempty,e164"`
	TimeZone     *string                 `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	WeeklyDates  *map[string]DayHours    `json:"weekly-dates,omitempty"`
	BlockDates   *map[string]BlockDate   `json:"block-dates,omitempty"`
	SpecialDates *map[string]SpecialDate `json:"special-dates,omitempty"`
	Settings     *ScheduleSettings       `json:"settings,omitempty"`
}
