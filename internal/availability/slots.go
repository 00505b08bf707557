package availability

import "mesa/pkg/model"

// Slot is one hour label with its offerability for a new reservation start
// (or end, for EndHours).
type Slot struct {
	Hour     string `json:"hour"`
	Disabled bool   `json:"disabled"`
}

// StartHours returns the ordered offerable start hours for a date, each
// marked disabled when the slot is at capacity.
//
// Whole-day locations get a single pseudo-slot carrying the opening label:
// a whole-day reservation cannot be offered if any hour of the date is
// already saturated.
//
// The final label of the grid is closing-time-only: it is kept in the
// sequence for end-hour selection but never enabled as a start. When the two
// labels preceding closing are both full the closing label is dropped
// entirely; the rule is inherited from the dashboard this service replaced
// and is pinned by tests until a product owner rules on it.
func StartHours(loc *model.Location, date string) []Slot {
	if loc == nil {
		return nil
	}

	settings := loc.Schedule.Settings
	if settings.NumberBookingsAllow <= 0 {
		return nil
	}

	labels := CandidateHours(ResolveWindow(loc.Schedule, date))
	if len(labels) == 0 {
		return nil
	}

	if settings.IsReservationWholeDay {
		return []Slot{{
			Hour:     labels[0],
			Disabled: loc.Reservations.MaxOccupiedCount(date) >= settings.NumberBookingsAllow,
		}}
	}

	full := func(label string) bool {
		return loc.Reservations.OccupiedCount(date, label) >= settings.NumberBookingsAllow
	}

	closing := labels[len(labels)-1]
	if len(labels) >= 3 && full(labels[len(labels)-2]) && full(labels[len(labels)-3]) {
		labels = labels[:len(labels)-1]
		closing = ""
	}

	labels = subsampleByBlockTime(labels, closing, settings.BlockTimeMinutes)

	slots := make([]Slot, 0, len(labels))
	for _, label := range labels {
		slots = append(slots, Slot{
			Hour:     label,
			Disabled: label == closing || full(label),
		})
	}
	return slots
}

// subsampleByBlockTime thins the 30-minute grid so that start hours are
// spaced by the configured block width. The first label always survives even
// off the block boundary, and the closing label survives because it is
// needed as an end-hour target.
func subsampleByBlockTime(labels []string, closing string, blockTimeMinutes int) []string {
	if blockTimeMinutes <= labelStepMinutes {
		return labels
	}

	kept := labels[:0:0]
	for i, label := range labels {
		if i == 0 || label == closing {
			kept = append(kept, label)
			continue
		}
		at, ok := hourToMinutes(label)
		if !ok {
			continue
		}
		if at%blockTimeMinutes == 0 {
			kept = append(kept, label)
		}
	}
	return kept
}

// EndHours returns the candidate end hours for a chosen start: every label
// strictly after start up to closing. A candidate is disabled when its own
// hour is full or when any hour strictly between start and the candidate is
// full — a reservation may not span an already-occupied hour.
//
// Only meaningful when the location enables end-date selection; an unknown
// start hour yields no candidates.
func EndHours(loc *model.Location, date, start string) []Slot {
	if loc == nil {
		return nil
	}

	settings := loc.Schedule.Settings
	if settings.NumberBookingsAllow <= 0 || settings.IsReservationWholeDay {
		return nil
	}

	labels := CandidateHours(ResolveWindow(loc.Schedule, date))

	startIdx := -1
	for i, label := range labels {
		if label == start {
			startIdx = i
			break
		}
	}
	if startIdx < 0 || startIdx == len(labels)-1 {
		return nil
	}

	full := func(label string) bool {
		return loc.Reservations.OccupiedCount(date, label) >= settings.NumberBookingsAllow
	}

	blockedSpan := false
	slots := make([]Slot, 0, len(labels)-startIdx-1)
	for i := startIdx + 1; i < len(labels); i++ {
		slots = append(slots, Slot{
			Hour:     labels[i],
			Disabled: blockedSpan || full(labels[i]),
		})
		// Hours between start and later candidates block everything past them.
		if full(labels[i]) {
			blockedSpan = true
		}
	}
	return slots
}

// ReservedHours lists the grid labels a committed reservation occupies and
// therefore the ledger paths it must be written to. Whole-day reservations
// occupy every label of the date; a range occupies start through end
// inclusive; a plain start occupies only its own label.
func ReservedHours(loc *model.Location, date, start, end string) []string {
	if loc == nil {
		return nil
	}

	labels := CandidateHours(ResolveWindow(loc.Schedule, date))

	if loc.Schedule.Settings.IsReservationWholeDay {
		return labels
	}

	startIdx := -1
	for i, label := range labels {
		if label == start {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return []string{start}
	}
	if end == "" {
		return []string{start}
	}

	hours := []string{}
	for i := startIdx; i < len(labels); i++ {
		hours = append(hours, labels[i])
		if labels[i] == end {
			break
		}
	}
	return hours
}

// SlotOfferable reports whether a previously rendered choice is still
// offerable against a fresh location snapshot. It is the commit-time
// re-check run inside the reservation write transaction.
func SlotOfferable(loc *model.Location, date, start, end string) bool {
	offered := false
	for _, slot := range StartHours(loc, date) {
		if slot.Hour == start && !slot.Disabled {
			offered = true
			break
		}
	}
	if loc != nil && loc.Schedule.Settings.IsReservationWholeDay {
		// Whole-day pseudo-slot: any enabled result covers the date.
		slots := StartHours(loc, date)
		offered = len(slots) == 1 && !slots[0].Disabled
	}
	if !offered || end == "" {
		return offered
	}

	for _, slot := range EndHours(loc, date, start) {
		if slot.Hour == end {
			return !slot.Disabled
		}
	}
	return false
}
