// Package availability derives the offerable start and end hours for a
// location date from its configured schedule and current occupancy ledger.
// Every function here is a pure computation over a Location snapshot; callers
// that mutate the ledger must re-run the computation on a fresh snapshot
// inside their write transaction.
//
// All results fail closed: malformed schedule data, unknown dates, and
// inverted windows yield "no hours" rather than an error, so bad
// configuration can never offer a slot it should not.
package availability

import (
	"fmt"
	"strconv"
	"time"

	"mesa/pkg/model"
)

// labelStepMinutes is the fine label grid. Block-time granularity subsamples
// this grid but never refines it.
const labelStepMinutes = 30

// DayWindow is the effective opening window for one date after applying the
// override precedence. Closed days are an explicit variant, not an empty
// window.
type DayWindow struct {
	Open    bool
	Opening string
	Closing string
	Blocked []model.BlockedRange
}

var closedWindow = DayWindow{}

// hourToMinutes parses an "HH:mm" label to minutes since midnight.
func hourToMinutes(label string) (int, bool) {
	if len(label) != 5 || label[2] != ':' {
		return 0, false
	}
	h, err := strconv.Atoi(label[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(label[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func minutesToHour(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ResolveWindow determines the single effective window for a date. Override
// resolvers are tried in priority order and the first definitive answer wins:
//
//  1. special-dates: full replacement of the day, including closure
//  2. block-dates: weekly hours minus the blocked ranges, or full closure
//  3. weekly-dates: the recurring default for the weekday
//  4. no weekly entry: closed
func ResolveWindow(sched model.Schedule, date string) DayWindow {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return closedWindow
	}

	if special, ok := sched.SpecialDates[date]; ok {
		if !special.IsOpen {
			return closedWindow
		}
		return openWindow(special.Opening, special.Closing, nil)
	}

	weekday := strconv.Itoa(int(day.Weekday()))
	weekly, ok := sched.WeeklyDates[weekday]
	if !ok {
		return closedWindow
	}

	if block, blocked := sched.BlockDates[date]; blocked {
		if !block.Open {
			return closedWindow
		}
		return openWindow(weekly.Opening, weekly.Closing, block.Hours)
	}

	return openWindow(weekly.Opening, weekly.Closing, nil)
}

// openWindow validates the raw opening/closing pair. A window that does not
// strictly advance is closed; overnight wraparound is not supported.
func openWindow(opening, closing string, blocked []model.BlockedRange) DayWindow {
	open, okOpen := hourToMinutes(opening)
	closeAt, okClose := hourToMinutes(closing)
	if !okOpen || !okClose || closeAt <= open {
		return closedWindow
	}
	return DayWindow{
		Open:    true,
		Opening: opening,
		Closing: closing,
		Blocked: blocked,
	}
}

// CandidateHours expands a window into the ordered label grid from opening
// to closing inclusive, stepped by 30 minutes, with blocked ranges removed.
// Blocked ranges are half-open: [from, to) — a range ending at 13:00 keeps
// the 13:00 label.
func CandidateHours(window DayWindow) []string {
	if !window.Open {
		return nil
	}

	open, _ := hourToMinutes(window.Opening)
	closeAt, _ := hourToMinutes(window.Closing)

	var labels []string
	for at := open; at <= closeAt; at += labelStepMinutes {
		if blockedAt(window.Blocked, at) {
			continue
		}
		labels = append(labels, minutesToHour(at))
	}
	return labels
}

func blockedAt(blocked []model.BlockedRange, at int) bool {
	for _, r := range blocked {
		from, okFrom := hourToMinutes(r.From)
		to, okTo := hourToMinutes(r.To)
		if !okFrom || !okTo {
			continue
		}
		if at >= from && at < to {
			return true
		}
	}
	return false
}
