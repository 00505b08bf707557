package availability

import (
	"reflect"
	"testing"

	"mesa/pkg/model"
)

func testLocation(settings model.ScheduleSettings, ledger model.Ledger) *model.Location {
	return &model.Location{
		ID:        "665f1b2a9c3d4e5f6a7b8c9d",
		CompanyID: "acme",
		Name:      "Harbor Grill",
		Schedule: model.Schedule{
			WeeklyDates: weeklyAllWeek("09:00", "17:00"),
			Settings:    settings,
		},
		Reservations: ledger,
	}
}

func slotByHour(slots []Slot, hour string) (Slot, bool) {
	for _, s := range slots {
		if s.Hour == hour {
			return s, true
		}
	}
	return Slot{}, false
}

func TestStartHours_FullSlotDisabledOthersEnabled(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 2, MaximumCapacity: 50},
		model.Ledger{saturday: {"12:00": {"r1", "r2"}}},
	)

	slots := StartHours(loc, saturday)
	if len(slots) == 0 {
		t.Fatal("expected slots for an open day")
	}

	for _, slot := range slots {
		switch slot.Hour {
		case "12:00":
			if !slot.Disabled {
				t.Error("12:00 holds 2 of 2 allowed bookings and must be disabled")
			}
		case "17:00":
			if !slot.Disabled {
				t.Error("closing label must never be offered as a start hour")
			}
		default:
			if slot.Disabled {
				t.Errorf("%s is under capacity and must be enabled", slot.Hour)
			}
		}
	}
}

func TestStartHours_BelowCapacityStaysEnabled(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 2, MaximumCapacity: 50},
		model.Ledger{saturday: {"12:00": {"r1"}}},
	)

	slot, ok := slotByHour(StartHours(loc, saturday), "12:00")
	if !ok {
		t.Fatal("12:00 missing from candidate sequence")
	}
	if slot.Disabled {
		t.Error("one of two allowed bookings must leave the slot enabled")
	}
}

func TestStartHours_PartySizeExpandedEntriesCountAgainstCapacity(t *testing.T) {
	// With per-seat positions a party of four writes four ledger entries.
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 4, PersonHasSpecificPosition: true, MaximumCapacity: 50},
		model.Ledger{saturday: {"12:00": {"r1", "r1", "r1", "r1"}}},
	)

	slot, ok := slotByHour(StartHours(loc, saturday), "12:00")
	if !ok {
		t.Fatal("12:00 missing from candidate sequence")
	}
	if !slot.Disabled {
		t.Error("four seat entries against numberBookingsAllow=4 must disable the slot")
	}
}

func TestStartHours_ClosedDayYieldsNothing(t *testing.T) {
	loc := testLocation(model.ScheduleSettings{NumberBookingsAllow: 2, MaximumCapacity: 50}, nil)
	loc.Schedule.SpecialDates = map[string]model.SpecialDate{saturday: {IsOpen: false}}

	if slots := StartHours(loc, saturday); len(slots) != 0 {
		t.Errorf("special-date closure must yield no slots, got %v", slots)
	}
}

func TestStartHours_FailsClosedOnMissingConfiguration(t *testing.T) {
	tests := []struct {
		name string
		loc  *model.Location
	}{
		{"nil location", nil},
		{
			"zero bookings allowed",
			testLocation(model.ScheduleSettings{NumberBookingsAllow: 0, MaximumCapacity: 50}, nil),
		},
		{
			"no weekly hours at all",
			&model.Location{Schedule: model.Schedule{Settings: model.ScheduleSettings{NumberBookingsAllow: 2}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if slots := StartHours(tt.loc, saturday); len(slots) != 0 {
				t.Errorf("expected no slots, got %v", slots)
			}
		})
	}
}

func TestStartHours_WholeDayPseudoSlot(t *testing.T) {
	settings := model.ScheduleSettings{
		NumberBookingsAllow:   2,
		IsReservationWholeDay: true,
		MaximumCapacity:       50,
	}

	t.Run("free day offers the pseudo-slot", func(t *testing.T) {
		loc := testLocation(settings, model.Ledger{saturday: {"12:00": {"r1"}}})

		slots := StartHours(loc, saturday)
		want := []Slot{{Hour: "09:00", Disabled: false}}
		if !reflect.DeepEqual(slots, want) {
			t.Errorf("StartHours() = %v, want %v", slots, want)
		}
	})

	t.Run("any saturated hour disables the whole day", func(t *testing.T) {
		loc := testLocation(settings, model.Ledger{saturday: {"15:30": {"r1", "r2"}}})

		slots := StartHours(loc, saturday)
		want := []Slot{{Hour: "09:00", Disabled: true}}
		if !reflect.DeepEqual(slots, want) {
			t.Errorf("StartHours() = %v, want %v", slots, want)
		}
	})
}

func TestStartHours_BlockTimeSubsampling(t *testing.T) {
	loc := testLocation(model.ScheduleSettings{NumberBookingsAllow: 2, BlockTimeMinutes: 60, MaximumCapacity: 50}, nil)

	slots := StartHours(loc, saturday)

	var hours []string
	for _, slot := range slots {
		hours = append(hours, slot.Hour)
	}
	want := []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	if !reflect.DeepEqual(hours, want) {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestStartHours_BlockTimeKeepsOffBoundaryOpeningHour(t *testing.T) {
	loc := testLocation(model.ScheduleSettings{NumberBookingsAllow: 2, BlockTimeMinutes: 60, MaximumCapacity: 50}, nil)
	loc.Schedule.WeeklyDates = weeklyAllWeek("09:30", "12:00")

	slots := StartHours(loc, saturday)

	var hours []string
	for _, slot := range slots {
		hours = append(hours, slot.Hour)
	}
	// 09:30 survives subsampling even though it is off the hour boundary.
	want := []string{"09:30", "10:00", "11:00", "12:00"}
	if !reflect.DeepEqual(hours, want) {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestStartHours_ClosingLabelSuppressedWhenPrecedingHoursFull(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 1, MaximumCapacity: 50},
		model.Ledger{saturday: {
			"16:00": {"r1"},
			"16:30": {"r2"},
		}},
	)

	slots := StartHours(loc, saturday)

	if _, ok := slotByHour(slots, "17:00"); ok {
		t.Error("closing label must be suppressed when both preceding hours are full")
	}
	if _, ok := slotByHour(slots, "16:30"); !ok {
		t.Error("16:30 itself must remain in the sequence (as disabled)")
	}
}

func TestEndHours_StrictlyAfterStartUpToClosing(t *testing.T) {
	loc := testLocation(model.ScheduleSettings{NumberBookingsAllow: 2, IsEndDateEnable: true, MaximumCapacity: 50}, nil)

	slots := EndHours(loc, saturday, "15:30")

	var hours []string
	for _, slot := range slots {
		hours = append(hours, slot.Hour)
		if slot.Disabled {
			t.Errorf("%s should be enabled on an empty ledger", slot.Hour)
		}
	}
	want := []string{"16:00", "16:30", "17:00"}
	if !reflect.DeepEqual(hours, want) {
		t.Errorf("hours = %v, want %v", hours, want)
	}
}

func TestEndHours_CannotSpanOccupiedHour(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 1, IsEndDateEnable: true, MaximumCapacity: 50},
		model.Ledger{saturday: {"15:00": {"r1"}}},
	)

	slots := EndHours(loc, saturday, "14:00")

	for _, slot := range slots {
		switch slot.Hour {
		case "14:30":
			if slot.Disabled {
				t.Error("14:30 precedes the occupied hour and must be enabled")
			}
		case "15:00":
			if !slot.Disabled {
				t.Error("15:00 is itself full and must be disabled")
			}
		default:
			if !slot.Disabled {
				t.Errorf("%s lies beyond the occupied 15:00 hour and must be disabled", slot.Hour)
			}
		}
	}
}

func TestEndHours_UnknownStartYieldsNothing(t *testing.T) {
	loc := testLocation(model.ScheduleSettings{NumberBookingsAllow: 2, IsEndDateEnable: true, MaximumCapacity: 50}, nil)

	if slots := EndHours(loc, saturday, "08:00"); len(slots) != 0 {
		t.Errorf("start hour outside the grid must yield no end hours, got %v", slots)
	}
	if slots := EndHours(loc, saturday, "17:00"); len(slots) != 0 {
		t.Errorf("closing hour as start must yield no end hours, got %v", slots)
	}
}

func TestSlotOfferable_CommitTimeRecheck(t *testing.T) {
	settings := model.ScheduleSettings{NumberBookingsAllow: 1, MaximumCapacity: 50}

	t.Run("free slot is offerable", func(t *testing.T) {
		loc := testLocation(settings, nil)
		if !SlotOfferable(loc, saturday, "12:00", "") {
			t.Error("free slot should be offerable")
		}
	})

	t.Run("slot saturated since render is rejected", func(t *testing.T) {
		loc := testLocation(settings, model.Ledger{saturday: {"12:00": {"r1"}}})
		if SlotOfferable(loc, saturday, "12:00", "") {
			t.Error("saturated slot must not be offerable")
		}
	})

	t.Run("range over an occupied hour is rejected", func(t *testing.T) {
		loc := testLocation(
			model.ScheduleSettings{NumberBookingsAllow: 1, IsEndDateEnable: true, MaximumCapacity: 50},
			model.Ledger{saturday: {"13:00": {"r1"}}},
		)
		if SlotOfferable(loc, saturday, "12:00", "14:00") {
			t.Error("range spanning the occupied 13:00 hour must not be offerable")
		}
		if !SlotOfferable(loc, saturday, "12:00", "12:30") {
			t.Error("range ending before the occupied hour should be offerable")
		}
	})

	t.Run("whole-day recheck", func(t *testing.T) {
		loc := testLocation(
			model.ScheduleSettings{NumberBookingsAllow: 1, IsReservationWholeDay: true, MaximumCapacity: 50},
			model.Ledger{saturday: {"10:00": {"r1"}}},
		)
		if SlotOfferable(loc, saturday, "09:00", "") {
			t.Error("saturated hour must block the whole-day pseudo-slot")
		}
	})
}
