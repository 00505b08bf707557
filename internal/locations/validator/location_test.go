package validator

import (
	"testing"

	"mesa/pkg/logger"
	"mesa/pkg/model"
)

func testValidator() *LocationValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewLocationValidator(log)
}

func validLocation() *model.Location {
	return &model.Location{
		CompanyID: "acme",
		Name:      "Harbor Grill",
		City:      "San Diego",
		Address:   "12 Pier Ave",
		Schedule: model.Schedule{
			WeeklyDates: map[string]model.DayHours{
				"1": {Opening: "09:00", Closing: "17:00"},
			},
			Settings: model.ScheduleSettings{
				NumberBookingsAllow: 4,
				MaximumCapacity:     60,
			},
		},
	}
}

func TestValidate_AcceptsWellFormedLocation(t *testing.T) {
	v := testValidator()
	if err := v.Validate(validLocation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_HourLabels(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name    string
		opening string
		wantErr bool
	}{
		{"on the hour", "09:00", false},
		{"on the half hour", "09:30", false},
		{"off-grid minutes", "09:15", true},
		{"no such hour", "24:00", true},
		{"free text", "morning", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := validLocation()
			loc.Schedule.WeeklyDates["1"] = model.DayHours{Opening: tt.opening, Closing: "17:00"}
			err := v.Validate(loc)
			if tt.wantErr && err == nil {
				t.Errorf("opening %q must be rejected", tt.opening)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("opening %q must be accepted, got %v", tt.opening, err)
			}
		})
	}
}

func TestValidate_ClosingMustFollowOpening(t *testing.T) {
	v := testValidator()

	loc := validLocation()
	loc.Schedule.WeeklyDates["1"] = model.DayHours{Opening: "17:00", Closing: "09:00"}
	if err := v.Validate(loc); err == nil {
		t.Error("an inverted weekly window must be rejected")
	}

	loc = validLocation()
	loc.Schedule.WeeklyDates["1"] = model.DayHours{Opening: "09:00", Closing: "09:00"}
	if err := v.Validate(loc); err == nil {
		t.Error("a zero-width weekly window must be rejected")
	}
}

func TestValidate_WeekdayKeys(t *testing.T) {
	v := testValidator()

	loc := validLocation()
	loc.Schedule.WeeklyDates["7"] = model.DayHours{Opening: "09:00", Closing: "17:00"}
	if err := v.Validate(loc); err == nil {
		t.Error("weekday key \"7\" must be rejected")
	}

	loc = validLocation()
	loc.Schedule.WeeklyDates["monday"] = model.DayHours{Opening: "09:00", Closing: "17:00"}
	if err := v.Validate(loc); err == nil {
		t.Error("a named weekday key must be rejected")
	}
}

func TestValidate_BlockDateRanges(t *testing.T) {
	v := testValidator()

	loc := validLocation()
	loc.Schedule.BlockDates = map[string]model.BlockDate{
		"2030-05-11": {Open: true, Hours: []model.BlockedRange{{From: "12:00", To: "14:00"}}},
	}
	if err := v.Validate(loc); err != nil {
		t.Fatalf("a forward blocked range must be accepted, got %v", err)
	}

	loc.Schedule.BlockDates["2030-05-11"] = model.BlockDate{
		Open:  true,
		Hours: []model.BlockedRange{{From: "14:00", To: "12:00"}},
	}
	if err := v.Validate(loc); err == nil {
		t.Error("an inverted blocked range must be rejected")
	}

	loc.Schedule.BlockDates = map[string]model.BlockDate{
		"11/05/2030": {Open: false},
	}
	if err := v.Validate(loc); err == nil {
		t.Error("a non-ISO block date key must be rejected")
	}
}

func TestValidate_SpecialDateKeys(t *testing.T) {
	v := testValidator()

	loc := validLocation()
	loc.Schedule.SpecialDates = map[string]model.SpecialDate{
		"2030-12-24": {IsOpen: true, Opening: "10:00", Closing: "14:00"},
	}
	if err := v.Validate(loc); err != nil {
		t.Fatalf("a well-formed special date must be accepted, got %v", err)
	}

	loc.Schedule.SpecialDates = map[string]model.SpecialDate{
		"2030-13-01": {IsOpen: false},
	}
	if err := v.Validate(loc); err == nil {
		t.Error("month 13 must be rejected")
	}
}

func TestValidateUpdate_PartialFields(t *testing.T) {
	v := testValidator()

	name := "Pier House"
	if err := v.ValidateUpdate(&model.LocationUpdate{Name: &name}); err != nil {
		t.Fatalf("a name-only update must be accepted, got %v", err)
	}

	short := "x"
	if err := v.ValidateUpdate(&model.LocationUpdate{Name: &short}); err != nil {
		if _, ok := err.(ValidationErrors); !ok {
			t.Errorf("expected translated validation errors, got %T", err)
		}
	} else {
		t.Error("a one-character name must be rejected")
	}

	zone := "Not/AZone"
	if err := v.ValidateUpdate(&model.LocationUpdate{TimeZone: &zone}); err == nil {
		t.Error("an unknown time zone must be rejected")
	}
}
