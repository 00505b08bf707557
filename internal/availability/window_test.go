package availability

import (
	"reflect"
	"testing"

	"mesa/pkg/model"
)

// 2024-06-01 is a Saturday (weekday index 6).
const (
	saturday = "2024-06-01"
	sunday   = "2024-06-02"
)

func weeklyAllWeek(opening, closing string) map[string]model.DayHours {
	weekly := map[string]model.DayHours{}
	for _, day := range []string{"0", "1", "2", "3", "4", "5", "6"} {
		weekly[day] = model.DayHours{Opening: opening, Closing: closing}
	}
	return weekly
}

func TestResolveWindow_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		sched model.Schedule
		date  string
		want  DayWindow
	}{
		{
			name: "weekly default applies",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
			},
			date: saturday,
			want: DayWindow{Open: true, Opening: "09:00", Closing: "17:00"},
		},
		{
			name:  "no weekly entry means closed",
			sched: model.Schedule{WeeklyDates: map[string]model.DayHours{"1": {Opening: "09:00", Closing: "17:00"}}},
			date:  saturday,
			want:  DayWindow{},
		},
		{
			name: "special date overrides weekly entirely",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
				SpecialDates: map[string]model.SpecialDate{
					saturday: {Opening: "12:00", Closing: "15:00", IsOpen: true},
				},
			},
			date: saturday,
			want: DayWindow{Open: true, Opening: "12:00", Closing: "15:00"},
		},
		{
			name: "special date closure wins over weekly and block",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
				BlockDates: map[string]model.BlockDate{
					saturday: {Open: true},
				},
				SpecialDates: map[string]model.SpecialDate{
					saturday: {IsOpen: false},
				},
			},
			date: saturday,
			want: DayWindow{},
		},
		{
			name: "block date keeps weekly hours and records blocked ranges",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
				BlockDates: map[string]model.BlockDate{
					saturday: {Open: true, Hours: []model.BlockedRange{{From: "12:00", To: "13:00"}}},
				},
			},
			date: saturday,
			want: DayWindow{
				Open:    true,
				Opening: "09:00",
				Closing: "17:00",
				Blocked: []model.BlockedRange{{From: "12:00", To: "13:00"}},
			},
		},
		{
			name: "block date with open false closes the day",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
				BlockDates: map[string]model.BlockDate{
					saturday: {Open: false, Hours: []model.BlockedRange{{From: "12:00", To: "13:00"}}},
				},
			},
			date: saturday,
			want: DayWindow{},
		},
		{
			name: "block date only affects its own date",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
				BlockDates: map[string]model.BlockDate{
					saturday: {Open: false},
				},
			},
			date: sunday,
			want: DayWindow{Open: true, Opening: "09:00", Closing: "17:00"},
		},
		{
			name: "closing equal to opening means closed",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "09:00"),
			},
			date: saturday,
			want: DayWindow{},
		},
		{
			name: "closing before opening means closed, no overnight wraparound",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("22:00", "02:00"),
			},
			date: saturday,
			want: DayWindow{},
		},
		{
			name: "malformed weekly hours mean closed",
			sched: model.Schedule{
				WeeklyDates: map[string]model.DayHours{"6": {Opening: "9am", Closing: "17:00"}},
			},
			date: saturday,
			want: DayWindow{},
		},
		{
			name: "invalid date means closed",
			sched: model.Schedule{
				WeeklyDates: weeklyAllWeek("09:00", "17:00"),
			},
			date: "01/06/2024",
			want: DayWindow{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveWindow(tt.sched, tt.date)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveWindow() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCandidateHours_Grid(t *testing.T) {
	window := DayWindow{Open: true, Opening: "09:00", Closing: "11:00"}

	got := CandidateHours(window)
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CandidateHours() = %v, want %v", got, want)
	}
}

func TestCandidateHours_Closed(t *testing.T) {
	if got := CandidateHours(DayWindow{}); got != nil {
		t.Errorf("expected no labels for closed window, got %v", got)
	}
}

func TestCandidateHours_BlockedRangeIsHalfOpen(t *testing.T) {
	window := DayWindow{
		Open:    true,
		Opening: "09:00",
		Closing: "17:00",
		Blocked: []model.BlockedRange{{From: "12:00", To: "13:00"}},
	}

	got := CandidateHours(window)

	for _, label := range got {
		if label == "12:00" || label == "12:30" {
			t.Errorf("blocked label %s present in %v", label, got)
		}
	}
	found := false
	for _, label := range got {
		if label == "13:00" {
			found = true
		}
	}
	if !found {
		t.Errorf("13:00 is the end of a half-open blocked range and must remain, got %v", got)
	}
	// 17 labels for 09:00-17:00 minus the two blocked ones.
	if len(got) != 15 {
		t.Errorf("expected 15 labels, got %d: %v", len(got), got)
	}
}

func TestCandidateHours_BlockedRangesCanCoverWholeWindow(t *testing.T) {
	window := DayWindow{
		Open:    true,
		Opening: "09:00",
		Closing: "12:00",
		Blocked: []model.BlockedRange{{From: "09:00", To: "12:30"}},
	}

	if got := CandidateHours(window); len(got) != 0 {
		t.Errorf("fully blocked day must yield no labels, got %v", got)
	}
}

func TestCandidateHours_HalfHourOpening(t *testing.T) {
	window := DayWindow{Open: true, Opening: "09:30", Closing: "11:00"}

	got := CandidateHours(window)
	want := []string{"09:30", "10:00", "10:30", "11:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CandidateHours() = %v, want %v", got, want)
	}
}
