package calendar_test

import (
	"testing"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)

	monday, sunday := calendar.WeekRange(fri, time.Monday)
	if !monday.Equal(date(2026, 2, 23)) {
		t.Errorf("WeekRange monday = %v, want 2026-02-23", monday)
	}
	if !calendar.SameDay(sunday, date(2026, 3, 1)) || sunday.Hour() != 23 {
		t.Errorf("WeekRange sunday = %v, want 2026-03-01 23:59:59.999", sunday)
	}

	sun, sat := calendar.WeekRange(fri, time.Sunday)
	if !sun.Equal(date(2026, 2, 22)) || !calendar.SameDay(sat, date(2026, 2, 28)) {
		t.Errorf("WeekRange(sunday start) = %v..%v", sun, sat)
	}

	// A Sunday belongs to the week that started the Monday before.
	mon, _ := calendar.WeekRange(date(2026, 3, 1), time.Monday)
	if !mon.Equal(date(2026, 2, 23)) {
		t.Errorf("WeekRange(sunday) monday = %v, want 2026-02-23", mon)
	}
}

func TestMonthRangeLeapYear(t *testing.T) {
	first, last := calendar.MonthRange(date(2024, 2, 14))
	if !first.Equal(date(2024, 2, 1)) {
		t.Errorf("first = %v", first)
	}
	if last.Day() != 29 {
		t.Errorf("last day = %d, want 29", last.Day())
	}
}

func TestViewRange(t *testing.T) {
	anchor := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) // Wednesday
	tests := []struct {
		view      model.View
		wantFirst time.Time
		wantLast  time.Time
	}{
		{model.ViewDay, date(2025, 3, 12), date(2025, 3, 12)},
		{model.ViewWeek, date(2025, 3, 10), date(2025, 3, 16)},
		{model.ViewMonth, date(2025, 3, 1), date(2025, 3, 31)},
		{model.ViewYear, date(2025, 1, 1), date(2025, 12, 31)},
	}
	for _, tt := range tests {
		first, last := calendar.ViewRange(tt.view, anchor, time.Monday)
		if !first.Equal(tt.wantFirst) || !calendar.SameDay(last, tt.wantLast) {
			t.Errorf("ViewRange(%s) = %v..%v, want %v..%v", tt.view, first, last, tt.wantFirst, tt.wantLast)
		}
	}
}

func TestBusinessDays(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"full week mon-fri", date(2025, 3, 10), date(2025, 3, 14), 5},
		{"full week mon-sun", date(2025, 3, 10), date(2025, 3, 16), 5},
		{"weekend only", date(2025, 3, 15), date(2025, 3, 16), 0},
		{"single weekday", date(2025, 3, 12), date(2025, 3, 12), 1},
		{"inverted", date(2025, 3, 14), date(2025, 3, 10), 0},
		{"year 2025", date(2025, 1, 1), date(2025, 12, 31), 261},
		{"time of day ignored", time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calendar.BusinessDays(tt.from, tt.to); got != tt.want {
				t.Errorf("BusinessDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompareDate(t *testing.T) {
	a := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	c := date(2025, 3, 11)
	if calendar.CompareDate(a, b) != 0 {
		t.Error("same day with different times should compare equal")
	}
	if calendar.CompareDate(a, c) != -1 || calendar.CompareDate(c, a) != 1 {
		t.Error("ordering across days is wrong")
	}
	if calendar.CompareDate(date(2024, 12, 31), date(2025, 1, 1)) != -1 {
		t.Error("ordering across years is wrong")
	}
}

func TestEndOfDayMilliseconds(t *testing.T) {
	e := calendar.EndOfDay(date(2025, 3, 10))
	if e.Nanosecond() != 999000000 || e.Second() != 59 {
		t.Errorf("EndOfDay = %v", e)
	}
}

func TestDays(t *testing.T) {
	days := calendar.Days(date(2025, 2, 27), time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC))
	if len(days) != 4 {
		t.Fatalf("len(Days) = %d, want 4", len(days))
	}
	if !days[2].Equal(date(2025, 3, 1)) {
		t.Errorf("Days[2] = %v", days[2])
	}
}

func TestNaive(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	n := calendar.Naive(time.Date(2025, 3, 10, 9, 30, 0, 0, loc))
	if n.Location() != time.UTC || n.Hour() != 9 || n.Minute() != 30 {
		t.Errorf("Naive = %v", n)
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{450, "7h 30m"},
		{-65, "-1h 5m"},
	}
	for _, tt := range tests {
		if got := calendar.FormatMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestISOWeekLabel(t *testing.T) {
	if got := calendar.ISOWeekLabel(date(2026, 2, 27)); got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q", got)
	}
}
