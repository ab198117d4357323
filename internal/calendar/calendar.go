// Package calendar holds the date-interval helpers shared by the engine.
// All values are naive wall-clock times: the location of the input is kept
// and never converted.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"agenda/internal/model"
)

// Naive drops the zone of t and re-anchors its wall clock in UTC, which the
// engine uses as the location for naive local timestamps.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CompareDate compares the calendar days of a and b, ignoring time of day.
// It returns -1, 0 or +1.
func CompareDate(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return sign(ay - by)
	case am != bm:
		return sign(int(am) - int(bm))
	default:
		return sign(ad - bd)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// WeekRange returns the first day (00:00) and last day (23:59:59.999) of the
// week containing t. weekStart is normally time.Monday.
func WeekRange(t time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	first := StartOfDay(t.AddDate(0, 0, -offset))
	last := EndOfDay(first.AddDate(0, 0, 6))
	return first, last
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := EndOfDay(first.AddDate(0, 1, -1))
	return first, last
}

// YearRange returns January 1 and December 31 of year in loc.
func YearRange(year int, loc *time.Location) (time.Time, time.Time) {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	last := EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc))
	return first, last
}

// ViewRange returns the inclusive day interval rendered by view around anchor.
func ViewRange(view model.View, anchor time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	switch view {
	case model.ViewDay:
		return StartOfDay(anchor), EndOfDay(anchor)
	case model.ViewMonth:
		return MonthRange(anchor)
	case model.ViewYear:
		return YearRange(anchor.Year(), anchor.Location())
	default:
		return WeekRange(anchor, weekStart)
	}
}

// IsBusinessDay reports whether t is neither Saturday nor Sunday.
// Holidays are not modelled.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDays counts business days in the inclusive interval [from, to].
// An inverted interval counts as zero.
func BusinessDays(from, to time.Time) int {
	from = StartOfDay(from)
	to = StartOfDay(to)
	if to.Before(from) {
		return 0
	}
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// Days lists each calendar day (00:00) in [from, to].
func Days(from, to time.Time) []time.Time {
	from = StartOfDay(from)
	to = StartOfDay(to)
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// ParseDate parses a YYYY-MM-DD string as a naive calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, strings.TrimSpace(s))
}

// ParseWeekday maps "monday"/"sunday" (any case) to a weekday; anything
// else yields Monday.
func ParseWeekday(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// FormatMinutes formats signed minutes like "7h 30m" or "-1h 5m".
func FormatMinutes(minutes int) string {
	neg := minutes < 0
	if neg {
		minutes = -minutes
	}
	h := minutes / 60
	m := minutes % 60
	s := fmt.Sprintf("%dm", m)
	if h > 0 {
		s = fmt.Sprintf("%dh %dm", h, m)
	}
	if neg {
		return "-" + s
	}
	return s
}
