package model

import (
	"fmt"
	"strings"
	"time"
)

// EntryType classifies a TimeEntry. The empty type counts as work.
type EntryType string

const (
	EntryWork     EntryType = "work"
	EntryVacation EntryType = "vacation"
	EntrySick     EntryType = "sick"
	EntryBalance  EntryType = "balance"
)

// IsWork reports whether the entry counts as worked time in period sums.
func (t EntryType) IsWork() bool {
	return t == EntryWork || t == ""
}

// DateLayout is the wire format of TimeEntry.Date.
const DateLayout = "2006-01-02"

// TimeEntry is a single accounted amount of time on a calendar day.
//
// DurationMinutes is signed: negative values are only meaningful for
// vacation purchases and balance adjustments.
type TimeEntry struct {
	ID              string    `yaml:"id" json:"id"`
	Date            string    `yaml:"date" json:"date"`
	Type            EntryType `yaml:"type,omitempty" json:"type,omitempty"`
	DurationMinutes int       `yaml:"duration_minutes" json:"duration_minutes"`
	StartTime       string    `yaml:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime         string    `yaml:"end_time,omitempty" json:"end_time,omitempty"`
	BreakMinutes    int       `yaml:"break_minutes,omitempty" json:"break_minutes,omitempty"`
	LinkedActionID  string    `yaml:"linked_action_id,omitempty" json:"linked_action_id,omitempty"`
}

// Day parses Date as a calendar day in UTC, which the engine uses as its
// naive wall-clock location.
func (e TimeEntry) Day() (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(e.Date))
	if err != nil {
		return time.Time{}, fmt.Errorf("entry %q: date %q: %w", e.ID, e.Date, err)
	}
	return d, nil
}

// Span is how an entry's duration is known: derived from a clock range
// (Timed) or given directly (Manual).
type Span interface {
	Minutes() int
	span()
}

// Timed is a work span with explicit clock times; its duration is derived.
type Timed struct {
	Start Clock
	End   Clock
	Break int
}

// Minutes returns (End-Start) - Break, never negative.
func (t Timed) Minutes() int {
	m := t.End.Minutes() - t.Start.Minutes() - t.Break
	if m < 0 {
		return 0
	}
	return m
}

func (Timed) span() {}

// Manual is a duration-only entry; its minutes are authoritative.
type Manual int

func (m Manual) Minutes() int { return int(m) }

func (Manual) span() {}

// Span returns the tagged duration variant of the entry. Work entries with
// both clock times are Timed; everything else is Manual. Unparsable clock
// times are reported so callers can decide whether to fall back.
func (e TimeEntry) Span() (Span, error) {
	if !e.Type.IsWork() || e.StartTime == "" || e.EndTime == "" {
		return Manual(e.DurationMinutes), nil
	}
	start, err := ParseClock(e.StartTime)
	if err != nil {
		return Manual(e.DurationMinutes), fmt.Errorf("entry %q: start_time: %w", e.ID, err)
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return Manual(e.DurationMinutes), fmt.Errorf("entry %q: end_time: %w", e.ID, err)
	}
	brk := e.BreakMinutes
	if brk < 0 {
		brk = 0
	}
	return Timed{Start: start, End: end, Break: brk}, nil
}

// Minutes is the effective duration: recomputed for Timed spans, stored
// otherwise. A malformed clock time falls back to the stored value.
func (e TimeEntry) Minutes() int {
	s, _ := e.Span()
	return s.Minutes()
}

// Clock is a time of day with minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock accepts "15:04" and "15:04:05"; seconds are dropped.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("cannot parse clock time %q", s)
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
