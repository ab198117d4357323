// Package recurrence turns a recurrence rule attached to a new meeting into
// independent meeting instances.
package recurrence

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"agenda/internal/calendar"
	appLog "agenda/internal/log"
	"agenda/internal/model"
)

// MaxInstances bounds the generated instances, not counting the base.
const MaxInstances = 365

// Config controls how expansion is performed.
type Config struct {
	// MaxInstances is a safety cap on generated instances. If zero,
	// MaxInstances is used.
	MaxInstances int

	// NewID assigns the identifier of each generated instance. If nil,
	// random UUIDs are used.
	NewID func() string
}

// Expand expands rule for base using the default configuration.
func Expand(base model.Meeting, rule *model.RecurrenceRule) ([]model.Meeting, error) {
	return ExpandWith(base, rule, Config{})
}

// ExpandWith returns base followed by one independent meeting per
// occurrence of rule, up to and including rule.EndDate.
//
//   - Every instance keeps the base duration and all other base fields.
//   - Month and year steps use calendar-field arithmetic and roll over
//     into the next month when the day does not exist (Jan 31 + 1 month is
//     Mar 3, or Mar 2 in leap years). Steps accumulate on the shifted date.
//   - An incomplete rule yields only the base.
//
// A base whose end is not after its start is rejected.
func ExpandWith(base model.Meeting, rule *model.RecurrenceRule, cfg Config) ([]model.Meeting, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = MaxInstances
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	out := []model.Meeting{base}
	if !rule.Complete() {
		return out, nil
	}

	duration := base.End.Sub(base.Start)
	// The end date is a calendar day: read its fields in the base's location.
	y, mo, d := rule.EndDate.Date()
	boundary := calendar.EndOfDay(time.Date(y, mo, d, 0, 0, 0, 0, base.Start.Location()))
	cursor := base.Start

	for {
		cursor = Advance(cursor, rule.IntervalCount, rule.Unit)
		if cursor.After(boundary) {
			break
		}
		if len(out)-1 >= cfg.MaxInstances {
			appLog.Error("recurrence: truncated instances due to cap",
				errors.New("max instances reached"),
				"meeting", base.ID,
				"cap", cfg.MaxInstances,
				"end_date", rule.EndDate.Format(model.DateLayout),
			)
			break
		}
		out = append(out, instance(base, cursor, cursor.Add(duration), cfg.NewID()))
	}

	appLog.Debug("recurrence expanded",
		"meeting", base.ID,
		"unit", string(rule.Unit),
		"interval", rule.IntervalCount,
		"instances", len(out),
	)
	return out, nil
}

// Advance moves t forward by n units.
func Advance(t time.Time, n int, unit model.Unit) time.Time {
	switch unit {
	case model.UnitDay:
		return t.AddDate(0, 0, n)
	case model.UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case model.UnitMonth:
		return t.AddDate(0, n, 0)
	case model.UnitYear:
		return t.AddDate(n, 0, 0)
	}
	return t
}

func instance(base model.Meeting, start, end time.Time, id string) model.Meeting {
	m := base
	m.ID = id
	m.Start = start
	m.End = end
	m.TagIDs = slices.Clone(base.TagIDs)
	m.Tags = slices.Clone(base.Tags)
	return m
}
