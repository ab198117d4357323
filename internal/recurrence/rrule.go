package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"agenda/internal/calendar"
	"agenda/internal/model"
)

// ErrUnsupportedRule is returned for RRULEs that cannot be represented as
// interval + unit + end date.
var ErrUnsupportedRule = errors.New("unsupported recurrence rule")

var freqUnits = map[rrule.Frequency]model.Unit{
	rrule.DAILY:   model.UnitDay,
	rrule.WEEKLY:  model.UnitWeek,
	rrule.MONTHLY: model.UnitMonth,
	rrule.YEARLY:  model.UnitYear,
}

// ParseRRule converts an RFC 5545 RRULE value (with or without the "RRULE:"
// prefix) into a RecurrenceRule. dtstart anchors COUNT-limited rules: the
// COUNT-th occurrence, stepped with the roll-over policy of Expand, becomes
// the end date. Only FREQ, INTERVAL, UNTIL, COUNT and WKST are accepted.
func ParseRRule(value string, dtstart time.Time) (*model.RecurrenceRule, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "RRULE:")
	opt, err := rrule.StrToROptionInLocation(value, dtstart.Location())
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", value, err)
	}

	unit, ok := freqUnits[opt.Freq]
	if !ok {
		return nil, fmt.Errorf("%w: frequency %s", ErrUnsupportedRule, opt.Freq)
	}
	if hasByParts(opt) {
		return nil, fmt.Errorf("%w: BY* parts in %q", ErrUnsupportedRule, value)
	}

	interval := opt.Interval
	if interval <= 0 {
		interval = 1
	}

	var end time.Time
	switch {
	case !opt.Until.IsZero():
		end = calendar.StartOfDay(opt.Until)
	case opt.Count > 0:
		// Stepped exactly like Expand, so COUNT instances fit before end.
		last := dtstart
		for i := 1; i < opt.Count && i <= MaxInstances; i++ {
			last = Advance(last, interval, unit)
		}
		end = calendar.StartOfDay(last)
	default:
		return nil, fmt.Errorf("%w: %q is unbounded", ErrUnsupportedRule, value)
	}

	return &model.RecurrenceRule{
		IntervalCount: interval,
		Unit:          unit,
		EndDate:       &end,
	}, nil
}

// FormatRRule renders rule as an RRULE value such as
// "FREQ=WEEKLY;INTERVAL=1;UNTIL=20250407T235959Z". Incomplete rules render
// as the empty string.
func FormatRRule(rule *model.RecurrenceRule) string {
	if !rule.Complete() {
		return ""
	}
	var freq rrule.Frequency
	for f, u := range freqUnits {
		if u == rule.Unit {
			freq = f
		}
	}
	opt := rrule.ROption{
		Freq:     freq,
		Interval: rule.IntervalCount,
		Until:    calendar.EndOfDay(*rule.EndDate).Truncate(time.Second),
	}
	return opt.RRuleString()
}

func hasByParts(o *rrule.ROption) bool {
	return len(o.Bysetpos) > 0 || len(o.Bymonth) > 0 || len(o.Bymonthday) > 0 ||
		len(o.Byyearday) > 0 || len(o.Byweekno) > 0 || len(o.Byweekday) > 0 ||
		len(o.Byhour) > 0 || len(o.Byminute) > 0 || len(o.Bysecond) > 0 ||
		len(o.Byeaster) > 0
}
