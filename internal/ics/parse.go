package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"agenda/internal/grid"
	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/recurrence"
)

// ParsedEvent is the normalized representation of a VEVENT before it is
// turned into meetings.
type ParsedEvent struct {
	UID string

	Summary     string
	Description string
	Location    string
	Attendees   []string
	Categories  []string

	// Start and End are naive wall-clock values. TZID and a trailing Z
	// are ignored: the displayed digits are kept as they are.
	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, if present
}

// IsOverride reports whether the event replaces one instance of a recurring
// event.
func (p ParsedEvent) IsOverride() bool { return p.Recurrence != nil }

// ImportResult holds the meetings produced by Import.
type ImportResult struct {
	Meetings []model.Meeting
	// Skipped lists the UIDs of events that could not be converted.
	Skipped []string
	// Unsupported lists the UIDs whose RRULE could not be expressed as an
	// interval rule; only their first occurrence was imported.
	Unsupported []string
}

// ParseICS parses a single ICS payload into a list of ParsedEvent. Broken
// VEVENTs are logged and skipped; their UIDs (when known) are returned in
// skipped.
func ParseICS(body []byte) (events []ParsedEvent, skipped []string, err error) {
	if len(body) == 0 {
		return nil, nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, nil, err
	}

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "uid", ev.UID)
			skipped = append(skipped, ev.UID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "event_count", len(events), "skipped", len(skipped))
	return events, skipped, nil
}

// Import parses body and converts every VEVENT into meetings. Recurring
// events are expanded with the same rules as newly created meetings; EXDATEs
// remove instances and RECURRENCE-ID overrides replace them.
func Import(body []byte) (ImportResult, error) {
	events, skipped, err := ParseICS(body)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Skipped: skipped}

	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	for _, ev := range events {
		if ev.IsOverride() {
			continue
		}
		instances, unsupported, err := expandEvent(ev)
		if err != nil {
			appLog.Error("ics event rejected", err, "uid", ev.UID)
			res.Skipped = append(res.Skipped, ev.UID)
			continue
		}
		if unsupported {
			res.Unsupported = append(res.Unsupported, ev.UID)
		}
		instances = applyOverrides(instances, overrides[ev.UID])
		res.Meetings = append(res.Meetings, instances...)
	}
	return res, nil
}

func expandEvent(ev ParsedEvent) ([]model.Meeting, bool, error) {
	base := ev.meeting(ev.UID)

	var rule *model.RecurrenceRule
	unsupported := false
	if ev.RawRRule != "" {
		r, err := recurrence.ParseRRule(ev.RawRRule, ev.Start)
		switch {
		case err == nil:
			rule = r
		case errors.Is(err, recurrence.ErrUnsupportedRule):
			appLog.Info("ics rrule not representable, importing first occurrence", "uid", ev.UID, "rrule", ev.RawRRule)
			unsupported = true
		default:
			return nil, false, err
		}
	}

	instances, err := recurrence.ExpandWith(base, rule, recurrence.Config{NewID: instanceIDs(ev.UID)})
	if err != nil {
		return nil, false, err
	}
	return removeExDates(instances, ev.ExDates), unsupported, nil
}

// instanceIDs derives stable IDs for generated instances so that importing
// the same feed twice yields the same meetings.
func instanceIDs(uid string) func() string {
	n := 0
	return func() string {
		n++
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s/%d", uid, n))).String()
	}
}

func removeExDates(in []model.Meeting, exdates []time.Time) []model.Meeting {
	if len(exdates) == 0 {
		return in
	}
	out := in[:0]
	for _, m := range in {
		excluded := false
		for _, ex := range exdates {
			if m.Start.Equal(ex) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, m)
		}
	}
	return out
}

func applyOverrides(in []model.Meeting, overrides []ParsedEvent) []model.Meeting {
	for _, ov := range overrides {
		for i := range in {
			if !in[i].Start.Equal(*ov.Recurrence) {
				continue
			}
			replaced := ov.meeting(in[i].ID)
			if replaced.Validate() != nil {
				break
			}
			in[i] = replaced
			break
		}
	}
	return in
}

func (p ParsedEvent) meeting(id string) model.Meeting {
	return model.Meeting{
		ID:           id,
		Title:        p.Summary,
		Start:        p.Start,
		End:          p.End,
		Location:     p.Location,
		Participants: strings.Join(p.Attendees, ", "),
		Notes:        p.Description,
		Tags:         p.Categories,
	}
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		out.Categories = append(out.Categories, splitList(p.Value)...)
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		if a := attendee(p); a != "" {
			out.Attendees = append(out.Attendees, a)
		}
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, allDay, err := parseICSTime(dtStart.Value)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}
	out.Start = start
	out.AllDay = allDay

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err := parseICSTime(ve.GetProperty(ical.ComponentPropertyDtEnd).Value)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	case ve.GetProperty(propDuration) != nil:
		d, err := parseDuration(ve.GetProperty(propDuration).Value)
		if err != nil {
			return out, fmt.Errorf("DURATION: %w", err)
		}
		out.End = start.Add(d)
	case allDay:
		out.End = start.AddDate(0, 0, 1)
	default:
		out.End = start.Add(grid.DefaultDuration * time.Minute)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE can appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil {
		if t, _, err := parseICSTime(p.Value); err == nil {
			out.Recurrence = &t
		}
	}

	return out, nil
}

// parseICSTime parses an ICS DATE or DATE-TIME as a naive wall-clock value.
func parseICSTime(v string) (time.Time, bool, error) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "Z")
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}
	if strings.Contains(v, "T") {
		t, err := time.Parse(floatingLayout, v)
		return t, false, err
	}
	t, err := time.Parse(dateLayout, v)
	return t, true, err
}

// parseDuration handles the day/time subset of RFC 5545 durations, e.g.
// "PT1H30M" or "P1D".
func parseDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var d time.Duration
	inTime := false
	num := 0
	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			digits = true
			continue
		case r == 'T':
			inTime = true
			continue
		}
		if !digits {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		switch {
		case r == 'W' && !inTime:
			d += time.Duration(num) * 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			d += time.Duration(num) * 24 * time.Hour
		case r == 'H' && inTime:
			d += time.Duration(num) * time.Hour
		case r == 'M' && inTime:
			d += time.Duration(num) * time.Minute
		case r == 'S' && inTime:
			d += time.Duration(num) * time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		num, digits = 0, false
	}
	if digits {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if neg {
		d = -d
	}
	return d, nil
}

func attendee(p *ical.IANAProperty) string {
	if cn, ok := p.ICalParameters["CN"]; ok && len(cn) > 0 && cn[0] != "" {
		return strings.Trim(cn[0], `"`)
	}
	v := strings.TrimSpace(p.Value)
	if i := strings.Index(strings.ToLower(v), "mailto:"); i == 0 {
		v = v[len("mailto:"):]
	}
	return v
}
