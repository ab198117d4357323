// Package ics converts meetings to and from iCalendar (RFC 5545).
//
// Times are written as floating local times (no TZID, no Z) because the
// engine works on naive wall-clock values.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/style"
)

const (
	floatingLayout = "20060102T150405"
	dateLayout     = "20060102"

	defaultProductID = "-//agenda//agenda calendar//EN"
)

var (
	propColor        = ical.ComponentProperty("COLOR")
	propDuration     = ical.ComponentProperty("DURATION")
	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
)

// ExportConfig controls Export.
type ExportConfig struct {
	// Name is written as X-WR-CALNAME when set.
	Name string
	// ProductID overrides the PRODID.
	ProductID string
	// Tags resolves tag IDs to names (CATEGORIES) and colors (COLOR).
	Tags []model.Tag
	// Resolver picks the COLOR of each event. If nil, style.NewResolver is used.
	Resolver *style.Resolver
	// Now stamps DTSTAMP.
	Now time.Time
}

// Export renders meetings as a VCALENDAR.
func Export(meetings []model.Meeting, cfg ExportConfig) string {
	if cfg.Resolver == nil {
		cfg.Resolver = style.NewResolver()
	}
	if cfg.ProductID == "" {
		cfg.ProductID = defaultProductID
	}
	tagsByID := style.Index(cfg.Tags)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(cfg.ProductID)
	if cfg.Name != "" {
		cal.SetXWRCalName(cfg.Name)
	}

	for _, m := range meetings {
		if err := m.Validate(); err != nil {
			appLog.Error("ics export: skipping meeting", err, "id", m.ID)
			continue
		}
		item := style.MeetingItem(m)

		ev := cal.AddEvent(m.ID)
		ev.SetDtStampTime(cfg.Now)
		ev.SetProperty(ical.ComponentPropertyDtStart, m.Start.Format(floatingLayout))
		ev.SetProperty(ical.ComponentPropertyDtEnd, m.End.Format(floatingLayout))
		// TEXT values are escaped by golang-ical on serialization.
		ev.SetProperty(ical.ComponentPropertySummary, m.Title)
		if m.Location != "" {
			ev.SetProperty(ical.ComponentPropertyLocation, m.Location)
		}
		if m.Notes != "" {
			ev.SetProperty(ical.ComponentPropertyDescription, m.Notes)
		}
		// One CATEGORIES line per tag: a joined list would have its commas
		// escaped into a single category.
		for _, name := range categories(cfg.Resolver.Tags(item, tagsByID)) {
			ev.AddProperty(ical.ComponentPropertyCategories, name)
		}
		ev.SetProperty(propColor, cfg.Resolver.Color(item, tagsByID))
	}

	appLog.Debug("ics export completed", "event_count", len(cal.Events()))
	return cal.Serialize(ical.WithNewLineWindows)
}

func categories(tags []model.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// splitList splits an already decoded CATEGORIES value on commas.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
