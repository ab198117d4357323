// Package style picks a representative display color for an item from the
// colors of its tags.
package style

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"agenda/internal/model"
)

// Kind selects the default color used when no tag resolves.
type Kind string

const (
	KindAction  Kind = "action"
	KindMeeting Kind = "meeting"
)

const (
	DefaultActionColor  = "#64748b"
	DefaultMeetingColor = "#3b82f6"
)

// Item is the tag-bearing view of an action or meeting.
type Item struct {
	Kind     Kind
	TagIDs   []string
	TagNames []string
}

func ActionItem(a model.Action) Item {
	return Item{Kind: KindAction, TagIDs: a.TagIDs, TagNames: a.Tags}
}

func MeetingItem(m model.Meeting) Item {
	return Item{Kind: KindMeeting, TagIDs: m.TagIDs, TagNames: m.Tags}
}

// Strategy resolves the tags of an item. A strategy that finds nothing
// returns an empty slice so the next strategy is tried.
type Strategy interface {
	Resolve(item Item, tagsByID map[string]model.Tag) []model.Tag
}

// ByID resolves the explicit tag references of an item.
type ByID struct{}

func (ByID) Resolve(item Item, tagsByID map[string]model.Tag) []model.Tag {
	out := make([]model.Tag, 0, len(item.TagIDs))
	for _, id := range item.TagIDs {
		if t, ok := tagsByID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ByName matches legacy freeform tag names against tag names, ignoring case.
type ByName struct{}

func (ByName) Resolve(item Item, tagsByID map[string]model.Tag) []model.Tag {
	if len(item.TagNames) == 0 {
		return nil
	}
	byName := make(map[string]model.Tag, len(tagsByID))
	for _, t := range tagsByID {
		key := strings.ToLower(strings.TrimSpace(t.Name))
		// Keep the lowest ID on duplicate names so the result is stable.
		if prev, ok := byName[key]; !ok || t.ID < prev.ID {
			byName[key] = t
		}
	}
	out := make([]model.Tag, 0, len(item.TagNames))
	for _, name := range item.TagNames {
		if t, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Resolver applies its strategies in order; the first non-empty result wins.
type Resolver struct {
	Strategies   []Strategy
	ActionColor  string
	MeetingColor string
}

// NewResolver returns a resolver preferring explicit IDs over legacy names.
func NewResolver() *Resolver {
	return &Resolver{
		Strategies:   []Strategy{ByID{}, ByName{}},
		ActionColor:  DefaultActionColor,
		MeetingColor: DefaultMeetingColor,
	}
}

// Tags returns the tags of item according to the first matching strategy.
func (r *Resolver) Tags(item Item, tagsByID map[string]model.Tag) []model.Tag {
	for _, s := range r.Strategies {
		if tags := s.Resolve(item, tagsByID); len(tags) > 0 {
			return tags
		}
	}
	return nil
}

// Color returns the most saturated valid tag color of item, or the default
// of its kind. Ties keep the earlier tag.
func (r *Resolver) Color(item Item, tagsByID map[string]model.Tag) string {
	type candidate struct {
		color      string
		saturation float64
	}
	var cands []candidate
	for _, t := range r.Tags(item, tagsByID) {
		s, ok := Saturation(t.Color)
		if !ok {
			continue
		}
		cands = append(cands, candidate{color: strings.ToLower(t.Color), saturation: s})
	}
	if len(cands) == 0 {
		return r.defaultFor(item.Kind)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].saturation > cands[j].saturation
	})
	return cands[0].color
}

func (r *Resolver) defaultFor(k Kind) string {
	if k == KindMeeting {
		return orDefault(r.MeetingColor, DefaultMeetingColor)
	}
	return orDefault(r.ActionColor, DefaultActionColor)
}

func orDefault(color, def string) string {
	if _, ok := Saturation(color); ok {
		return color
	}
	return def
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Saturation returns the HSV saturation (max-min)/max of a #RRGGBB color.
// ok is false when the color is malformed.
func Saturation(hex string) (float64, bool) {
	if !hexColor.MatchString(hex) {
		return 0, false
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, false
	}
	_, s, _ := c.Hsv()
	return s, true
}

// Index builds the lookup table expected by Resolver.Color.
func Index(tags []model.Tag) map[string]model.Tag {
	m := make(map[string]model.Tag, len(tags))
	for _, t := range tags {
		m[t.ID] = t
	}
	return m
}
