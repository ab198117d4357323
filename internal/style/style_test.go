package style_test

import (
	"math"
	"testing"

	"agenda/internal/model"
	"agenda/internal/style"
)

func TestSaturation(t *testing.T) {
	tests := []struct {
		hex    string
		want   float64
		wantOK bool
	}{
		{"#ff0000", 1, true},
		{"#808080", 0, true},
		{"#000000", 0, true},
		{"#ff8080", 0.498, true},
		{"#FF0000", 1, true},
		{"ff0000", 0, false},
		{"#f00", 0, false},
		{"#gg0000", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := style.Saturation(tt.hex)
		if ok != tt.wantOK {
			t.Errorf("Saturation(%q) ok = %v, want %v", tt.hex, ok, tt.wantOK)
			continue
		}
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("Saturation(%q) = %v, want %v", tt.hex, got, tt.want)
		}
	}
}

var tags = style.Index([]model.Tag{
	{ID: "gray", Name: "Admin", Color: "#808080"},
	{ID: "red", Name: "Urgent", Color: "#ff0000"},
	{ID: "blue", Name: "Deep", Color: "#0000ff"},
	{ID: "pink", Name: "Social", Color: "#ff8080"},
	{ID: "broken", Name: "Broken", Color: "red"},
})

func TestColorPicksMostSaturated(t *testing.T) {
	r := style.NewResolver()
	item := style.Item{Kind: style.KindAction, TagIDs: []string{"gray", "pink", "red"}}
	if got := r.Color(item, tags); got != "#ff0000" {
		t.Errorf("Color = %q, want #ff0000", got)
	}
}

func TestColorTieKeepsEarlierTag(t *testing.T) {
	r := style.NewResolver()
	item := style.Item{Kind: style.KindMeeting, TagIDs: []string{"blue", "red"}}
	if got := r.Color(item, tags); got != "#0000ff" {
		t.Errorf("Color = %q, want #0000ff", got)
	}
}

func TestColorFallbacks(t *testing.T) {
	r := style.NewResolver()
	tests := []struct {
		name string
		item style.Item
		want string
	}{
		{"no tags action", style.Item{Kind: style.KindAction}, style.DefaultActionColor},
		{"no tags meeting", style.Item{Kind: style.KindMeeting}, style.DefaultMeetingColor},
		{"unknown ids", style.Item{Kind: style.KindMeeting, TagIDs: []string{"missing"}}, style.DefaultMeetingColor},
		{"malformed only", style.Item{Kind: style.KindAction, TagIDs: []string{"broken"}}, style.DefaultActionColor},
		{"malformed skipped", style.Item{Kind: style.KindAction, TagIDs: []string{"broken", "gray"}}, "#808080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Color(tt.item, tags); got != tt.want {
				t.Errorf("Color = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColorLegacyNameFallback(t *testing.T) {
	r := style.NewResolver()
	a := model.Action{Tags: []string{"admin", " URGENT "}}
	if got := r.Color(style.ActionItem(a), tags); got != "#ff0000" {
		t.Errorf("Color by name = %q, want #ff0000", got)
	}

	// Explicit IDs take precedence over names.
	a.TagIDs = []string{"blue"}
	if got := r.Color(style.ActionItem(a), tags); got != "#0000ff" {
		t.Errorf("Color with ids = %q, want #0000ff", got)
	}
}

func TestCustomDefaults(t *testing.T) {
	r := style.NewResolver()
	r.MeetingColor = "#10b981"
	r.ActionColor = "not-a-color"
	if got := r.Color(style.Item{Kind: style.KindMeeting}, nil); got != "#10b981" {
		t.Errorf("meeting default = %q", got)
	}
	if got := r.Color(style.Item{Kind: style.KindAction}, nil); got != style.DefaultActionColor {
		t.Errorf("action default = %q", got)
	}
}
