package grid_test

import (
	"testing"
	"time"

	"agenda/internal/grid"
	"agenda/internal/model"
)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func TestPosition(t *testing.T) {
	tests := []struct {
		name    string
		meeting model.Meeting
		want    grid.Geometry
	}{
		{
			name:    "short meeting is padded and compact",
			meeting: model.Meeting{Start: at(14, 15), End: at(14, 40)},
			want:    grid.Geometry{Top: 855, Height: 30, Duration: 25, Compact: true},
		},
		{
			name:    "45 minutes uses two-line layout",
			meeting: model.Meeting{Start: at(9, 0), End: at(9, 45)},
			want:    grid.Geometry{Top: 540, Height: 45, Duration: 45, Compact: false},
		},
		{
			name:    "missing end defaults to an hour",
			meeting: model.Meeting{Start: at(0, 30)},
			want:    grid.Geometry{Top: 30, Height: 60, Duration: 60, Compact: false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.Position(tt.meeting); got != tt.want {
				t.Errorf("Position = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNowOffset(t *testing.T) {
	now := at(10, 42)
	if off, ok := grid.NowOffset(now, at(0, 0)); !ok || off != 642 {
		t.Errorf("NowOffset today = %d, %v", off, ok)
	}
	if _, ok := grid.NowOffset(now, at(0, 0).AddDate(0, 0, 1)); ok {
		t.Error("NowOffset should be absent on other days")
	}
}

func TestSlotTime(t *testing.T) {
	got := grid.SlotTime(at(17, 23), 13)
	if !got.Equal(at(13, 0)) {
		t.Errorf("SlotTime = %v", got)
	}
}

func TestScalePixels(t *testing.T) {
	s := grid.Scale{PixelsPerHour: 48}
	if got := s.Pixels(90); got != 72 {
		t.Errorf("Pixels(90) = %v, want 72", got)
	}
	if got := (grid.Scale{}).Pixels(30); got != 30 {
		t.Errorf("zero scale Pixels(30) = %v, want 30", got)
	}
}

func TestLayoutDayLanes(t *testing.T) {
	meetings := []model.Meeting{
		{ID: "a", Start: at(9, 0), End: at(10, 0)},
		{ID: "b", Start: at(9, 30), End: at(10, 30)},
		{ID: "c", Start: at(10, 0), End: at(11, 0)},
		{ID: "d", Start: at(13, 0), End: at(13, 10)},
		{ID: "e", Start: at(13, 20), End: at(14, 0)},
		{ID: "other-day", Start: at(9, 0).AddDate(0, 0, 1), End: at(10, 0).AddDate(0, 0, 1)},
	}
	blocks := grid.LayoutDay(meetings, at(0, 0))
	if len(blocks) != 5 {
		t.Fatalf("blocks = %d, want 5", len(blocks))
	}

	want := map[string][2]int{
		"a": {0, 2},
		"b": {1, 2},
		"c": {0, 2},
		// d is padded to 30 minutes and therefore collides with e.
		"d": {0, 2},
		"e": {1, 2},
	}
	for _, b := range blocks {
		w := want[b.Meeting.ID]
		if b.Lane != w[0] || b.Lanes != w[1] {
			t.Errorf("%s: lane %d/%d, want %d/%d", b.Meeting.ID, b.Lane, b.Lanes, w[0], w[1])
		}
	}
}

func TestLayoutDaySingle(t *testing.T) {
	blocks := grid.LayoutDay([]model.Meeting{{ID: "x", Start: at(8, 0), End: at(9, 0)}}, at(0, 0))
	if len(blocks) != 1 || blocks[0].Lane != 0 || blocks[0].Lanes != 1 {
		t.Errorf("blocks = %+v", blocks)
	}
}
