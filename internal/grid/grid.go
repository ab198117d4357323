// Package grid converts meeting time spans into vertical geometry for the
// day and week views. Month and year views list meetings without geometry.
package grid

import (
	"sort"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/model"
)

const (
	// UnitsPerHour is the resolution of Geometry values: one unit per minute.
	UnitsPerHour = 60

	// MinHeight keeps very short meetings visible and clickable.
	MinHeight = 30

	// CompactBelow is the duration under which a single-line layout is used.
	CompactBelow = 45

	// DefaultDuration applies when a meeting has no end.
	DefaultDuration = 60
)

// Geometry is the vertical placement of a meeting in minute units.
type Geometry struct {
	Top      int  `json:"top"`
	Height   int  `json:"height"`
	Duration int  `json:"duration"`
	Compact  bool `json:"compact"`
}

// Position computes the geometry of m. Top is measured from midnight of the
// meeting's start day.
func Position(m model.Meeting) Geometry {
	top := MinutesSinceMidnight(m.Start)

	duration := DefaultDuration
	if !m.End.IsZero() {
		duration = int(m.End.Sub(m.Start) / time.Minute)
	}

	return Geometry{
		Top:      top,
		Height:   max(MinHeight, duration),
		Duration: duration,
		Compact:  duration < CompactBelow,
	}
}

// MinutesSinceMidnight returns the wall-clock minute of t within its day.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// NowOffset returns the "now" marker offset for the column showing day. The
// marker only exists in the column of today's date.
func NowOffset(now, day time.Time) (int, bool) {
	if !calendar.SameDay(now, day) {
		return 0, false
	}
	return MinutesSinceMidnight(now), true
}

// SlotTime maps a click on the empty slot at hour on day to the timestamp a
// new meeting should start at.
func SlotTime(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// Scale converts minute units to pixels.
type Scale struct {
	PixelsPerHour float64
}

// DefaultScale renders one pixel per minute.
var DefaultScale = Scale{PixelsPerHour: UnitsPerHour}

func (s Scale) Pixels(units int) float64 {
	pph := s.PixelsPerHour
	if pph <= 0 {
		pph = UnitsPerHour
	}
	return float64(units) * pph / UnitsPerHour
}

// Block is a positioned meeting inside one day column. Lane and Lanes split
// the column width between meetings that overlap.
type Block struct {
	Meeting  model.Meeting `json:"meeting"`
	Geometry Geometry      `json:"geometry"`
	Lane     int           `json:"lane"`
	Lanes    int           `json:"lanes"`
}

// LayoutDay positions the meetings that start on day and assigns overlap
// lanes. Overlap is judged on the rendered extent (Top..Top+Height) so a
// meeting padded to MinHeight does not hide under its neighbour.
func LayoutDay(meetings []model.Meeting, day time.Time) []Block {
	blocks := make([]Block, 0, len(meetings))
	for _, m := range meetings {
		if !calendar.SameDay(m.Start, day) {
			continue
		}
		blocks = append(blocks, Block{Meeting: m, Geometry: Position(m)})
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Geometry.Top < blocks[j].Geometry.Top
	})

	// Greedy interval partitioning, one cluster of transitively
	// overlapping blocks at a time.
	clusterStart := 0
	clusterEnd := -1
	var laneEnds []int
	flush := func(upto int) {
		for i := clusterStart; i < upto; i++ {
			blocks[i].Lanes = len(laneEnds)
		}
	}
	for i := range blocks {
		g := blocks[i].Geometry
		if g.Top >= clusterEnd {
			flush(i)
			clusterStart = i
			laneEnds = laneEnds[:0]
		}
		lane := -1
		for l, end := range laneEnds {
			if end <= g.Top {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, 0)
		}
		laneEnds[lane] = g.Top + g.Height
		blocks[i].Lane = lane
		clusterEnd = max(clusterEnd, g.Top+g.Height)
	}
	flush(len(blocks))
	return blocks
}
