// Package placement decides on which calendar day actions and meetings are
// shown.
package placement

import (
	"sort"
	"time"

	"agenda/internal/calendar"
	"agenda/internal/model"
)

// PlacementDay returns the single day (00:00) an action is displayed on,
// independent of the day being rendered.
//
// Priority:
//   - done/archived: the completion day (UpdatedAt, else CreatedAt)
//   - today before the planned start: the start day
//   - today after the due day: the due day
//   - otherwise: today
func PlacementDay(a model.Action, today time.Time) time.Time {
	today = calendar.StartOfDay(today)

	if a.Status.Terminal() {
		switch {
		case !a.UpdatedAt.IsZero():
			return calendar.StartOfDay(a.UpdatedAt)
		case !a.CreatedAt.IsZero():
			return calendar.StartOfDay(a.CreatedAt)
		}
		return today
	}

	start := today
	switch {
	case a.StartDate != nil && !a.StartDate.IsZero():
		start = calendar.StartOfDay(*a.StartDate)
	case !a.CreatedAt.IsZero():
		start = calendar.StartOfDay(a.CreatedAt)
	}

	if calendar.CompareDate(today, start) < 0 {
		return start
	}
	if a.DueDate != nil && !a.DueDate.IsZero() && calendar.CompareDate(today, *a.DueDate) > 0 {
		return calendar.StartOfDay(*a.DueDate)
	}
	return today
}

// OnDay reports whether action a renders on day.
func OnDay(a model.Action, day, today time.Time) bool {
	return calendar.SameDay(PlacementDay(a, today), day)
}

// Cell is one rendered day of a view.
type Cell struct {
	Date     time.Time       `json:"date"`
	Today    bool            `json:"today"`
	Actions  []model.Action  `json:"actions"`
	Meetings []model.Meeting `json:"meetings"`
}

// Layout is the placement of a snapshot onto the days of a view.
type Layout struct {
	View  model.View `json:"view"`
	From  time.Time  `json:"from"`
	To    time.Time  `json:"to"`
	Cells []Cell     `json:"cells"`
}

// Build places actions and meetings onto every day of the view containing
// anchor. Each action's placement day is computed once for the given today.
func Build(view model.View, anchor, today time.Time, weekStart time.Weekday, actions []model.Action, meetings []model.Meeting) Layout {
	from, to := calendar.ViewRange(view, anchor, weekStart)
	days := calendar.Days(from, to)

	index := make(map[time.Time]int, len(days))
	cells := make([]Cell, len(days))
	for i, d := range days {
		index[d] = i
		cells[i] = Cell{
			Date:     d,
			Today:    calendar.SameDay(d, today),
			Actions:  []model.Action{},
			Meetings: []model.Meeting{},
		}
	}

	for _, a := range actions {
		day := PlacementDay(a, today)
		if i, ok := index[dayKey(day, from.Location())]; ok {
			cells[i].Actions = append(cells[i].Actions, a)
		}
	}

	for _, m := range meetings {
		if i, ok := index[dayKey(m.Start, from.Location())]; ok {
			cells[i].Meetings = append(cells[i].Meetings, m)
		}
	}

	for i := range cells {
		sortActions(cells[i].Actions)
		sort.SliceStable(cells[i].Meetings, func(a, b int) bool {
			return cells[i].Meetings[a].Start.Before(cells[i].Meetings[b].Start)
		})
	}

	return Layout{View: view, From: from, To: to, Cells: cells}
}

// dayKey normalizes t to midnight in loc so map lookups match the cells.
func dayKey(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

var priorityRank = map[model.Priority]int{
	model.PriorityHigh:   0,
	model.PriorityMedium: 1,
	model.PriorityLow:    2,
}

// sortActions orders open work before finished work, then by priority.
func sortActions(actions []model.Action) {
	rank := func(p model.Priority) int {
		if r, ok := priorityRank[p]; ok {
			return r
		}
		return len(priorityRank)
	}
	sort.SliceStable(actions, func(i, j int) bool {
		ti, tj := actions[i].Status.Terminal(), actions[j].Status.Terminal()
		if ti != tj {
			return !ti
		}
		return rank(actions[i].Priority) < rank(actions[j].Priority)
	})
}
