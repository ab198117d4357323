package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agenda/internal/calendar"
	"agenda/internal/grid"
	"agenda/internal/model"
	"agenda/internal/placement"
	"agenda/internal/style"
)

// agendaResponse is the JSON response shape for /api/agenda.
type agendaResponse struct {
	View          model.View `json:"view"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	Today         string     `json:"today"`
	WeekStart     string     `json:"week_start"`
	PixelsPerHour float64    `json:"pixels_per_hour"`
	Days          []dayDTO   `json:"days"`
}

// dayDTO is one cell of the view. NowOffset is only set on today's column
// of a time-grid view.
type dayDTO struct {
	Date      string       `json:"date"`
	Week      string       `json:"week"`
	Today     bool         `json:"today"`
	NowOffset *int         `json:"now_offset,omitempty"`
	Actions   []actionDTO  `json:"actions"`
	Meetings  []meetingDTO `json:"meetings"`
}

type actionDTO struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Status   model.ActionStatus `json:"status"`
	Priority model.Priority     `json:"priority,omitempty"`
	Color    string             `json:"color"`
}

// meetingDTO carries grid geometry (in minutes and pixels) for the day and
// week views only.
type meetingDTO struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Location string         `json:"location,omitempty"`
	Color    string         `json:"color"`
	Geometry *grid.Geometry `json:"geometry,omitempty"`
	Lane     int            `json:"lane"`
	Lanes    int            `json:"lanes"`
	TopPx    float64        `json:"top_px,omitempty"`
	HeightPx float64        `json:"height_px,omitempty"`
}

// handleAgenda returns the placement map of one view.
//
// GET /api/agenda?view=week&date=2025-03-10
//   - view: day, week (default), month or year
//   - date: anchor day (default today)
func (s *Server) handleAgenda(c *gin.Context) {
	view, err := model.ParseView(c.Query("view"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	now := s.today()
	today := calendar.StartOfDay(now)
	anchor, ok := dateParam(c, "date", today)
	if !ok {
		return
	}

	snap := s.holder.Get()
	layout := placement.Build(view, anchor, today, s.weekStart(), snap.Actions, snap.Meetings)
	tags := style.Index(snap.Tags)
	scale := grid.Scale{PixelsPerHour: s.cfg.Grid.PixelsPerHour}
	timeGrid := view == model.ViewDay || view == model.ViewWeek

	resp := agendaResponse{
		View:          layout.View,
		From:          layout.From.Format(model.DateLayout),
		To:            layout.To.Format(model.DateLayout),
		Today:         today.Format(model.DateLayout),
		WeekStart:     s.cfg.WeekStart,
		PixelsPerHour: scale.PixelsPerHour,
		Days:          make([]dayDTO, 0, len(layout.Cells)),
	}

	for _, cell := range layout.Cells {
		d := dayDTO{
			Date:     cell.Date.Format(model.DateLayout),
			Week:     calendar.ISOWeekLabel(cell.Date),
			Today:    cell.Today,
			Actions:  make([]actionDTO, 0, len(cell.Actions)),
			Meetings: make([]meetingDTO, 0, len(cell.Meetings)),
		}
		for _, a := range cell.Actions {
			d.Actions = append(d.Actions, actionDTO{
				ID:       a.ID,
				Title:    a.Title,
				Status:   a.Status,
				Priority: a.Priority,
				Color:    s.resolver.Color(style.ActionItem(a), tags),
			})
		}

		if !timeGrid {
			for _, m := range cell.Meetings {
				d.Meetings = append(d.Meetings, s.meetingDTO(m, tags))
			}
			resp.Days = append(resp.Days, d)
			continue
		}

		if off, ok := grid.NowOffset(now, cell.Date); ok {
			d.NowOffset = &off
		}
		for _, b := range grid.LayoutDay(cell.Meetings, cell.Date) {
			dto := s.meetingDTO(b.Meeting, tags)
			g := b.Geometry
			dto.Geometry = &g
			dto.Lane = b.Lane
			dto.Lanes = b.Lanes
			dto.TopPx = scale.Pixels(g.Top)
			dto.HeightPx = scale.Pixels(g.Height)
			d.Meetings = append(d.Meetings, dto)
		}
		resp.Days = append(resp.Days, d)
	}

	writeJSON(c, http.StatusOK, resp)
}

func (s *Server) meetingDTO(m model.Meeting, tags map[string]model.Tag) meetingDTO {
	return meetingDTO{
		ID:       m.ID,
		Title:    m.Title,
		Start:    m.Start,
		End:      m.End,
		Location: m.Location,
		Color:    s.resolver.Color(style.MeetingItem(m), tags),
		Lanes:    1,
	}
}
