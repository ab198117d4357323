package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agenda/internal/calendar"
	"agenda/internal/ics"
	"agenda/internal/model"
	"agenda/internal/recurrence"
)

// expandRequest is the body of POST /api/meetings/expand. Either Rule or
// RRule may describe the recurrence; Rule wins when both are set.
type expandRequest struct {
	Meeting model.Meeting         `json:"meeting"`
	Rule    *model.RecurrenceRule `json:"rule,omitempty"`
	RRule   string                `json:"rrule,omitempty"`
}

type expandResponse struct {
	Instances []model.Meeting `json:"instances"`
	RRule     string          `json:"rrule,omitempty"`
}

// handleExpand previews the meetings a new recurring meeting would create.
// Nothing is stored.
func (s *Server) handleExpand(c *gin.Context) {
	var req expandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Meeting.Start = calendar.Naive(req.Meeting.Start)
	req.Meeting.End = calendar.Naive(req.Meeting.End)

	rule := req.Rule
	if rule == nil && req.RRule != "" {
		r, err := recurrence.ParseRRule(req.RRule, req.Meeting.Start)
		if err != nil {
			writeError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		rule = r
	}
	if rule != nil && rule.EndDate != nil {
		end := calendar.Naive(*rule.EndDate)
		rule.EndDate = &end
	}

	instances, err := recurrence.Expand(req.Meeting, rule)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalid) {
			status = http.StatusUnprocessableEntity
		}
		writeError(c, status, err.Error())
		return
	}
	writeJSON(c, http.StatusOK, expandResponse{Instances: instances, RRule: recurrence.FormatRRule(rule)})
}

// handleCalendar exports the snapshot's meetings as an iCalendar feed.
func (s *Server) handleCalendar(c *gin.Context) {
	snap := s.holder.Get()
	body := ics.Export(snap.Meetings, ics.ExportConfig{
		Name:     "Agenda",
		Tags:     snap.Tags,
		Resolver: s.resolver,
		Now:      s.now().UTC(),
	})
	c.Header("Content-Disposition", `inline; filename="agenda.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(strings.TrimSpace(body)+"\r\n"))
}
