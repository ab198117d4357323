package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"agenda/internal/accounting"
	"agenda/internal/calendar"
)

// handleSummary returns accounting statistics.
//
// GET /api/summary?year=2025            year-to-date summary
// GET /api/summary?years=2024,2025      one year-to-date summary per year
// GET /api/summary?from=...&to=...      period summary (YYYY-MM-DD)
//
// Without parameters the current year is summarized.
func (s *Server) handleSummary(c *gin.Context) {
	today := calendar.StartOfDay(s.today())
	snap := s.holder.Get()

	if raw := c.Query("years"); raw != "" {
		years, err := parseYears(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid years: expected a comma-separated list")
			return
		}
		writeJSON(c, http.StatusOK, gin.H{
			"summaries": accounting.SummarizeYears(snap.Entries, snap.Settings, years, today),
		})
		return
	}

	var q accounting.Query
	switch {
	case c.Query("from") != "" || c.Query("to") != "":
		from, ok := dateParam(c, "from", today)
		if !ok {
			return
		}
		to, ok := dateParam(c, "to", from)
		if !ok {
			return
		}
		if to.Before(from) {
			writeError(c, http.StatusBadRequest, "to is before from")
			return
		}
		q = accounting.Period(from, to)
	default:
		q = accounting.Year(parseIntDefault(c.Query("year"), today.Year()))
	}

	writeJSON(c, http.StatusOK, accounting.Summarize(snap.Entries, snap.Settings, q, today))
}

func parseYears(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, p := range parts {
		y, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, nil
}
