package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agenda/internal/accounting"
	"agenda/internal/config"
	"agenda/internal/model"
	"agenda/internal/snapshot"
	"agenda/internal/web"
)

func dt(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func fixture() *snapshot.Snapshot {
	due := dt(2025, 3, 12, 0, 0)
	return &snapshot.Snapshot{
		Actions: []model.Action{
			{ID: "a1", Title: "Report", Status: model.StatusOpen, Priority: model.PriorityHigh, DueDate: &due, TagIDs: []string{"t1"}},
		},
		Meetings: []model.Meeting{
			{ID: "m1", Title: "Sync", Start: dt(2025, 3, 10, 14, 15), End: dt(2025, 3, 10, 14, 40), TagIDs: []string{"t1"}},
			{ID: "m2", Title: "Lunch", Start: dt(2025, 3, 11, 12, 0), End: dt(2025, 3, 11, 13, 0)},
		},
		Tags: []model.Tag{{ID: "t1", Name: "Team", Color: "#22c55e"}},
	}
}

func newServer(t *testing.T, cfg *config.Config) *web.Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h := snapshot.NewHolder("")
	h.Set(fixture())
	// Wednesday 10:30.
	return web.NewServer(cfg, h, web.WithClock(func() time.Time { return dt(2025, 3, 12, 10, 30) }))
}

func do(t *testing.T, s *web.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newServer(t, nil), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
	if _, err := time.Parse(time.RFC3339, rec.Header().Get("X-Snapshot-Loaded-At")); err != nil {
		t.Errorf("loaded-at header: %v", err)
	}

	empty := web.NewServer(config.DefaultConfig(), snapshot.NewHolder(""))
	rec = do(t, empty, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Snapshot-Loaded-At") != "" {
		t.Errorf("unloaded health = %d %q", rec.Code, rec.Header().Get("X-Snapshot-Loaded-At"))
	}
}

type agendaBody struct {
	View string `json:"view"`
	Days []struct {
		Date      string `json:"date"`
		Today     bool   `json:"today"`
		NowOffset *int   `json:"now_offset"`
		Actions   []struct {
			ID    string `json:"id"`
			Color string `json:"color"`
		} `json:"actions"`
		Meetings []struct {
			ID       string `json:"id"`
			Color    string `json:"color"`
			Geometry *struct {
				Top     int  `json:"top"`
				Height  int  `json:"height"`
				Compact bool `json:"compact"`
			} `json:"geometry"`
		} `json:"meetings"`
	} `json:"days"`
}

func TestAgendaWeek(t *testing.T) {
	rec := do(t, newServer(t, nil), http.MethodGet, "/api/agenda?view=week&date=2025-03-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body agendaBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.View != "week" || len(body.Days) != 7 {
		t.Fatalf("view = %s, days = %d", body.View, len(body.Days))
	}

	mon := body.Days[0]
	if mon.Date != "2025-03-10" || len(mon.Meetings) != 1 {
		t.Fatalf("monday = %+v", mon)
	}
	g := mon.Meetings[0].Geometry
	if g == nil || g.Top != 855 || g.Height != 30 || !g.Compact {
		t.Errorf("geometry = %+v", g)
	}
	if mon.Meetings[0].Color != "#22c55e" {
		t.Errorf("tagged meeting color = %q", mon.Meetings[0].Color)
	}
	if c := body.Days[1].Meetings[0].Color; c != "#3b82f6" {
		t.Errorf("untagged meeting color = %q", c)
	}

	wed := body.Days[2]
	if !wed.Today || wed.NowOffset == nil || *wed.NowOffset != 630 {
		t.Errorf("wednesday = %+v", wed)
	}
	if len(wed.Actions) != 1 || wed.Actions[0].ID != "a1" || wed.Actions[0].Color != "#22c55e" {
		t.Errorf("wednesday actions = %+v", wed.Actions)
	}
	if body.Days[0].NowOffset != nil {
		t.Error("now marker outside today's column")
	}
}

func TestAgendaMonthHasNoGeometry(t *testing.T) {
	rec := do(t, newServer(t, nil), http.MethodGet, "/api/agenda?view=month", "")
	var body agendaBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Days) != 31 {
		t.Fatalf("days = %d", len(body.Days))
	}
	if m := body.Days[9].Meetings; len(m) != 1 || m[0].Geometry != nil {
		t.Errorf("month meetings = %+v", m)
	}
}

func TestAgendaBadRequests(t *testing.T) {
	s := newServer(t, nil)
	for _, target := range []string{"/api/agenda?view=decade", "/api/agenda?date=10.03.2025"} {
		if rec := do(t, s, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestSummaryPeriod(t *testing.T) {
	rec := do(t, newServer(t, nil), http.MethodGet, "/api/summary?from=2025-03-10&to=2025-03-14", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"expected_hours":40,`) {
		t.Errorf("hours are not JSON numbers: %s", rec.Body.String())
	}
	var sum accounting.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Mode != accounting.ModePeriod || sum.ExpectedHours.String() != "40" || sum.OvertimeBalance.String() != "-40" {
		t.Errorf("summary = %+v", sum)
	}
}

func TestSummaryYears(t *testing.T) {
	rec := do(t, newServer(t, nil), http.MethodGet, "/api/summary?years=2024,2025", "")
	var body struct {
		Summaries []accounting.Summary `json:"summaries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Summaries) != 2 || body.Summaries[0].From.Year() != 2024 {
		t.Errorf("summaries = %+v", body.Summaries)
	}

	if rec := do(t, newServer(t, nil), http.MethodGet, "/api/summary?years=last", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad years status = %d", rec.Code)
	}
	if rec := do(t, newServer(t, nil), http.MethodGet, "/api/summary?from=2025-03-14&to=2025-03-10", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d", rec.Code)
	}
}

func TestExpand(t *testing.T) {
	body := `{"meeting":{"id":"new","title":"1:1","start":"2025-03-10T09:00:00Z","end":"2025-03-10T09:30:00Z"},"rrule":"FREQ=WEEKLY;COUNT=3"}`
	rec := do(t, newServer(t, nil), http.MethodPost, "/api/meetings/expand", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Instances []model.Meeting `json:"instances"`
		RRule     string          `json:"rrule"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Instances) != 3 || !resp.Instances[2].Start.Equal(dt(2025, 3, 24, 9, 0)) {
		t.Errorf("instances = %+v", resp.Instances)
	}
	if !strings.Contains(resp.RRule, "FREQ=WEEKLY") {
		t.Errorf("rrule = %q", resp.RRule)
	}
}

func TestExpandRejectsInvalidMeeting(t *testing.T) {
	body := `{"meeting":{"start":"2025-03-10T10:00:00Z","end":"2025-03-10T09:00:00Z"}}`
	rec := do(t, newServer(t, nil), http.MethodPost, "/api/meetings/expand", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if rec := do(t, newServer(t, nil), http.MethodPost, "/api/meetings/expand", "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}
}

func TestCalendarFeed(t *testing.T) {
	rec := do(t, newServer(t, nil), http.MethodGet, "/api/calendar.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if n := strings.Count(rec.Body.String(), "BEGIN:VEVENT"); n != 2 {
		t.Errorf("events = %d", n)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}
	s := newServer(t, cfg)

	if rec := do(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health behind auth: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/agenda", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/agenda", nil)
	req.SetBasicAuth("me", "secret")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	if rec := do(t, newServer(t, nil), http.MethodGet, "/api/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
