package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"agenda/internal/accounting"
	"agenda/internal/model"
	"agenda/internal/snapshot"
)

const sample = `
actions:
  - id: a1
    title: Write report
    status: open
    priority: high
    due_date: 2025-03-12T00:00:00Z
meetings:
  - id: m1
    title: Standup
    start: 2025-03-10T09:00:00Z
    end: 2025-03-10T09:15:00Z
    tag_ids: [t1]
entries:
  - id: e1
    date: "2025-03-10"
    type: work
    start_time: "09:00"
    end_time: "17:30"
    break_minutes: 30
tags:
  - id: t1
    name: Team
    color: "#22c55e"
settings:
  contract_hours_per_week: 32
  vacation_days_per_year: 28
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agenda.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	s, err := snapshot.Load(writeFile(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Actions) != 1 || s.Actions[0].DueDate == nil || s.Actions[0].Priority != model.PriorityHigh {
		t.Errorf("actions = %+v", s.Actions)
	}
	if len(s.Meetings) != 1 || s.Meetings[0].End.Sub(s.Meetings[0].Start) != 15*time.Minute {
		t.Errorf("meetings = %+v", s.Meetings)
	}
	if len(s.Entries) != 1 || s.Entries[0].Minutes() != 480 {
		t.Errorf("entries = %+v", s.Entries)
	}
	if s.Settings == nil || s.Settings.ContractHoursPerWeek != 32 {
		t.Errorf("settings = %+v", s.Settings)
	}
}

func TestLoadPartialSettings(t *testing.T) {
	s, err := snapshot.Load(writeFile(t, "settings:\n  vacation_days_per_year: 30\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Settings == nil || s.Settings.ContractHoursPerWeek != model.DefaultContractHoursPerWeek || s.Settings.VacationDaysPerYear != 30 {
		t.Fatalf("settings = %+v", s.Settings)
	}

	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	sum := accounting.Summarize(nil, s.Settings, accounting.Period(mon, mon.AddDate(0, 0, 4)), mon)
	if sum.ExpectedHours.String() != "40" || sum.VacationDaysRemaining.String() != "30" {
		t.Errorf("expected = %s, remaining = %s", sum.ExpectedHours, sum.VacationDaysRemaining)
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s, err := snapshot.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Meetings) != 0 || s.Settings != nil {
		t.Errorf("expected empty snapshot, got %+v", s)
	}
}

func TestLoadRejectsInvalidMeetings(t *testing.T) {
	path := writeFile(t, `
meetings:
  - id: m1
    start: 2025-03-10T10:00:00Z
    end: 2025-03-10T09:00:00Z
  - id: m2
    start: 2025-03-10T10:00:00Z
    end: 2025-03-10T11:00:00Z
  - id: m2
    start: 2025-03-11T10:00:00Z
    end: 2025-03-11T11:00:00Z
`)
	_, err := snapshot.Load(path)
	if !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	orig, err := snapshot.Load(writeFile(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out", "agenda.yaml")
	if err := snapshot.Save(path, orig); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := snapshot.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Meetings[0].Title != "Standup" || !back.Meetings[0].Start.Equal(orig.Meetings[0].Start) {
		t.Errorf("round trip meetings = %+v", back.Meetings)
	}
	if back.Tags[0].Color != "#22c55e" {
		t.Errorf("round trip tags = %+v", back.Tags)
	}
}

func TestHolderReload(t *testing.T) {
	path := writeFile(t, sample)
	h := snapshot.NewHolder(path)
	if len(h.Get().Meetings) != 0 {
		t.Fatal("holder should start empty")
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(h.Get().Meetings) != 1 || h.LoadedAt().IsZero() {
		t.Fatalf("reload did not populate holder")
	}

	// A broken file keeps the previous snapshot.
	if err := os.WriteFile(path, []byte("meetings: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if len(h.Get().Meetings) != 1 {
		t.Error("previous snapshot was dropped")
	}
}

func TestHolderConcurrentAccess(t *testing.T) {
	h := snapshot.NewHolder(writeFile(t, sample))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
		go func() {
			defer wg.Done()
			_ = h.Get()
		}()
	}
	wg.Wait()
	if len(h.Get().Actions) != 1 {
		t.Errorf("actions = %d", len(h.Get().Actions))
	}
}
