package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is the sentinel every ValidationError matches with errors.Is.
var ErrInvalid = errors.New("invalid")

// ValidationError reports a snapshot that violates an entity invariant.
type ValidationError struct {
	Entity string
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s %s", e.Entity, e.ID, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// ActionStatus is the lifecycle state of an Action. Only Done and Archived
// change placement; transitions are not validated.
type ActionStatus string

const (
	StatusOpen     ActionStatus = "open"
	StatusDoing    ActionStatus = "doing"
	StatusWaiting  ActionStatus = "waiting"
	StatusDone     ActionStatus = "done"
	StatusArchived ActionStatus = "archived"
)

// Terminal reports whether the status freezes the action on its completion day.
func (s ActionStatus) Terminal() bool {
	return s == StatusDone || s == StatusArchived
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Action is a to-do item. Zero time values mean "not set".
type Action struct {
	ID        string       `yaml:"id" json:"id"`
	Title     string       `yaml:"title" json:"title"`
	Status    ActionStatus `yaml:"status" json:"status"`
	Priority  Priority     `yaml:"priority,omitempty" json:"priority,omitempty"`
	StartDate *time.Time   `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	DueDate   *time.Time   `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt time.Time    `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time    `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	TagIDs    []string     `yaml:"tag_ids,omitempty" json:"tag_ids,omitempty"`

	// Tags holds legacy freeform tag names, used only when TagIDs is empty.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Meeting is a single calendar appointment.
type Meeting struct {
	ID           string    `yaml:"id" json:"id"`
	Title        string    `yaml:"title" json:"title"`
	Start        time.Time `yaml:"start" json:"start"`
	End          time.Time `yaml:"end" json:"end"`
	Location     string    `yaml:"location,omitempty" json:"location,omitempty"`
	Participants string    `yaml:"participants,omitempty" json:"participants,omitempty"`
	Notes        string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	TagIDs       []string  `yaml:"tag_ids,omitempty" json:"tag_ids,omitempty"`
	Tags         []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Validate rejects meetings whose end is not after their start.
func (m Meeting) Validate() error {
	if m.Start.IsZero() {
		return &ValidationError{Entity: "meeting", ID: m.ID, Field: "start", Reason: "is required"}
	}
	if !m.End.After(m.Start) {
		return &ValidationError{Entity: "meeting", ID: m.ID, Field: "end", Reason: "must be after start"}
	}
	return nil
}

// Unit is the step size of a recurrence rule.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// RecurrenceRule exists only while a meeting is being created; it is
// consumed by the expander and never stored on the generated instances.
type RecurrenceRule struct {
	IntervalCount int        `yaml:"interval_count" json:"interval_count"`
	Unit          Unit       `yaml:"unit" json:"unit"`
	EndDate       *time.Time `yaml:"end_date,omitempty" json:"end_date,omitempty"`
}

// Complete reports whether the rule carries everything needed to expand.
func (r *RecurrenceRule) Complete() bool {
	return r != nil && r.IntervalCount >= 1 && r.Unit.Valid() && r.EndDate != nil && !r.EndDate.IsZero()
}

// Tag labels actions and meetings; Color is expected as #RRGGBB.
type Tag struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
}

const (
	DefaultContractHoursPerWeek = 40
	DefaultVacationDaysPerYear  = 25
)

// Settings is the per-user singleton used for accounting ratios. Fields
// missing from a decoded document take their default; an explicit 0 is
// kept.
type Settings struct {
	ContractHoursPerWeek float64 `yaml:"contract_hours_per_week" json:"contract_hours_per_week"`
	VacationDaysPerYear  float64 `yaml:"vacation_days_per_year" json:"vacation_days_per_year"`
}

// DefaultSettings returns the documented defaults (40h/week, 25 days).
func DefaultSettings() Settings {
	return Settings{
		ContractHoursPerWeek: DefaultContractHoursPerWeek,
		VacationDaysPerYear:  DefaultVacationDaysPerYear,
	}
}

// settingsFields breaks the UnmarshalYAML/UnmarshalJSON recursion.
type settingsFields Settings

func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	f := settingsFields(DefaultSettings())
	if err := node.Decode(&f); err != nil {
		return err
	}
	*s = Settings(f)
	return nil
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	f := settingsFields(DefaultSettings())
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Settings(f)
	return nil
}

// OrDefault returns s, or the defaults when s is nil.
func (s *Settings) OrDefault() Settings {
	if s == nil {
		return DefaultSettings()
	}
	return *s
}

// View is one of the calendar granularities.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
	ViewYear  View = "year"
)

// ParseView accepts the view names case-sensitively; empty means week.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "":
		return ViewWeek, nil
	case ViewDay, ViewWeek, ViewMonth, ViewYear:
		return View(s), nil
	}
	return "", &ValidationError{Entity: "view", Field: "name", Reason: fmt.Sprintf("%q is not one of day, week, month, year", s)}
}
