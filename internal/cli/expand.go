package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agenda/internal/calendar"
	"agenda/internal/grid"
	"agenda/internal/model"
	"agenda/internal/recurrence"
)

const minuteLayout = "2006-01-02T15:04"

var (
	expandTitle    string
	expandStart    string
	expandEnd      string
	expandEvery    int
	expandUnit     string
	expandUntil    string
	expandRRule    string
	expandTags     []string
	expandLocation string
	expandSave     bool
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Create a (recurring) meeting and list its instances",
	Long: `expand builds a meeting from --start/--end and, when a recurrence is
given (--every/--unit/--until or --rrule), generates one independent meeting
per occurrence. With --save the instances are appended to the snapshot.`,
	Args: cobra.NoArgs,
	RunE: runExpand,
}

func init() {
	f := expandCmd.Flags()
	f.StringVar(&expandTitle, "title", "", "Meeting title")
	f.StringVar(&expandStart, "start", "", "Start YYYY-MM-DDTHH:MM")
	f.StringVar(&expandEnd, "end", "", "End YYYY-MM-DDTHH:MM (default start + 1h)")
	f.IntVar(&expandEvery, "every", 1, "Recurrence interval count")
	f.StringVar(&expandUnit, "unit", "", "Recurrence unit: day, week, month, year")
	f.StringVar(&expandUntil, "until", "", "Last day of the recurrence YYYY-MM-DD (inclusive)")
	f.StringVar(&expandRRule, "rrule", "", "RFC 5545 RRULE instead of --every/--unit/--until")
	f.StringSliceVar(&expandTags, "tag", nil, "Tag ID (repeatable)")
	f.StringVar(&expandLocation, "location", "", "Meeting location")
	f.BoolVar(&expandSave, "save", false, "Append the instances to the snapshot file")
	_ = expandCmd.MarkFlagRequired("start")
}

func runExpand(cmd *cobra.Command, _ []string) error {
	start, err := time.Parse(minuteLayout, expandStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end := start.Add(grid.DefaultDuration * time.Minute)
	if expandEnd != "" {
		if end, err = time.Parse(minuteLayout, expandEnd); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}

	base := model.Meeting{
		ID:       uuid.NewString(),
		Title:    expandTitle,
		Start:    start,
		End:      end,
		Location: expandLocation,
		TagIDs:   expandTags,
	}

	rule, err := ruleFromFlags(start)
	if err != nil {
		return err
	}
	instances, err := recurrence.Expand(base, rule)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s := recurrence.FormatRRule(rule); s != "" {
		fmt.Fprintf(out, "RRULE:%s\n", s)
	}
	for _, m := range instances {
		fmt.Fprintf(out, "%s  %s %s-%s  %s\n", m.ID, m.Start.Format("Mon "+model.DateLayout), m.Start.Format("15:04"), m.End.Format("15:04"), m.Title)
	}
	fmt.Fprintf(out, "%d instance(s)\n", len(instances))

	if !expandSave {
		return nil
	}
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	snap.Meetings = append(snap.Meetings, instances...)
	if err := saveSnapshot(snap); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved to %s\n", app.dataPath)
	return nil
}

// ruleFromFlags returns nil when no recurrence was requested.
func ruleFromFlags(start time.Time) (*model.RecurrenceRule, error) {
	if expandRRule != "" {
		return recurrence.ParseRRule(expandRRule, start)
	}
	if expandUnit == "" && expandUntil == "" {
		return nil, nil
	}
	unit := model.Unit(expandUnit)
	if !unit.Valid() {
		return nil, fmt.Errorf("invalid --unit %q", expandUnit)
	}
	if expandUntil == "" {
		return nil, errors.New("--until is required with --unit")
	}
	until, err := calendar.ParseDate(expandUntil)
	if err != nil {
		return nil, fmt.Errorf("invalid --until: %w", err)
	}
	if expandEvery < 1 {
		return nil, fmt.Errorf("--every must be at least 1, got %d", expandEvery)
	}
	return &model.RecurrenceRule{IntervalCount: expandEvery, Unit: unit, EndDate: &until}, nil
}
