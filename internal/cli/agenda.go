package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"agenda/internal/calendar"
	"agenda/internal/grid"
	"agenda/internal/model"
	"agenda/internal/placement"
	"agenda/internal/style"
)

var (
	agendaView   string
	agendaDate   string
	agendaFormat string
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Show actions and meetings placed on the days of a view",
	Args:  cobra.NoArgs,
	RunE:  runAgenda,
}

func init() {
	agendaCmd.Flags().StringVar(&agendaView, "view", "week", "View: day, week, month, year")
	agendaCmd.Flags().StringVar(&agendaDate, "date", "", "Anchor day YYYY-MM-DD (default today)")
	agendaCmd.Flags().StringVar(&agendaFormat, "format", "text", "Output format: text, json")
}

func runAgenda(cmd *cobra.Command, _ []string) error {
	view, err := model.ParseView(agendaView)
	if err != nil {
		return err
	}
	now := today()
	day := calendar.StartOfDay(now)
	anchor := day
	if agendaDate != "" {
		if anchor, err = calendar.ParseDate(agendaDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	layout := placement.Build(view, anchor, day, calendar.ParseWeekday(app.cfg.WeekStart), snap.Actions, snap.Meetings)

	out := cmd.OutOrStdout()
	if agendaFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(layout)
	}
	printLayout(out, layout, now, app.cfg.Resolver(), style.Index(snap.Tags))
	return nil
}

func printLayout(w io.Writer, layout placement.Layout, now time.Time, r *style.Resolver, tags map[string]model.Tag) {
	fmt.Fprintf(w, "%s view %s .. %s\n", layout.View,
		layout.From.Format(model.DateLayout), layout.To.Format(model.DateLayout))

	timeGrid := layout.View == model.ViewDay || layout.View == model.ViewWeek
	for _, cell := range layout.Cells {
		// Month and year views skip empty days to stay readable.
		if !timeGrid && len(cell.Actions) == 0 && len(cell.Meetings) == 0 {
			continue
		}
		marker := ""
		if cell.Today {
			marker = " (today)"
		}
		fmt.Fprintf(w, "\n%s %s%s\n", cell.Date.Format("Mon"), cell.Date.Format(model.DateLayout), marker)

		if off, ok := grid.NowOffset(now, cell.Date); ok && timeGrid {
			fmt.Fprintf(w, "  now at %02d:%02d\n", off/60, off%60)
		}
		for _, b := range grid.LayoutDay(cell.Meetings, cell.Date) {
			m := b.Meeting
			fmt.Fprintf(w, "  %s-%s  %-30s %s", m.Start.Format("15:04"), m.End.Format("15:04"), m.Title, r.Color(style.MeetingItem(m), tags))
			if b.Lanes > 1 {
				fmt.Fprintf(w, "  lane %d/%d", b.Lane+1, b.Lanes)
			}
			fmt.Fprintln(w)
		}
		for _, a := range cell.Actions {
			fmt.Fprintf(w, "  [%-8s] %-30s %s\n", a.Status, a.Title, r.Color(style.ActionItem(a), tags))
		}
	}
}
