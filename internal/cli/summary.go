package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"agenda/internal/accounting"
	"agenda/internal/calendar"
	"agenda/internal/model"
)

var (
	summaryYear   int
	summaryFrom   string
	summaryTo     string
	summaryFormat string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show worked hours, overtime and vacation balance",
	Long: `summary prints the year-to-date balance of --year (default: the current
year), or the balance of the inclusive range --from .. --to.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryYear, "year", 0, "Calendar year (default current year)")
	summaryCmd.Flags().StringVar(&summaryFrom, "from", "", "Period start YYYY-MM-DD")
	summaryCmd.Flags().StringVar(&summaryTo, "to", "", "Period end YYYY-MM-DD (default --from)")
	summaryCmd.Flags().StringVar(&summaryFormat, "format", "text", "Output format: text, json")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	day := calendar.StartOfDay(today())

	var q accounting.Query
	switch {
	case summaryFrom != "":
		from, err := calendar.ParseDate(summaryFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to := from
		if summaryTo != "" {
			if to, err = calendar.ParseDate(summaryTo); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
		}
		if to.Before(from) {
			return fmt.Errorf("--to %s is before --from %s", summaryTo, summaryFrom)
		}
		q = accounting.Period(from, to)
	default:
		year := summaryYear
		if year == 0 {
			year = day.Year()
		}
		q = accounting.Year(year)
	}

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	sum := accounting.Summarize(snap.Entries, snap.Settings, q, day)

	out := cmd.OutOrStdout()
	if summaryFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	printSummary(out, sum)
	return nil
}

func printSummary(w io.Writer, s accounting.Summary) {
	label := fmt.Sprintf("%s .. %s", s.From.Format(model.DateLayout), s.To.Format(model.DateLayout))
	if s.Mode == accounting.ModeYear {
		label = fmt.Sprintf("%d (year to date)", s.From.Year())
	}
	fmt.Fprintf(w, "Summary %s\n", label)
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "%-20s%10sh\n", "Credited", s.CreditedHours.StringFixed(2))
	fmt.Fprintf(w, "%-20s%10sh\n", "Expected", s.ExpectedHours.StringFixed(2))
	fmt.Fprintf(w, "%-20s%10sh  (%s)\n", "Overtime", s.OvertimeBalance.StringFixed(2), clock(s.OvertimeBalance))
	fmt.Fprintf(w, "%-20s%10sh  (%s)\n", "This week", s.WeeklyBalance.StringFixed(2), clock(s.WeeklyBalance))
	fmt.Fprintf(w, "%-20s%10sd\n", "Vacation used", s.VacationDaysUsed.StringFixed(2))
	fmt.Fprintf(w, "%-20s%10sd\n", "Vacation left", s.VacationDaysRemaining.StringFixed(2))
	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "\n%d entries skipped (unparsable date): %v\n", len(s.Skipped), s.Skipped)
	}
}

// clock renders decimal hours as "7h 30m", rounded to the minute.
func clock(hours decimal.Decimal) string {
	return calendar.FormatMinutes(int(hours.Mul(decimal.NewFromInt(60)).Round(0).IntPart()))
}
