// Package accounting computes worked time, contractual expectation, overtime
// and vacation balances from time entries.
//
// All arithmetic is done with decimals so that repeated summaries of the
// same entries agree to the last digit.
package accounting

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"agenda/internal/calendar"
	appLog "agenda/internal/log"
	"agenda/internal/model"
)

// WorkDaysPerWeek divides the weekly contract into a daily expectation.
const WorkDaysPerWeek = 5

var sixty = decimal.NewFromInt(60)

func init() {
	// Summary figures are JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Mode selects how a Query is summarized.
type Mode string

const (
	// ModePeriod accounts an arbitrary inclusive date range.
	ModePeriod Mode = "period"
	// ModeYear accounts the calendar year up to today (year-to-date).
	ModeYear Mode = "year"
)

// Query is the range a summary is computed for.
type Query struct {
	Mode Mode
	From time.Time
	To   time.Time
}

// Period queries the inclusive range [from, to].
func Period(from, to time.Time) Query {
	return Query{Mode: ModePeriod, From: calendar.StartOfDay(from), To: calendar.StartOfDay(to)}
}

// Year queries the whole calendar year.
func Year(year int) Query {
	from, to := calendar.YearRange(year, time.UTC)
	return Query{Mode: ModeYear, From: from, To: calendar.StartOfDay(to)}
}

// Summary holds the derived statistics of one query.
//
// In period mode CreditedHours/ExpectedHours/OvertimeBalance cover the
// query range; in year mode they are the year-to-date figures. Vacation
// figures always cover the calendar year of the query and WeeklyBalance the
// week containing today.
type Summary struct {
	Mode                  Mode            `json:"mode"`
	From                  time.Time       `json:"from"`
	To                    time.Time       `json:"to"`
	CreditedHours         decimal.Decimal `json:"credited_hours"`
	ExpectedHours         decimal.Decimal `json:"expected_hours"`
	OvertimeBalance       decimal.Decimal `json:"overtime_balance"`
	VacationDaysUsed      decimal.Decimal `json:"vacation_days_used"`
	VacationDaysRemaining decimal.Decimal `json:"vacation_days_remaining"`
	WeeklyBalance         decimal.Decimal `json:"weekly_balance"`

	// Skipped lists the IDs of entries whose date could not be parsed.
	Skipped []string `json:"skipped,omitempty"`
}

// dated is a time entry with its parsed day and effective minutes.
type dated struct {
	entry   model.TimeEntry
	day     time.Time
	minutes int64
}

// Summarize computes the statistics of q. settings may be nil, in which case
// the defaults apply. today is the injected current date.
func Summarize(entries []model.TimeEntry, settings *model.Settings, q Query, today time.Time) Summary {
	s := settings.OrDefault()
	today = calendar.StartOfDay(today)
	hpd := HoursPerDay(s)

	valid, skipped := prepare(entries)

	out := Summary{
		Mode:    q.Mode,
		From:    q.From,
		To:      q.To,
		Skipped: skipped,
	}

	switch q.Mode {
	case ModeYear:
		out.CreditedHours, out.ExpectedHours = yearToDate(valid, q.From.Year(), today, hpd)
	default:
		out.CreditedHours = periodCredited(valid, q.From, q.To)
		out.ExpectedHours = Expected(q.From, q.To, hpd)
	}
	out.OvertimeBalance = out.CreditedHours.Sub(out.ExpectedHours)

	out.VacationDaysUsed = vacationDays(valid, q.From.Year(), hpd)
	out.VacationDaysRemaining = decimal.NewFromFloat(s.VacationDaysPerYear).Sub(out.VacationDaysUsed)

	weekCredited, weekExpected := week(valid, today, hpd)
	out.WeeklyBalance = weekCredited.Sub(weekExpected)

	return out
}

// SummarizeYears summarizes several years concurrently. Each summary only
// reads its own arguments, so the calls are independent.
func SummarizeYears(entries []model.TimeEntry, settings *model.Settings, years []int, today time.Time) []Summary {
	out := make([]Summary, len(years))
	var wg sync.WaitGroup
	for i, y := range years {
		i, y := i, y
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = Summarize(entries, settings, Year(y), today)
		}()
	}
	wg.Wait()
	return out
}

// HoursPerDay is the contractual daily expectation.
func HoursPerDay(s model.Settings) decimal.Decimal {
	return decimal.NewFromFloat(s.ContractHoursPerWeek).Div(decimal.NewFromInt(WorkDaysPerWeek))
}

// Expected is the business-day expectation over [from, to] in hours.
func Expected(from, to time.Time, hpd decimal.Decimal) decimal.Decimal {
	if hpd.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(calendar.BusinessDays(from, to))).Mul(hpd)
}

// periodCredited sums the worked hours dated inside [from, to]. Vacation,
// sick and balance entries do not count here.
func periodCredited(entries []dated, from, to time.Time) decimal.Decimal {
	var minutes int64
	for _, d := range entries {
		if !d.entry.Type.IsWork() || !within(d.day, from, to) {
			continue
		}
		minutes += d.minutes
	}
	return decimal.NewFromInt(minutes).Div(sixty)
}

// yearToDate returns credited and expected hours of year up to today.
// A future year expects nothing.
func yearToDate(entries []dated, year int, today time.Time, hpd decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	jan1, dec31 := calendar.YearRange(year, today.Location())
	dec31 = calendar.StartOfDay(dec31)

	expected := decimal.Zero
	if year <= today.Year() {
		calcEnd := dec31
		if today.Before(calcEnd) {
			calcEnd = today
		}
		expected = Expected(jan1, calcEnd, hpd)
	}
	return credited(entries, jan1, dec31, today), expected
}

// week returns credited and expected hours of the Monday to Sunday week
// containing today, counted up to today.
func week(entries []dated, today time.Time, hpd decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	monday, sunday := calendar.WeekRange(today, time.Monday)
	sunday = calendar.StartOfDay(sunday)

	calcEnd := sunday
	if today.Before(calcEnd) {
		calcEnd = today
	}
	return credited(entries, monday, sunday, today), Expected(monday, calcEnd, hpd)
}

// credited sums entries dated in [from, to]. Balance adjustments always
// count; every other entry counts unless it lies after today.
func credited(entries []dated, from, to, today time.Time) decimal.Decimal {
	var minutes int64
	for _, d := range entries {
		if !within(d.day, from, to) {
			continue
		}
		if d.entry.Type != model.EntryBalance && calendar.CompareDate(d.day, today) > 0 {
			continue
		}
		minutes += d.minutes
	}
	return decimal.NewFromInt(minutes).Div(sixty)
}

// vacationDays converts the vacation entries of year, past and planned, to
// days. Negative entries are purchased time and reduce the days used.
func vacationDays(entries []dated, year int, hpd decimal.Decimal) decimal.Decimal {
	if hpd.IsZero() {
		return decimal.Zero
	}
	var minutes int64
	for _, d := range entries {
		if d.entry.Type == model.EntryVacation && d.day.Year() == year {
			minutes += d.minutes
		}
	}
	return decimal.NewFromInt(minutes).Div(sixty).Div(hpd)
}

// prepare parses entry dates and resolves durations. Entries with an
// unparsable date are left out of every sum and reported by ID.
func prepare(entries []model.TimeEntry) ([]dated, []string) {
	out := make([]dated, 0, len(entries))
	var skipped []string
	for _, e := range entries {
		day, err := e.Day()
		if err != nil {
			appLog.Error("accounting: skipping entry with unparsable date", err, "id", e.ID, "date", e.Date)
			skipped = append(skipped, e.ID)
			continue
		}
		span, err := e.Span()
		if err != nil {
			appLog.Debug("accounting: using stored duration", "id", e.ID, "reason", err.Error())
		}
		out = append(out, dated{entry: e, day: day, minutes: int64(span.Minutes())})
	}
	return out, skipped
}

func within(day, from, to time.Time) bool {
	return calendar.CompareDate(day, from) >= 0 && calendar.CompareDate(day, to) <= 0
}
