package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// Period selects a profit/loss window length.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	// PeriodCustom labels caller-chosen sales ranges.
	PeriodCustom Period = "custom"
)

// ParsePeriod accepts daily, weekly or monthly. Empty means monthly.
func ParsePeriod(value string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(value))); p {
	case "":
		return PeriodMonthly, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", httpx.ErrValidation, value)
	}
}

// Window is a resolved reporting range. End is the last millisecond of the
// final day.
type Window struct {
	Period Period    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// ResolvePeriod returns the window of the given length containing ref in
// loc. Weeks start on Monday.
func ResolvePeriod(period Period, ref time.Time, loc *time.Location) Window {
	day := shared.StartOfDay(ref, loc)
	w := Window{Period: period}
	switch period {
	case PeriodDaily:
		w.Start = day
		w.End = shared.EndOfDay(day, loc)
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		w.Start = day.AddDate(0, 0, -offset)
		w.End = shared.EndOfDay(w.Start.AddDate(0, 0, 6), loc)
	default:
		w.Period = PeriodMonthly
		w.Start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		w.End = shared.EndOfDay(w.Start.AddDate(0, 1, -1), loc)
	}
	return w
}

// MonthWindow covers the whole calendar month in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	return ResolvePeriod(PeriodMonthly, time.Date(year, month, 1, 12, 0, 0, 0, loc), loc)
}

// Days lists the window's day keys.
func (w Window) Days(loc *time.Location) []string {
	return shared.EnumerateDays(w.Start, w.End, loc)
}
