package shared

import (
	"fmt"
	"time"
)

// TimestampLayout is the fixed-width UTC layout used for every persisted
// timestamp. Values in this layout sort lexically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DayLayout formats a calendar day.
const DayLayout = "2006-01-02"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts persisted timestamps as well as the plain
// "YYYY-MM-DD HH:MM:SS" form SQLite produces for datetime('now').
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", DayLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("shared: unrecognised timestamp %q", value)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(orUTC(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// EndOfDay returns the last representable millisecond of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// DayKey returns the YYYY-MM-DD day that t falls on in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD value as midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, value, orUTC(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("shared: invalid day %q: %w", value, err)
	}
	return t, nil
}

// EnumerateDays lists every day key from start through end inclusive.
func EnumerateDays(start, end time.Time, loc *time.Location) []string {
	first := StartOfDay(start, loc)
	last := StartOfDay(end, loc)
	var days []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayLayout))
	}
	return days
}

// LoadLocation resolves a zone name, treating "" and "Local" as time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// ParseBound parses a range bound given either as a timestamp or as a
// YYYY-MM-DD day. Days expand to the start of the day, or to its end when
// endOfDay is set.
func ParseBound(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if day, err := time.ParseInLocation(DayLayout, value, orUTC(loc)); err == nil {
		if endOfDay {
			return EndOfDay(day, loc), nil
		}
		return day, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("shared: invalid range bound %q", value)
	}
	return t, nil
}
