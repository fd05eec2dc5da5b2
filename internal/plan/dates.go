package plan

import (
	"fmt"
	"time"
)

// DateLayout is the canonical civil date format.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Civil dates are represented as time.Time at midnight UTC so that day
// arithmetic never crosses a daylight-saving boundary.

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// CivilDate truncates t to its calendar day in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}

// AddDays shifts a civil date by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// AddWeeks shifts a civil date by n weeks.
func AddWeeks(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, 7*n)
}

// MondayOf returns the Monday starting the week containing d.
func MondayOf(d time.Time) time.Time {
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	return AddDays(d, -(weekday - 1))
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// HumanDate renders a civil date for labels, e.g. "5 Jul 2026".
func HumanDate(d time.Time) string {
	return d.Format("2 Jan 2006")
}
