package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical date key format.
const DateLayout = "2006-01-02"

var (
	// dottedDateRe matches day-first dates: 5.7.2026, 05.07.2026
	dottedDateRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)

	// isoDateRe matches canonical keys: 2026-07-05
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NormalizeDate converts a feed date field to a YYYY-MM-DD key.
// Day-first dotted dates are tried first, then ISO keys, then a generic
// parse in local time (slashed dates are month-first there). Values
// without a year, such as a bare time of day, are rejected. Returns false
// when nothing matches.
func NormalizeDate(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	if m := dottedDateRe.FindStringSubmatch(raw); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if !validCalendarDate(year, month, day) {
			return "", false
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
	}

	if isoDateRe.MatchString(raw) {
		return raw, true
	}

	t, err := dateparse.ParseIn(raw, time.Local)
	if err != nil || t.Year() == 0 {
		return "", false
	}
	return t.In(time.Local).Format(DateLayout), true
}

// validCalendarDate rejects dates that time.Date would roll over (31.02.).
func validCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}
