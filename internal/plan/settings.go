package plan

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Seasons accepted for a plan.
var Seasons = []string{"spring", "summer", "autumn", "winter"}

const (
	MinYear = 2000
	MaxYear = 2100

	// minDerivedP3 is the floor applied when the peak phase length is derived.
	minDerivedP3 = 1
)

// Settings is a validated training plan.
type Settings struct {
	EventName string
	Season    string
	Year      int
	Start     time.Time
	Race      time.Time
	P1        int
	P2        int
	P3        int
	P4        int
	SheetURL  string

	// P3Derived records that P3 was computed rather than entered.
	P3Derived bool
}

// Draft is the unvalidated form of Settings as submitted by a user or
// read back from a cache. Dates are YYYY-MM-DD strings; a nil P3 asks
// for the peak phase to be derived from the remaining weeks.
type Draft struct {
	EventName string `json:"event_name"`
	Season    string `json:"season"`
	Year      int    `json:"year"`
	Start     string `json:"start"`
	Race      string `json:"race"`
	P1        int    `json:"p1"`
	P2        int    `json:"p2"`
	P3        *int   `json:"p3,omitempty"`
	P4        int    `json:"p4"`
	SheetURL  string `json:"sheet_url"`
}

// ValidationError names the first field of a draft that failed validation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks a draft field by field and returns normalized settings.
// Only the first failure is reported.
func Validate(d Draft) (Settings, error) {
	name := strings.TrimSpace(d.EventName)
	if name == "" {
		return Settings{}, invalid("event_name", "must not be empty")
	}

	season := strings.ToLower(strings.TrimSpace(d.Season))
	if !isSeason(season) {
		return Settings{}, invalid("season", "must be one of %s", strings.Join(Seasons, ", "))
	}

	if d.Year < MinYear || d.Year > MaxYear {
		return Settings{}, invalid("year", "must be between %d and %d", MinYear, MaxYear)
	}

	start, err := time.Parse(DateLayout, strings.TrimSpace(d.Start))
	if err != nil {
		return Settings{}, invalid("start", "must be a date in YYYY-MM-DD format")
	}
	race, err := time.Parse(DateLayout, strings.TrimSpace(d.Race))
	if err != nil {
		return Settings{}, invalid("race", "must be a date in YYYY-MM-DD format")
	}
	if !race.After(start) {
		return Settings{}, invalid("race", "must be after the start date")
	}

	for _, p := range []struct {
		field string
		weeks int
	}{{"p1", d.P1}, {"p2", d.P2}, {"p4", d.P4}} {
		if p.weeks <= 0 {
			return Settings{}, invalid(p.field, "must be a positive number of weeks")
		}
	}

	p3, derived := 0, false
	if d.P3 != nil {
		if *d.P3 <= 0 {
			return Settings{}, invalid("p3", "must be a positive number of weeks")
		}
		p3 = *d.P3
	} else {
		p3, derived = DeriveP3(start, race, d.P1, d.P2), true
	}

	sheetURL := strings.TrimSpace(d.SheetURL)
	if !isHTTPURL(sheetURL) {
		return Settings{}, invalid("sheet_url", "must be an http or https URL")
	}

	return Settings{
		EventName: name,
		Season:    season,
		Year:      d.Year,
		Start:     start,
		Race:      race,
		P1:        d.P1,
		P2:        d.P2,
		P3:        p3,
		P4:        d.P4,
		SheetURL:  sheetURL,
		P3Derived: derived,
	}, nil
}

// DeriveP3 returns the whole weeks left between the end of the build phase
// and race day, never less than minDerivedP3.
func DeriveP3(start, race time.Time, p1, p2 int) int {
	peakStart := AddWeeks(start, p1+p2)
	weeks := DaysBetween(peakStart, race) / 7
	if weeks < minDerivedP3 {
		return minDerivedP3
	}
	return weeks
}

// Draft converts settings back to their editable form.
func (s Settings) Draft() Draft {
	d := Draft{
		EventName: s.EventName,
		Season:    s.Season,
		Year:      s.Year,
		Start:     FormatDate(s.Start),
		Race:      FormatDate(s.Race),
		P1:        s.P1,
		P2:        s.P2,
		P4:        s.P4,
		SheetURL:  s.SheetURL,
	}
	if !s.P3Derived {
		p3 := s.P3
		d.P3 = &p3
	}
	return d
}

// Defaults returns the plan shown before any settings have been saved.
func Defaults() Settings {
	s, err := Validate(DefaultDraft())
	if err != nil {
		panic("plan: invalid default draft: " + err.Error())
	}
	return s
}

// DefaultDraft is the editable form of Defaults.
func DefaultDraft() Draft {
	return Draft{
		EventName: "Half Marathon",
		Season:    "summer",
		Year:      2026,
		Start:     "2026-01-05",
		Race:      "2026-07-05",
		P1:        8,
		P2:        8,
		P4:        2,
		SheetURL:  "https://docs.google.com/spreadsheets/d/e/schedule/pub?output=csv",
	}
}

func isSeason(s string) bool {
	for _, v := range Seasons {
		if s == v {
			return true
		}
	}
	return false
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
