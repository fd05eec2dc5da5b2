package widget

import (
	"time"

	"github.com/meltforce/racecountdown/internal/models"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/schedule"
)

// displayLayout renders a full day heading, e.g. "Friday, 3 July 2026".
const displayLayout = "Monday, 2 January 2006"

// Snapshot is a consistent copy of one user's widget state.
type Snapshot struct {
	Settings  plan.Settings
	Index     *schedule.Index
	Week      time.Time
	HasPrev   bool
	HasNext   bool
	Weeks     []time.Time
	Simulated bool
}

// TodayView is the workout card for a single day.
type TodayView struct {
	Date      string               `json:"date"`
	Display   string               `json:"display"`
	Scheduled bool                 `json:"scheduled"`
	Simulated bool                 `json:"simulated"`
	Workout   models.WorkoutRecord `json:"workout"`
}

// PhasesView lists the plan phases with their status.
type PhasesView struct {
	Event  string           `json:"event"`
	Phases []plan.PhaseView `json:"phases"`
}

// DayCell is one day of a week view.
type DayCell struct {
	Date      string               `json:"date"`
	Weekday   string               `json:"weekday"`
	Today     bool                 `json:"today"`
	Scheduled bool                 `json:"scheduled"`
	Workout   models.WorkoutRecord `json:"workout"`
}

// WeekView is the browsable weekly schedule.
type WeekView struct {
	Monday     string    `json:"monday"`
	Sunday     string    `json:"sunday"`
	WeekNumber int       `json:"week_number"`
	HasPrev    bool      `json:"has_prev"`
	HasNext    bool      `json:"has_next"`
	Fallback   bool      `json:"fallback,omitempty"`
	Days       []DayCell `json:"days"`
}

// WeekSummary is one entry of the week list.
type WeekSummary struct {
	Monday     string `json:"monday"`
	WeekNumber int    `json:"week_number"`
	Current    bool   `json:"current"`
}

// workoutFor returns the display record for date and whether the feed had it.
func workoutFor(idx *schedule.Index, date string) (models.WorkoutRecord, bool) {
	rec, ok := idx.Lookup(date)
	if !ok {
		return models.NoEntry(), false
	}
	return rec.WithPlaceholders(), true
}

// RenderToday builds the workout card for ref.
func RenderToday(snap Snapshot, ref time.Time) TodayView {
	date := plan.FormatDate(ref)
	rec, ok := workoutFor(snap.Index, date)
	return TodayView{
		Date:      date,
		Display:   ref.Format(displayLayout),
		Scheduled: ok,
		Simulated: snap.Simulated,
		Workout:   rec,
	}
}

// RenderCountdown builds the countdown as of ref.
func RenderCountdown(snap Snapshot, ref time.Time) plan.CountdownView {
	return plan.Countdown(snap.Settings, ref)
}

// RenderPhases builds the phase list as of ref.
func RenderPhases(snap Snapshot, ref time.Time) PhasesView {
	return PhasesView{
		Event:  snap.Settings.EventName,
		Phases: plan.PhaseViews(snap.Settings, ref),
	}
}

// RenderWeek builds the seven day cells of the selected week.
func RenderWeek(snap Snapshot, ref time.Time) WeekView {
	monday := snap.Week
	if monday.IsZero() {
		monday = plan.MondayOf(ref)
	}
	v := WeekView{
		Monday:     plan.FormatDate(monday),
		Sunday:     plan.FormatDate(plan.AddDays(monday, 6)),
		WeekNumber: plan.WeekNumber(monday, snap.Settings.Start),
		HasPrev:    snap.HasPrev,
		HasNext:    snap.HasNext,
		Days:       make([]DayCell, 7),
	}
	for i := range v.Days {
		d := plan.AddDays(monday, i)
		date := plan.FormatDate(d)
		rec, ok := workoutFor(snap.Index, date)
		v.Days[i] = DayCell{
			Date:      date,
			Weekday:   d.Weekday().String(),
			Today:     d.Equal(ref),
			Scheduled: ok,
			Workout:   rec,
		}
	}
	return v
}

// RenderWeeks lists every browsable week.
func RenderWeeks(snap Snapshot) []WeekSummary {
	out := make([]WeekSummary, len(snap.Weeks))
	for i, w := range snap.Weeks {
		out[i] = WeekSummary{
			Monday:     plan.FormatDate(w),
			WeekNumber: plan.WeekNumber(w, snap.Settings.Start),
			Current:    w.Equal(snap.Week),
		}
	}
	return out
}

// SettingsView is the editable settings document plus the effective
// peak and taper length.
type SettingsView struct {
	Draft     plan.Draft `json:"draft"`
	P3        int        `json:"p3"`
	P3Derived bool       `json:"p3_derived"`
}

// RenderSettings builds the settings document for s.
func RenderSettings(s plan.Settings) SettingsView {
	return SettingsView{Draft: s.Draft(), P3: s.P3, P3Derived: s.P3Derived}
}
