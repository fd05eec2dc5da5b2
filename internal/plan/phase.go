package plan

import (
	"fmt"
	"time"
)

// PhaseStatus is a phase's state as of a reference date.
type PhaseStatus string

const (
	PhaseFuture   PhaseStatus = "future"
	PhaseActive   PhaseStatus = "active"
	PhaseComplete PhaseStatus = "complete"
)

const completedLabel = "completed"

// Phase is one of the four training blocks of a plan.
type Phase struct {
	Number   int       `json:"number"`
	Name     string    `json:"name"`
	Subtitle string    `json:"subtitle"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Weeks    int       `json:"weeks"`
}

// PhaseView is a phase together with its status as of a reference date.
type PhaseView struct {
	Phase
	Status PhaseStatus `json:"status"`
	Label  string      `json:"label"`
}

// Phases derives the four blocks of the plan. Each window is computed on
// its own, so misconfigured durations show up as gaps or overlaps.
func Phases(s Settings) []Phase {
	buildStart := AddWeeks(s.Start, s.P1)
	peakStart := AddWeeks(s.Start, s.P1+s.P2)
	recoveryStart := AddDays(s.Race, 1)

	return []Phase{
		{Number: 1, Name: "Base", Subtitle: "aerobic foundation", Start: s.Start, End: AddWeeks(s.Start, s.P1), Weeks: s.P1},
		{Number: 2, Name: "Build", Subtitle: "volume and tempo", Start: buildStart, End: AddWeeks(buildStart, s.P2), Weeks: s.P2},
		{Number: 3, Name: "Peak & Taper", Subtitle: "race-specific work, then freshen up", Start: peakStart, End: s.Race, Weeks: s.P3},
		{Number: 4, Name: "Recovery", Subtitle: "easy running after the race", Start: recoveryStart, End: AddWeeks(recoveryStart, s.P4), Weeks: s.P4},
	}
}

// Status reports where ref falls in the phase window [Start, End).
func (p Phase) Status(ref time.Time) (PhaseStatus, string) {
	switch {
	case ref.Before(p.Start):
		return PhaseFuture, "starts on " + HumanDate(p.Start)
	case ref.Before(p.End):
		week := DaysBetween(p.Start, ref)/7 + 1
		if week > p.Weeks {
			week = p.Weeks
		}
		return PhaseActive, fmt.Sprintf("week %d/%d", week, p.Weeks)
	default:
		return PhaseComplete, completedLabel
	}
}

// PhaseViews returns every phase with its status as of ref.
func PhaseViews(s Settings, ref time.Time) []PhaseView {
	phases := Phases(s)
	views := make([]PhaseView, len(phases))
	for i, p := range phases {
		status, label := p.Status(ref)
		views[i] = PhaseView{Phase: p, Status: status, Label: label}
	}
	return views
}
