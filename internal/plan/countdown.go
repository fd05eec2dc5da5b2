package plan

import (
	"fmt"
	"time"
)

// CountdownState describes where the reference date sits relative to race day.
type CountdownState string

const (
	StateCounting CountdownState = "counting"
	StateRaceDay  CountdownState = "race-day"
	StateFinished CountdownState = "finished"
)

// weeksThreshold is the remaining-day count above which the countdown
// switches from days to weeks.
const weeksThreshold = 30

// CountdownView is the countdown to race day as of a reference date.
type CountdownView struct {
	Event         string         `json:"event"`
	RaceDate      string         `json:"race_date"`
	State         CountdownState `json:"state"`
	TotalDays     int            `json:"total_days"`
	RemainingDays int            `json:"remaining_days"`
	Unit          string         `json:"unit,omitempty"`
	Value         int            `json:"value"`
	Label         string         `json:"label"`
	Progress      float64        `json:"progress"`
}

// Countdown computes the countdown for s as of ref (a civil date).
func Countdown(s Settings, ref time.Time) CountdownView {
	total := DaysBetween(s.Start, s.Race)
	if total < 1 {
		total = 1
	}
	remaining := DaysBetween(ref, s.Race)

	v := CountdownView{
		Event:         s.EventName,
		RaceDate:      FormatDate(s.Race),
		TotalDays:     total,
		RemainingDays: remaining,
	}

	switch {
	case remaining < 0:
		v.State = StateFinished
		v.Label = "Race finished"
		v.Progress = 100
	case remaining == 0:
		v.State = StateRaceDay
		v.Label = "Race day!"
		v.Progress = 100
	default:
		v.State = StateCounting
		if remaining > weeksThreshold {
			v.Unit = "weeks"
			v.Value = remaining / 7
			v.Label = fmt.Sprintf("%d weeks", v.Value)
		} else {
			v.Unit = "days"
			v.Value = remaining
			v.Label = pluralDays(remaining)
		}
		v.Progress = progress(DaysBetween(s.Start, ref), total)
	}
	return v
}

// progress returns elapsed/total as a percentage clamped to [0, 100].
func progress(elapsed, total int) float64 {
	pct := float64(elapsed) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
