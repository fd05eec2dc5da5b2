package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/widget"
)

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	return tbl
}

func printToday(w io.Writer, v widget.TodayView) {
	title := v.Display
	if v.Simulated {
		title += faint.Sprint(" (simulated)")
	}
	_, _ = fmt.Fprintln(w, bold.Sprint(title))

	tbl := newTable()
	tbl.AddRow("Training", v.Workout.Training)
	tbl.AddRow("Distance", v.Workout.Distance)
	tbl.AddRow("Pace", v.Workout.Pace)
	tbl.AddRow("Heart rate", v.Workout.HeartRate)
	tbl.AddRow("Note", v.Workout.Note)
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
}

func printCountdown(w io.Writer, v plan.CountdownView) {
	_, _ = fmt.Fprintf(w, "%s on %s\n", bold.Sprint(v.Event), v.RaceDate)
	label := v.Label
	switch v.State {
	case plan.StateRaceDay:
		label = green.Sprint(label)
	case plan.StateFinished:
		label = faint.Sprint(label)
	}
	_, _ = fmt.Fprintf(w, "%s  %s\n", label, progressBar(v.Progress, 30))
}

// progressBar draws pct (0-100) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '.'
		}
	}
	return "[" + string(bar) + "] " + strconv.FormatFloat(pct, 'f', 0, 64) + "%"
}

func printPhases(w io.Writer, v widget.PhasesView) {
	_, _ = fmt.Fprintln(w, bold.Sprint(v.Event))

	tbl := newTable()
	tbl.AddRow(bold.Sprint("#"), bold.Sprint("Phase"), bold.Sprint("From"), bold.Sprint("To"), bold.Sprint("Weeks"), bold.Sprint("Status"))
	for _, p := range v.Phases {
		status := p.Label
		switch p.Status {
		case plan.PhaseActive:
			status = green.Sprint(status)
		case plan.PhaseComplete:
			status = faint.Sprint(status)
		}
		tbl.AddRow(p.Number, p.Name+" "+faint.Sprint(p.Subtitle), plan.FormatDate(p.Start), plan.FormatDate(p.End), p.Weeks, status)
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func printWeek(w io.Writer, v widget.WeekView) {
	header := fmt.Sprintf("Week %d: %s to %s", v.WeekNumber, v.Monday, v.Sunday)
	_, _ = fmt.Fprintln(w, bold.Sprint(header))

	tbl := newTable()
	for _, d := range v.Days {
		day := d.Weekday
		if d.Today {
			day = yellow.Sprint("> " + day)
		}
		training := d.Workout.Training
		if !d.Scheduled {
			training = faint.Sprint(training)
		}
		tbl.AddRow(day, d.Date, training, d.Workout.Distance, d.Workout.Pace)
	}
	_, _ = fmt.Fprintln(w, tbl)

	var nav []string
	if v.HasPrev {
		nav = append(nav, "--prev")
	}
	if v.HasNext {
		nav = append(nav, "--next")
	}
	if len(nav) > 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint(fmt.Sprintf("more: %v", nav)))
	}
}

func printWeeks(w io.Writer, v []widget.WeekSummary) {
	tbl := newTable()
	tbl.AddRow(bold.Sprint("Week"), bold.Sprint("Monday"), "")
	for _, s := range v {
		mark := ""
		if s.Current {
			mark = yellow.Sprint("selected")
		}
		tbl.AddRow(s.WeekNumber, s.Monday, mark)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
}

func printSettings(w io.Writer, v widget.SettingsView) {
	d := v.Draft
	p3 := strconv.Itoa(v.P3)
	if v.P3Derived {
		p3 += faint.Sprint(" (derived)")
	}

	tbl := newTable()
	tbl.AddRow("Event", d.EventName)
	tbl.AddRow("Season", fmt.Sprintf("%s %d", d.Season, d.Year))
	tbl.AddRow("Start", d.Start)
	tbl.AddRow("Race", d.Race)
	tbl.AddRow("Base", fmt.Sprintf("%d weeks", d.P1))
	tbl.AddRow("Build", fmt.Sprintf("%d weeks", d.P2))
	tbl.AddRow("Peak & taper", p3+" weeks")
	tbl.AddRow("Recovery", fmt.Sprintf("%d weeks", d.P4))
	tbl.AddRow("Schedule", d.SheetURL)
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(w, tbl)
}

func printStatus(w io.Writer, v widget.Status) {
	if v.Error != "" {
		_, _ = fmt.Fprintln(w, red.Sprint("feed unavailable: "+v.Error))
		return
	}
	_, _ = fmt.Fprintf(w, "%s %d of %d rows indexed, %d skipped\n",
		green.Sprint("loaded"), v.Stats.Indexed, v.Stats.Rows, v.Stats.Skipped)
}

func printFetchLog(w io.Writer, entries []fetchlog.Entry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, faint.Sprint("no fetches recorded"))
		return
	}

	tbl := newTable()
	tbl.AddRow(bold.Sprint("When"), bold.Sprint("Status"), bold.Sprint("Rows"), bold.Sprint("Indexed"), bold.Sprint("ms"), bold.Sprint("Error"))
	for _, e := range entries {
		status := e.Status
		switch e.Status {
		case fetchlog.StatusOK:
			status = green.Sprint(status)
		case fetchlog.StatusError:
			status = red.Sprint(status)
		case fetchlog.StatusStale:
			status = faint.Sprint(status)
		}
		msg := ""
		if e.Error != nil {
			msg = *e.Error
		}
		tbl.AddRow(e.FetchedAt.Local().Format("2006-01-02 15:04"), status, e.Rows, e.Indexed, e.DurationMs, msg)
	}
	_, _ = fmt.Fprintln(w, tbl)
}
