package calendar

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/schedule"
)

// uidDomain suffixes every event UID so synced events can be told apart
// from others in the same calendar.
const uidDomain = "@racecountdown"

// uidNamespace seeds the name-based UUIDs of schedule events.
var uidNamespace = uuid.MustParse("7d0c6a1e-3f7b-4c1e-9a53-2b8f0e4d6c11")

// Event is one all-day calendar entry.
type Event struct {
	UID         string
	Date        time.Time
	Summary     string
	Description string
}

// UID returns the stable event identifier for a user's entry on date.
func UID(owner, date string) string {
	return uuid.NewSHA1(uidNamespace, []byte(owner+"/"+date)).String() + uidDomain
}

// Events turns the schedule into calendar events, one per scheduled day,
// plus the race itself when the race day has no entry.
func Events(owner string, idx *schedule.Index, s plan.Settings) []Event {
	dates := idx.Dates()
	events := make([]Event, 0, len(dates)+1)
	raceDate := plan.FormatDate(s.Race)
	raceListed := false

	for _, ds := range dates {
		d, err := plan.ParseDate(ds)
		if err != nil {
			continue
		}
		rec, _ := idx.Lookup(ds)
		summary := rec.Training
		if summary == "" {
			summary = "Training"
		}
		if ds == raceDate {
			raceListed = true
			summary = s.EventName + ": " + summary
		}

		var desc []string
		for _, f := range []struct{ label, value string }{
			{"Distance", rec.Distance},
			{"Pace", rec.Pace},
			{"Heart rate", rec.HeartRate},
		} {
			if f.value != "" {
				desc = append(desc, f.label+": "+f.value)
			}
		}
		if rec.Note != "" {
			desc = append(desc, rec.Note)
		}

		events = append(events, Event{
			UID:         UID(owner, ds),
			Date:        d,
			Summary:     summary,
			Description: strings.Join(desc, "\n"),
		})
	}

	if !raceListed {
		events = append(events, Event{
			UID:     UID(owner, raceDate),
			Date:    s.Race,
			Summary: "Race day: " + s.EventName,
		})
	}
	return events
}
