package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/meltforce/racecountdown/internal/plan"
)

// EventStore is the subset of the Google Calendar API the syncer needs.
type EventStore interface {
	List(ctx context.Context, calendarID string, from, to time.Time) ([]*gcal.Event, error)
	Insert(ctx context.Context, calendarID string, e *gcal.Event) error
	Update(ctx context.Context, calendarID, eventID string, e *gcal.Event) error
	Delete(ctx context.Context, calendarID, eventID string) error
}

// googleStore talks to the real API.
type googleStore struct {
	svc *gcal.Service
}

// NewGoogleStore creates an EventStore from a service account key file.
func NewGoogleStore(ctx context.Context, credentialsPath string) (EventStore, error) {
	key, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading calendar credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(key, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar credentials: %w", err)
	}
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return &googleStore{svc: svc}, nil
}

func (g *googleStore) List(ctx context.Context, calendarID string, from, to time.Time) ([]*gcal.Event, error) {
	var out []*gcal.Event
	call := g.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		MaxResults(250)
	err := call.Pages(ctx, func(page *gcal.Events) error {
		out = append(out, page.Items...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}
	return out, nil
}

func (g *googleStore) Insert(ctx context.Context, calendarID string, e *gcal.Event) error {
	_, err := g.svc.Events.Insert(calendarID, e).Context(ctx).Do()
	return err
}

func (g *googleStore) Update(ctx context.Context, calendarID, eventID string, e *gcal.Event) error {
	_, err := g.svc.Events.Update(calendarID, eventID, e).Context(ctx).Do()
	return err
}

func (g *googleStore) Delete(ctx context.Context, calendarID, eventID string) error {
	return g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
}

// SyncStats counts the changes made by one sync.
type SyncStats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Syncer mirrors schedule events into a Google calendar.
type Syncer struct {
	store      EventStore
	calendarID string
	log        *slog.Logger
}

// NewSyncer creates a syncer writing to calendarID.
func NewSyncer(store EventStore, calendarID string, log *slog.Logger) *Syncer {
	return &Syncer{store: store, calendarID: calendarID, log: log}
}

// Sync makes the calendar match events between from and to. Events created
// by other tools are left alone; ours are recognised by their UID suffix.
func (s *Syncer) Sync(ctx context.Context, events []Event, from, to time.Time) (SyncStats, error) {
	var stats SyncStats

	wanted := make(map[string]Event, len(events))
	for _, e := range events {
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		wanted[e.UID] = e
	}

	existing, err := s.store.List(ctx, s.calendarID, from, to)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool)
	for _, ge := range existing {
		if !strings.HasSuffix(ge.ICalUID, uidDomain) {
			continue
		}
		e, ok := wanted[ge.ICalUID]
		if !ok || seen[ge.ICalUID] {
			if err := s.store.Delete(ctx, s.calendarID, ge.Id); err != nil {
				stats.Failed++
				s.log.Error("calendar delete failed", "uid", ge.ICalUID, "error", err)
				continue
			}
			stats.Deleted++
			continue
		}
		seen[ge.ICalUID] = true

		if matches(ge, e) {
			stats.Unchanged++
			continue
		}
		if err := s.store.Update(ctx, s.calendarID, ge.Id, toGoogleEvent(e)); err != nil {
			stats.Failed++
			s.log.Error("calendar update failed", "uid", e.UID, "error", err)
			continue
		}
		stats.Updated++
	}

	for uid, e := range wanted {
		if seen[uid] {
			continue
		}
		if err := s.store.Insert(ctx, s.calendarID, toGoogleEvent(e)); err != nil {
			stats.Failed++
			s.log.Error("calendar insert failed", "uid", uid, "error", err)
			continue
		}
		stats.Created++
	}

	s.log.Info("calendar synced",
		"calendar", s.calendarID,
		"created", stats.Created,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"unchanged", stats.Unchanged,
		"failed", stats.Failed,
	)
	return stats, nil
}

func toGoogleEvent(e Event) *gcal.Event {
	return &gcal.Event{
		ICalUID:      e.UID,
		Summary:      e.Summary,
		Description:  e.Description,
		Start:        &gcal.EventDateTime{Date: plan.FormatDate(e.Date)},
		End:          &gcal.EventDateTime{Date: plan.FormatDate(plan.AddDays(e.Date, 1))},
		Transparency: "transparent",
	}
}

func matches(ge *gcal.Event, e Event) bool {
	if ge.Start == nil || ge.Start.Date != plan.FormatDate(e.Date) {
		return false
	}
	return ge.Summary == e.Summary && strings.TrimSpace(ge.Description) == strings.TrimSpace(e.Description)
}
