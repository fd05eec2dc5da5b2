package widget

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/meltforce/racecountdown/internal/feed"
	"github.com/meltforce/racecountdown/internal/models"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/schedule"
	"github.com/meltforce/racecountdown/internal/settings"
)

const testFeed = `Date,Session Type,Duration/Distance,Pace Target,Heart Rate Target,Notes
29.06.2026,Easy run,8 km,5:40,135-145,
01.07.2026,Intervals,6x800 m,3:55,,Track
2026-07-05,Race,21.1 km,4:45,,Good luck
06.07.2026,Rest,,,,`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) time.Time {
	d, err := plan.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// stubLoader serves a fixed feed text per URL.
type stubLoader struct {
	mu    sync.Mutex
	id    uint64
	feeds map[string]string
	calls []string
}

func (l *stubLoader) Load(_ context.Context, user, url string) feed.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.id++
	l.calls = append(l.calls, url)
	text, ok := l.feeds[url]
	if !ok {
		return feed.Result{RequestID: l.id, URL: url, Index: schedule.NewIndex(), Err: errors.New("unreachable")}
	}
	idx, stats := schedule.Parse(text)
	return feed.Result{RequestID: l.id, URL: url, Index: idx, Stats: stats}
}

func newTestService(t *testing.T, now string) (*Service, *stubLoader) {
	t.Helper()
	loader := &stubLoader{feeds: map[string]string{plan.DefaultDraft().SheetURL: testFeed}}
	svc := NewService(settings.NewService(nil, nil, nil, discardLogger()), loader, time.UTC, discardLogger())
	fixed := date(now).Add(9 * time.Hour)
	svc.SetNow(func() time.Time { return fixed })
	return svc, loader
}

// TestTodayScheduled verifies a scheduled day renders its workout with placeholders.
func TestTodayScheduled(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-01")
	ctx := context.Background()

	ref, err := svc.Reference(ctx, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	got := svc.Today(ctx, "alice", ref)
	want := TodayView{
		Date:      "2026-07-01",
		Display:   "Wednesday, 1 July 2026",
		Scheduled: true,
		Workout: models.WorkoutRecord{
			Training:  "Intervals",
			Distance:  "6x800 m",
			Pace:      "3:55",
			HeartRate: "-",
			Note:      "Track",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("today mismatch (-want +got):\n%s", diff)
	}
}

// TestTodayNoEntry verifies an unscheduled day renders the no-entry card.
func TestTodayNoEntry(t *testing.T) {
	svc, _ := newTestService(t, "2026-06-30")
	ctx := context.Background()

	got := svc.Today(ctx, "alice", date("2026-06-30"))
	if got.Scheduled {
		t.Error("expected unscheduled day")
	}
	if got.Workout != models.NoEntry() {
		t.Errorf("workout = %+v, want no-entry card", got.Workout)
	}
}

// TestReferencePrecedence verifies explicit dates beat the simulated date,
// which beats the clock.
func TestReferencePrecedence(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-01")
	ctx := context.Background()

	if ref, _ := svc.Reference(ctx, "alice", ""); !ref.Equal(date("2026-07-01")) {
		t.Errorf("clock ref = %s, want 2026-07-01", plan.FormatDate(ref))
	}

	sim := date("2026-07-05")
	svc.SetToday(ctx, "alice", &sim)
	if ref, _ := svc.Reference(ctx, "alice", ""); !ref.Equal(sim) {
		t.Errorf("simulated ref = %s, want 2026-07-05", plan.FormatDate(ref))
	}
	if ref, _ := svc.Reference(ctx, "alice", "2026-06-29"); !ref.Equal(date("2026-06-29")) {
		t.Errorf("explicit ref = %s, want 2026-06-29", plan.FormatDate(ref))
	}
	if _, err := svc.Reference(ctx, "alice", "5.7.2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}

	svc.SetToday(ctx, "alice", nil)
	if ref, _ := svc.Reference(ctx, "alice", ""); !ref.Equal(date("2026-07-01")) {
		t.Errorf("cleared ref = %s, want 2026-07-01", plan.FormatDate(ref))
	}
}

// TestWeekNavigation verifies stepping through the schedule's weeks and the
// bounds at either end.
func TestWeekNavigation(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-01")
	ctx := context.Background()
	ref := date("2026-07-01")

	w := svc.Week(ctx, "alice", ref)
	if w.Monday != "2026-06-29" || w.Sunday != "2026-07-05" {
		t.Fatalf("week = %s..%s, want 2026-06-29..2026-07-05", w.Monday, w.Sunday)
	}
	if w.HasPrev || !w.HasNext {
		t.Errorf("has prev/next = %v/%v, want false/true", w.HasPrev, w.HasNext)
	}
	// Plan starts Monday 2026-01-05, so the week of 29 June is week 26.
	if w.WeekNumber != 26 {
		t.Errorf("week number = %d, want 26", w.WeekNumber)
	}
	if len(w.Days) != 7 || !w.Days[2].Today || !w.Days[2].Scheduled {
		t.Errorf("wednesday cell = %+v", w.Days[2])
	}
	if w.Days[6].Workout.Training != "Race" {
		t.Errorf("sunday training = %q, want Race", w.Days[6].Workout.Training)
	}

	w = svc.Step(ctx, "alice", Prev, ref)
	if w.Monday != "2026-06-29" {
		t.Errorf("prev at start moved to %s", w.Monday)
	}
	w = svc.Step(ctx, "alice", Next, ref)
	if w.Monday != "2026-07-06" || w.HasNext {
		t.Errorf("next = %s (has next %v), want 2026-07-06 last", w.Monday, w.HasNext)
	}
	if w.Days[0].Workout.Distance != "-" {
		t.Errorf("rest day distance = %q, want -", w.Days[0].Workout.Distance)
	}
	w = svc.Step(ctx, "alice", Next, ref)
	if w.Monday != "2026-07-06" {
		t.Errorf("next at end moved to %s", w.Monday)
	}
}

// TestJumpFallback verifies jumping to a week without entries falls back.
func TestJumpFallback(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-01")
	ctx := context.Background()
	ref := date("2026-07-01")

	w, found := svc.Jump(ctx, "alice", date("2026-07-08"), ref)
	if !found || w.Monday != "2026-07-06" || w.Fallback {
		t.Errorf("jump = %s found=%v, want 2026-07-06 true", w.Monday, found)
	}
	w, found = svc.Jump(ctx, "alice", date("2026-03-02"), ref)
	if found || w.Monday != "2026-06-29" || !w.Fallback {
		t.Errorf("jump to absent week = %s found=%v, want fallback 2026-06-29", w.Monday, found)
	}
}

// TestWeeksList verifies the week list marks the current week.
func TestWeeksList(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-07")
	got := svc.Weeks(context.Background(), "alice")
	want := []WeekSummary{
		{Monday: "2026-06-29", WeekNumber: 26},
		{Monday: "2026-07-06", WeekNumber: 27, Current: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("weeks mismatch (-want +got):\n%s", diff)
	}
}

// TestUnreachableFeed verifies a failing feed degrades to an empty schedule.
func TestUnreachableFeed(t *testing.T) {
	svc, loader := newTestService(t, "2026-07-01")
	loader.feeds = map[string]string{}
	ctx := context.Background()

	got := svc.Today(ctx, "alice", date("2026-07-01"))
	if got.Scheduled || got.Workout.Training != models.NoEntryTraining {
		t.Errorf("today = %+v, want no entry", got)
	}
	w := svc.Week(ctx, "alice", date("2026-07-01"))
	if w.Monday != "2026-06-29" || w.HasPrev || w.HasNext {
		t.Errorf("week = %+v, want lone current week", w)
	}
	if st := svc.FeedStatus(ctx, "alice"); st.Error == "" {
		t.Error("feed status should carry the load error")
	}
}

// TestEmptyScheduleFollowsClock verifies the lone fallback week tracks the
// wall clock after the feed has been applied.
func TestEmptyScheduleFollowsClock(t *testing.T) {
	svc, loader := newTestService(t, "2026-07-01")
	loader.feeds = map[string]string{}
	now := date("2026-07-01").Add(9 * time.Hour)
	svc.SetNow(func() time.Time { return now })
	ctx := context.Background()

	if w := svc.Week(ctx, "alice", date("2026-07-01")); w.Monday != "2026-06-29" {
		t.Fatalf("monday = %s, want 2026-06-29", w.Monday)
	}

	now = date("2026-07-09").Add(9 * time.Hour)
	w := svc.Week(ctx, "alice", date("2026-07-09"))
	if w.Monday != "2026-07-06" || w.HasPrev || w.HasNext {
		t.Errorf("week = %+v, want lone week of 2026-07-06", w)
	}
	if got := svc.Weeks(ctx, "alice"); len(got) != 1 || got[0].Monday != "2026-07-06" {
		t.Errorf("weeks = %+v, want only 2026-07-06", got)
	}
}

// TestStaleResultIgnored verifies an older result cannot replace a newer one.
func TestStaleResultIgnored(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-01")
	ctx := context.Background()
	svc.Today(ctx, "alice", date("2026-07-01"))

	st := svc.lookup("alice")
	newer, _ := schedule.Parse("Date,Training\n2026-07-01,Newer")
	older, _ := schedule.Parse("Date,Training\n2026-07-01,Older")
	svc.apply(st, feed.Result{RequestID: 10, Index: newer})
	svc.apply(st, feed.Result{RequestID: 9, Index: older})
	svc.apply(st, feed.Result{RequestID: 11, Err: feed.ErrStale})

	if got := svc.Today(ctx, "alice", date("2026-07-01")).Workout.Training; got != "Newer" {
		t.Errorf("training = %q, want Newer", got)
	}
}

// TestSaveSettingsReloadsOnURLChange verifies a new feed URL triggers a reload.
func TestSaveSettingsReloadsOnURLChange(t *testing.T) {
	svc, loader := newTestService(t, "2026-07-01")
	ctx := context.Background()
	svc.Today(ctx, "alice", date("2026-07-01"))

	d := plan.DefaultDraft()
	d.EventName = "City Half"
	if _, err := svc.SaveSettings(ctx, "alice", d); err != nil {
		t.Fatal(err)
	}
	if len(loader.calls) != 1 {
		t.Errorf("loads = %d, want 1 when URL is unchanged", len(loader.calls))
	}

	d.SheetURL = "https://example.com/other.csv"
	loader.feeds[d.SheetURL] = "Date,Training\n2026-07-01,Tempo"
	if _, err := svc.SaveSettings(ctx, "alice", d); err != nil {
		t.Fatal(err)
	}
	if got := svc.Today(ctx, "alice", date("2026-07-01")).Workout.Training; got != "Tempo" {
		t.Errorf("training = %q, want Tempo from the new feed", got)
	}
}

// TestCountdownAndPhases verifies the service passes settings through to the calculators.
func TestCountdownAndPhases(t *testing.T) {
	svc, _ := newTestService(t, "2026-07-01")
	ctx := context.Background()
	ref := date("2026-07-01")

	c := svc.Countdown(ctx, "alice", ref)
	if c.State != plan.StateCounting || c.Label != "4 days" {
		t.Errorf("countdown = %s %q, want counting \"4 days\"", c.State, c.Label)
	}
	p := svc.Phases(ctx, "alice", ref)
	if len(p.Phases) != 4 || p.Phases[2].Status != plan.PhaseActive {
		t.Errorf("phases = %+v, want peak active", p.Phases)
	}
}
