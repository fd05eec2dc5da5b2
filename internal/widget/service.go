package widget

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/meltforce/racecountdown/internal/feed"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/schedule"
	"github.com/meltforce/racecountdown/internal/settings"
)

// ErrInvalidDate is returned for a malformed reference date.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// FeedLoader loads a user's schedule feed. *feed.Loader satisfies it.
type FeedLoader interface {
	Load(ctx context.Context, user, url string) feed.Result
}

// State is the per-user widget state: the loaded schedule, the week
// navigator and the simulated date.
type State struct {
	User     string
	Index    *schedule.Index
	Stats    schedule.BuildStats
	URL      string
	LoadErr  string
	LoadedAt time.Time
	Nav      *plan.Navigator
	Today    *time.Time

	mu      sync.Mutex
	once    sync.Once
	applied uint64
}

// Service holds the widget state of every user.
type Service struct {
	settings *settings.Service
	feed     FeedLoader
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger

	mu     sync.Mutex
	states map[string]*State
}

// NewService creates the widget service. Reference dates are computed in loc.
func NewService(st *settings.Service, fl FeedLoader, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		settings: st,
		feed:     fl,
		loc:      loc,
		now:      time.Now,
		log:      log,
		states:   make(map[string]*State),
	}
}

// SetNow replaces the wall clock. Intended for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Service) lookup(user string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[user]
	if !ok {
		st = &State{User: user, Index: schedule.NewIndex(), Nav: plan.NewNavigator(nil, time.Time{})}
		s.states[user] = st
	}
	return st
}

// ensure returns the user's state, loading the feed on first use.
func (s *Service) ensure(ctx context.Context, user string) *State {
	st := s.lookup(user)
	st.once.Do(func() {
		s.refresh(context.WithoutCancel(ctx), st)
	})
	return st
}

// Users returns every user with widget state, sorted.
func (s *Service) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.states))
	for u := range s.states {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// civilToday returns the state's reference date without a request override.
func (s *Service) civilToday(st *State) time.Time {
	if st.Today != nil {
		return *st.Today
	}
	return plan.CivilDate(s.now(), s.loc)
}

// Reference resolves the reference date for a request. An explicit
// YYYY-MM-DD value wins over the user's simulated date, which wins over
// the wall clock.
func (s *Service) Reference(ctx context.Context, user, explicit string) (time.Time, error) {
	if explicit != "" {
		d, err := plan.ParseDate(explicit)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
		return d, nil
	}
	st := s.ensure(ctx, user)
	st.mu.Lock()
	defer st.mu.Unlock()
	return s.civilToday(st), nil
}

// Snapshot copies the user's state together with their settings.
func (s *Service) Snapshot(ctx context.Context, user string) Snapshot {
	cur := s.settings.Get(ctx, user)
	st := s.ensure(ctx, user)
	st.mu.Lock()
	defer st.mu.Unlock()
	return s.snapshotLocked(st, cur)
}

// followToday moves an empty schedule's lone week along with the
// reference date, which may have advanced since the feed was applied.
func (s *Service) followToday(st *State) {
	if st.Index.Len() > 0 {
		return
	}
	ref := s.civilToday(st)
	if st.Nav.Current().Equal(plan.MondayOf(ref)) {
		return
	}
	st.Nav.Rebuild(plan.WeekStarts(nil, ref), ref)
}

func (s *Service) snapshotLocked(st *State, cur plan.Settings) Snapshot {
	s.followToday(st)
	return Snapshot{
		Settings:  cur,
		Index:     st.Index,
		Week:      st.Nav.Current(),
		HasPrev:   st.Nav.HasPrev(),
		HasNext:   st.Nav.HasNext(),
		Weeks:     st.Nav.Weeks(),
		Simulated: st.Today != nil,
	}
}

// Refresh reloads the user's feed now.
func (s *Service) Refresh(ctx context.Context, user string) feed.Result {
	st := s.lookup(user)
	var (
		res   feed.Result
		first bool
	)
	st.once.Do(func() {
		res, first = s.refresh(ctx, st), true
	})
	if first {
		return res
	}
	return s.refresh(ctx, st)
}

// RefreshAll reloads the feed of every known user.
func (s *Service) RefreshAll(ctx context.Context) {
	for _, u := range s.Users() {
		if ctx.Err() != nil {
			return
		}
		s.Refresh(ctx, u)
	}
}

func (s *Service) refresh(ctx context.Context, st *State) feed.Result {
	cur := s.settings.Get(ctx, st.User)
	res := s.feed.Load(ctx, st.User, cur.SheetURL)
	s.apply(st, res)
	return res
}

// apply installs a feed result unless a newer one already landed.
func (s *Service) apply(st *State, res feed.Result) {
	if errors.Is(res.Err, feed.ErrStale) {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if res.RequestID <= st.applied {
		return
	}
	st.applied = res.RequestID
	st.Index = res.Index
	if st.Index == nil {
		st.Index = schedule.NewIndex()
	}
	st.Stats = res.Stats
	st.URL = res.URL
	st.LoadedAt = s.now()
	st.LoadErr = ""
	if res.Err != nil {
		st.LoadErr = res.Err.Error()
	}
	ref := s.civilToday(st)
	st.Nav.Rebuild(plan.WeekStarts(st.Index.Dates(), ref), ref)
}

// Today renders the workout card for ref.
func (s *Service) Today(ctx context.Context, user string, ref time.Time) TodayView {
	return RenderToday(s.Snapshot(ctx, user), ref)
}

// Countdown renders the countdown as of ref.
func (s *Service) Countdown(ctx context.Context, user string, ref time.Time) plan.CountdownView {
	return RenderCountdown(s.Snapshot(ctx, user), ref)
}

// Phases renders the plan phases as of ref.
func (s *Service) Phases(ctx context.Context, user string, ref time.Time) PhasesView {
	return RenderPhases(s.Snapshot(ctx, user), ref)
}

// Weeks lists the browsable weeks.
func (s *Service) Weeks(ctx context.Context, user string) []WeekSummary {
	return RenderWeeks(s.Snapshot(ctx, user))
}

// Week renders the selected week.
func (s *Service) Week(ctx context.Context, user string, ref time.Time) WeekView {
	return RenderWeek(s.Snapshot(ctx, user), ref)
}

// Direction moves the week navigator.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// Step moves one week in dir. At either end of the schedule it stays put.
func (s *Service) Step(ctx context.Context, user string, dir Direction, ref time.Time) WeekView {
	cur := s.settings.Get(ctx, user)
	st := s.ensure(ctx, user)
	st.mu.Lock()
	if dir == Prev {
		st.Nav.Prev()
	} else {
		st.Nav.Next()
	}
	snap := s.snapshotLocked(st, cur)
	st.mu.Unlock()
	return RenderWeek(snap, ref)
}

// Jump selects the week containing monday. When that week has no entries
// the navigator falls back to the week nearest ref and found is false.
func (s *Service) Jump(ctx context.Context, user string, monday, ref time.Time) (WeekView, bool) {
	cur := s.settings.Get(ctx, user)
	st := s.ensure(ctx, user)
	st.mu.Lock()
	found := st.Nav.Jump(monday, ref)
	snap := s.snapshotLocked(st, cur)
	st.mu.Unlock()
	v := RenderWeek(snap, ref)
	v.Fallback = !found
	return v, found
}

// SetToday simulates the current date for user. A nil date clears it.
func (s *Service) SetToday(ctx context.Context, user string, d *time.Time) {
	st := s.ensure(ctx, user)
	st.mu.Lock()
	defer st.mu.Unlock()
	if d == nil {
		st.Today = nil
	} else {
		v := *d
		st.Today = &v
	}
	ref := s.civilToday(st)
	st.Nav.Jump(plan.MondayOf(ref), ref)
	s.log.Info("simulated date changed", "user", user, "today", plan.FormatDate(ref), "simulated", d != nil)
}

// Settings returns the user's active settings.
func (s *Service) Settings(ctx context.Context, user string) plan.Settings {
	return s.settings.Get(ctx, user)
}

// SaveSettings validates and stores a new draft. A changed feed URL
// triggers a reload.
func (s *Service) SaveSettings(ctx context.Context, user string, d plan.Draft) (plan.Settings, error) {
	prev := s.settings.Get(ctx, user)
	cur, err := s.settings.Save(ctx, user, d)
	if err != nil {
		return plan.Settings{}, err
	}
	if cur.SheetURL != prev.SheetURL {
		s.Refresh(ctx, user)
	}
	return cur, nil
}

// Status describes the last feed load.
type Status struct {
	URL      string              `json:"url"`
	Stats    schedule.BuildStats `json:"stats"`
	Error    string              `json:"error,omitempty"`
	LoadedAt time.Time           `json:"loaded_at"`
}

// FeedStatus reports the last applied feed load for user.
func (s *Service) FeedStatus(ctx context.Context, user string) Status {
	st := s.ensure(ctx, user)
	st.mu.Lock()
	defer st.mu.Unlock()
	return Status{URL: st.URL, Stats: st.Stats, Error: st.LoadErr, LoadedAt: st.LoadedAt}
}
