package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"

	"github.com/meltforce/racecountdown/internal/calendar"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/widget"
)

// Func is a scheduled unit of work.
type Func func(ctx context.Context) error

// Scheduler runs jobs on cron specs. A run still in progress when the
// next tick arrives is skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// New creates a scheduler evaluating specs in loc.
func New(loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.NewWithLocation(loc),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under name.
func (s *Scheduler) Add(name, spec string, fn Func) error {
	var running atomic.Bool
	err := s.cron.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			s.log.Warn("job still running, skipping tick", "job", name)
			return
		}
		defer running.Store(false)
		s.run(name, fn)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", name, spec, err)
	}
	s.log.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(name string, fn Func) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	start := time.Now()
	if err := fn(s.ctx); err != nil {
		s.log.Error("job failed", "job", name, "error", err, "duration", time.Since(start).String())
		return
	}
	s.log.Info("job finished", "job", name, "duration", time.Since(start).String())
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule, cancels running jobs and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
}

// FeedRefresh reloads the feed of every user seen since startup.
func FeedRefresh(w *widget.Service) Func {
	return func(ctx context.Context) error {
		w.RefreshAll(ctx)
		return nil
	}
}

// CalendarSync pushes user's schedule into a Google calendar. The window
// covers the whole plan including recovery.
func CalendarSync(w *widget.Service, syncer *calendar.Syncer, user string) Func {
	return func(ctx context.Context) error {
		w.Refresh(ctx, user)
		snap := w.Snapshot(ctx, user)
		events := calendar.Events(user, snap.Index, snap.Settings)
		from, to := SyncWindow(snap.Settings)
		if _, err := syncer.Sync(ctx, events, from, to); err != nil {
			return fmt.Errorf("syncing calendar for %s: %w", user, err)
		}
		return nil
	}
}

// SyncWindow returns the date range managed by calendar sync: one week
// before the plan starts through the end of recovery.
func SyncWindow(s plan.Settings) (from, to time.Time) {
	from = plan.AddWeeks(s.Start, -1)
	to = plan.AddWeeks(plan.AddDays(s.Race, 1), s.P4)
	return from, to
}
