package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/racecountdown/internal/plan"
)

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// WriteFunc persists a draft for a user.
type WriteFunc func(ctx context.Context, login string, d plan.Draft) error

// writeTimeout bounds one remote write.
const writeTimeout = 10 * time.Second

type pendingWrite struct {
	draft plan.Draft
	timer Timer
	seq   uint64
}

// Debouncer coalesces rapid saves into one remote write per user. A new
// save replaces the pending draft and restarts the delay.
type Debouncer struct {
	delay time.Duration
	clock Clock
	write WriteFunc
	log   *slog.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pendingWrite
	writers map[string]*userWriter
}

// userWriter serializes one user's remote writes. written is the seq of
// the newest draft that reached the remote store.
type userWriter struct {
	mu      sync.Mutex
	written uint64
}

// NewDebouncer creates a debouncer that calls write after delay of quiet.
func NewDebouncer(delay time.Duration, clock Clock, write WriteFunc, log *slog.Logger) *Debouncer {
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer{
		delay:   delay,
		clock:   clock,
		write:   write,
		log:     log,
		pending: make(map[string]*pendingWrite),
		writers: make(map[string]*userWriter),
	}
}

// writerFor returns the user's writer. b.mu must be held.
func (b *Debouncer) writerFor(login string) *userWriter {
	w, ok := b.writers[login]
	if !ok {
		w = &userWriter{}
		b.writers[login] = w
	}
	return w
}

// Schedule queues d for login, cancelling any write still pending for it.
func (b *Debouncer) Schedule(login string, d plan.Draft) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pending[login]; ok {
		p.timer.Stop()
	}
	b.writerFor(login)
	b.seq++
	seq := b.seq
	b.pending[login] = &pendingWrite{
		draft: d,
		seq:   seq,
		timer: b.clock.AfterFunc(b.delay, func() { b.fire(login, seq) }),
	}
}

// Pending reports whether a write is queued for login.
func (b *Debouncer) Pending(login string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[login]
	return ok
}

func (b *Debouncer) fire(login string, seq uint64) {
	b.mu.Lock()
	p, ok := b.pending[login]
	if !ok || p.seq != seq {
		b.mu.Unlock()
		return
	}
	delete(b.pending, login)
	w := b.writerFor(login)
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := b.persist(ctx, login, w, p); err != nil {
		b.log.Error("remote settings write failed", "user", login, "error", err)
	}
}

// persist writes p unless a newer draft for the user already landed.
// Writes for one user never overlap.
func (b *Debouncer) persist(ctx context.Context, login string, w *userWriter, p *pendingWrite) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p.seq <= w.written {
		b.log.Debug("skipping superseded settings write", "user", login, "seq", p.seq, "written", w.written)
		return nil
	}
	if err := b.write(ctx, login, p.draft); err != nil {
		return err
	}
	w.written = p.seq
	b.log.Info("remote settings saved", "user", login)
	return nil
}

// Flush writes every pending draft immediately and waits for writes
// already in flight. Call on shutdown.
func (b *Debouncer) Flush(ctx context.Context) error {
	b.mu.Lock()
	drained := b.pending
	b.pending = make(map[string]*pendingWrite)
	for _, p := range drained {
		p.timer.Stop()
	}
	writers := make(map[string]*userWriter, len(b.writers))
	for login, w := range b.writers {
		writers[login] = w
	}
	b.mu.Unlock()

	var errs []error
	for login, w := range writers {
		p, ok := drained[login]
		if !ok {
			w.mu.Lock()
			w.mu.Unlock() //nolint:staticcheck // waits out an in-flight write
			continue
		}
		if err := b.persist(ctx, login, w, p); err != nil {
			errs = append(errs, err)
			b.log.Error("flushing settings failed", "user", login, "error", err)
		}
	}
	return errors.Join(errs...)
}
