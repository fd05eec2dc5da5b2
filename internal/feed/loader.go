package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/schedule"
)

// ErrStale is returned when a newer load for the same user was started
// before this one finished. The result must not be applied.
var ErrStale = errors.New("stale feed response")

// Recorder stores a fetch outcome. *fetchlog.Log satisfies it.
type Recorder interface {
	Record(ctx context.Context, e fetchlog.Entry) (int64, error)
}

// Result is the outcome of one feed load.
type Result struct {
	RequestID uint64              `json:"request_id"`
	URL       string              `json:"url"`
	Stats     schedule.BuildStats `json:"stats"`
	Index     *schedule.Index     `json:"-"`
	Err       error               `json:"-"`
}

// Loader fetches feeds and tags every load with a request ID so that a
// slow response cannot overwrite a newer one.
type Loader struct {
	src Source
	rec Recorder
	log *slog.Logger

	mu     sync.Mutex
	nextID uint64
	latest map[string]uint64
}

// NewLoader creates a loader. rec may be nil.
func NewLoader(src Source, rec Recorder, log *slog.Logger) *Loader {
	return &Loader{
		src:    src,
		rec:    rec,
		log:    log,
		latest: make(map[string]uint64),
	}
}

// issue hands out the next request ID and marks it as the newest for user.
func (l *Loader) issue(user string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.latest[user] = l.nextID
	return l.nextID
}

// IsLatest reports whether id is the newest load issued for user.
func (l *Loader) IsLatest(user string, id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest[user] == id
}

// Load fetches and indexes the feed at url for user. A failed fetch yields
// an empty index together with the error. When a newer load for the same
// user was issued meanwhile, Result.Err is ErrStale and Index is nil.
func (l *Loader) Load(ctx context.Context, user, url string) Result {
	id := l.issue(user)
	start := time.Now()
	res := Result{RequestID: id, URL: url}

	rows, err := l.src.Fetch(ctx, url)
	if err != nil {
		res.Err = err
		res.Index = schedule.NewIndex()
	} else {
		res.Index, res.Stats = schedule.BuildIndex(rows)
	}

	if !l.IsLatest(user, id) {
		l.log.Warn("discarding stale feed response", "user", user, "request_id", id)
		res.Index = nil
		res.Err = ErrStale
	}

	l.record(user, res, time.Since(start))
	if res.Err != nil && !errors.Is(res.Err, ErrStale) {
		l.log.Warn("feed load failed", "user", user, "url", url, "error", res.Err)
	} else if res.Err == nil {
		l.log.Info("feed loaded", "user", user, "request_id", id,
			"rows", res.Stats.Rows, "indexed", res.Stats.Indexed, "skipped", res.Stats.Skipped)
	}
	return res
}

func (l *Loader) record(user string, res Result, elapsed time.Duration) {
	if l.rec == nil {
		return
	}
	e := fetchlog.Entry{
		User:       user,
		URL:        res.URL,
		RequestID:  res.RequestID,
		Status:     fetchlog.StatusOK,
		Rows:       res.Stats.Rows,
		Indexed:    res.Stats.Indexed,
		Skipped:    res.Stats.Skipped,
		DurationMs: elapsed.Milliseconds(),
	}
	switch {
	case errors.Is(res.Err, ErrStale):
		e.Status = fetchlog.StatusStale
	case res.Err != nil:
		e.Status = fetchlog.StatusError
		msg := res.Err.Error()
		e.Error = &msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := l.rec.Record(ctx, e); err != nil {
		l.log.Error("failed to record feed fetch", "user", user, "error", err)
	}
}
