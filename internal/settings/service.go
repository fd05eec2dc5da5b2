package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meltforce/racecountdown/internal/localstore"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/storage"
)

// RemoteStore is the authoritative settings store. *storage.DB satisfies it.
type RemoteStore interface {
	LoadSettings(ctx context.Context, login string) (plan.Draft, error)
	SaveSettings(ctx context.Context, login string, d plan.Draft) error
}

// LocalCache keeps a copy of the last saved settings. *localstore.Cache satisfies it.
type LocalCache interface {
	Get(login string) (plan.Draft, error)
	Put(login string, d plan.Draft) error
}

// Origin names where loaded settings came from.
type Origin string

const (
	OriginRemote   Origin = "remote"
	OriginLocal    Origin = "local"
	OriginDefaults Origin = "defaults"
)

// Service owns the active settings of each user.
type Service struct {
	remote RemoteStore
	local  LocalCache
	sync   *Debouncer
	log    *slog.Logger

	mu      sync.RWMutex
	current map[string]plan.Settings
}

// NewService creates a settings service. remote may be nil for local-only
// mode. Without a debouncer remote writes happen inline.
func NewService(remote RemoteStore, local LocalCache, debounce *Debouncer, log *slog.Logger) *Service {
	return &Service{
		remote:  remote,
		local:   local,
		sync:    debounce,
		log:     log,
		current: make(map[string]plan.Settings),
	}
}

// Get returns the active settings for login, loading them on first use.
func (s *Service) Get(ctx context.Context, login string) plan.Settings {
	s.mu.RLock()
	cur, ok := s.current[login]
	s.mu.RUnlock()
	if ok {
		return cur
	}
	cur, _ = s.Load(ctx, login)
	return cur
}

// Load reads settings from the remote store, falling back to the local
// cache and then the built-in defaults. The result becomes active.
func (s *Service) Load(ctx context.Context, login string) (plan.Settings, Origin) {
	cur, origin := s.resolve(ctx, login)

	s.mu.Lock()
	s.current[login] = cur
	s.mu.Unlock()

	s.log.Info("settings loaded", "user", login, "origin", string(origin), "event", cur.EventName)
	return cur, origin
}

func (s *Service) resolve(ctx context.Context, login string) (plan.Settings, Origin) {
	if s.remote != nil {
		d, err := s.remote.LoadSettings(ctx, login)
		switch {
		case err == nil:
			cur, verr := plan.Validate(d)
			if verr == nil {
				s.mirror(login, d)
				return cur, OriginRemote
			}
			s.log.Warn("ignoring invalid remote settings", "user", login, "error", verr)
		case errors.Is(err, storage.ErrNotFound):
		default:
			s.log.Warn("remote settings unavailable", "user", login, "error", err)
		}
	}

	if s.local != nil {
		d, err := s.local.Get(login)
		switch {
		case err == nil:
			cur, verr := plan.Validate(d)
			if verr == nil {
				return cur, OriginLocal
			}
			s.log.Warn("ignoring invalid cached settings", "user", login, "error", verr)
		case errors.Is(err, localstore.ErrMiss):
		default:
			s.log.Warn("local settings unavailable", "user", login, "error", err)
		}
	}

	return plan.Defaults(), OriginDefaults
}

func (s *Service) mirror(login string, d plan.Draft) {
	if s.local == nil {
		return
	}
	if err := s.local.Put(login, d); err != nil {
		s.log.Warn("caching remote settings failed", "user", login, "error", err)
	}
}

// Save validates d and makes it the active settings for login. The local
// cache is written immediately; the remote write is debounced. A
// *plan.ValidationError or a failed cache write leaves the active settings
// untouched and schedules nothing.
func (s *Service) Save(ctx context.Context, login string, d plan.Draft) (plan.Settings, error) {
	cur, err := plan.Validate(d)
	if err != nil {
		return plan.Settings{}, err
	}
	canonical := cur.Draft()

	if s.local != nil {
		if err := s.local.Put(login, canonical); err != nil {
			return plan.Settings{}, fmt.Errorf("caching settings: %w", err)
		}
	}

	s.mu.Lock()
	s.current[login] = cur
	s.mu.Unlock()

	switch {
	case s.sync != nil:
		s.sync.Schedule(login, canonical)
	case s.remote != nil:
		if err := s.remote.SaveSettings(ctx, login, canonical); err != nil {
			s.log.Error("remote settings write failed", "user", login, "error", err)
		}
	}
	s.log.Info("settings saved", "user", login, "event", cur.EventName)
	return cur, nil
}

// Users returns the logins with active settings.
func (s *Service) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.current))
	for u := range s.current {
		users = append(users, u)
	}
	return users
}

// Flush pushes pending remote writes.
func (s *Service) Flush(ctx context.Context) error {
	if s.sync == nil {
		return nil
	}
	return s.sync.Flush(ctx)
}
