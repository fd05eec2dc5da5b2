package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/racecountdown/internal/feed"
	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/schedule"
	"github.com/meltforce/racecountdown/internal/settings"
	"github.com/meltforce/racecountdown/internal/widget"
)

const testFeed = "Date,Session Type,Duration/Distance,Pace Target,Heart Rate Target,Notes\n" +
	"29.06.2026,Easy run,8 km,5:40,135-145,\n" +
	"01.07.2026,Intervals,6x800 m,3:55,,Track\n" +
	"06.07.2026,Recovery jog,5 km,,,\n"

// stubLoader returns the test feed for every URL.
type stubLoader struct {
	mu sync.Mutex
	id uint64
}

func (l *stubLoader) Load(_ context.Context, _, url string) feed.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.id++
	idx, stats := schedule.Parse(testFeed)
	return feed.Result{RequestID: l.id, URL: url, Index: idx, Stats: stats}
}

// stubFetchLog returns a fixed entry list.
type stubFetchLog struct{ limit int }

func (f *stubFetchLog) Recent(_ context.Context, user string, limit int) ([]fetchlog.Entry, error) {
	f.limit = limit
	return []fetchlog.Entry{{ID: 1, User: user, Status: fetchlog.StatusOK}}, nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	log := discardLogger()
	w := widget.NewService(settings.NewService(nil, nil, nil, log), &stubLoader{}, time.UTC, log)
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	w.SetNow(func() time.Time { return now })
	return New(w, &stubFetchLog{}, opts, log)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	decode(t, rec, &info)
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	decode(t, rec, &info)
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
	if info.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Alice")
	}
}

// TestHandleToday verifies the workout card for the server's today and an
// explicit reference date.
func TestHandleToday(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/api/v1/today", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var v widget.TodayView
	decode(t, rec, &v)
	if v.Date != "2026-07-01" || v.Workout.Training != "Intervals" {
		t.Errorf("today = %s %q, want 2026-07-01 Intervals", v.Date, v.Workout.Training)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/today?today=2026-06-30", "")
	decode(t, rec, &v)
	if v.Scheduled || v.Workout.Training != "No entry" {
		t.Errorf("unscheduled day = %+v", v)
	}
}

// TestHandleTodayBadDate verifies malformed reference dates are rejected.
func TestHandleTodayBadDate(t *testing.T) {
	rec := do(t, newTestServer(t, Options{}), http.MethodGet, "/api/v1/today?today=1.7.2026", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHandleCountdown verifies the countdown endpoint.
func TestHandleCountdown(t *testing.T) {
	rec := do(t, newTestServer(t, Options{}), http.MethodGet, "/api/v1/countdown?today=2026-07-05", "")
	var v plan.CountdownView
	decode(t, rec, &v)
	if v.State != plan.StateRaceDay || v.Progress != 100 {
		t.Errorf("countdown = %+v, want race day at 100%%", v)
	}
}

// TestHandleWeeks verifies stepping and jumping through weeks.
func TestHandleWeeks(t *testing.T) {
	s := newTestServer(t, Options{})

	var v widget.WeekView
	decode(t, do(t, s, http.MethodGet, "/api/v1/weeks/current", ""), &v)
	if v.Monday != "2026-06-29" || !v.HasNext {
		t.Errorf("current = %s (next %v), want 2026-06-29 with next", v.Monday, v.HasNext)
	}

	decode(t, do(t, s, http.MethodPost, "/api/v1/weeks/next", ""), &v)
	if v.Monday != "2026-07-06" {
		t.Errorf("next = %s, want 2026-07-06", v.Monday)
	}

	decode(t, do(t, s, http.MethodPost, "/api/v1/weeks/2026-07-01", ""), &v)
	if v.Monday != "2026-06-29" || v.Fallback {
		t.Errorf("jump = %s (fallback %v), want 2026-06-29", v.Monday, v.Fallback)
	}

	decode(t, do(t, s, http.MethodPost, "/api/v1/weeks/2026-09-01", ""), &v)
	if !v.Fallback {
		t.Error("jump to empty week should be marked as fallback")
	}

	rec := do(t, s, http.MethodPost, "/api/v1/weeks/soon", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad monday status = %d, want 400", rec.Code)
	}

	var list []widget.WeekSummary
	decode(t, do(t, s, http.MethodGet, "/api/v1/weeks", ""), &list)
	if len(list) != 2 {
		t.Errorf("weeks = %d, want 2", len(list))
	}
}

// TestHandleSettings verifies reading, saving and rejecting settings.
func TestHandleSettings(t *testing.T) {
	s := newTestServer(t, Options{})

	var v widget.SettingsView
	decode(t, do(t, s, http.MethodGet, "/api/v1/settings", ""), &v)
	if v.Draft.EventName != "Half Marathon" || !v.P3Derived {
		t.Errorf("defaults = %+v", v)
	}

	body := `{"event_name":"City 10K","season":"Spring","year":2026,"start":"2026-01-05","race":"2026-04-26","p1":4,"p2":4,"p3":3,"p4":1,"sheet_url":"https://example.com/plan.csv"}`
	rec := do(t, s, http.MethodPut, "/api/v1/settings", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &v)
	if v.Draft.Season != "spring" || v.P3 != 3 || v.P3Derived {
		t.Errorf("saved = %+v", v)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/settings", `{"event_name":"City 10K","season":"monsoon"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errBody map[string]string
	decode(t, rec, &errBody)
	if errBody["field"] != "season" {
		t.Errorf("field = %q, want season", errBody["field"])
	}

	decode(t, do(t, s, http.MethodGet, "/api/v1/settings", ""), &v)
	if v.Draft.EventName != "City 10K" {
		t.Errorf("rejected save changed settings: %+v", v.Draft)
	}
}

// TestHandleFeed verifies refresh status and the fetch log.
func TestHandleFeed(t *testing.T) {
	s := newTestServer(t, Options{})

	var st widget.Status
	decode(t, do(t, s, http.MethodPost, "/api/v1/feed/refresh", ""), &st)
	if st.Stats.Indexed != 3 || st.Error != "" {
		t.Errorf("status = %+v, want 3 indexed", st)
	}

	var entries []fetchlog.Entry
	decode(t, do(t, s, http.MethodGet, "/api/v1/feed/log?limit=5", ""), &entries)
	if len(entries) != 1 || entries[0].User != "local" {
		t.Errorf("entries = %+v", entries)
	}
	if got := s.fetchLog.(*stubFetchLog).limit; got != 5 {
		t.Errorf("limit = %d, want 5", got)
	}
}

// TestHandleScheduleICS verifies the calendar feed.
func TestHandleScheduleICS(t *testing.T) {
	rec := do(t, newTestServer(t, Options{}), http.MethodGet, "/api/v1/schedule.ics", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 4 {
		t.Errorf("events = %d, want 3 workouts plus race", got)
	}
}

// TestDevToday verifies the simulated date endpoints exist only in dev mode.
func TestDevToday(t *testing.T) {
	rec := do(t, newTestServer(t, Options{}), http.MethodPut, "/api/v1/dev/today", `{"today":"2026-07-06"}`)
	if rec.Code != http.StatusMethodNotAllowed && rec.Code != http.StatusNotFound {
		t.Errorf("status without dev mode = %d, want 404 or 405", rec.Code)
	}

	s := newTestServer(t, Options{DevMode: true})
	rec = do(t, s, http.MethodPut, "/api/v1/dev/today", `{"today":"2026-07-06"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var v widget.TodayView
	decode(t, do(t, s, http.MethodGet, "/api/v1/today", ""), &v)
	if v.Date != "2026-07-06" || !v.Simulated {
		t.Errorf("today = %s simulated=%v, want 2026-07-06 simulated", v.Date, v.Simulated)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/dev/today", ""); rec.Code != http.StatusNoContent {
		t.Errorf("clear status = %d, want 204", rec.Code)
	}
	decode(t, do(t, s, http.MethodGet, "/api/v1/today", ""), &v)
	if v.Date != "2026-07-01" || v.Simulated {
		t.Errorf("today after clear = %s simulated=%v", v.Date, v.Simulated)
	}
}
