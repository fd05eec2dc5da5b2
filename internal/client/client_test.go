package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/models"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/widget"
)

// newTestServer routes requests to handler functions keyed by "METHOD path".
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestToday verifies the reference date is sent as the today parameter.
func TestToday(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/today": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("today"); got != "2026-07-01" {
				t.Errorf("today=%q, want 2026-07-01", got)
			}
			writeTestJSON(t, w, http.StatusOK, widget.TodayView{
				Date:      "2026-07-01",
				Scheduled: true,
				Workout:   models.WorkoutRecord{Training: "Intervals"},
			})
		},
	})
	defer ts.Close()

	v, err := New(ts.URL).Today(context.Background(), "2026-07-01")
	if err != nil {
		t.Fatal(err)
	}
	if v.Workout.Training != "Intervals" {
		t.Errorf("training=%q, want Intervals", v.Workout.Training)
	}
}

// TestTodayOmitsEmptyDate verifies no parameter is sent without a date.
func TestTodayOmitsEmptyDate(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/today": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				t.Errorf("query=%q, want empty", r.URL.RawQuery)
			}
			writeTestJSON(t, w, http.StatusOK, widget.TodayView{})
		},
	})
	defer ts.Close()

	if _, err := New(ts.URL).Today(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
}

// TestWeekRouting verifies current, jump and step requests hit the right endpoints.
func TestWeekRouting(t *testing.T) {
	var (
		mu   sync.Mutex
		hits []string
	)
	record := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.Method+" "+r.URL.Path)
		mu.Unlock()
		writeTestJSON(t, w, http.StatusOK, widget.WeekView{Monday: "2026-06-29"})
	}
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/weeks/current":     record,
		"POST /api/v1/weeks/2026-06-29": record,
		"POST /api/v1/weeks/next":       record,
		"POST /api/v1/weeks/prev":       record,
	})
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()
	if _, err := c.Week(ctx, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Week(ctx, "2026-06-29", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.StepWeek(ctx, widget.Next, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.StepWeek(ctx, widget.Prev, ""); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(hits) != 4 {
		t.Errorf("hits=%v, want 4 requests", hits)
	}
}

// TestSaveSettingsValidationError verifies a 400 with a field becomes a ValidationError.
func TestSaveSettingsValidationError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/settings": func(w http.ResponseWriter, r *http.Request) {
			var d plan.Draft
			if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if d.EventName != "" {
				t.Errorf("event_name=%q, want empty", d.EventName)
			}
			writeTestJSON(t, w, http.StatusBadRequest, map[string]string{"error": "must not be empty", "field": "event_name"})
		},
	})
	defer ts.Close()

	_, err := New(ts.URL).SaveSettings(context.Background(), plan.Draft{})
	var verr *plan.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "event_name" {
		t.Errorf("field=%q, want event_name", verr.Field)
	}
}

// TestAPIError verifies non-2xx responses carry the server message.
func TestAPIError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/dev/today": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "developer mode disabled"})
		},
	})
	defer ts.Close()

	err := New(ts.URL).SetToday(context.Background(), "2026-07-01")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "developer mode disabled" {
		t.Errorf("api error = %+v", apiErr)
	}
}

// TestFetchLog verifies the limit parameter and list decoding.
func TestFetchLog(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/feed/log": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, http.StatusOK, []fetchlog.Entry{{ID: 3, Status: fetchlog.StatusStale}})
		},
	})
	defer ts.Close()

	entries, err := New(ts.URL).FetchLog(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != fetchlog.StatusStale {
		t.Errorf("entries=%+v", entries)
	}
}
