package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/racecountdown/internal/calendar"
	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/widget"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// reference resolves the caller and the date to render for. It writes a
// 400 and returns false for a malformed ?today=.
func (s *Server) reference(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	user := userInfoFromContext(r).Login
	ref, err := s.widget.Reference(r.Context(), user, r.URL.Query().Get("today"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return "", time.Time{}, false
	}
	return user, ref, true
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	user, ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.widget.Today(r.Context(), user, ref))
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	user, ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.widget.Countdown(r.Context(), user, ref))
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	user, ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.widget.Phases(r.Context(), user, ref))
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.widget.Weeks(r.Context(), userInfoFromContext(r).Login))
}

func (s *Server) handleCurrentWeek(w http.ResponseWriter, r *http.Request) {
	user, ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.widget.Week(r.Context(), user, ref))
}

func (s *Server) handleStepWeek(dir widget.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ref, ok := s.reference(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.widget.Step(r.Context(), user, dir, ref))
	}
}

func (s *Server) handleJumpWeek(w http.ResponseWriter, r *http.Request) {
	monday, err := plan.ParseDate(chi.URLParam(r, "monday"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": widget.ErrInvalidDate.Error()})
		return
	}
	user, ref, ok := s.reference(w, r)
	if !ok {
		return
	}
	v, _ := s.widget.Jump(r.Context(), user, monday, ref)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cur := s.widget.Settings(r.Context(), userInfoFromContext(r).Login)
	writeJSON(w, http.StatusOK, widget.RenderSettings(cur))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var d plan.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	user := userInfoFromContext(r).Login
	cur, err := s.widget.SaveSettings(r.Context(), user, d)
	var verr *plan.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	case err != nil:
		s.log.Error("saving settings", "user", user, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, widget.RenderSettings(cur))
}

func (s *Server) handleRefreshFeed(w http.ResponseWriter, r *http.Request) {
	user := userInfoFromContext(r).Login
	s.widget.Refresh(r.Context(), user)
	writeJSON(w, http.StatusOK, s.widget.FeedStatus(r.Context(), user))
}

func (s *Server) handleFeedLog(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if s.fetchLog == nil {
		writeJSON(w, http.StatusOK, []fetchlog.Entry{})
		return
	}
	entries, err := s.fetchLog.Recent(r.Context(), userInfoFromContext(r).Login, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	user := userInfoFromContext(r).Login
	snap := s.widget.Snapshot(r.Context(), user)
	events := calendar.Events(user, snap.Index, snap.Settings)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.ICS(snap.Settings.EventName, events, time.Now())))
}

func (s *Server) handleSetToday(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Today string `json:"today"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	d, err := plan.ParseDate(body.Today)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": widget.ErrInvalidDate.Error()})
		return
	}
	user := userInfoFromContext(r).Login
	s.widget.SetToday(r.Context(), user, &d)
	writeJSON(w, http.StatusOK, s.widget.Today(r.Context(), user, d))
}

func (s *Server) handleClearToday(w http.ResponseWriter, r *http.Request) {
	user := userInfoFromContext(r).Login
	s.widget.SetToday(r.Context(), user, nil)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
