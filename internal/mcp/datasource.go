package mcp

import (
	"context"

	"github.com/meltforce/racecountdown/internal/client"
	"github.com/meltforce/racecountdown/internal/plan"
	"github.com/meltforce/racecountdown/internal/widget"
)

// DataSource abstracts the widget for MCP tools. Local (in-process) and
// *client.Client (remote via REST API) satisfy this interface. Dates are
// YYYY-MM-DD strings; empty means today.
type DataSource interface {
	Today(ctx context.Context, date string) (widget.TodayView, error)
	Countdown(ctx context.Context, date string) (plan.CountdownView, error)
	Phases(ctx context.Context, date string) (widget.PhasesView, error)
	Weeks(ctx context.Context) ([]widget.WeekSummary, error)
	Week(ctx context.Context, monday, date string) (widget.WeekView, error)
	Settings(ctx context.Context) (widget.SettingsView, error)
}

// Compile-time checks.
var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*client.Client)(nil)
)

// Local serves tools from the in-process widget service for the user
// carried in the context.
type Local struct {
	svc *widget.Service
}

// NewLocal wraps a widget service.
func NewLocal(svc *widget.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) Today(ctx context.Context, date string) (widget.TodayView, error) {
	user := UserFromContext(ctx)
	ref, err := l.svc.Reference(ctx, user, date)
	if err != nil {
		return widget.TodayView{}, err
	}
	return l.svc.Today(ctx, user, ref), nil
}

func (l *Local) Countdown(ctx context.Context, date string) (plan.CountdownView, error) {
	user := UserFromContext(ctx)
	ref, err := l.svc.Reference(ctx, user, date)
	if err != nil {
		return plan.CountdownView{}, err
	}
	return l.svc.Countdown(ctx, user, ref), nil
}

func (l *Local) Phases(ctx context.Context, date string) (widget.PhasesView, error) {
	user := UserFromContext(ctx)
	ref, err := l.svc.Reference(ctx, user, date)
	if err != nil {
		return widget.PhasesView{}, err
	}
	return l.svc.Phases(ctx, user, ref), nil
}

func (l *Local) Weeks(ctx context.Context) ([]widget.WeekSummary, error) {
	return l.svc.Weeks(ctx, UserFromContext(ctx)), nil
}

func (l *Local) Week(ctx context.Context, monday, date string) (widget.WeekView, error) {
	user := UserFromContext(ctx)
	ref, err := l.svc.Reference(ctx, user, date)
	if err != nil {
		return widget.WeekView{}, err
	}
	if monday == "" {
		return l.svc.Week(ctx, user, ref), nil
	}
	m, err := plan.ParseDate(monday)
	if err != nil {
		return widget.WeekView{}, widget.ErrInvalidDate
	}
	v, _ := l.svc.Jump(ctx, user, m, ref)
	return v, nil
}

func (l *Local) Settings(ctx context.Context) (widget.SettingsView, error) {
	return widget.RenderSettings(l.svc.Settings(ctx, UserFromContext(ctx))), nil
}
