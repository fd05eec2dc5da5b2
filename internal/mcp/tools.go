package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const dateHint = "Reference date (YYYY-MM-DD). Defaults to today."

var toolGetTodayWorkout = mcp.NewTool("get_today_workout",
	mcp.WithDescription("Get the workout scheduled for a day: training type, distance or duration, pace target, heart rate target and notes. Days without an entry return 'No entry'."),
	mcp.WithString("date", mcp.Description(dateHint)),
)

var toolGetCountdown = mcp.NewTool("get_countdown",
	mcp.WithDescription("Countdown to race day. Shows weeks while more than 30 days remain, days after that, and progress through the plan in percent."),
	mcp.WithString("date", mcp.Description(dateHint)),
)

var toolGetPhases = mcp.NewTool("get_phases",
	mcp.WithDescription("The four training phases (Base, Build, Peak & Taper, Recovery) with date ranges and status (future, active with week N/D, completed)."),
	mcp.WithString("date", mcp.Description(dateHint)),
)

var toolListWeeks = mcp.NewTool("list_weeks",
	mcp.WithDescription("List the weeks that have scheduled workouts, with plan week numbers."),
)

var toolGetWeek = mcp.NewTool("get_week",
	mcp.WithDescription("The seven days of a schedule week with their workouts. Without a monday the currently selected week is returned."),
	mcp.WithString("monday", mcp.Description("Any date in the wanted week (YYYY-MM-DD). Falls back to the nearest week when that week has no entries.")),
	mcp.WithString("date", mcp.Description(dateHint)),
)

var toolGetSettings = mcp.NewTool("get_settings",
	mcp.WithDescription("The plan settings: event, season, year, start and race dates, phase lengths in weeks and the schedule feed URL."),
)

// jsonResult wraps v as a tool result.
func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTodayWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Today(ctx, req.GetString("date", ""))
	return jsonResult(v, err)
}

func (h *handlers) getCountdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Countdown(ctx, req.GetString("date", ""))
	return jsonResult(v, err)
}

func (h *handlers) getPhases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Phases(ctx, req.GetString("date", ""))
	return jsonResult(v, err)
}

func (h *handlers) listWeeks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Weeks(ctx)
	return jsonResult(v, err)
}

func (h *handlers) getWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Week(ctx, req.GetString("monday", ""), req.GetString("date", ""))
	return jsonResult(v, err)
}

func (h *handlers) getSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Settings(ctx)
	return jsonResult(v, err)
}
