package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userKey contextKey = iota

// DefaultUser is the login used when the transport sets none.
const DefaultUser = "local"

// UserFromContext extracts the login injected by the transport layer.
func UserFromContext(ctx context.Context) string {
	if login, ok := ctx.Value(userKey).(string); ok && login != "" {
		return login
	}
	return DefaultUser
}

// WithUser returns a context carrying the given login.
func WithUser(ctx context.Context, login string) context.Context {
	return context.WithValue(ctx, userKey, login)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("racecountdown", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions("Race countdown server. Look up the scheduled workout for a day, the countdown to race day, training phases and the weekly schedule. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetTodayWorkout, Handler: h.getTodayWorkout},
		server.ServerTool{Tool: toolGetCountdown, Handler: h.getCountdown},
		server.ServerTool{Tool: toolGetPhases, Handler: h.getPhases},
		server.ServerTool{Tool: toolListWeeks, Handler: h.listWeeks},
		server.ServerTool{Tool: toolGetWeek, Handler: h.getWeek},
		server.ServerTool{Tool: toolGetSettings, Handler: h.getSettings},
	)

	s.AddResources(
		server.ServerResource{Resource: resPlanOverview, Handler: h.planOverview},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resPlanOverview = mcp.NewResource(
	"racecountdown://plan",
	"Plan Overview",
	mcp.WithResourceDescription("Current plan settings, countdown and phase status"),
	mcp.WithMIMEType("application/json"),
)
