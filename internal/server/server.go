package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/mcp"
	"github.com/meltforce/racecountdown/internal/widget"
)

// FetchLog lists recent feed loads. *fetchlog.Log satisfies it.
type FetchLog interface {
	Recent(ctx context.Context, user string, limit int) ([]fetchlog.Entry, error)
}

// Options toggles optional surfaces.
type Options struct {
	// DevMode enables the simulated-date endpoints.
	DevMode bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	widget   *widget.Service
	fetchLog FetchLog
	whois    WhoIsClient
	opts     Options
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured. fl may be nil.
func New(w *widget.Service, fl FetchLog, opts Options, log *slog.Logger) *Server {
	s := &Server{
		widget:   w,
		fetchLog: fl,
		opts:     opts,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity resolution from the dev user to
// Tailscale WhoIs lookups.
func (s *Server) SetTailscale(wc WhoIsClient) {
	s.whois = wc
}

// SetMCP mounts the MCP server at /mcp. Tool calls run as the caller.
func (s *Server) SetMCP(srv *mcpserver.MCPServer) {
	h := mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithUser(ctx, userInfoFromContext(r).Login)
		}),
	)
	s.router.With(s.identity).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/today", s.handleToday)
		r.Get("/countdown", s.handleCountdown)
		r.Get("/phases", s.handlePhases)

		r.Get("/weeks", s.handleWeeks)
		r.Get("/weeks/current", s.handleCurrentWeek)
		r.Post("/weeks/next", s.handleStepWeek(widget.Next))
		r.Post("/weeks/prev", s.handleStepWeek(widget.Prev))
		r.Post("/weeks/{monday}", s.handleJumpWeek)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Post("/feed/refresh", s.handleRefreshFeed)
		r.Get("/feed/log", s.handleFeedLog)

		r.Get("/schedule.ics", s.handleScheduleICS)

		if s.opts.DevMode {
			r.Put("/dev/today", s.handleSetToday)
			r.Delete("/dev/today", s.handleClearToday)
		}
	})
}
