package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"tailscale.com/tsnet"

	"github.com/meltforce/racecountdown/internal/calendar"
	"github.com/meltforce/racecountdown/internal/config"
	"github.com/meltforce/racecountdown/internal/feed"
	"github.com/meltforce/racecountdown/internal/fetchlog"
	"github.com/meltforce/racecountdown/internal/jobs"
	"github.com/meltforce/racecountdown/internal/localstore"
	"github.com/meltforce/racecountdown/internal/mcp"
	"github.com/meltforce/racecountdown/internal/server"
	"github.com/meltforce/racecountdown/internal/settings"
	"github.com/meltforce/racecountdown/internal/storage"
	"github.com/meltforce/racecountdown/internal/widget"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("racecountdown starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, *migrateOnly, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrateOnly bool, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Remote settings store, optional.
	var remote settings.RemoteStore
	var db *storage.DB
	if cfg.Database.Enabled() {
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations applied")
		if migrateOnly {
			log.Info("migrate-only: exiting")
			return nil
		}

		conn, err := storage.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting database: %w", err)
		}
		defer conn.Close()
		db, remote = conn, conn
		log.Info("database connected")
	} else {
		if migrateOnly {
			return errors.New("migrate-only requires a database")
		}
		log.Info("no database configured, settings stay local")
	}

	cache, err := localstore.Open(cfg.Cache.Dir)
	if err != nil {
		return err
	}

	var recorder feed.Recorder
	var history server.FetchLog
	fl, err := fetchlog.Open(cfg.Cache.FetchLogDir)
	if err != nil {
		log.Warn("fetch log unavailable", "error", err)
	} else {
		defer fl.Close()
		recorder, history = fl, fl
	}

	// Feed sources
	router := &feed.Router{HTTP: feed.NewHTTPSource(cfg.FeedTimeout())}
	if cfg.Feed.SheetsCredentials != "" {
		sheets, err := feed.NewSheetsSource(ctx, cfg.Feed.SheetsCredentials)
		if err != nil {
			return fmt.Errorf("sheets source: %w", err)
		}
		router.Sheets = sheets
		log.Info("reading Google Sheets through the Sheets API")
	}
	loader := feed.NewLoader(router, recorder, log)

	var debouncer *settings.Debouncer
	if db != nil {
		debouncer = settings.NewDebouncer(cfg.Debounce(), nil, db.SaveSettings, log)
	}
	settingsSvc := settings.NewService(remote, cache, debouncer, log)
	widgetSvc := widget.NewService(settingsSvc, loader, cfg.Location(), log)

	srv := server.New(widgetSvc, history, server.Options{DevMode: cfg.Dev.Enabled}, log)
	srv.SetMCP(mcp.New(mcp.NewLocal(widgetSvc), Version, log))

	// Scheduled jobs
	scheduler := jobs.New(cfg.Location(), log)
	if err := scheduler.Add("feed-refresh", cfg.Feed.Refresh, jobs.FeedRefresh(widgetSvc)); err != nil {
		return err
	}
	if cfg.Calendar.Enabled {
		store, err := calendar.NewGoogleStore(ctx, cfg.Calendar.CredentialsFile)
		if err != nil {
			return fmt.Errorf("calendar store: %w", err)
		}
		syncer := calendar.NewSyncer(store, cfg.Calendar.CalendarID, log)
		if err := scheduler.Add("calendar-sync", cfg.Calendar.Schedule, jobs.CalendarSync(widgetSvc, syncer, cfg.Calendar.User)); err != nil {
			return err
		}
	}

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start failed: %w", err)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client failed: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen failed: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	if db != nil {
		// Load feeds for known users so cron refreshes cover them before
		// their first request.
		g.Go(func() error {
			logins, err := db.Logins(gctx)
			if err != nil {
				log.Warn("listing known users", "error", err)
				return nil
			}
			for _, login := range logins {
				widgetSvc.Refresh(gctx, login)
			}
			log.Info("feeds warmed", "users", len(logins))
			return nil
		})
	}
	g.Go(func() error {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
		}
		scheduler.Stop()
		if err := settingsSvc.Flush(shutdownCtx); err != nil {
			log.Error("flushing settings", "error", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
