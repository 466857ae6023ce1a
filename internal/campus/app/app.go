package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/bot"
	httpapi "github.com/aussiebroadwan/campusbot/internal/campus/http"
	"github.com/aussiebroadwan/campusbot/internal/campus/service"
	"github.com/aussiebroadwan/campusbot/internal/campus/store"
	"github.com/aussiebroadwan/campusbot/internal/campus/store/drivers/sqlite"
	"github.com/aussiebroadwan/campusbot/pkg/s21"
	"github.com/aussiebroadwan/campusbot/pkg/slogx"
	"github.com/aussiebroadwan/campusbot/pkg/telegram"
	"golang.org/x/time/rate"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the campus bot together.
type Application struct {
	cfg      Config
	logger   *slog.Logger
	location *time.Location

	db store.Store

	// Upstream
	s21Client *s21.Client
	tokens    *s21.TokenSource
	snapshots *service.SnapshotCache

	// Chat
	telegram *telegram.Client
	bot      *bot.Bot
	poller   *bot.Poller

	// Background loops
	presence *service.PresenceWatcher
	reset    *service.NotifiedReset

	// Operator HTTP
	server *http.Server
	router *httpapi.Router
}

// New validates cfg and builds every dependency. Nothing runs until Run.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := &Application{
		cfg:      cfg,
		logger:   NewLogger(cfg),
		location: location,
	}

	db, err := OpenStore(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	app.initUpstream()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "campusbot",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// Run starts every loop and the HTTP server, then blocks until a shutdown
// signal or a server failure.
func (app *Application) Run() error {
	app.presence.Start()
	app.reset.Start()
	app.poller.Start()

	app.logger.Info("campus bot starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"clusters", len(app.cfg.Clusters),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the HTTP server and every loop, then closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down campus bot...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.poller.Stop()
	app.presence.Stop()
	app.reset.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("campus bot stopped")
	return nil
}

// OpenStore opens the SQLite database and applies migrations.
func OpenStore(cfg Config, logger *slog.Logger) (store.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "file", cfg.DatabaseFile)
	return db, nil
}

func (app *Application) initUpstream() {
	client := s21.NewClient(app.cfg.S21AuthURL, app.cfg.S21APIURL)
	client.ClientID = app.cfg.S21ClientID
	client.Limiter = rate.NewLimiter(rate.Limit(app.cfg.S21RateLimit), max(app.cfg.S21RateLimit/2, 1))
	app.s21Client = client

	app.tokens = s21.NewTokenSource(client, app.cfg.S21Login, app.cfg.S21Password)

	app.snapshots = service.NewSnapshotCache(
		app.tokens,
		client,
		app.cfg.Clusters,
		app.logger.With("component", "snapshot_cache"),
		service.SnapshotConfig{
			MinInterval:  app.cfg.SnapshotMinInterval,
			MaxInterval:  app.cfg.SnapshotMaxInterval,
			FetchTimeout: app.cfg.FetchTimeout,
		},
	)

	app.telegram = telegram.NewClient(app.cfg.TelegramAPIURL, app.cfg.TelegramToken)
}

func (app *Application) initServices() {
	notifier := &bot.Notifier{Sender: app.telegram, Timeout: bot.DefaultSendTimeout}

	app.bot = &bot.Bot{
		Members: &service.MemberService{Store: app.db},
		Moderation: &service.ModerationService{
			Store:      app.db,
			AdminID:    app.cfg.AdminID,
			TOTPSecret: app.cfg.AdminTOTPSecret,
		},
		Broadcasts: service.NewBroadcastService(app.db, app.telegram, app.logger.With("component", "broadcast")),
		Notifier:   notifier,
		Snapshots:  app.snapshots,
		Clusters:   app.cfg.Clusters,
		Logger:     app.logger.With("component", "bot"),
	}

	app.poller = bot.NewPoller(app.telegram, app.telegram, app.bot, app.logger.With("component", "poller"))

	app.presence = service.NewPresenceWatcher(
		app.snapshots,
		app.db,
		notifier,
		app.logger.With("component", "presence"),
		app.cfg.PresenceInterval,
	)

	app.reset = service.NewNotifiedReset(
		app.db,
		app.logger.With("component", "notified_reset"),
		app.cfg.ResetAt,
		app.location,
	)

	if app.cfg.AdminID == 0 {
		app.logger.Warn("MAIN_ADMIN_ID not set, moderation commands are disabled")
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.snapshots,
		app.cfg.Clusters,
		app.logger,
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
