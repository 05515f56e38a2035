// Package bootstrap assembles the application from configuration: logger,
// session store, Telegram sender, WordPress client, dispatcher, and the
// HTTP router serving the webhook.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"postbot/core/auth"
	coreconfig "postbot/core/config"
	coredatabase "postbot/core/database"
	"postbot/core/logger"
	"postbot/core/session"
	coretelegram "postbot/core/telegram"
	"postbot/core/webhook"
	"postbot/core/wordpress"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 10 * time.Minute
)

// App is the assembled application, ready to serve.
type App struct {
	cfg    *coreconfig.Config
	router *gin.Engine
	db     *sqlx.DB
	pg     *session.PostgresStore
}

// Build initializes the logger, the session backend, and the outbound
// clients, then wires the dispatcher into a router. A missing bot token is
// not fatal: the webhook starts and answers every update with an error.
func Build(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	var (
		store session.Store
		db    *sqlx.DB
		pg    *session.PostgresStore
	)
	switch cfg.Session.Backend {
	case coreconfig.BackendMemory:
		store = session.NewMemoryStore()
	default:
		conn, err := coredatabase.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		db = conn
		pg = session.NewPostgresStore(conn)
		store = pg
	}

	var sender webhook.Sender
	if strings.TrimSpace(cfg.Telegram.Token) != "" {
		bot, err := coretelegram.New(cfg.Telegram.Token)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("bootstrap: telegram init failed: %w", err)
		}
		sender = bot
	} else {
		logger.Warn(context.Background(), "app", "config",
			slog.String("payload", "telegram token missing; updates will be rejected"),
		)
	}

	dispatcher := webhook.NewDispatcher(webhook.Options{
		Gate:      auth.NewGate(cfg.Telegram.AuthorizedUsers),
		Store:     store,
		Sender:    sender,
		Publisher: wordpress.NewClient(cfg.WordPress),
		TTL:       time.Duration(cfg.Session.TTLMinutes) * time.Minute,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	dispatcher.Register(router, cfg.Webhook.Path)

	return &App{cfg: cfg, router: router, db: db, pg: pg}, nil
}

// Run serves the webhook until ctx is cancelled, then drains in-flight
// requests before returning.
func (a *App) Run(ctx context.Context) error {
	if a.pg != nil {
		go a.pg.Sweep(ctx, sweepInterval)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.Webhook.Listen, strconv.Itoa(a.cfg.Webhook.Port)),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.Info(ctx, "webhook", "listen",
		slog.String("listen", srv.Addr),
		slog.String("path", a.cfg.Webhook.Path),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bootstrap: server shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bootstrap: server failed: %w", err)
	}
}

// Close releases infrastructure held by the app.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
