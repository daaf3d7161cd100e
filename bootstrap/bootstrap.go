// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package bootstrap is the composition root shared by the server and lunchctl.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/lunchvote/cliparse"
	"github.com/danielhkuo/lunchvote/db"
	"github.com/danielhkuo/lunchvote/metrics"
	"github.com/danielhkuo/lunchvote/notify"
	"github.com/danielhkuo/lunchvote/ports"
	"github.com/danielhkuo/lunchvote/scheduler"
)

// App holds the wired collaborators of one process.
type App struct {
	DB        *sql.DB
	Store     *db.Store
	Metrics   *metrics.Metrics
	Notifier  ports.Notifier
	Scheduler *scheduler.Scheduler
	Logger    *slog.Logger
}

// Build opens the database, creates the schema and wires the scheduler.
func Build(ctx context.Context, cfg cliparse.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	schedCfg := SchedulerConfig(cfg)
	if err := schedCfg.Validate(); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchemaContext(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	logger.Info("Database schema ready", "type", cfg.DatabaseType)

	app := &App{
		DB:       conn,
		Store:    db.NewStore(conn),
		Metrics:  metrics.New(),
		Notifier: Notifier(cfg, logger),
		Logger:   logger,
	}
	app.Scheduler = scheduler.New(schedCfg, app.Store, app.Notifier,
		scheduler.WithLogger(logger),
		scheduler.WithMetrics(app.Metrics),
	)
	return app, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// SchedulerConfig maps the schedule settings onto scheduler.Config.
func SchedulerConfig(cfg cliparse.Config) scheduler.Config {
	sc := scheduler.DefaultConfig()
	if len(cfg.OpenDays) > 0 {
		sc.OpenDays = cfg.OpenDays
	}
	if cfg.CloseAt > 0 {
		sc.OpenAt = cfg.OpenAt
		sc.CloseAt = cfg.CloseAt
	}
	if cfg.Location != nil {
		sc.Location = cfg.Location
	}
	sc.NoRepeatDays = cfg.NoRepeatDays
	if cfg.TickInterval > 0 {
		sc.Interval = cfg.TickInterval
	}
	return sc
}

// Notifier returns an SMTP mailer when a mail server is configured and a
// logging notifier otherwise.
func Notifier(cfg cliparse.Config, logger *slog.Logger) ports.Notifier {
	if !cfg.MailEnabled() {
		logger.Warn("No SMTP host configured, announcements will only be logged")
		return notify.LogNotifier{Logger: logger}
	}
	return notify.NewMailer(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Hostname: cfg.Hostname,
		Pace:     cfg.MailPace,
	}, logger)
}

// NewLogger logs text to a terminal and JSON anywhere else.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
