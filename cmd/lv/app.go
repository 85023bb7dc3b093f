package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/config"
	"github.com/zulandar/classlive/internal/db"
	"github.com/zulandar/classlive/internal/logging"
	"github.com/zulandar/classlive/internal/progress"
	"github.com/zulandar/classlive/internal/resolve"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// clock is the wall clock the engine resolves against. Tests pin it.
var clock = time.Now

// app bundles everything a command needs to run a pass.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.Logger
	engine   *resolve.Engine
	sessions session.Source
}

// setup loads configuration and wires the store, sessions and engine. When
// showProgress is set, the engine draws progress on the command's stderr.
func setup(ctx context.Context, cmd *cobra.Command, configPath string, showProgress bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}

	opts := session.Options{
		Client:    session.NewClient(cfg.Calendar.Timeout),
		Limiter:   session.NewLimiter(cfg.Calendar.RateLimit, cfg.Calendar.Burst),
		UserAgent: cfg.Calendar.UserAgent,
	}
	source := func(_ context.Context, uids string) ([]session.Session, error) {
		accts, err := db.AccountsByUIDs(gormDB, uids)
		if err != nil {
			return nil, err
		}
		return session.FromAccounts(accts, opts), nil
	}

	var tracker progress.Tracker = progress.Nop{}
	if showProgress {
		tracker = progress.NewTerminal(ctx, cmd.ErrOrStderr())
	}

	engine := resolve.New(calendar.New(cfg.Calendar.BaseURL, cfg.Calendar.FID), resolve.Options{
		Workers:  cfg.Workers,
		Tracker:  tracker,
		Logger:   log,
		Location: cfg.Location(),
		Now:      clock,
	})

	return &app{cfg: cfg, db: gormDB, log: log, engine: engine, sessions: source}, nil
}

// close flushes the logger and releases the store.
func (a *app) close() {
	a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.ErrOrStderr(), "\nReceived %s, stopping...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
