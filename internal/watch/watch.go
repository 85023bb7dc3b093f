// Package watch runs the live resolution batch on a cron schedule and
// records every run as a snapshot.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/zulandar/classlive/internal/db"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/output"
	"github.com/zulandar/classlive/internal/resolve"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Opts configures a Watcher.
type Opts struct {
	DB       *gorm.DB
	Engine   *resolve.Engine
	Sessions session.Source
	Accounts string // comma-separated uid list; empty means all
	Schedule string
	Previous bool
	Logger   *zap.Logger
	Now      func() time.Time
	NewID    func() string
}

// Watcher fires LivesNow passes on a schedule.
type Watcher struct {
	opts  Opts
	sched cron.Schedule
	log   *zap.Logger
}

// New validates opts and returns a Watcher.
func New(opts Opts) (*Watcher, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("watch: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("watch: engine is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("watch: session source is required")
	}
	sched, err := ParseSchedule(opts.Schedule)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Watcher{opts: opts, sched: sched, log: opts.Logger}, nil
}

// Run blocks, firing a pass each time the schedule triggers, until ctx is
// cancelled. A failed pass is logged and recorded; it does not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(nextDelay(w.sched, w.opts.Now()))
	defer timer.Stop()

	w.log.Info("watching", zap.String("schedule", w.opts.Schedule), zap.Time("next", w.sched.Next(w.opts.Now())))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error("watch pass failed", zap.Error(err))
			}
			timer.Reset(nextDelay(w.sched, w.opts.Now()))
		}
	}
}

// RunOnce executes one pass and stores its snapshot. The snapshot is stored
// even when the pass fails, with the error recorded. The returned error is
// the pass error, or the store error if saving failed.
func (w *Watcher) RunOnce(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		BatchID:   w.opts.NewID(),
		Previous:  w.opts.Previous,
		CreatedAt: w.opts.Now(),
	}
	log := w.log.With(zap.String("batch_id", snap.BatchID))

	passErr := w.pass(ctx, snap)
	if passErr != nil {
		snap.Error = passErr.Error()
	}
	if err := db.SaveSnapshot(w.opts.DB, snap); err != nil {
		return nil, err
	}
	log.Info("snapshot stored",
		zap.Int("accounts", snap.Accounts),
		zap.Int("resolved", snap.Resolved),
		zap.Bool("failed", passErr != nil),
	)
	return snap, passErr
}

func (w *Watcher) pass(ctx context.Context, snap *models.Snapshot) error {
	sessions, err := w.opts.Sessions(ctx, w.opts.Accounts)
	if err != nil {
		return fmt.Errorf("watch: sessions: %w", err)
	}
	snap.Accounts = len(sessions)

	lives, err := w.opts.Engine.LivesNow(ctx, sessions, w.opts.Previous)
	if err != nil {
		return fmt.Errorf("watch: resolve: %w", err)
	}
	snap.Resolved = len(lives)

	var buf bytes.Buffer
	if err := output.Write(&buf, output.JSON, lives); err != nil {
		return err
	}
	snap.Payload = buf.String()
	return nil
}
