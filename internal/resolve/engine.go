// Package resolve runs resolution batches: it fans calendar lookups for many
// sessions out over a bounded worker budget and gathers the results.
package resolve

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/partition"
	"github.com/zulandar/classlive/internal/progress"
	"github.com/zulandar/classlive/internal/schedule"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the worker budget used when Options.Workers is unset.
const DefaultWorkers = 64

// Calendar is the calendar surface the engine drives.
type Calendar interface {
	schedule.Calendar
	Room(ctx context.Context, s session.Session, liveID int64) (*models.Room, error)
	Lessons(ctx context.Context, s session.Session, liveID int64) ([]models.Lesson, error)
	LiveVideoPath(ctx context.Context, s session.Session, deviceCode string) (models.VideoPath, error)
	RecordingVideoPath(ctx context.Context, s session.Session, liveID int64) (models.VideoPath, error)
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Workers  int
	Tracker  progress.Tracker
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

// Engine resolves lives, rooms and recordings for a set of sessions.
type Engine struct {
	cal      Calendar
	resolver *schedule.Resolver
	workers  int
	tracker  progress.Tracker
	log      *zap.Logger
	now      func() time.Time
}

// New returns an Engine backed by cal.
func New(cal Calendar, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Tracker == nil {
		opts.Tracker = progress.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		cal:      cal,
		resolver: schedule.NewResolver(cal, opts.Location),
		workers:  opts.Workers,
		tracker:  opts.Tracker,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// Entry is one keyed result in caller-visible order.
type Entry[K cmp.Ordered, V any] struct {
	Key   K
	Value V
}

// SortByKey flattens m into entries ordered by key.
func SortByKey[K cmp.Ordered, V any](m map[K]V) []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(m))
	for k, v := range m {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	slices.SortFunc(out, func(a, b Entry[K, V]) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// unitFunc processes item i of a phase. A non-nil error aborts the phase.
type unitFunc func(ctx context.Context, i int) error

// scatter runs n units split over the worker budget, one goroutine per
// non-empty partition, and waits for all of them. newWorker is called once
// per goroutine so each worker can take its own session copy. The handle and
// ctx are polled before every unit; units already started always finish.
func (e *Engine) scatter(ctx context.Context, n int, h progress.Handle, newWorker func() unitFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range partition.Split(n, e.workers) {
		if !h.ShouldContinue() || gctx.Err() != nil {
			e.log.Debug("stopping dispatch", zap.Int("next", r.Lo))
			break
		}
		g.Go(func() error {
			unit := newWorker()
			for i := r.Lo; i < r.Hi; i++ {
				if !h.ShouldContinue() || gctx.Err() != nil {
					return nil
				}
				if err := unit(gctx, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
