package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
)

// ErrNoSessions is returned by operations that need at least one session.
var ErrNoSessions = errors.New("resolve: no sessions")

// Recordings resolves the recorded streams of every lesson in the course
// that liveID belongs to, keyed by lesson start time in milliseconds.
func (e *Engine) Recordings(ctx context.Context, s session.Session, liveID int64) ([]Entry[int64, models.VideoPath], error) {
	if s == nil {
		return nil, ErrNoSessions
	}
	lessons, err := e.cal.Lessons(ctx, s, liveID)
	if err != nil {
		return nil, fmt.Errorf("resolve: lessons of %d: %w", liveID, err)
	}

	paths := newSyncMap[int64, models.VideoPath]()
	h := e.tracker.Start(int64(len(lessons)), models.ResolvingRecordings)
	defer h.Finish(models.ResolvingRecordings)

	err = e.scatter(ctx, len(lessons), h, func() unitFunc {
		ws := s.Clone()
		return func(ctx context.Context, i int) error {
			defer h.Advance(1)
			l := lessons[i]
			vp, err := e.cal.RecordingVideoPath(ctx, ws, l.ID)
			if calendar.IsShape(err) {
				return err
			}
			if err != nil {
				e.log.Warn("resolve recording", zap.Int64("live_id", l.ID), zap.Error(err))
				return nil
			}
			paths.store(l.StartTime, vp)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return SortByKey(paths.snapshot()), nil
}
