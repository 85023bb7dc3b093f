package resolve

import (
	"context"
	"errors"

	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/progress"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
)

// LiveInfo is the resolved live of one account.
type LiveInfo struct {
	Name      string           `json:"name" yaml:"name"`
	Room      models.Room      `json:"room" yaml:"room"`
	VideoPath models.VideoPath `json:"video_path" yaml:"video_path"`
}

var errNoRoom = errors.New("course listing has no room for live")

// LivesNow resolves, for every session, the live scheduled in the current
// period (previous=false) or the one before it (previous=true), then
// enriches each distinct live with its room and stream. Results are keyed by
// account uid and sorted. Sessions that fail or have no class are left out.
//
// Enrichment runs on copies of the first session. When the calendar rejects
// it for a live, the lookup is retried once with a session that produced
// that live, so one stale cookie does not drop every account.
func (e *Engine) LivesNow(ctx context.Context, sessions []session.Session, previous bool) ([]Entry[string, LiveInfo], error) {
	if len(sessions) == 0 {
		e.log.Warn("no sessions to resolve")
		return nil, nil
	}

	cands, err := e.resolveCandidates(ctx, sessions, previous)
	if err != nil {
		return nil, err
	}

	ids := distinctIDs(cands)
	rooms, err := e.enrich(ctx, sessions[0], ids, fallbackOwners(sessions, cands))
	if err != nil {
		return nil, err
	}

	out := make(map[string]LiveInfo, len(sessions))
	for i, live := range cands {
		if live == nil {
			continue
		}
		s := sessions[i]
		res, ok := rooms.get(live.ID)
		if !ok {
			e.log.Warn("live not enriched", zap.String("uid", s.UID()), zap.Int64("live_id", live.ID))
			continue
		}
		if res.err != nil {
			e.log.Warn("dropping session", zap.String("uid", s.UID()), zap.Int64("live_id", live.ID), zap.Error(res.err))
			continue
		}
		out[s.UID()] = LiveInfo{Name: s.Name(), Room: res.room, VideoPath: res.video}
	}
	if len(out) == 0 {
		e.log.Warn("no session resolved to a live", zap.Int("sessions", len(sessions)))
	}
	return SortByKey(out), nil
}

// resolveCandidates runs the time-slot resolver for every session. The
// returned slice is indexed like sessions; nil means no candidate.
func (e *Engine) resolveCandidates(ctx context.Context, sessions []session.Session, previous bool) ([]*models.Live, error) {
	now := e.now()
	cands := make([]*models.Live, len(sessions))

	h := e.tracker.Start(int64(len(sessions)), models.ResolvingLives)
	defer h.Finish(models.ResolvingLives)

	err := e.scatter(ctx, len(sessions), h, func() unitFunc {
		return func(ctx context.Context, i int) error {
			defer h.Advance(1)
			s := sessions[i].Clone()
			live, err := e.resolver.Resolve(ctx, s, now, previous)
			switch {
			case calendar.IsShape(err):
				return err
			case err != nil:
				e.log.Warn("resolve session", zap.String("uid", s.UID()), zap.Error(err))
				return nil
			case live == nil:
				e.log.Debug("no class scheduled", zap.String("uid", s.UID()))
				return nil
			}
			// Each index is owned by exactly one worker.
			cands[i] = live
			return nil
		}
	})
	return cands, err
}

func distinctIDs(cands []*models.Live) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, l := range cands {
		if l == nil || seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		ids = append(ids, l.ID)
	}
	return ids
}

// fallbackOwners maps each live id to a session other than sessions[0] that
// resolved it, if any.
func fallbackOwners(sessions []session.Session, cands []*models.Live) map[int64]session.Session {
	owners := make(map[int64]session.Session)
	first := sessions[0].UID()
	for i, l := range cands {
		if l == nil || sessions[i].UID() == first {
			continue
		}
		if _, ok := owners[l.ID]; !ok {
			owners[l.ID] = sessions[i]
		}
	}
	return owners
}

// enrich resolves room and stream once per id using copies of s. An id whose
// lookup is rejected with a status error is retried with its owner.
func (e *Engine) enrich(ctx context.Context, s session.Session, ids []int64, owners map[int64]session.Session) (*roomCache, error) {
	cache := newRoomCache(len(ids))

	h := e.tracker.Start(int64(2*len(ids)), models.ResolvingRooms)
	defer h.Finish(models.ResolvingRooms)

	err := e.scatter(ctx, len(ids), h, func() unitFunc {
		ws := s.Clone()
		return func(ctx context.Context, i int) error {
			id := ids[i]
			res, err := e.enrichOne(ctx, ws, id, h)
			if err != nil {
				return err
			}
			if owner, ok := owners[id]; ok && calendar.IsStatus(res.err) {
				e.log.Info("retrying enrichment", zap.Int64("live_id", id), zap.String("uid", owner.UID()))
				// Retries are outside the phase total.
				res, err = e.enrichOne(ctx, owner.Clone(), id, progress.Nop{}.Start(2, models.ResolvingRooms))
				if err != nil {
					return err
				}
			}
			cache.put(id, res)
			return nil
		}
	})
	return cache, err
}

// enrichOne advances h by two units whatever the outcome. Only shape errors
// are returned; everything else is recorded in the enrichment.
func (e *Engine) enrichOne(ctx context.Context, s session.Session, id int64, h progress.Handle) (enrichment, error) {
	room, err := e.cal.Room(ctx, s, id)
	h.Advance(1)
	if err != nil || room == nil {
		h.Advance(1)
		if calendar.IsShape(err) {
			return enrichment{}, err
		}
		if err == nil {
			err = errNoRoom
		}
		e.log.Warn("resolve room", zap.Int64("live_id", id), zap.Error(err))
		return enrichment{err: err}, nil
	}

	video, err := e.cal.LiveVideoPath(ctx, s, room.DeviceCode)
	h.Advance(1)
	if calendar.IsShape(err) {
		return enrichment{}, err
	}
	if err != nil {
		e.log.Warn("resolve stream", zap.Int64("live_id", id), zap.String("device_code", room.DeviceCode), zap.Error(err))
		return enrichment{room: *room, err: err}, nil
	}
	if video.IsDefault() {
		e.log.Debug("no stream published", zap.String("device_code", room.DeviceCode))
	}
	return enrichment{room: *room, video: video}, nil
}
