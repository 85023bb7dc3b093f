package resolve

import (
	"context"
	"slices"

	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/schedule"
	"github.com/zulandar/classlive/internal/session"
	"go.uber.org/zap"
)

// Rooms lists every classroom the sessions have ever had a live in, mapped
// to its device code and sorted by room name.
//
// Each session's schedule is scanned for schedule.ScanPages weeks back from
// the current year. Every place keeps its lowest live id, and each of those
// ids is resolved to a room once.
func (e *Engine) Rooms(ctx context.Context, sessions []session.Session) ([]Entry[string, string], error) {
	if len(sessions) == 0 {
		e.log.Warn("no sessions to scan")
		return nil, nil
	}

	places, err := e.scanPlaces(ctx, sessions)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(places))
	for _, id := range places {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	codes, err := e.deviceCodes(ctx, sessions[0], ids)
	if err != nil {
		return nil, err
	}
	return SortByKey(codes), nil
}

func (e *Engine) scanPlaces(ctx context.Context, sessions []session.Session) (map[string]int64, error) {
	year := e.now().In(e.resolver.Location).Year()
	total := schedule.ScanPages * len(sessions)
	places := newSyncMap[string, int64]()

	h := e.tracker.Start(int64(total), models.ResolvingLives)
	defer h.Finish(models.ResolvingLives)

	err := e.scatter(ctx, total, h, func() unitFunc {
		clones := make(map[int]session.Session)
		return func(ctx context.Context, i int) error {
			defer h.Advance(1)
			idx := i / schedule.ScanPages
			s, ok := clones[idx]
			if !ok {
				s = sessions[idx].Clone()
				clones[idx] = s
			}
			slot := schedule.ScanSlot(year, i%schedule.ScanPages)
			lives, err := e.cal.ListLives(ctx, s, slot.Week, slot.Year, slot.Term)
			if calendar.IsShape(err) {
				return err
			}
			if err != nil {
				e.log.Debug("scan schedule", zap.String("uid", s.UID()), zap.Any("slot", slot), zap.Error(err))
				return nil
			}
			for _, l := range lives {
				places.storeIf(l.Place, l.ID, func(old int64) bool { return old <= l.ID })
			}
			return nil
		}
	})
	return places.snapshot(), err
}

func (e *Engine) deviceCodes(ctx context.Context, s session.Session, ids []int64) (map[string]string, error) {
	codes := newSyncMap[string, string]()

	h := e.tracker.Start(int64(len(ids)), models.ResolvingDeviceCodes)
	defer h.Finish(models.ResolvingDeviceCodes)

	err := e.scatter(ctx, len(ids), h, func() unitFunc {
		ws := s.Clone()
		return func(ctx context.Context, i int) error {
			defer h.Advance(1)
			room, err := e.cal.Room(ctx, ws, ids[i])
			if calendar.IsShape(err) {
				return err
			}
			if err != nil {
				e.log.Warn("resolve room", zap.Int64("live_id", ids[i]), zap.Error(err))
				return nil
			}
			if room == nil {
				return nil
			}
			codes.store(room.Name, room.DeviceCode)
			return nil
		}
	})
	return codes.snapshot(), err
}

// Device resolves the current streams of one device code with the first
// session.
func (e *Engine) Device(ctx context.Context, sessions []session.Session, deviceCode string) (models.VideoPath, error) {
	if len(sessions) == 0 {
		return models.VideoPath{}, ErrNoSessions
	}
	return e.cal.LiveVideoPath(ctx, sessions[0].Clone(), deviceCode)
}
