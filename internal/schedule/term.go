package schedule

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/models"
	"github.com/zulandar/classlive/internal/session"
)

// Term identifies an academic half-year and the current week within it.
type Term struct {
	Year int `json:"term_year"`
	Term int `json:"term"`
	Week int `json:"week"`
}

// SemesterID converts a (year, half) pair into the calendar's semester id.
func SemesterID(year, term int) int {
	id := 2*year - 4035 + term
	if year == 2018 {
		return id - 1
	}
	if id < 1 {
		return 1
	}
	return id
}

// A historical scan covers ScanYears years of both halves, WeeksPerTerm
// weeks each.
const (
	WeeksPerTerm = 30
	ScanYears    = 6
	ScanPages    = ScanYears * 2 * WeeksPerTerm
)

// ScanSlot maps the n-th page of a historical scan, 0 <= n < ScanPages, to
// the (year, term, week) it covers. Pages walk back ScanYears years from
// nowYear, alternating half 2 and half 1.
func ScanSlot(nowYear, n int) Term {
	return Term{
		Year: nowYear - ScanYears + (n/WeeksPerTerm)%2 + n/(2*WeeksPerTerm),
		Term: 2 - (n/WeeksPerTerm)%2,
		Week: n%WeeksPerTerm + 1,
	}
}

// Calendar is the subset of the calendar client the resolver needs.
type Calendar interface {
	WeekStart(ctx context.Context, s session.Session, week, semesterID int) (calendar.MonthDay, error)
	ListLives(ctx context.Context, s session.Session, week, termYear, term int) ([]models.Live, error)
}

// Resolver determines a session's current term and active live.
type Resolver struct {
	Calendar Calendar
	Location *time.Location
}

// NewResolver returns a Resolver using loc for all wall-clock comparisons.
func NewResolver(cal Calendar, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{Calendar: cal, Location: loc}
}

// ResolveTerm works out which half-year now falls in and its week number.
//
// The start of (year-1, 2) and (year, 1) bracket the current year: dates
// between them belong to (year-1, 2), later dates to (year, 1), and earlier
// dates to (year-1, 1). An unpublished (year, 1) start counts as never
// reached.
func (r *Resolver) ResolveTerm(ctx context.Context, s session.Session, now time.Time) (Term, error) {
	now = now.In(r.Location)
	year := now.Year()
	today := calendar.MonthDay{Month: int(now.Month()), Day: now.Day()}.Number()

	springStart, err := r.Calendar.WeekStart(ctx, s, 1, SemesterID(year-1, 2))
	if err != nil {
		return Term{}, fmt.Errorf("schedule: term start %d-2: %w", year-1, err)
	}
	autumn := math.MaxInt
	autumnStart, err := r.Calendar.WeekStart(ctx, s, 1, SemesterID(year, 1))
	switch {
	case err == nil:
		autumn = autumnStart.Number()
	case calendar.IsShape(err):
		return Term{}, fmt.Errorf("schedule: term start %d-1: %w", year, err)
	}

	spring := springStart.Number()
	var (
		start  calendar.MonthDay
		startY int
		term   Term
	)
	switch {
	case today >= spring && today < autumn:
		start, startY, term = springStart, year, Term{Year: year - 1, Term: 2}
	case today >= autumn:
		start, startY, term = autumnStart, year, Term{Year: year, Term: 1}
	default:
		prev, err := r.Calendar.WeekStart(ctx, s, 1, SemesterID(year-1, 1))
		if err != nil {
			return Term{}, fmt.Errorf("schedule: term start %d-1: %w", year-1, err)
		}
		start, startY, term = prev, year-1, Term{Year: year - 1, Term: 1}
	}

	begin := time.Date(startY, time.Month(start.Month), start.Day, 0, 0, 0, 0, r.Location)
	term.Week = WeekNumber(begin, now)
	return term, nil
}

// WeekNumber returns the 1-based week of now counted from begin.
func WeekNumber(begin, now time.Time) int {
	const week = 7 * 24 * time.Hour
	d := now.Sub(begin)
	n := int(d / week)
	if d < 0 && d%week != 0 {
		n--
	}
	return n + 1
}

// PickLive returns the earliest live on weekday at or after period jie, or
// nil when none qualifies.
func PickLive(lives []models.Live, weekday, jie int) *models.Live {
	var best *models.Live
	for i := range lives {
		l := &lives[i]
		if l.WeekDay != weekday || l.Jie < jie {
			continue
		}
		if best == nil || l.Jie < best.Jie {
			best = l
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// ActiveLive looks up the live a session attends at (weekday, jie) in term.
// A nil live with a nil error means no class is scheduled.
func (r *Resolver) ActiveLive(ctx context.Context, s session.Session, term Term, weekday, jie int) (*models.Live, error) {
	lives, err := r.Calendar.ListLives(ctx, s, term.Week, term.Year, term.Term)
	if err != nil {
		return nil, fmt.Errorf("schedule: list lives for %s: %w", s.UID(), err)
	}
	return PickLive(lives, weekday, jie), nil
}

// Resolve runs the full time-slot resolution for one session at now.
func (r *Resolver) Resolve(ctx context.Context, s session.Session, now time.Time, previous bool) (*models.Live, error) {
	term, err := r.ResolveTerm(ctx, s, now)
	if err != nil {
		return nil, err
	}
	local := now.In(r.Location)
	return r.ActiveLive(ctx, s, term, Weekday(local), RequestedJie(local, previous))
}
