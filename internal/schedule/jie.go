// Package schedule maps wall-clock time onto the academic calendar: term,
// week, weekday and teaching period (jie).
package schedule

import "time"

// jieBreaks lists, in ascending order, the time of day before which each
// period is still the current one.
var jieBreaks = []struct {
	hour, minute int
	jie          int
}{
	{10, 5, 1},
	{12, 0, 3},
	{15, 35, 5},
	{17, 30, 7},
	{20, 35, 9},
}

// LastJie is the period assigned after the final breakpoint.
const LastJie = 11

// Jie returns the period t falls in, one of 1, 3, 5, 7, 9 or 11.
func Jie(t time.Time) int {
	minutes := t.Hour()*60 + t.Minute()
	for _, b := range jieBreaks {
		if minutes < b.hour*60+b.minute {
			return b.jie
		}
	}
	return LastJie
}

// PreviousJie returns the period before j. Period 1 has no predecessor and
// maps to itself.
func PreviousJie(j int) int {
	if p := j - 2; p >= 1 {
		return p
	}
	return 1
}

// CurrentJie returns the period to look up for "now". Nothing is scheduled
// after period 11, so it aliases to 9.
func CurrentJie(j int) int {
	if j == LastJie {
		return 9
	}
	return j
}

// RequestedJie returns the period to query at t.
func RequestedJie(t time.Time, previous bool) int {
	if previous {
		return PreviousJie(Jie(t))
	}
	return CurrentJie(Jie(t))
}

// Weekday returns t's day of the week numbered from Monday = 1 to Sunday = 7.
func Weekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
