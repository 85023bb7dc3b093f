package watch

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextDelay returns the time from now until the schedule next fires.
func nextDelay(sched cron.Schedule, now time.Time) time.Duration {
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ParseSchedule validates a 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("watch: schedule %q: %w", expr, err)
	}
	return sched, nil
}
