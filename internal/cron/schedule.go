// Package cron expands five-field cron expressions into the concrete times
// they fire on a given calendar day.
package cron

import (
	"fmt"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// ClockFormat is the layout used for times of day.
const ClockFormat = "15:04"

var parser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

// Parse validates a standard minute/hour/dom/month/dow expression.
func Parse(expr string) (robfigcron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return sched, nil
}

// TimesOn returns every time of day at which expr fires on the calendar day
// containing day, in day's location, formatted as "15:04". A day on which the
// expression never fires yields an empty slice.
func TimesOn(expr string, day time.Time) ([]string, error) {
	sched, err := Parse(expr)
	if err != nil {
		return nil, err
	}

	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	times := []string{}
	// Next is strictly after its argument, so step back one second to catch 00:00.
	for t := sched.Next(start.Add(-time.Second)); t.Before(end); t = sched.Next(t) {
		times = append(times, t.Format(ClockFormat))
	}
	return times, nil
}
