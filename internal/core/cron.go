package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// maxScanDays bounds the daily scan used for month-end patterns.
const maxScanDays = 366 * 8

// ParseCron ensures the expression is a valid 5-field cron definition and returns the underlying schedule.
func ParseCron(expr string) (cron.Schedule, error) {
	if strings.HasPrefix(strings.TrimSpace(expr), "@") {
		return nil, fmt.Errorf("only 5-field cron expressions are supported")
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NextOccurrences returns the next n execution times from a base time.
func NextOccurrences(schedule cron.Schedule, base time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	next := base
	for i := 0; i < n; i++ {
		next = schedule.Next(next)
		times = append(times, next)
	}
	return times
}

// CronExpr renders the pattern as a 5-field cron expression. Only daily,
// weekly and monthly-date patterns have one; month-end variants report false.
func (p Pattern) CronExpr() (string, bool) {
	switch p.Frequency {
	case FrequencyDaily:
		return fmt.Sprintf("%d %d * * *", p.Minute, p.Hour), true
	case FrequencyWeekly:
		return fmt.Sprintf("%d %d * * %d", p.Minute, p.Hour, int(p.Weekday)), true
	case FrequencyMonthly:
		if p.Monthly.Kind == MonthlyDate {
			return fmt.Sprintf("%d %d %d * *", p.Minute, p.Hour, p.Monthly.Day), true
		}
	}
	return "", false
}

// Daily returns the same time of day as a daily pattern. Runner-backed
// registrations use it.
func (p Pattern) Daily() Pattern {
	return Pattern{Frequency: FrequencyDaily, Hour: p.Hour, Minute: p.Minute}
}

// NextRuns returns the next n fire times of the pattern after from.
func NextRuns(p Pattern, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	if expr, ok := p.CronExpr(); ok {
		schedule, err := ParseCron(expr)
		if err != nil {
			return nil, err
		}
		return NextOccurrences(schedule, from, n), nil
	}

	daily, _ := p.Daily().CronExpr()
	schedule, err := ParseCron(daily)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, 0, n)
	next := from
	for i := 0; i < maxScanDays && len(times) < n; i++ {
		next = schedule.Next(next)
		if p.Monthly.Matches(next) {
			times = append(times, next)
		}
	}
	return times, nil
}

// NextRun returns the first fire time after from, or nil if none can be computed.
func NextRun(p Pattern, from time.Time) *time.Time {
	times, err := NextRuns(p, from, 1)
	if err != nil || len(times) == 0 {
		return nil
	}
	return &times[0]
}
