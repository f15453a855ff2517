// Package engine holds the temporal rules for sleep logs: validating a proposed bedtime interval
// against "now", and averaging clock times across many nights for the 30-day summary.
// Every function takes the zone explicitly; nothing reads the process-local zone.
package engine

import (
	"fmt"
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

// SecondsPerDay is the length of a wall-clock day used for time-of-day arithmetic.
const SecondsPerDay = 24 * 60 * 60

// WindowDays is the number of calendar days in the rolling summary, today included.
const WindowDays = 30

// DateOf returns the calendar date of t in loc as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SecondOfDay returns the wall-clock seconds since local midnight of t in loc, in [0, 86399].
func SecondOfDay(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	return lt.Hour()*3600 + lt.Minute()*60 + lt.Second()
}

// CircularMeanSeconds averages time-of-day values that may straddle midnight.
//
// Each value is linearized against its own reference: when refs is non-nil and values[i] is
// earlier than refs[i] on a 24h clock, a full day is added before averaging. The mean uses
// integer division and is reduced modulo SecondsPerDay. This is an approximation of a true
// angular mean that holds when most records cross midnight the same way.
func CircularMeanSeconds(values, refs []int) (int, error) {
	if len(values) == 0 {
		return 0, domain.ErrEmptyWindow
	}
	if refs != nil && len(refs) != len(values) {
		return 0, fmt.Errorf("circular mean: %d values but %d references", len(values), len(refs))
	}
	var total int64
	for i, v := range values {
		if refs != nil && v < refs[i] {
			v += SecondsPerDay
		}
		total += int64(v)
	}
	avg := total / int64(len(values))
	return int(avg % SecondsPerDay), nil
}

// AnchorToday places a wall-clock time-of-day (seconds since midnight) on the local calendar date of now.
// The clock reading is kept on days when the zone's offset changes.
func AnchorToday(secondOfDay int, now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, secondOfDay/3600, (secondOfDay%3600)/60, secondOfDay%60, 0, loc)
}

// ThirtyDayWindow returns the inclusive date range [today-29, today] for now in loc.
func ThirtyDayWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	to = DateOf(now, loc)
	from = to.AddDate(0, 0, -(WindowDays - 1))
	return from, to
}
