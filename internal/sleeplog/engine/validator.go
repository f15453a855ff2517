package engine

import (
	"fmt"
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

// Interval is an accepted bedtime start/end pair.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the interval length in minutes.
func (i Interval) Minutes() float64 {
	return i.End.Sub(i.Start).Minutes()
}

// Validate accepts or rejects a proposed bedtime interval relative to now in loc.
//
// The start must fall on today or yesterday. The end must fall on today or on the start's date.
// Rejections are permanent input errors and wrap one of the domain sentinels.
func Validate(start, end, now time.Time, loc *time.Location) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("%w: bedtime start and end are required", domain.ErrMalformedInput)
	}
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: start %s, end %s",
			domain.ErrInvalidOrdering, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	today := DateOf(now, loc)
	yesterday := today.AddDate(0, 0, -1)
	startDate := DateOf(start, loc)
	endDate := DateOf(end, loc)

	if !startDate.Equal(today) && !startDate.Equal(yesterday) {
		return Interval{}, fmt.Errorf("%w: start date %s, today %s",
			domain.ErrOutOfWindow, startDate.Format(time.DateOnly), today.Format(time.DateOnly))
	}
	if !endDate.Equal(today) && !endDate.Equal(startDate) {
		return Interval{}, fmt.Errorf("%w: end date %s", domain.ErrInconsistentEndDate, endDate.Format(time.DateOnly))
	}
	return Interval{Start: start, End: end}, nil
}

// ValidateAndDeriveDuration validates the interval and returns its length in minutes.
func ValidateAndDeriveDuration(start, end, now time.Time, loc *time.Location) (float64, error) {
	iv, err := Validate(start, end, now, loc)
	if err != nil {
		return 0, err
	}
	return iv.Minutes(), nil
}

// ReferenceForDate takes a sleep date stored as midnight UTC and returns noon of that calendar
// date in loc, usable as "now" when re-validating a record against its own sleep date.
func ReferenceForDate(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
}
