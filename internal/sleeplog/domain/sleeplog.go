package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for sleep log validation and lookup. Handlers map them to transport codes.
var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrInvalidOrdering     = errors.New("bedtime end must be after bedtime start")
	ErrOutOfWindow         = errors.New("bedtime start must be today or yesterday")
	ErrInconsistentEndDate = errors.New("bedtime end must be today or on the start date")
	ErrEmptyWindow         = errors.New("no sleep logs in the last 30 days")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateDay        = errors.New("a sleep log already exists for this user and day")
)

// MorningFeeling is the self-reported mood after waking up.
type MorningFeeling string

const (
	FeelingGood MorningFeeling = "GOOD"
	FeelingOK   MorningFeeling = "OK"
	FeelingBad  MorningFeeling = "BAD"
)

// Feelings lists every accepted MorningFeeling.
var Feelings = []MorningFeeling{FeelingBad, FeelingOK, FeelingGood}

// ParseMorningFeeling parses s case-insensitively. Empty or unknown values are ErrMalformedInput.
func ParseMorningFeeling(s string) (MorningFeeling, error) {
	f := MorningFeeling(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown morning feeling %q", ErrMalformedInput, s)
	}
	return f, nil
}

// Valid reports whether f is one of the closed set of feelings.
func (f MorningFeeling) Valid() bool {
	switch f {
	case FeelingGood, FeelingOK, FeelingBad:
		return true
	}
	return false
}

// DisplayName returns the human-readable name ("Good", "OK", "Bad"), or "" when f is invalid.
func (f MorningFeeling) DisplayName() string {
	switch f {
	case FeelingGood:
		return "Good"
	case FeelingOK:
		return "OK"
	case FeelingBad:
		return "Bad"
	}
	return ""
}

// SleepSession is one recorded night for a user.
type SleepSession struct {
	ID     string
	UserID string
	// SleepDate is the calendar date the session is attributed to, stored as midnight UTC.
	SleepDate             time.Time
	BedtimeStart          time.Time
	BedtimeEnd            time.Time
	TotalTimeInBedMinutes float64
	MorningFeeling        MorningFeeling
	CreatedAt             time.Time
}

// DeriveTotalTimeInBed recomputes TotalTimeInBedMinutes from the bedtime timestamps.
// Call after every change to BedtimeStart or BedtimeEnd.
func (s *SleepSession) DeriveTotalTimeInBed() {
	s.TotalTimeInBedMinutes = s.BedtimeEnd.Sub(s.BedtimeStart).Minutes()
}

// Validate checks the invariants that hold for every persisted session.
func (s *SleepSession) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrMalformedInput)
	}
	if s.BedtimeStart.IsZero() || s.BedtimeEnd.IsZero() {
		return fmt.Errorf("%w: bedtime start and end are required", ErrMalformedInput)
	}
	if !s.BedtimeEnd.After(s.BedtimeStart) {
		return ErrInvalidOrdering
	}
	if !s.MorningFeeling.Valid() {
		return fmt.Errorf("%w: unknown morning feeling %q", ErrMalformedInput, s.MorningFeeling)
	}
	return nil
}

// MoodCounts holds the number of sessions per MorningFeeling.
type MoodCounts struct {
	Good int
	OK   int
	Bad  int
}

// Total returns the sum across all buckets.
func (m MoodCounts) Total() int {
	return m.Good + m.OK + m.Bad
}

// Aggregate is the rolling 30-day summary for one user. It is computed on every request and
// never persisted.
type Aggregate struct {
	// From and To are the inclusive window dates as midnight UTC.
	From time.Time
	To   time.Time
	// AverageBedtime and AverageWakeTime are the averaged clock times anchored to today's local date.
	AverageBedtime          time.Time
	AverageWakeTime         time.Time
	AverageTimeInBedMinutes float64
	Moods                   MoodCounts
	SessionCount            int

	IntervalFormatted  string // e.g. "10:14 pm - 7:14 am"
	TimeInBedFormatted string // e.g. "9 h 00 min"
	WindowLabel        string // e.g. "Sep 18th to Oct 17th"
}
