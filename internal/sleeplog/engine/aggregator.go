package engine

import (
	"time"

	"sleeptracker/backend/internal/sleeplog/domain"
)

// AggregateThirtyDays summarizes sessions already filtered to the 30-day window ending on now.
// It does not re-filter by date. An empty input is domain.ErrEmptyWindow; no partial result is
// returned.
func AggregateThirtyDays(sessions []*domain.SleepSession, now time.Time, loc *time.Location) (domain.Aggregate, error) {
	list := make([]*domain.SleepSession, 0, len(sessions))
	for _, s := range sessions {
		if s != nil {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		return domain.Aggregate{}, domain.ErrEmptyWindow
	}

	starts := make([]int, len(list))
	ends := make([]int, len(list))
	var totalMinutes float64
	var moods domain.MoodCounts
	for i, s := range list {
		starts[i] = SecondOfDay(s.BedtimeStart, loc)
		ends[i] = SecondOfDay(s.BedtimeEnd, loc)
		totalMinutes += s.TotalTimeInBedMinutes
		switch s.MorningFeeling {
		case domain.FeelingGood:
			moods.Good++
		case domain.FeelingOK:
			moods.OK++
		case domain.FeelingBad:
			moods.Bad++
		}
	}

	bedSec, err := CircularMeanSeconds(starts, nil)
	if err != nil {
		return domain.Aggregate{}, err
	}
	// Wake times earlier on the clock than their own bedtime crossed midnight.
	wakeSec, err := CircularMeanSeconds(ends, starts)
	if err != nil {
		return domain.Aggregate{}, err
	}

	bedtime := AnchorToday(bedSec, now, loc)
	wake := AnchorToday(wakeSec, now, loc)
	avgMinutes := totalMinutes / float64(len(list))
	from, to := ThirtyDayWindow(now, loc)

	return domain.Aggregate{
		From:                    from,
		To:                      to,
		AverageBedtime:          bedtime,
		AverageWakeTime:         wake,
		AverageTimeInBedMinutes: avgMinutes,
		Moods:                   moods,
		SessionCount:            len(list),
		IntervalFormatted:       FormatInterval(bedtime, wake, loc),
		TimeInBedFormatted:      FormatDuration(MinutesToDuration(avgMinutes)),
		WindowLabel:             FormatWindowLabel(now, loc),
	}, nil
}
