package engine

import (
	"fmt"
	"strconv"
	"time"
)

// OrdinalDay returns d with its English ordinal suffix: 1st, 2nd, 3rd, 4th, 11th, 21st.
func OrdinalDay(d int) string {
	suffix := "th"
	switch d % 100 {
	case 11, 12, 13:
	default:
		switch d % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(d) + suffix
}

// FormatClock renders t in loc on a 12-hour clock with a lowercase suffix, e.g. "7:05 am".
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 pm")
}

// FormatInterval renders "<start> - <end>" using FormatClock.
func FormatInterval(start, end time.Time, loc *time.Location) string {
	return FormatClock(start, loc) + " - " + FormatClock(end, loc)
}

// FormatDuration renders the absolute value of d as "<H> h <MM> min".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	hours := int64(d / time.Hour)
	minutes := int64(d%time.Hour) / int64(time.Minute)
	return fmt.Sprintf("%d h %02d min", hours, minutes)
}

// MinutesToDuration converts fractional minutes to a time.Duration.
func MinutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

// FormatWindowLabel renders the 30-day window ending on now's local date, e.g. "Sep 18th to Oct 17th".
func FormatWindowLabel(now time.Time, loc *time.Location) string {
	from, to := ThirtyDayWindow(now, loc)
	return fmt.Sprintf("%s %s to %s %s",
		from.Format("Jan"), OrdinalDay(from.Day()),
		to.Format("Jan"), OrdinalDay(to.Day()))
}

// FormatSleepDate renders a calendar date (midnight UTC form) as "October, 17th".
func FormatSleepDate(date time.Time) string {
	return date.Format("January") + ", " + OrdinalDay(date.Day())
}
