package scheduled

import (
	"time"

	"orgalerts/models"
)

// NextOccurrence advances from by one step of p. Daily and weekly steps add a
// fixed number of days; monthly and yearly steps keep the day of month,
// clamped to the last day of the target month.
func NextOccurrence(from time.Time, p models.RecurrencePattern) time.Time {
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}
	switch p.Frequency {
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7*interval)
	case models.FrequencyMonthly:
		return addMonths(from, interval)
	case models.FrequencyYearly:
		return addMonths(from, 12*interval)
	default:
		return from.AddDate(0, 0, interval)
	}
}

// RecurrenceEnded reports whether a recurring alert stops after its
// executions-th firing, given its next occurrence.
func RecurrenceEnded(p models.RecurrencePattern, next time.Time, executions int) bool {
	if p.EndDate != nil && next.After(*p.EndDate) {
		return true
	}
	return p.Occurrences > 0 && executions >= p.Occurrences
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
