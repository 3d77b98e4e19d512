package dateutil

import (
	"fmt"
	"time"
)

// AllTimeBucket is the window value of counters that never roll over.
const AllTimeBucket = "0/0"

// DayBucket returns the calendar-day window of t. Buckets are always derived
// from UTC; a campaign's display timezone never shifts quota windows.
func DayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeekBucket returns the ISO-week window of t, e.g. "35/2026".
func WeekBucket(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d/%d", week, year)
}
