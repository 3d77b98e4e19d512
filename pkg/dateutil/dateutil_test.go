package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_DayBucket(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 in New York is already the next day in UTC.
	local := time.Date(2026, 3, 14, 23, 30, 0, 0, newYork)
	require.Equal(t, "2026-03-15", DayBucket(local))
	require.Equal(t, "2026-03-14", DayBucket(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)))
}

func Test_WeekBucket(t *testing.T) {
	// 2026-01-01 is a Thursday, ISO week 1 of 2026.
	require.Equal(t, "1/2026", WeekBucket(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	// 2027-01-01 is a Friday and still belongs to ISO week 53 of 2026.
	require.Equal(t, "53/2026", WeekBucket(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	// Sunday and the following Monday fall into different ISO weeks.
	sunday := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	monday := sunday.Add(24 * time.Hour)
	require.NotEqual(t, WeekBucket(sunday), WeekBucket(monday))
}
