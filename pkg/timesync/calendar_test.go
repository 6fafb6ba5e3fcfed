package timesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNever(t *testing.T) {
	require.False(t, Never.Synced())
	require.Equal(t, "never", Never.String())
	require.Equal(t, EpochYear, Never.Year)
	require.True(t, CalendarTime{Year: 2024, Month: 1, Day: 1}.Synced())
}

func TestFromBrokenDown(t *testing.T) {
	cal := FromBrokenDown(BrokenDown{Sec: 59, Min: 30, Hour: 7, MDay: 31, Mon: 11, Year: 124, WDay: 2})
	require.Equal(t, CalendarTime{Weekday: 2, Month: 12, Day: 31, Year: 2024, Hour: 7, Minute: 30, Second: 59}, cal)
	require.Equal(t, "2024/12/31 07:30:59", cal.String())
}

func TestFromTimeRoundTrip(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	tm := time.Date(2023, time.July, 4, 5, 6, 7, 0, loc)
	cal := FromTime(tm)
	require.Equal(t, int(time.Tuesday), cal.Weekday)
	require.True(t, tm.Equal(cal.Time(loc)))
}

func TestParseZone(t *testing.T) {
	testCases := []struct {
		tz     string
		offset int
	}{
		{"JST-9", 9 * 3600},
		{"UTC0", 0},
		{"EST+5", -5 * 3600},
		{"EST5", -5 * 3600},
		{"IST-5:30", 5*3600 + 30*60},
		{"UTC", 0},
		{"Asia/Tokyo", 9 * 3600},
		{"America/New_York", -5 * 3600},
	}
	for _, tc := range testCases {
		t.Run(tc.tz, func(t *testing.T) {
			loc, err := ParseZone(tc.tz)
			require.NoError(t, err)
			_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
			require.Equal(t, tc.offset, offset)
		})
	}
	for _, bad := range []string{"", "JST-x", "Nowhere/Atlantis"} {
		_, err := ParseZone(bad)
		require.ErrorIs(t, err, ErrTimezone, bad)
	}
}
