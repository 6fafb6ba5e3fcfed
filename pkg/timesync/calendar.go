package timesync

import (
	"fmt"
	"time"
)

// EpochYear marks a calendar that was never synchronized.
const EpochYear = 1970

// CalendarTime is a broken-down local time as stored by a real-time clock.
type CalendarTime struct {
	Weekday int // 0 = Sunday
	Month   int // 1..12
	Day     int // 1..31
	Year    int
	Hour    int
	Minute  int
	Second  int
}

// Never is the value of a clock which has not been synchronized yet.
var Never = CalendarTime{Weekday: int(time.Thursday), Month: 1, Day: 1, Year: EpochYear}

// Synced reports whether c came from a successful synchronization.
func (c CalendarTime) Synced() bool {
	return c.Year != EpochYear
}

// Time converts c back to a time.Time in loc.
func (c CalendarTime) Time(loc *time.Location) time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

// Date formats the date part as YYYY/MM/DD.
func (c CalendarTime) Date() string {
	return fmt.Sprintf("%04d/%02d/%02d", c.Year, c.Month, c.Day)
}

// Clock formats the time part as HH:MM:SS.
func (c CalendarTime) Clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c CalendarTime) String() string {
	if !c.Synced() {
		return "never"
	}
	return c.Date() + " " + c.Clock()
}

// FromTime breaks t down in its own location.
func FromTime(t time.Time) CalendarTime {
	return CalendarTime{
		Weekday: int(t.Weekday()),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Year:    t.Year(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
	}
}

// BrokenDown is a C-style broken-down time: zero-based month and a year
// relative to 1900.
type BrokenDown struct {
	Sec, Min, Hour int
	MDay, Mon      int
	Year, WDay     int
}

// FromBrokenDown converts a C-style broken-down time.
func FromBrokenDown(tm BrokenDown) CalendarTime {
	return CalendarTime{
		Weekday: tm.WDay,
		Month:   tm.Mon + 1,
		Day:     tm.MDay,
		Year:    tm.Year + 1900,
		Hour:    tm.Hour,
		Minute:  tm.Min,
		Second:  tm.Sec,
	}
}
