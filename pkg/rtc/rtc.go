// Package rtc provides the real-time clock the dashboard displays and the
// time synchronizer writes into.
package rtc

import (
	"sync"
	"time"

	"github.com/robotalks/envdash/pkg/timesync"
)

// Clock is a settable calendar clock.
type Clock interface {
	// Now reads the clock.
	Now() (timesync.CalendarTime, error)
	// Set writes the clock.
	Set(timesync.CalendarTime) error
}

// Soft is a Clock kept as an offset from the system clock. It is used where
// no hardware RTC is present.
type Soft struct {
	loc *time.Location
	now func() time.Time

	mu     sync.Mutex
	offset time.Duration
}

// NewSoft creates a Soft clock reading in loc.
func NewSoft(loc *time.Location) *Soft {
	if loc == nil {
		loc = time.Local
	}
	return &Soft{loc: loc, now: time.Now}
}

// Now implements Clock.
func (c *Soft) Now() (timesync.CalendarTime, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return timesync.FromTime(c.now().Add(c.offset).In(c.loc)), nil
}

// Set implements Clock.
func (c *Soft) Set(cal timesync.CalendarTime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = cal.Time(c.loc).Sub(c.now())
	return nil
}
