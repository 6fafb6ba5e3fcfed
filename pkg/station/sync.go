package station

import (
	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/coord"
	"github.com/robotalks/envdash/pkg/rtc"
	"github.com/robotalks/envdash/pkg/timesync"
)

// Synchronizer is implemented by timesync.Synchronizer.
type Synchronizer interface {
	Synchronize(tz string, p timesync.Persister, servers ...string) error
}

// Syncer runs a time sync and stores the result in the RTC and the shared
// state of the critical section.
type Syncer struct {
	Synchronizer Synchronizer
	Clock        rtc.Clock
	Timezone     string
	Servers      []string
}

// Sync must be called holding the lock, shared is the proof. It returns the
// resolved time on success.
func (s *Syncer) Sync(shared *coord.Shared) (resolved timesync.CalendarTime, err error) {
	resolved = timesync.Never
	err = s.Synchronizer.Synchronize(s.Timezone, timesync.PersistFunc(func(cal timesync.CalendarTime) {
		resolved = cal
		if err := s.Clock.Set(cal); err != nil {
			glog.Warningf("station: set rtc: %v", err)
		}
		shared.LastSync = cal
	}), s.Servers...)
	if err != nil {
		glog.Warningf("station: time sync: %v", err)
	} else {
		glog.Infof("station: time synchronized to %s", resolved)
	}
	return
}
