// Package timesync resolves the local time from network time servers and
// hands it to a Persister, usually a real-time clock.
package timesync

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Defaults for the status poll loop. The worst case before ErrTimeout is
// DefaultAttempts * DefaultPollInterval.
const (
	DefaultAttempts     = 50
	DefaultPollInterval = 100 * time.Millisecond

	// MaxServers is the most time servers one request can name.
	MaxServers = 3
)

var (
	// ErrOffline indicates there is no network connectivity.
	ErrOffline = errors.New("timesync: network not connected")
	// ErrTimeout indicates the request did not complete within the poll budget.
	ErrTimeout = errors.New("timesync: timed out")
	// ErrNoResponse indicates the client gave up before the poll budget ran
	// out, no server answered.
	ErrNoResponse = errors.New("timesync: no server answered")
	// ErrUnavailable indicates the client completed but has no local time.
	ErrUnavailable = errors.New("timesync: local time unavailable")
	// ErrServerCount indicates zero or more than MaxServers servers.
	ErrServerCount = errors.New("timesync: 1 to 3 servers required")
	// ErrTimezone indicates the timezone could not be parsed.
	ErrTimezone = errors.New("timesync: invalid timezone")
)

// Status is the progress of a time request.
type Status int

// Statuses
const (
	StatusReset Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusReset:
		return "reset"
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Client starts asynchronous time requests.
type Client interface {
	// Start begins a request against servers in order.
	Start(loc *time.Location, servers []string)
	// Status reports progress of the last request.
	Status() Status
	// LocalTime returns the resolved time in the requested location.
	LocalTime() (time.Time, bool)
}

// Network reports connectivity.
type Network interface {
	Connected() bool
}

// NetworkFunc is the func form of Network.
type NetworkFunc func() bool

// Connected implements Network.
func (f NetworkFunc) Connected() bool { return f() }

// Persister receives a resolved calendar time. Failures to store it are the
// Persister's own business.
type Persister interface {
	Persist(CalendarTime)
}

// PersistFunc is the func form of Persister.
type PersistFunc func(CalendarTime)

// Persist implements Persister.
func (f PersistFunc) Persist(c CalendarTime) { f(c) }

// Synchronizer runs one bounded time request per call.
type Synchronizer struct {
	Network      Network
	Client       Client
	Attempts     int
	PollInterval time.Duration

	sleep func(time.Duration)
}

// New creates a Synchronizer with the default poll budget.
func New(network Network, client Client) *Synchronizer {
	return &Synchronizer{
		Network:      network,
		Client:       client,
		Attempts:     DefaultAttempts,
		PollInterval: DefaultPollInterval,
		sleep:        time.Sleep,
	}
}

// Synchronize requests the time for tz from 1 to 3 servers and persists the
// result. It blocks for at most Attempts*PollInterval.
func (s *Synchronizer) Synchronize(tz string, p Persister, servers ...string) error {
	if len(servers) == 0 || len(servers) > MaxServers {
		return ErrServerCount
	}
	if s.Network != nil && !s.Network.Connected() {
		return ErrOffline
	}
	loc, err := ParseZone(tz)
	if err != nil {
		return err
	}

	s.Client.Start(loc, servers)
	switch s.wait() {
	case StatusCompleted:
	case StatusReset:
		return ErrNoResponse
	default:
		return ErrTimeout
	}
	now, ok := s.Client.LocalTime()
	if !ok {
		return ErrUnavailable
	}
	cal := FromTime(now.In(loc))
	glog.V(2).Infof("time synchronized: %s (%s)", cal, tz)
	p.Persist(cal)
	return nil
}

// wait polls until the request completes or falls back to StatusReset,
// returning the last status seen.
func (s *Synchronizer) wait() Status {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	sleep := s.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	st := StatusInProgress
	for i := 0; i < attempts; i++ {
		sleep(s.PollInterval)
		if st = s.Client.Status(); st != StatusInProgress {
			return st
		}
	}
	return st
}
