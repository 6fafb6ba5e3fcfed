package timesync

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	completeAfter int // polls before completion, <0 never
	resetAt       int // poll reporting StatusReset, 0 never
	noTime        bool
	now           time.Time

	started int
	loc     *time.Location
	servers []string
	polls   int
}

func (c *fakeClient) Start(loc *time.Location, servers []string) {
	c.started++
	c.loc, c.servers = loc, servers
}

func (c *fakeClient) Status() Status {
	c.polls++
	if c.resetAt > 0 && c.polls >= c.resetAt {
		return StatusReset
	}
	if c.completeAfter >= 0 && c.polls > c.completeAfter {
		return StatusCompleted
	}
	return StatusInProgress
}

func (c *fakeClient) LocalTime() (time.Time, bool) {
	if c.noTime {
		return time.Time{}, false
	}
	return c.now, true
}

type recorder struct {
	got []CalendarTime
}

func (r *recorder) Persist(c CalendarTime) { r.got = append(r.got, c) }

func newTestSync(online bool, client Client, sleeps *[]time.Duration) *Synchronizer {
	s := New(NetworkFunc(func() bool { return online }), client)
	s.sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	return s
}

func TestSynchronizeSuccess(t *testing.T) {
	now := time.Date(2024, time.March, 9, 14, 5, 7, 0, time.UTC)
	client := &fakeClient{completeAfter: 3, now: now}
	var sleeps []time.Duration
	var rec recorder
	s := newTestSync(true, client, &sleeps)

	require.NoError(t, s.Synchronize("JST-9", &rec, "ntp.nict.jp"))
	require.Equal(t, 1, client.started)
	require.Equal(t, []string{"ntp.nict.jp"}, client.servers)
	require.Len(t, sleeps, 4)
	require.Equal(t, []CalendarTime{{
		Weekday: int(time.Saturday),
		Month:   3,
		Day:     9,
		Year:    2024,
		Hour:    23,
		Minute:  5,
		Second:  7,
	}}, rec.got)
}

func TestSynchronizeTimeout(t *testing.T) {
	client := &fakeClient{completeAfter: -1}
	var sleeps []time.Duration
	var rec recorder
	s := newTestSync(true, client, &sleeps)

	err := s.Synchronize("UTC0", &rec, "a", "b", "c")
	require.True(t, errors.Is(err, ErrTimeout))
	require.Equal(t, DefaultAttempts, client.polls)
	require.Len(t, sleeps, DefaultAttempts)
	for _, d := range sleeps {
		require.Equal(t, DefaultPollInterval, d)
	}
	require.Empty(t, rec.got)
}

func TestSynchronizeStopsWhenAllServersFail(t *testing.T) {
	client := &fakeClient{completeAfter: -1, resetAt: 3}
	var sleeps []time.Duration
	var rec recorder
	s := newTestSync(true, client, &sleeps)

	require.ErrorIs(t, s.Synchronize("UTC0", &rec, "a", "b"), ErrNoResponse)
	require.Equal(t, 3, client.polls)
	require.Len(t, sleeps, 3)
	require.Empty(t, rec.got)
}

func TestSynchronizeCustomBudget(t *testing.T) {
	client := &fakeClient{completeAfter: -1}
	var sleeps []time.Duration
	s := newTestSync(true, client, &sleeps)
	s.Attempts = 7
	require.Equal(t, ErrTimeout, s.Synchronize("UTC0", &recorder{}, "a"))
	require.Equal(t, 7, client.polls)
}

func TestSynchronizeFailures(t *testing.T) {
	testCases := []struct {
		name    string
		online  bool
		tz      string
		servers []string
		client  *fakeClient
		expect  error
	}{
		{"offline", false, "UTC0", []string{"a"}, &fakeClient{}, ErrOffline},
		{"no servers", true, "UTC0", nil, &fakeClient{}, ErrServerCount},
		{"too many servers", true, "UTC0", []string{"a", "b", "c", "d"}, &fakeClient{}, ErrServerCount},
		{"bad zone", true, "Nowhere/Atlantis", []string{"a"}, &fakeClient{}, ErrTimezone},
		{"no local time", true, "UTC0", []string{"a"}, &fakeClient{noTime: true}, ErrUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sleeps []time.Duration
			var rec recorder
			err := newTestSync(tc.online, tc.client, &sleeps).Synchronize(tc.tz, &rec, tc.servers...)
			require.True(t, errors.Is(err, tc.expect), "got %v", err)
			require.Empty(t, rec.got)
		})
	}
}

func TestOfflineDoesNotStart(t *testing.T) {
	client := &fakeClient{}
	var sleeps []time.Duration
	require.Equal(t, ErrOffline, newTestSync(false, client, &sleeps).Synchronize("UTC0", &recorder{}, "a"))
	require.Zero(t, client.started)
	require.Empty(t, sleeps)
}

func TestNTPClient(t *testing.T) {
	var mu sync.Mutex
	var asked []string
	c := NewNTPClient()
	c.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	c.query = func(host string, opts ntp.QueryOptions) (*ntp.Response, error) {
		mu.Lock()
		asked = append(asked, host)
		mu.Unlock()
		if host == "down" {
			return nil, errors.New("unreachable")
		}
		return &ntp.Response{
			Stratum:       2,
			Leap:          ntp.LeapNoWarning,
			ClockOffset:   90 * time.Minute,
			RTT:           time.Millisecond,
			RootDelay:     time.Millisecond,
			ReferenceID:   1,
			Time:          c.now(),
			ReferenceTime: c.now(),
		}, nil
	}
	require.Equal(t, StatusReset, c.Status())
	_, ok := c.LocalTime()
	require.False(t, ok)

	loc := time.FixedZone("JST", 9*3600)
	c.Start(loc, []string{"down", "up"})
	require.Eventually(t, func() bool { return c.Status() == StatusCompleted }, time.Second, time.Millisecond)
	got, ok := c.LocalTime()
	require.True(t, ok)
	require.Equal(t, 10, got.Hour())
	require.Equal(t, 30, got.Minute())
	mu.Lock()
	require.Equal(t, []string{"down", "up"}, asked)
	mu.Unlock()
}

func TestNTPClientAllDown(t *testing.T) {
	c := NewNTPClient()
	c.query = func(string, ntp.QueryOptions) (*ntp.Response, error) {
		return nil, errors.New("unreachable")
	}
	c.Start(time.UTC, []string{"a", "b"})
	require.Eventually(t, func() bool { return c.Status() == StatusReset }, time.Second, time.Millisecond)
	_, ok := c.LocalTime()
	require.False(t, ok)
}
