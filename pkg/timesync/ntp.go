package timesync

import (
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/golang/glog"
)

// DefaultQueryTimeout bounds each server query.
const DefaultQueryTimeout = 2 * time.Second

// NTPClient implements Client by querying NTP servers in the background and
// keeping the offset of the first valid answer.
type NTPClient struct {
	Timeout time.Duration

	query func(host string, opts ntp.QueryOptions) (*ntp.Response, error)
	now   func() time.Time

	mu     sync.Mutex
	gen    uint64
	status Status
	offset time.Duration
	loc    *time.Location
}

// NewNTPClient creates an NTPClient.
func NewNTPClient() *NTPClient {
	return &NTPClient{
		Timeout: DefaultQueryTimeout,
		query:   ntp.QueryWithOptions,
		now:     time.Now,
	}
}

// Start implements Client. A newer request supersedes a running one.
func (c *NTPClient) Start(loc *time.Location, servers []string) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.status, c.loc = StatusInProgress, loc
	c.mu.Unlock()

	hosts := append([]string(nil), servers...)
	go c.run(gen, hosts)
}

func (c *NTPClient) run(gen uint64, hosts []string) {
	for _, host := range hosts {
		resp, err := c.query(host, ntp.QueryOptions{Timeout: c.Timeout})
		if err == nil {
			err = resp.Validate()
		}
		if err != nil {
			glog.Warningf("ntp %s: %v", host, err)
			continue
		}
		glog.V(2).Infof("ntp %s: offset %v", host, resp.ClockOffset)
		c.finish(gen, StatusCompleted, resp.ClockOffset)
		return
	}
	c.finish(gen, StatusReset, 0)
}

func (c *NTPClient) finish(gen uint64, status Status, offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.status, c.offset = status, offset
}

// Status implements Client.
func (c *NTPClient) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LocalTime implements Client.
func (c *NTPClient) LocalTime() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusCompleted {
		return time.Time{}, false
	}
	loc := c.loc
	if loc == nil {
		loc = time.Local
	}
	return c.now().Add(c.offset).In(loc), true
}
