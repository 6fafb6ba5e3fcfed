// Package coord arbitrates the shared peripherals (sensor bus, real-time
// clock, display) between the tasks of the station.
//
// There is exactly one lock for all of them. Finer locks would need a global
// acquisition order to stay deadlock free; one lock needs none.
package coord

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/timesync"
)

// Shared is the mutable state reachable only while holding the lock.
type Shared struct {
	// LastSync is the calendar time of the last successful time sync,
	// timesync.Never until the first one.
	LastSync timesync.CalendarTime
}

// Opts configures a Coordinator.
type Opts struct {
	// LockFile, when set, is flock(2)ed for every critical section so other
	// processes touching the same bus are excluded as well.
	LockFile string
}

// Coordinator is a binary lock. Waiters are served in arrival order.
type Coordinator struct {
	sem    chan struct{}
	shared Shared
	file   *fileLock

	holderLock sync.Mutex
	holder     string
}

// New creates a Coordinator. It fails only when the lock file cannot be
// opened; the caller is expected to continue without the event task.
func New(opts *Opts) (*Coordinator, error) {
	c := &Coordinator{
		sem:    make(chan struct{}, 1),
		shared: Shared{LastSync: timesync.Never},
	}
	if opts != nil && opts.LockFile != "" {
		f, err := openFileLock(opts.LockFile)
		if err != nil {
			return nil, fmt.Errorf("coord: lock file %s: %w", opts.LockFile, err)
		}
		c.file = f
	}
	return c, nil
}

// Acquire blocks until the lock is available and returns the shared state.
// The pointer must not be used after Release.
func (c *Coordinator) Acquire(holder string) *Shared {
	c.sem <- struct{}{}
	return c.acquired(holder)
}

// AcquireContext is Acquire giving up when ctx is done.
func (c *Coordinator) AcquireContext(ctx context.Context, holder string) (*Shared, error) {
	select {
	case c.sem <- struct{}{}:
		return c.acquired(holder), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) acquired(holder string) *Shared {
	if c.file != nil {
		if err := c.file.lock(); err != nil {
			glog.Warningf("coord: flock: %v", err)
		}
	}
	c.setHolder(holder)
	glog.V(4).Infof("coord: acquired by %s", holder)
	return &c.shared
}

// Release gives the lock back. Releasing an unheld lock panics.
func (c *Coordinator) Release() {
	holder := c.setHolder("")
	if c.file != nil {
		if err := c.file.unlock(); err != nil {
			glog.Warningf("coord: funlock: %v", err)
		}
	}
	select {
	case <-c.sem:
		glog.V(4).Infof("coord: released by %s", holder)
	default:
		panic("coord: release of unheld lock")
	}
}

// Do runs fn holding the lock and releases it on every return path.
func (c *Coordinator) Do(holder string, fn func(*Shared) error) error {
	shared := c.Acquire(holder)
	defer c.Release()
	return fn(shared)
}

// DoContext is Do giving up when ctx is done before the lock is acquired.
func (c *Coordinator) DoContext(ctx context.Context, holder string, fn func(*Shared) error) error {
	shared, err := c.AcquireContext(ctx, holder)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(shared)
}

// Holder names the current holder, empty when free.
func (c *Coordinator) Holder() string {
	c.holderLock.Lock()
	defer c.holderLock.Unlock()
	return c.holder
}

// Close releases the lock file.
func (c *Coordinator) Close() error {
	if c.file != nil {
		return c.file.close()
	}
	return nil
}

func (c *Coordinator) setHolder(holder string) (prev string) {
	c.holderLock.Lock()
	prev, c.holder = c.holder, holder
	c.holderLock.Unlock()
	return
}
