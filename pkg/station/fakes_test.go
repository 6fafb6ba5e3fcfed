package station

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robotalks/envdash/pkg/msgs"
	"github.com/robotalks/envdash/pkg/sht3x"
	"github.com/robotalks/envdash/pkg/timesync"
)

// overlapCheck detects peripheral operations running concurrently.
type overlapCheck struct {
	inside   int32
	overlaps int32
}

func (p *overlapCheck) enter() {
	if atomic.AddInt32(&p.inside, 1) > 1 {
		atomic.AddInt32(&p.overlaps, 1)
	}
	time.Sleep(100 * time.Microsecond)
}

func (p *overlapCheck) leave() {
	atomic.AddInt32(&p.inside, -1)
}

func (p *overlapCheck) touch() {
	if p != nil {
		p.enter()
		p.leave()
	}
}

type fakeSensor struct {
	check   *overlapCheck
	lock    sync.Mutex
	errs    []error
	values  []sht3x.Reading
	reading sht3x.Reading
	reads   int
}

func (s *fakeSensor) Read() error {
	s.check.touch()
	s.lock.Lock()
	defer s.lock.Unlock()
	s.reads++
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	if err != nil {
		return err
	}
	if len(s.values) > 0 {
		s.reading, s.values = s.values[0], s.values[1:]
	}
	return nil
}

func (s *fakeSensor) Reading() sht3x.Reading {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.reading
}

type fakeClock struct {
	check *overlapCheck
	lock  sync.Mutex
	now   timesync.CalendarTime
	err   error
	sets  []timesync.CalendarTime
}

func (c *fakeClock) Now() (timesync.CalendarTime, error) {
	c.check.touch()
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now, c.err
}

func (c *fakeClock) Set(cal timesync.CalendarTime) error {
	c.check.touch()
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = cal
	c.sets = append(c.sets, cal)
	return nil
}

type fakeSynchronizer struct {
	lock   sync.Mutex
	result timesync.CalendarTime
	err    error
	calls  int
}

func (s *fakeSynchronizer) Synchronize(tz string, p timesync.Persister, servers ...string) error {
	s.lock.Lock()
	s.calls++
	result, err := s.result, s.err
	s.lock.Unlock()
	if err != nil {
		return err
	}
	p.Persist(result)
	return nil
}

func (s *fakeSynchronizer) count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls
}

type recordSurface struct {
	check  *overlapCheck
	lock   sync.Mutex
	ops    []string
	frames []*msgs.Frame
}

func (s *recordSurface) record(op string) {
	s.check.touch()
	s.lock.Lock()
	s.ops = append(s.ops, op)
	s.lock.Unlock()
}

func (s *recordSurface) Refresh() error {
	s.record("refresh")
	return nil
}

func (s *recordSurface) Show(frame *msgs.Frame) error {
	s.record("show")
	s.lock.Lock()
	s.frames = append(s.frames, frame)
	s.lock.Unlock()
	return nil
}

func (s *recordSurface) Flush() error {
	s.record("flush")
	return nil
}

func (s *recordSurface) lastFrame() *msgs.Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *recordSurface) opList() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.ops...)
}

type recordPublisher struct {
	lock sync.Mutex
	msgs []msgs.Message
}

func (p *recordPublisher) Broadcast(msg msgs.Message) error {
	p.lock.Lock()
	p.msgs = append(p.msgs, msg)
	p.lock.Unlock()
	return nil
}

type fixedBattery int

func (b fixedBattery) Millivolts() (int, error) {
	if b < 0 {
		return 0, errors.New("no battery")
	}
	return int(b), nil
}

type iteration struct {
	ctx   context.Context
	count uint64
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return time.Now() }
func (it *iteration) Count() uint64            { return it.count }

// stalledPeer never completes a write until closed.
type stalledPeer struct {
	writes    int32
	done      chan struct{}
	closeOnce sync.Once
}

func newStalledPeer() *stalledPeer {
	return &stalledPeer{done: make(chan struct{})}
}

func (p *stalledPeer) ReadPacket() ([]byte, error) {
	<-p.done
	return nil, io.EOF
}

func (p *stalledPeer) WritePacket([]byte) error {
	atomic.AddInt32(&p.writes, 1)
	<-p.done
	return io.ErrClosedPipe
}

func (p *stalledPeer) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
