// Package display renders the dashboard as text frames and shows them on
// one or more surfaces.
package display

import (
	"bufio"
	"io"
	"sync"

	fx "github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/msgs"
)

// Surface shows frames.
type Surface interface {
	// Refresh fully clears the surface before the next frame.
	Refresh() error
	// Show draws a frame, possibly buffered.
	Show(*msgs.Frame) error
	// Flush blocks until everything shown is visible.
	Flush() error
}

const (
	ansiClear = "\x1b[2J\x1b[H"
	ansiHome  = "\x1b[H\x1b[J"
)

// Terminal draws frames on an ANSI terminal.
type Terminal struct {
	lock sync.Mutex
	w    *bufio.Writer
}

// NewTerminal creates a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: bufio.NewWriter(w)}
}

// Refresh implements Surface.
func (t *Terminal) Refresh() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, err := t.w.WriteString(ansiClear); err != nil {
		return err
	}
	return t.w.Flush()
}

// Show implements Surface.
func (t *Terminal) Show(frame *msgs.Frame) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	seq := ansiHome
	if frame.Refresh {
		seq = ansiClear
	}
	if _, err := t.w.WriteString(seq); err != nil {
		return err
	}
	for _, line := range frame.Lines {
		if _, err := t.w.WriteString(line + "\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements Surface.
func (t *Terminal) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.w.Flush()
}

// Broadcaster publishes events, see comm.Hub.
type Broadcaster interface {
	Broadcast(msgs.Message) error
}

// Mirror publishes frames to remote viewers.
type Mirror struct {
	Broadcaster Broadcaster

	lock    sync.Mutex
	refresh bool
}

// NewMirror creates a Mirror.
func NewMirror(b Broadcaster) *Mirror {
	return &Mirror{Broadcaster: b}
}

// Refresh implements Surface. The next frame is marked for a full redraw.
func (m *Mirror) Refresh() error {
	m.lock.Lock()
	m.refresh = true
	m.lock.Unlock()
	return nil
}

// Show implements Surface.
func (m *Mirror) Show(frame *msgs.Frame) error {
	m.lock.Lock()
	refresh := m.refresh || frame.Refresh
	m.refresh = false
	m.lock.Unlock()
	return m.Broadcaster.Broadcast(&msgs.Frame{Lines: frame.Lines, Refresh: refresh})
}

// Flush implements Surface.
func (m *Mirror) Flush() error {
	return nil
}

// Multi shows frames on all surfaces.
type Multi []Surface

// Refresh implements Surface.
func (m Multi) Refresh() error {
	return m.each(Surface.Refresh)
}

// Show implements Surface.
func (m Multi) Show(frame *msgs.Frame) error {
	return m.each(func(s Surface) error { return s.Show(frame) })
}

// Flush implements Surface.
func (m Multi) Flush() error {
	return m.each(Surface.Flush)
}

func (m Multi) each(fn func(Surface) error) error {
	var errs fx.AggregatedError
	for _, s := range m {
		errs.Add(fn(s))
	}
	return errs.Aggregate()
}
