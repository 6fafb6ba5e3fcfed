// Package input turns button state into the discrete events handled by the
// station: short presses of A and B and a long press of the power button.
package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/robotalks/envdash/pkg/msgs"
)

// Defaults of the event task.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultLongPress    = 2 * time.Second
)

// Event is a discrete input event.
type Event int

// Events
const (
	None Event = iota
	PressA
	PressB
	LongPress
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case PressA:
		return "press-a"
	case PressB:
		return "press-b"
	case LongPress:
		return "long-press"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// EventFromButton converts a remote Button command.
func EventFromButton(b *msgs.Button) Event {
	switch b.Kind {
	case msgs.ButtonA:
		return PressA
	case msgs.ButtonB:
		return PressB
	case msgs.ButtonLong:
		return LongPress
	}
	return None
}

// Button identifies a physical button.
type Button int

// Buttons
const (
	ButtonA Button = iota
	ButtonB
	ButtonPower
	numButtons
)

type buttonState struct {
	pressed    bool
	since      time.Time
	wasPressed bool
	longFired  bool
}

// Tracker records button edges between polls.
type Tracker struct {
	LongPress time.Duration

	buttons [numButtons]buttonState
}

// Update records the state of a button at time at.
func (t *Tracker) Update(b Button, pressed bool, at time.Time) {
	if b < 0 || b >= numButtons {
		return
	}
	s := &t.buttons[b]
	if pressed == s.pressed {
		return
	}
	s.pressed = pressed
	if pressed {
		s.since, s.wasPressed, s.longFired = at, true, false
	}
}

// Poll reports at most one event since the last poll. A press of A wins over
// B, and B over a long press. A long press fires once per hold.
func (t *Tracker) Poll(now time.Time) Event {
	a, b, p := &t.buttons[ButtonA], &t.buttons[ButtonB], &t.buttons[ButtonPower]
	ev := None
	switch {
	case a.wasPressed:
		ev = PressA
	case b.wasPressed:
		ev = PressB
	case p.pressed && !p.longFired && now.Sub(p.since) >= t.longPress():
		p.longFired = true
		ev = LongPress
	}
	a.wasPressed, b.wasPressed, p.wasPressed = false, false, false
	return ev
}

func (t *Tracker) longPress() time.Duration {
	if t.LongPress <= 0 {
		return DefaultLongPress
	}
	return t.LongPress
}

// Panel merges local buttons and injected remote events.
type Panel struct {
	lock     sync.Mutex
	tracker  Tracker
	now      func() time.Time
	injected chan Event
}

// NewPanel creates a Panel.
func NewPanel(longPress time.Duration) *Panel {
	return &Panel{
		tracker:  Tracker{LongPress: longPress},
		now:      time.Now,
		injected: make(chan Event, 4),
	}
}

// Set records the current state of a local button.
func (p *Panel) Set(b Button, pressed bool) {
	p.lock.Lock()
	p.tracker.Update(b, pressed, p.now())
	p.lock.Unlock()
}

// Inject queues an event from elsewhere. It reports false when the queue is
// full.
func (p *Panel) Inject(ev Event) bool {
	if ev == None {
		return true
	}
	select {
	case p.injected <- ev:
		return true
	default:
		return false
	}
}

// Poll returns the next event, None when nothing happened.
func (p *Panel) Poll() Event {
	select {
	case ev := <-p.injected:
		return ev
	default:
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.tracker.Poll(p.now())
}
