package input

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/envdash/pkg/input/device"
	"github.com/robotalks/envdash/pkg/msgs"
)

func TestTracker(t *testing.T) {
	t0 := time.Unix(1000, 0)
	at := func(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

	t.Run("short presses", func(t *testing.T) {
		var tr Tracker
		require.Equal(t, None, tr.Poll(at(0)))
		tr.Update(ButtonB, true, at(10))
		tr.Update(ButtonB, false, at(20))
		require.Equal(t, PressB, tr.Poll(at(500)))
		require.Equal(t, None, tr.Poll(at(1000)))
	})

	t.Run("a wins over b", func(t *testing.T) {
		var tr Tracker
		tr.Update(ButtonB, true, at(10))
		tr.Update(ButtonA, true, at(20))
		require.Equal(t, PressA, tr.Poll(at(500)))
		require.Equal(t, None, tr.Poll(at(1000)))
	})

	t.Run("long press fires once per hold", func(t *testing.T) {
		var tr Tracker
		tr.Update(ButtonPower, true, at(0))
		require.Equal(t, None, tr.Poll(at(500)))
		require.Equal(t, None, tr.Poll(at(1999)))
		require.Equal(t, LongPress, tr.Poll(at(2000)))
		require.Equal(t, None, tr.Poll(at(2500)))
		tr.Update(ButtonPower, false, at(2600))
		tr.Update(ButtonPower, true, at(3000))
		require.Equal(t, LongPress, tr.Poll(at(5000)))
	})

	t.Run("released before long press", func(t *testing.T) {
		tr := Tracker{LongPress: time.Second}
		tr.Update(ButtonPower, true, at(0))
		tr.Update(ButtonPower, false, at(900))
		require.Equal(t, None, tr.Poll(at(1500)))
	})

	t.Run("unknown button", func(t *testing.T) {
		var tr Tracker
		tr.Update(Button(7), true, at(0))
		require.Equal(t, None, tr.Poll(at(10)))
	})
}

func TestPanel(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewPanel(0)
	p.now = func() time.Time { return now }

	p.Set(ButtonA, true)
	require.True(t, p.Inject(LongPress))
	require.True(t, p.Inject(None))
	require.Equal(t, LongPress, p.Poll())
	require.Equal(t, PressA, p.Poll())
	require.Equal(t, None, p.Poll())

	for i := 0; i < cap(p.injected); i++ {
		require.True(t, p.Inject(PressB))
	}
	require.False(t, p.Inject(PressB))
}

func TestEventFromButton(t *testing.T) {
	require.Equal(t, PressA, EventFromButton(&msgs.Button{Kind: msgs.ButtonA}))
	require.Equal(t, PressB, EventFromButton(&msgs.Button{Kind: msgs.ButtonB}))
	require.Equal(t, LongPress, EventFromButton(&msgs.Button{Kind: msgs.ButtonLong}))
	require.Equal(t, None, EventFromButton(&msgs.Button{Kind: 9}))
	require.Equal(t, "long-press", LongPress.String())
}

type fakeButton struct {
	index   int
	pressed bool
}

func (e *fakeButton) IsInit() bool  { return false }
func (e *fakeButton) Index() int    { return e.index }
func (e *fakeButton) Pressed() bool { return e.pressed }

type fakeDevice struct {
	events    chan device.Event
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{events: make(chan device.Event), closed: make(chan struct{})}
}

func (d *fakeDevice) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

func (d *fakeDevice) Index() int       { return 0 }
func (d *fakeDevice) Name() string     { return "fake" }
func (d *fakeDevice) ButtonCount() int { return 3 }

func (d *fakeDevice) ReadEvent() (device.Event, error) {
	select {
	case ev := <-d.events:
		return ev, nil
	case <-d.closed:
		return nil, io.EOF
	}
}

func TestJoystick(t *testing.T) {
	panel := NewPanel(0)
	dev := newFakeDevice()
	js := NewJoystick(panel, 0, Mapping{A: 4, B: 5, Power: 6})
	js.open = func(int) (device.Device, error) { return dev, nil }
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- js.Run(ctx) }()

	dev.events <- &fakeButton{index: 1, pressed: true}
	dev.events <- &fakeButton{index: 5, pressed: true}
	dev.events <- &fakeButton{index: 5, pressed: false}
	require.Eventually(t, func() bool {
		return panel.Poll() == PressB
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("joystick not stopped")
	}
}

func TestRemote(t *testing.T) {
	panel := NewPanel(0)
	cmds := make(chan msgs.Message, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go (&Remote{Panel: panel, Commands: cmds}).Run(ctx)

	cmds <- &msgs.Status{}
	cmds <- &msgs.Button{Kind: msgs.ButtonLong}
	cmds <- &msgs.Button{Kind: msgs.ButtonA}
	require.Eventually(t, func() bool {
		return panel.Poll() == PressA
	}, time.Second, time.Millisecond)
	require.Equal(t, None, panel.Poll())
}

func TestRemotePowerOffAllowed(t *testing.T) {
	panel := NewPanel(0)
	cmds := make(chan msgs.Message, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go (&Remote{Panel: panel, Commands: cmds, AllowPowerOff: true}).Run(ctx)

	cmds <- &msgs.Button{Kind: msgs.ButtonLong}
	require.Eventually(t, func() bool {
		return panel.Poll() == LongPress
	}, time.Second, time.Millisecond)
}
