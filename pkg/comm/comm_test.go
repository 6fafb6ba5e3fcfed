package comm

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/envdash/pkg/msgs"
)

type chanPacketRW struct {
	readCh  chan []byte
	writeCh chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newChanPacketRW() *chanPacketRW {
	return &chanPacketRW{
		readCh:  make(chan []byte, 4),
		writeCh: make(chan []byte, 4),
		done:    make(chan struct{}),
	}
}

func (c *chanPacketRW) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.readCh:
		return pkt, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *chanPacketRW) WritePacket(pkt []byte) error {
	c.writeCh <- pkt
	return nil
}

func (c *chanPacketRW) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *chanPacketRW) feed(t *testing.T, msg msgs.Message) {
	typed, err := msgs.TypedFrom(msg)
	require.NoError(t, err)
	pkt, err := typed.Encode()
	require.NoError(t, err)
	c.readCh <- pkt
}

func (c *chanPacketRW) next(t *testing.T) (*msgs.Typed, msgs.Message) {
	select {
	case pkt := <-c.writeCh:
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		msg, err := typed.Decode()
		require.NoError(t, err)
		return typed, msg
	case <-time.After(time.Second):
		t.Fatal("no packet written")
	}
	return nil, nil
}

func TestPipeSend(t *testing.T) {
	rw := newChanPacketRW()
	pipe := NewPipe(rw, nil)

	require.NoError(t, pipe.SendEvent(&msgs.Status{Humidity: 50}))
	typed, msg := rw.next(t)
	require.True(t, typed.IsEvent())
	require.Equal(t, uint32(50), msg.(*msgs.Status).Humidity)

	require.ErrorIs(t, pipe.SendEvent(&msgs.Button{Kind: msgs.ButtonA}), msgs.ErrWrongKind)
	require.ErrorIs(t, pipe.SendCommand(&msgs.Status{}), msgs.ErrWrongKind)

	require.NoError(t, pipe.SendCommand(&msgs.Button{Kind: msgs.ButtonA}))
	typed, _ = rw.next(t)
	require.Equal(t, uint32(1), typed.Sequence)
	require.NoError(t, pipe.SendCommand(&msgs.Button{Kind: msgs.ButtonB}))
	typed, msg = rw.next(t)
	require.Equal(t, uint32(2), typed.Sequence)
	require.Equal(t, msgs.ButtonB, msg.(*msgs.Button).Kind)
}

func TestPipeRun(t *testing.T) {
	rw := newChanPacketRW()
	received := make(chan msgs.Message, 4)
	pipe := NewPipe(rw, HandleFunc(func(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
		received <- msg
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- pipe.Run(ctx) }()

	rw.readCh <- []byte{0xff, 0xff}
	rw.feed(t, &msgs.Button{Kind: msgs.ButtonLong})
	select {
	case msg := <-received:
		require.Equal(t, msgs.ButtonLong, msg.(*msgs.Button).Kind)
	case <-time.After(time.Second):
		t.Fatal("message not dispatched")
	}

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pipe not stopped")
	}
}

func TestPipeRunEOF(t *testing.T) {
	rw := newChanPacketRW()
	rw.Close()
	require.NoError(t, NewPipe(rw, nil).Run(context.Background()))
}

func TestHub(t *testing.T) {
	hub := NewHub(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	peers := []*chanPacketRW{newChanPacketRW(), newChanPacketRW()}
	var wg sync.WaitGroup
	for i, rw := range peers {
		wg.Add(1)
		go func(name string, rw *chanPacketRW) {
			defer wg.Done()
			hub.Serve(ctx, name, rw)
		}(string(rune('a'+i)), rw)
	}
	require.Eventually(t, func() bool {
		return len(hub.Peers()) == 2
	}, time.Second, time.Millisecond)
	require.Equal(t, []string{"a", "b"}, hub.Peers())

	t.Run("broadcast", func(t *testing.T) {
		require.NoError(t, hub.Broadcast(&msgs.Frame{Lines: []string{"hello"}}))
		for _, rw := range peers {
			_, msg := rw.next(t)
			require.Equal(t, []string{"hello"}, msg.(*msgs.Frame).Lines)
		}
		require.ErrorIs(t, hub.Broadcast(&msgs.Button{}), msgs.ErrWrongKind)
	})

	t.Run("commands", func(t *testing.T) {
		peers[1].feed(t, &msgs.Status{})
		peers[1].feed(t, &msgs.Button{Kind: msgs.ButtonA})
		select {
		case msg := <-hub.Commands():
			require.Equal(t, msgs.ButtonA, msg.(*msgs.Button).Kind)
		case <-time.After(time.Second):
			t.Fatal("command not queued")
		}
	})

	t.Run("drop when full", func(t *testing.T) {
		peers[0].feed(t, &msgs.Button{Kind: msgs.ButtonA})
		peers[0].feed(t, &msgs.Button{Kind: msgs.ButtonB})
		peers[0].feed(t, &msgs.Button{Kind: msgs.ButtonLong})
		require.Eventually(t, func() bool {
			return len(peers[0].readCh) == 0
		}, time.Second, time.Millisecond)
		msg := <-hub.Commands()
		require.Equal(t, msgs.ButtonA, msg.(*msgs.Button).Kind)
	})

	peers[0].Close()
	require.Eventually(t, func() bool {
		return len(hub.Peers()) == 1
	}, time.Second, time.Millisecond)
	cancel()
	wg.Wait()
	require.Empty(t, hub.Peers())
}

type stalledRW struct {
	writes    int32
	done      chan struct{}
	closeOnce sync.Once
}

func (s *stalledRW) ReadPacket() ([]byte, error) {
	<-s.done
	return nil, io.EOF
}

func (s *stalledRW) WritePacket([]byte) error {
	atomic.AddInt32(&s.writes, 1)
	<-s.done
	return io.ErrClosedPipe
}

func (s *stalledRW) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func TestHubSlowPeer(t *testing.T) {
	hub := NewHub(0)
	hub.PeerQueueSize = 2
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stalled := &stalledRW{done: make(chan struct{})}
	served := make(chan error, 1)
	go func() { served <- hub.Serve(ctx, "stalled", stalled) }()
	require.Eventually(t, func() bool {
		return len(hub.Peers()) == 1
	}, time.Second, time.Millisecond)

	start := time.Now()
	var busy error
	for i := 0; i < 10; i++ {
		if err := hub.Broadcast(&msgs.Frame{Lines: []string{"tick"}}); err != nil {
			busy = err
		}
	}
	require.Less(t, time.Since(start), time.Second)
	require.ErrorIs(t, busy, ErrPeerBusy)
	require.Contains(t, busy.Error(), "stalled")
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&stalled.writes) == 1
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-served:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("peer not detached")
	}
	require.Empty(t, hub.Peers())
}
