package comm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/envdash/pkg/framework"
	"github.com/robotalks/envdash/pkg/msgs"
)

// Queue sizes.
const (
	// DefaultCommandQueueSize is the number of buffered remote commands.
	DefaultCommandQueueSize = 4
	// DefaultPeerQueueSize is the number of events buffered per peer.
	DefaultPeerQueueSize = 16
)

// ErrPeerBusy indicates an event was dropped for a peer not keeping up.
var ErrPeerBusy = errors.New("comm: peer busy")

// Hub fans events out to every attached pipe and collects commands from
// all of them into one channel. Broadcast never blocks on a peer: each peer
// has its own queue drained by a writer goroutine.
type Hub struct {
	PeerQueueSize int

	lock  sync.RWMutex
	peers map[*Pipe]*peer
	cmdCh chan msgs.Message
}

type peer struct {
	name  string
	outCh chan []byte
}

// NewHub creates a Hub buffering up to queueSize commands.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultCommandQueueSize
	}
	return &Hub{
		PeerQueueSize: DefaultPeerQueueSize,
		peers:         make(map[*Pipe]*peer),
		cmdCh:         make(chan msgs.Message, queueSize),
	}
}

// Commands receives commands from all peers.
func (h *Hub) Commands() <-chan msgs.Message {
	return h.cmdCh
}

// Broadcast queues an event for all peers. A peer whose queue is full
// misses the event and is reported with ErrPeerBusy.
func (h *Hub) Broadcast(msg msgs.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		return msgs.ErrWrongKind
	}
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	var errs fx.AggregatedError
	h.lock.RLock()
	for _, p := range h.peers {
		select {
		case p.outCh <- pkt:
		default:
			errs.Add(fmt.Errorf("%w: %s", ErrPeerBusy, p.name))
		}
	}
	h.lock.RUnlock()
	return errs.Aggregate()
}

// Serve attaches rw as a peer until it is closed or ctx is done.
func (h *Hub) Serve(ctx context.Context, name string, rw PacketReadWriter) error {
	size := h.PeerQueueSize
	if size <= 0 {
		size = DefaultPeerQueueSize
	}
	pipe := NewPipe(rw, h)
	p := &peer{name: name, outCh: make(chan []byte, size)}
	h.lock.Lock()
	h.peers[pipe] = p
	h.lock.Unlock()
	glog.V(2).Infof("comm: peer %s attached", name)

	done := make(chan struct{})
	go p.write(pipe, done)
	defer func() {
		h.lock.Lock()
		delete(h.peers, pipe)
		h.lock.Unlock()
		close(done)
		glog.V(2).Infof("comm: peer %s detached", name)
	}()
	return pipe.Run(ctx)
}

func (p *peer) write(pipe *Pipe, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case pkt := <-p.outCh:
			if err := pipe.WritePacket(pkt); err != nil {
				glog.V(2).Infof("comm: peer %s: %v", p.name, err)
			}
		}
	}
}

// Peers lists names of attached peers.
func (h *Hub) Peers() []string {
	h.lock.RLock()
	names := make([]string, 0, len(h.peers))
	for _, p := range h.peers {
		names = append(names, p.name)
	}
	h.lock.RUnlock()
	sort.Strings(names)
	return names
}

// HandleMessage implements Handler. Commands are queued, dropped when the
// queue is full. Events from peers are ignored.
func (h *Hub) HandleMessage(ctx context.Context, msg msgs.Message, typed *msgs.Typed) error {
	if !typed.IsCommand() {
		glog.V(4).Infof("comm: ignore event %x", typed.TypeId)
		return nil
	}
	select {
	case h.cmdCh <- msg:
	default:
		glog.Warningf("comm: command queue full, drop %x", typed.TypeId)
	}
	return nil
}
