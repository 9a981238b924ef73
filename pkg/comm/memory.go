package comm

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// inboxSize bounds the number of envelopes waiting for a party.
const inboxSize = 64

// MemoryNetwork connects parties running in the same process.
// Envelopes are CBOR encoded as they would be on a real transport.
type MemoryNetwork struct {
	mtx     sync.Mutex
	inboxes map[party.ID]chan []byte
	failing map[party.ID]bool
}

// NewMemoryNetwork returns an empty network. Parties join it with Open.
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{
		inboxes: make(map[party.ID]chan []byte, 3),
		failing: make(map[party.ID]bool),
	}
}

// Fail makes every later Open for party id fail with ErrBootstrap.
func (n *MemoryNetwork) Fail(id party.ID) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.failing[id] = true
}

// Open implements Fabric.
func (n *MemoryNetwork) Open(ctx context.Context, opts Options) (Channel, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()
	id := opts.PartyID
	if n.failing[id] {
		return nil, fmt.Errorf("%w: party %s cannot join", ErrBootstrap, id)
	}
	if _, ok := n.inboxes[id]; ok {
		return nil, fmt.Errorf("%w: party %s already joined", ErrBootstrap, id)
	}
	inbox := make(chan []byte, inboxSize)
	n.inboxes[id] = inbox
	return &memoryChannel{
		network: n,
		self:    id,
		ssid:    opts.SSID(),
		policy:  opts.policy(),
		inbox:   inbox,
		done:    make(chan struct{}),
		seq:     make(map[[2]party.ID]uint32),
		pending: make(map[pendingKey]*Message),
	}, nil
}

// deliver hands raw to the inbox of party to without blocking.
// The recipient owns raw from then on and clears it once decoded.
func (n *MemoryNetwork) deliver(to party.ID, raw []byte) error {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	inbox, ok := n.inboxes[to]
	if !ok {
		return fmt.Errorf("%w: party %s is not connected", ErrPeerUnreachable, to)
	}
	select {
	case inbox <- raw:
		return nil
	default:
		return fmt.Errorf("%w: inbox of party %s is full", ErrPeerUnreachable, to)
	}
}

// Drop disconnects party id: envelopes sent to it fail with ErrPeerUnreachable.
func (n *MemoryNetwork) Drop(id party.ID) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	delete(n.inboxes, id)
}

type pendingKey struct {
	from party.ID
	kind Kind
	seq  uint32
}

type memoryChannel struct {
	network *MemoryNetwork
	self    party.ID
	ssid    []byte
	policy  Policy
	inbox   chan []byte

	mtx       sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	// seq counts the transfers started for each (from, to) pair.
	seq map[[2]party.ID]uint32
	// pending holds envelopes which arrived before they were expected.
	pending map[pendingKey]*Message
}

func (c *memoryChannel) Self() party.ID { return c.self }

// Transfer implements Channel.
func (c *memoryChannel) Transfer(ctx context.Context, from, to party.ID, local []byte) ([]byte, error) {
	if !from.Active() || !to.Active() || from == to {
		return nil, fmt.Errorf("comm: invalid transfer %s -> %s", from, to)
	}
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.self != from && c.self != to {
		return local, nil
	}
	pair := [2]party.ID{from, to}
	seq := c.seq[pair]
	c.seq[pair]++

	if c.self == from {
		return local, c.send(ctx, to, seq, local)
	}
	return c.receive(ctx, from, seq)
}

// send delivers local to `to` and waits for its acknowledgement.
func (c *memoryChannel) send(ctx context.Context, to party.ID, seq uint32, local []byte) error {
	msg := Message{SSID: c.ssid, From: c.self, To: to, Kind: KindData, Seq: seq, Data: local}
	raw, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("comm: encode %s: %w", msg, err)
	}
	defer clear(raw)
	return c.policy.Do(ctx, func(ctx context.Context) error {
		if err := c.network.deliver(to, bytes.Clone(raw)); err != nil {
			return err
		}
		reply, err := c.next(ctx, to, seq, KindAck, KindReject)
		if err != nil {
			return err
		}
		if reply.Kind == KindReject {
			return fmt.Errorf("%w: %s refused transfer #%d: %s", ErrPeerRejected, to, seq, reply.Data)
		}
		return nil
	})
}

// receive waits for the value sent by `from` and acknowledges it.
func (c *memoryChannel) receive(ctx context.Context, from party.ID, seq uint32) ([]byte, error) {
	var msg *Message
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		msg, err = c.next(ctx, from, seq, KindData)
		return err
	})
	if err != nil {
		return nil, err
	}

	reply := Message{SSID: c.ssid, From: c.self, To: from, Kind: KindAck, Seq: seq}
	var result error
	if len(msg.Data) == 0 {
		reply.Kind = KindReject
		reply.Data = []byte("empty payload")
		result = fmt.Errorf("%w: empty transfer #%d from %s", ErrMalformedPayload, seq, from)
	}
	raw, err := reply.Encode()
	if err != nil {
		return nil, fmt.Errorf("comm: encode %s: %w", reply, err)
	}
	if err = c.network.deliver(from, raw); err != nil {
		return nil, err
	}
	if result != nil {
		return nil, result
	}
	return msg.Data, nil
}

// next returns the first envelope from `from` with the given seq and one of kinds.
// Envelopes for other transfers are kept until they are requested.
func (c *memoryChannel) next(ctx context.Context, from party.ID, seq uint32, kinds ...Kind) (*Message, error) {
	for _, kind := range kinds {
		key := pendingKey{from: from, kind: kind, seq: seq}
		if msg, ok := c.pending[key]; ok {
			delete(c.pending, key)
			return msg, nil
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for %s #%d: %w", ErrPeerUnreachable, from, seq, ctx.Err())
		case <-c.done:
			return nil, ErrClosed
		case raw := <-c.inbox:
			msg, err := DecodeMessage(raw)
			clear(raw)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(msg.SSID, c.ssid) {
				return nil, fmt.Errorf("%w: %s belongs to another session", ErrMalformedPayload, msg)
			}
			if !msg.IsFor(c.self) {
				return nil, fmt.Errorf("%w: %s is not for %s", ErrMalformedPayload, msg, c.self)
			}
			if msg.From == from && msg.Seq == seq && containsKind(kinds, msg.Kind) {
				return msg, nil
			}
			c.pending[pendingKey{from: msg.From, kind: msg.Kind, seq: msg.Seq}] = msg
		}
	}
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, other := range kinds {
		if other == k {
			return true
		}
	}
	return false
}

// Close implements Channel.
func (c *memoryChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.network.Drop(c.self)
	})
	return nil
}
