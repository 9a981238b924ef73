package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/taurusgroup/rss-runtime/pkg/comm"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// Exchange is a stub transport which hands every transferred value to its
// recipient unchanged, without any envelope or acknowledgement.
type Exchange struct {
	mtx    sync.Mutex
	cond   *sync.Cond
	slots  map[slot][]byte
	opened map[party.ID]bool
	closed map[party.ID]bool
}

type slot struct {
	from, to party.ID
	seq      int
}

// NewExchange returns an Exchange shared by the three parties.
func NewExchange() *Exchange {
	e := &Exchange{
		slots:  make(map[slot][]byte),
		opened: make(map[party.ID]bool),
		closed: make(map[party.ID]bool),
	}
	e.cond = sync.NewCond(&e.mtx)
	return e
}

// Channel returns the endpoint of party id.
func (e *Exchange) Channel(id party.ID) comm.Channel {
	return &exchangeChannel{exchange: e, self: id, seq: make(map[[2]party.ID]int)}
}

// Open implements comm.Fabric.
func (e *Exchange) Open(_ context.Context, opts comm.Options) (comm.Channel, error) {
	e.mtx.Lock()
	e.opened[opts.PartyID] = true
	e.mtx.Unlock()
	return e.Channel(opts.PartyID), nil
}

// Opened returns true once id opened a channel through Open.
func (e *Exchange) Opened(id party.ID) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.opened[id]
}

// Closed returns true once the channel of id was closed.
func (e *Exchange) Closed(id party.ID) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.closed[id]
}

type exchangeChannel struct {
	exchange *Exchange
	self     party.ID
	seq      map[[2]party.ID]int
}

func (c *exchangeChannel) Self() party.ID { return c.self }

func (c *exchangeChannel) Transfer(ctx context.Context, from, to party.ID, local []byte) ([]byte, error) {
	if c.self != from && c.self != to {
		return local, nil
	}
	pair := [2]party.ID{from, to}
	s := slot{from: from, to: to, seq: c.seq[pair]}
	c.seq[pair]++

	e := c.exchange
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if c.self == from {
		e.slots[s] = append([]byte(nil), local...)
		e.cond.Broadcast()
		return local, nil
	}

	stop := context.AfterFunc(ctx, func() {
		e.mtx.Lock()
		defer e.mtx.Unlock()
		e.cond.Broadcast()
	})
	defer stop()
	for {
		if value, ok := e.slots[s]; ok {
			delete(e.slots, s)
			return value, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", comm.ErrPeerUnreachable, err)
		}
		e.cond.Wait()
	}
}

func (c *exchangeChannel) Close() error {
	c.exchange.mtx.Lock()
	defer c.exchange.mtx.Unlock()
	c.exchange.closed[c.self] = true
	return nil
}

// FailingChannel wraps a channel and fails its transfer number FailAt with Err.
type FailingChannel struct {
	comm.Channel
	FailAt int
	Err    error

	calls int
}

func (c *FailingChannel) Transfer(ctx context.Context, from, to party.ID, local []byte) ([]byte, error) {
	defer func() { c.calls++ }()
	if c.calls == c.FailAt {
		return nil, c.Err
	}
	return c.Channel.Transfer(ctx, from, to, local)
}

// Calls returns the number of transfers attempted.
func (c *FailingChannel) Calls() int { return c.calls }
