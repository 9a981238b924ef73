// Package comm defines the boundary between the bootstrap and the transport
// connecting the three parties.
//
// A transport is assumed to deliver messages reliably, and to authenticate and
// encrypt them. The bootstrap only needs Fabric.Open, Channel.Close and the
// blocking Channel.Transfer. MemoryNetwork implements them in-process.
package comm

import (
	"context"
	"errors"

	"github.com/taurusgroup/rss-runtime/pkg/party"
)

var (
	// ErrBootstrap is returned when the channel to the other parties cannot be opened.
	ErrBootstrap = errors.New("comm: bootstrap failed")
	// ErrPeerUnreachable is returned when a peer did not answer in time.
	ErrPeerUnreachable = errors.New("comm: peer unreachable")
	// ErrPeerRejected is returned when a peer answered with a rejection.
	ErrPeerRejected = errors.New("comm: peer rejected transfer")
	// ErrMalformedPayload is returned when a received envelope cannot be decoded or is not for this session.
	ErrMalformedPayload = errors.New("comm: malformed payload")
	// ErrClosed is returned when the channel was already closed.
	ErrClosed = errors.New("comm: channel closed")
)

// Fabric opens channels to the other parties.
type Fabric interface {
	Open(ctx context.Context, opts Options) (Channel, error)
}

// Link is the part of a Channel protocols use once the bootstrap is done.
type Link interface {
	// Self returns the role of the local party.
	Self() party.ID

	// Transfer moves local from party `from` to party `to`, and blocks until the transfer completed.
	//
	// Every party calls Transfer with the same sequence of (from, to) pairs.
	// The party `to` returns the value sent by `from`, the party `from` returns
	// local once `to` has acknowledged it, and any other party returns local immediately.
	Transfer(ctx context.Context, from, to party.ID, local []byte) ([]byte, error)
}

// Channel is an open, authenticated connection of the local party to its peers.
type Channel interface {
	Link

	// Close releases the channel. Closing twice returns nil.
	Close() error
}

type link struct {
	ch Channel
}

func (l link) Self() party.ID { return l.ch.Self() }

func (l link) Transfer(ctx context.Context, from, to party.ID, local []byte) ([]byte, error) {
	return l.ch.Transfer(ctx, from, to, local)
}

// Restrict returns a Link through which ch cannot be closed, or nil if ch is nil.
func Restrict(ch Channel) Link {
	if ch == nil {
		return nil
	}
	return link{ch: ch}
}
