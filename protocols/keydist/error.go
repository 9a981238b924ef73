package keydist

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/rss-runtime/pkg/keys"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// ErrUnsupportedFamily is returned when the protocol family tag does not drive key distribution.
var ErrUnsupportedFamily = errors.New("keydist: unsupported protocol family")

// Error is returned when a transfer fails. It contains the index of the transfer
// in Transfers, the key being synchronized and the two parties involved.
type Error struct {
	// Step is the index of the failed transfer
	Step int
	// Key is the key being synchronized
	Key keys.Name
	// From and To are the endpoints of the transfer
	From, To party.ID
	// Err is the underlying error
	Err error
}

func (e Error) Error() string {
	return fmt.Sprintf("keydist: transfer %d (key %s, %s -> %s): %s", e.Step, e.Key, e.From, e.To, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}
