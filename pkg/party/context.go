package party

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/rss-runtime/internal/params"
)

var (
	// ErrConfig is matched by every configuration error returned by Resolve.
	ErrConfig = errors.New("party: configuration error")

	ErrNoneSelf              = fmt.Errorf("%w: None is not a valid self role", ErrConfig)
	ErrUnsupportedPartyCount = fmt.Errorf("%w: unsupported party count", ErrConfig)
)

// Context is the validated role of the local process.
type Context struct {
	// Self is the role of this process, always one of A, B or C.
	Self ID
	// N is the number of parties, always 3.
	N int
}

// Resolve validates the role and party count read from configuration.
func Resolve(role, parties int) (Context, error) {
	id, err := FromRole(role)
	if err != nil {
		return Context{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if id == None {
		return Context{}, ErrNoneSelf
	}
	if parties != params.Parties {
		return Context{}, fmt.Errorf("%w: got %d, only %d is supported", ErrUnsupportedPartyCount, parties, params.Parties)
	}
	return Context{Self: id, N: parties}, nil
}

// Others returns the two peers of the local party.
func (c Context) Others() IDSlice {
	return All.Remove(c.Self)
}

// String implements fmt.Stringer.
func (c Context) String() string {
	return fmt.Sprintf("party %s of %d", c.Self, c.N)
}
