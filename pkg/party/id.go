package party

import (
	"errors"
	"fmt"
	"io"
)

// ID represents the identifier of a particular party.
//
// A, B and C are the computing parties. None marks a value without a specific
// owner, which downstream code uses for public data. None is never a valid
// role for the local process.
type ID uint8

const (
	A ID = iota
	B
	C
	None
)

// ErrInvalidRole is returned when a role integer does not map to any ID.
var ErrInvalidRole = errors.New("party: invalid role")

// FromRole maps the integer role read from configuration to an ID.
// 0, 1, 2 map to A, B, C and 3 maps to None. Any other value is an error.
func FromRole(role int) (ID, error) {
	if role < int(A) || role > int(None) {
		return None, fmt.Errorf("%w: %d is not in [0, 3]", ErrInvalidRole, role)
	}
	return ID(role), nil
}

// FromString parses the output of ID.String.
func FromString(s string) (ID, error) {
	for id := A; id <= None; id++ {
		if id.String() == s {
			return id, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Role returns the integer used to represent id in configuration.
func (id ID) Role() int { return int(id) }

// Active returns true if id is one of the computing parties.
func (id ID) Active() bool { return id < None }

// String implements fmt.Stringer.
func (id ID) String() string {
	switch id {
	case A:
		return "A"
	case B:
		return "B"
	case C:
		return "C"
	case None:
		return "None"
	default:
		return fmt.Sprintf("ID(%d)", uint8(id))
	}
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte{byte(id)})
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (ID) Domain() string {
	return "ID"
}
