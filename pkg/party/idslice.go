package party

import (
	"io"
	"slices"
)

// All is the sorted slice of the computing parties.
var All = IDSlice{A, B, C}

// IDSlice is a set of parties. Functions of this package always return it sorted.
type IDSlice []ID

// NewIDSlice returns a sorted copy of partyIDs.
func NewIDSlice(partyIDs []ID) IDSlice {
	ids := IDSlice(partyIDs).Copy()
	slices.Sort(ids)
	return ids
}

// Contains returns true if every id is in partyIDs.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if !slices.Contains(partyIDs, id) {
			return false
		}
	}
	return true
}

// Valid returns true if partyIDs is strictly increasing and only holds computing parties.
func (partyIDs IDSlice) Valid() bool {
	for i, id := range partyIDs {
		if !id.Active() || (i > 0 && partyIDs[i-1] >= id) {
			return false
		}
	}
	return true
}

// Remove returns a copy of partyIDs without id.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	return slices.DeleteFunc(partyIDs.Copy(), func(other ID) bool { return other == id })
}

// Copy returns a copy which does not share memory with partyIDs.
func (partyIDs IDSlice) Copy() IDSlice {
	return append(make(IDSlice, 0, len(partyIDs)), partyIDs...)
}

// WriteTo writes one byte per party. A nil slice cannot be written.
func (partyIDs IDSlice) WriteTo(w io.Writer) (int64, error) {
	if partyIDs == nil {
		return 0, io.ErrUnexpectedEOF
	}
	buf := make([]byte, len(partyIDs))
	for i, id := range partyIDs {
		buf[i] = byte(id)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (IDSlice) Domain() string { return "IDSlice" }
