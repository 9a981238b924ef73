package hash

import (
	"bytes"
	"encoding/binary"
	"io"
)

// WriterToWithDomain is a value with a canonical encoding, tagged with the
// name of its type so that equal encodings of different types hash differently.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain names the type of the value, it must differ between implementors.
	Domain() string
}

// writeFrame writes uvarint(len(domain)) ‖ domain ‖ uvarint(len(data)) ‖ data.
// Length prefixes make the concatenation of frames injective.
func writeFrame(w io.Writer, object WriterToWithDomain) error {
	var body bytes.Buffer
	if _, err := object.WriteTo(&body); err != nil {
		return err
	}
	domain := object.Domain()
	frame := make([]byte, 0, 2*binary.MaxVarintLen64+len(domain)+body.Len())
	frame = binary.AppendUvarint(frame, uint64(len(domain)))
	frame = append(frame, domain...)
	frame = binary.AppendUvarint(frame, uint64(body.Len()))
	frame = append(frame, body.Bytes()...)
	_, err := w.Write(frame)
	return err
}

// Labeled attaches a domain to raw bytes.
type Labeled struct {
	Label string
	Data  []byte
}

// WriteTo implements io.WriterTo.
func (l Labeled) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(l.Data)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (l Labeled) Domain() string { return l.Label }
