package comm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/rss-runtime/pkg/hash"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// Kind is the type of an envelope.
type Kind uint8

const (
	// KindData carries the value of a transfer.
	KindData Kind = iota + 1
	// KindAck acknowledges a KindData envelope with the same Seq.
	KindAck
	// KindReject refuses a KindData envelope with the same Seq.
	KindReject
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindAck:
		return "ack"
	case KindReject:
		return "reject"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Message is the envelope exchanged between two parties during a transfer.
type Message struct {
	// SSID is a byte string which uniquely identifies the session this message belongs to.
	SSID []byte
	// From is the party.ID of the sender
	From party.ID
	// To is the party.ID of the recipient
	To party.ID
	// Kind of the envelope
	Kind Kind
	// Seq counts the transfers between From and To, so that both sides agree on which transfer this is.
	Seq uint32
	// Data is the transferred value, empty for acknowledgements.
	Data []byte
}

// String implements fmt.Stringer.
func (m Message) String() string {
	return fmt.Sprintf("message: %s #%d, from: %s, to: %s", m.Kind, m.Seq, m.From, m.To)
}

// IsFor returns true if the message is intended for the designated party.
func (m Message) IsFor(id party.ID) bool {
	return m.From != id && m.To == id
}

// Hash returns a digest of the message content, including the headers.
func (m Message) Hash() []byte {
	h := hash.New(hash.Labeled{Label: "SSID", Data: m.SSID}, m.From, m.To)
	_ = h.WriteAny(uint32(m.Kind), m.Seq, hash.Labeled{Label: "Content", Data: m.Data})
	return h.Sum()
}

// Encode returns the CBOR encoding of the message.
func (m Message) Encode() ([]byte, error) {
	return cbor.Marshal(m)
}

// DecodeMessage decodes a message produced by Message.Encode.
// Any failure is reported as ErrMalformedPayload.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !m.From.Active() || !m.To.Active() || m.From == m.To {
		return nil, fmt.Errorf("%w: invalid parties %s -> %s", ErrMalformedPayload, m.From, m.To)
	}
	if m.Kind < KindData || m.Kind > KindReject {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedPayload, m.Kind)
	}
	return &m, nil
}
