// Package hash wraps blake3 with a domain-separated encoding of its inputs.
package hash

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/taurusgroup/rss-runtime/internal/params"
	"github.com/zeebo/blake3"
)

const (
	// DigestLengthBytes is the length of the output of Sum.
	DigestLengthBytes = params.SecBytes
	// FingerprintLengthBytes is the length of the output of Fingerprint.
	FingerprintLengthBytes = 8
)

// Hash accumulates framed values into a blake3 state.
type Hash struct {
	h *blake3.Hasher
}

// New returns a Hash which has already absorbed initialData.
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns the output stream for the current state.
// Later writes do not affect a reader already returned.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns DigestLengthBytes of output.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// Fingerprint returns a short prefix of Sum, meant for logs and comparisons
// between parties, never as a commitment.
func (hash *Hash) Fingerprint() []byte {
	return hash.Sum()[:FingerprintLengthBytes]
}

// WriteAny frames each of data and absorbs it.
//
// Accepted types are []byte, string, uint32, uint64 and WriterToWithDomain.
// The first four are framed with their Go type name as domain.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		var object WriterToWithDomain
		switch t := d.(type) {
		case []byte:
			object = Labeled{Label: "[]byte", Data: t}
		case string:
			object = Labeled{Label: "string", Data: []byte(t)}
		case uint32:
			object = Labeled{Label: "uint32", Data: binary.BigEndian.AppendUint32(nil, t)}
		case uint64:
			object = Labeled{Label: "uint64", Data: binary.BigEndian.AppendUint64(nil, t)}
		case WriterToWithDomain:
			object = t
		default:
			return fmt.Errorf("hash.Hash: unsupported type %T", d)
		}
		if err := writeFrame(hash.h, object); err != nil {
			return fmt.Errorf("hash.Hash: write %T: %w", d, err)
		}
	}
	return nil
}

// Clone returns an independent copy of the current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// DeriveKey fills out with key material derived from secret under context.
// Distinct contexts give independent outputs for the same secret.
func DeriveKey(context string, secret []byte, out []byte) {
	blake3.DeriveKey(context, secret, out)
}
