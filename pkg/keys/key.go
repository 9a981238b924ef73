package keys

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/rss-runtime/internal/params"
	"github.com/taurusgroup/rss-runtime/pkg/hash"
)

// Key is a random key string of params.KeyBytes bytes which seeds a
// correlated-randomness generator. An empty slice is considered invalid.
type Key []byte

// EmptyKey returns a zeroed-out Key.
func EmptyKey() Key {
	return make(Key, params.KeyBytes)
}

// NewKey reads a fresh key from r, which is expected to be a cryptographically secure source.
func NewKey(r io.Reader) (Key, error) {
	key := EmptyKey()
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("key: failed to sample: %w", err)
	}
	return key, nil
}

// Validate ensures that the Key is the correct length and is not identically 0.
func (k Key) Validate() error {
	if l := len(k); l != params.KeyBytes {
		return fmt.Errorf("key: incorrect length (got %d, expected %d)", l, params.KeyBytes)
	}
	for _, b := range k {
		if b != 0 {
			return nil
		}
	}
	return errors.New("key: key is 0")
}

// Equal compares two keys in constant time.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && subtle.ConstantTimeCompare(k, other) == 1
}

func (k Key) Copy() Key {
	other := make(Key, len(k))
	copy(other, k)
	return other
}

// Wipe overwrites the key with zeros.
func (k Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// Fingerprint returns a short digest of the key which can be logged or
// compared across parties without revealing the key.
func (k Key) Fingerprint() []byte {
	return hash.New(k).Fingerprint()
}

// WriteTo implements io.WriterTo interface.
func (k Key) WriteTo(w io.Writer) (int64, error) {
	if k == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(k)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Key) Domain() string { return "Key" }
