// Package prg implements the correlated-randomness generators seeded by the key schedule.
//
// Parties holding the same key and using the same domain obtain the same
// stream, which lets them mask shares without communicating.
package prg

import (
	"encoding/binary"
	"fmt"

	"github.com/taurusgroup/rss-runtime/pkg/hash"
	"github.com/taurusgroup/rss-runtime/pkg/keys"
	"golang.org/x/crypto/chacha20"
)

const derivationContext = "rss-runtime 2024 correlated randomness"

// PRG is a deterministic stream of pseudo-random bytes.
//
// A PRG is not safe for concurrent use: the stream would no longer match the
// one of the other holders of the key.
type PRG struct {
	cipher *chacha20.Cipher
	buf    [8]byte
}

// New returns the generator for key and domain.
// Different domains give independent streams from the same key.
func New(key keys.Key, domain string) (*PRG, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("prg: %w", err)
	}
	material := make([]byte, 0, len(key)+len(domain))
	material = append(material, key...)
	material = append(material, domain...)

	seed := make([]byte, chacha20.KeySize)
	hash.DeriveKey(derivationContext, material, seed)
	nonce := make([]byte, chacha20.NonceSize)
	cipher, err := chacha20.NewUnauthenticatedCipher(seed, nonce)
	keys.Key(seed).Wipe()
	keys.Key(material).Wipe()
	if err != nil {
		return nil, fmt.Errorf("prg: %w", err)
	}
	return &PRG{cipher: cipher}, nil
}

// Read fills p with the next bytes of the stream. It never fails.
func (g *PRG) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	g.cipher.XORKeyStream(p, p)
	return len(p), nil
}

// Uint64 returns the next 8 bytes of the stream as a big-endian integer.
func (g *PRG) Uint64() uint64 {
	_, _ = g.Read(g.buf[:])
	return binary.BigEndian.Uint64(g.buf[:])
}

// Uint64s returns the next n integers of the stream.
func (g *PRG) Uint64s(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = g.Uint64()
	}
	return out
}
