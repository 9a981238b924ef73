// Package table precomputes the addition and multiplication tables of a small
// prime field. Secure-comparison protocols look entries up instead of reducing
// modulo P on every operation.
package table

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
)

// MaxPrime bounds the field cardinality so that elements fit in a byte.
const MaxPrime = 1 << 8

// ErrInvalidPrime is returned when the cardinality is not a prime in [2, MaxPrime).
var ErrInvalidPrime = errors.New("table: cardinality must be a prime smaller than 256")

// Tables holds the full P×P Cayley tables of addition and multiplication mod P.
// Entry [i][j] of the addition table is (i+j) mod P, and (i⋅j) mod P for multiplication.
type Tables struct {
	p   uint64
	add [][]uint8
	mul [][]uint8
}

// Validate returns ErrInvalidPrime unless p is a prime in [2, MaxPrime).
func Validate(p uint64) error {
	if p < 2 || p >= MaxPrime {
		return fmt.Errorf("%w: got %d", ErrInvalidPrime, p)
	}
	if !saferith.ModulusFromUint64(p).Big().ProbablyPrime(0) {
		return fmt.Errorf("%w: %d is composite", ErrInvalidPrime, p)
	}
	return nil
}

// Generate computes both tables for the field of cardinality p.
// It is deterministic and runs in O(p²) time and space.
func Generate(p uint64) (*Tables, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	m := saferith.ModulusFromUint64(p)

	elements := make([]*saferith.Nat, p)
	for i := range elements {
		elements[i] = new(saferith.Nat).SetUint64(uint64(i))
	}

	t := &Tables{
		p:   p,
		add: make([][]uint8, p),
		mul: make([][]uint8, p),
	}
	var sum, prod saferith.Nat
	for i := uint64(0); i < p; i++ {
		t.add[i] = make([]uint8, p)
		t.mul[i] = make([]uint8, p)
		for j := uint64(0); j < p; j++ {
			t.add[i][j] = uint8(sum.ModAdd(elements[i], elements[j], m).Uint64())
			t.mul[i][j] = uint8(prod.ModMul(elements[i], elements[j], m).Uint64())
		}
	}
	return t, nil
}

// Prime returns the field cardinality.
func (t *Tables) Prime() uint64 { return t.p }

// Add returns (i+j) mod P. It panics if i or j is not a field element.
func (t *Tables) Add(i, j uint8) uint8 { return t.add[i][j] }

// Mul returns (i⋅j) mod P. It panics if i or j is not a field element.
func (t *Tables) Mul(i, j uint8) uint8 { return t.mul[i][j] }

// AddRow returns a copy of row i of the addition table.
func (t *Tables) AddRow(i uint8) []uint8 { return append([]uint8(nil), t.add[i]...) }

// MulRow returns a copy of row i of the multiplication table.
func (t *Tables) MulRow(i uint8) []uint8 { return append([]uint8(nil), t.mul[i]...) }

// Symmetric reports whether both tables satisfy table[i][j] == table[j][i].
func (t *Tables) Symmetric() bool {
	for i := uint64(0); i < t.p; i++ {
		for j := i + 1; j < t.p; j++ {
			if t.add[i][j] != t.add[j][i] || t.mul[i][j] != t.mul[j][i] {
				return false
			}
		}
	}
	return true
}
