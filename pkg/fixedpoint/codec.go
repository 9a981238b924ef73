// Package fixedpoint converts between real numbers and the ring elements
// shared by the parties.
//
// A real x is represented by round(x·2^Precision) in two's complement over 64 bits.
package fixedpoint

import (
	"errors"
	"fmt"
	"math"

	"github.com/taurusgroup/rss-runtime/internal/params"
)

// ErrSizeMismatch is returned when the destination and source of a slice conversion differ in length.
var ErrSizeMismatch = errors.New("fixedpoint: size mismatch")

// MaxPrecision is the largest supported number of fractional bits.
const MaxPrecision = 62

// Codec encodes with a fixed number of fractional bits.
type Codec struct {
	Precision uint
}

// Default returns the codec with params.Precision fractional bits.
func Default() Codec { return Codec{Precision: params.Precision} }

// Validate returns an error if the precision leaves no integer bits.
func (c Codec) Validate() error {
	if c.Precision > MaxPrecision {
		return fmt.Errorf("fixedpoint: precision %d exceeds %d", c.Precision, MaxPrecision)
	}
	return nil
}

func (c Codec) scale() float64 { return math.Ldexp(1, int(c.Precision)) }

// Encode returns the ring element closest to x, rounding half away from zero.
// Values outside of the representable range saturate, NaN encodes as 0.
func (c Codec) Encode(x float64) uint64 {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * c.scale())
	switch {
	case scaled >= math.MaxInt64:
		return uint64(math.MaxInt64)
	case scaled <= math.MinInt64:
		return 1 << 63
	}
	return uint64(int64(scaled))
}

// Decode returns the real represented by u.
func (c Codec) Decode(u uint64) float64 {
	return float64(int64(u)) / c.scale()
}

// EncodeSlice encodes src into dst.
func (c Codec) EncodeSlice(dst []uint64, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: %d elements into %d", ErrSizeMismatch, len(src), len(dst))
	}
	for i, x := range src {
		dst[i] = c.Encode(x)
	}
	return nil
}

// DecodeSlice decodes src into dst.
func (c Codec) DecodeSlice(dst []float64, src []uint64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: %d elements into %d", ErrSizeMismatch, len(src), len(dst))
	}
	for i, u := range src {
		dst[i] = c.Decode(u)
	}
	return nil
}

// FromFloats returns the encoding of src.
func (c Codec) FromFloats(src []float64) []uint64 {
	dst := make([]uint64, len(src))
	_ = c.EncodeSlice(dst, src)
	return dst
}

// ToFloats returns the decoding of src.
func (c Codec) ToFloats(src []uint64) []float64 {
	dst := make([]float64, len(src))
	_ = c.DecodeSlice(dst, src)
	return dst
}
