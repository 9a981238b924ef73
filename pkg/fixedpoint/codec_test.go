package fixedpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Encode(t *testing.T) {
	c := Codec{Precision: 13}
	tests := []struct {
		x    float64
		want uint64
	}{
		{0, 0},
		{1, 1 << 13},
		{0.5, 1 << 12},
		{-1, ^uint64(0) - (1 << 13) + 1},
		{1.0 / (1 << 14), 1}, // half a unit rounds away from zero
		{-1.0 / (1 << 14), ^uint64(0)},
		{math.NaN(), 0},
		{math.Inf(1), math.MaxInt64},
		{math.Inf(-1), 1 << 63},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Encode(tt.x), "x = %v", tt.x)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, precision := range []uint{0, 8, 13, 20, 40} {
		c := Codec{Precision: precision}
		unit := math.Ldexp(1, -int(precision))
		for _, x := range []float64{0, 1, -1, 3.14159, -2.71828, 1234.5678, -0.001, 1e6} {
			got := c.Decode(c.Encode(x))
			assert.InDelta(t, x, got, unit/2+1e-12, "precision %d x %v", precision, x)
		}
	}
}

func TestCodec_Slices(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	src := []float64{1.5, -2.25, 0, 100}
	encoded := c.FromFloats(src)
	assert.Equal(t, src, c.ToFloats(encoded))

	dst := make([]uint64, len(src))
	require.NoError(t, c.EncodeSlice(dst, src))
	assert.Equal(t, encoded, dst)

	assert.ErrorIs(t, c.EncodeSlice(make([]uint64, 3), src), ErrSizeMismatch)
	assert.ErrorIs(t, c.DecodeSlice(make([]float64, 5), encoded), ErrSizeMismatch)

	back := make([]float64, len(encoded))
	require.NoError(t, c.DecodeSlice(back, encoded))
	assert.Equal(t, src, back)
}

func TestCodec_Additive(t *testing.T) {
	c := Default()
	a, b := 12.375, -4.5
	sum := c.Encode(a) + c.Encode(b)
	assert.Equal(t, a+b, c.Decode(sum))
}

func TestCodec_Validate(t *testing.T) {
	assert.NoError(t, Codec{Precision: MaxPrecision}.Validate())
	assert.Error(t, Codec{Precision: MaxPrecision + 1}.Validate())
}
