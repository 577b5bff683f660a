package f16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestToFloat64_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   Bits
		want float64
	}{
		{"+0", 0x0000, 0},
		{"-0", 0x8000, math.Copysign(0, -1)},
		{"+1", 0x3C00, 1},
		{"-1", 0xBC00, -1},
		{"-2", 0xC000, -2},
		{"0.5", 0x3800, 0.5},
		{"max", 0x7BFF, 65504},
		{"min normal", 0x0400, math.Ldexp(1, -14)},
		{"+Inf", 0x7C00, math.Inf(1)},
		{"-Inf", 0xFC00, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat64(tt.in)
			assert.Equal(t, math.Float64bits(tt.want), math.Float64bits(got), "got=%v want=%v", got, tt.want)
		})
	}
}

func TestToFloat64_Subnormals(t *testing.T) {
	// Smallest positive subnormal: 2^-24.
	assert.Equal(t, math.Ldexp(1, -24), ToFloat64(0x0001))
	// Largest subnormal: 1023 * 2^-24.
	assert.Equal(t, 1023*math.Ldexp(1, -24), ToFloat64(0x03FF))
	assert.Equal(t, -math.Ldexp(1, -24), ToFloat64(0x8001))
}

func TestToFloat64_NaN(t *testing.T) {
	for _, h := range []Bits{0x7C01, 0x7E00, 0x7FFF, 0xFC01, 0xFE00} {
		assert.True(t, math.IsNaN(ToFloat64(h)), "%04x", uint16(h))
	}
}

func TestToFloat64_MatchesReferenceForAllWords(t *testing.T) {
	for w := 0; w <= math.MaxUint16; w++ {
		got := ToFloat64(Bits(w))
		want := float64(float16.Frombits(uint16(w)).Float32())

		if math.IsNaN(want) {
			require.True(t, math.IsNaN(got), "word %04x", w)
			continue
		}
		require.Equal(t, math.Float64bits(want), math.Float64bits(got), "word %04x", w)
	}
}

func TestFromFloat64_RoundTripAllWords(t *testing.T) {
	for w := 0; w <= math.MaxUint16; w++ {
		h := Bits(w)
		f := ToFloat64(h)
		if math.IsNaN(f) {
			continue
		}
		require.Equal(t, h, FromFloat64(f), "word %04x value %g", w, f)
	}
}

func TestFromFloat64_SpecialValues(t *testing.T) {
	assert.Equal(t, Bits(0x0000), FromFloat64(0))
	assert.Equal(t, Bits(0x8000), FromFloat64(math.Copysign(0, -1)))
	assert.Equal(t, Bits(0x7C00), FromFloat64(math.Inf(1)))
	assert.Equal(t, Bits(0xFC00), FromFloat64(math.Inf(-1)))
	assert.Equal(t, Bits(0x7C00), FromFloat64(1e6), "overflow saturates to +Inf")
	assert.Equal(t, Bits(0x0000), FromFloat64(1e-10), "underflow flushes to zero")

	nan := FromFloat64(math.NaN())
	assert.Equal(t, expMask, nan&expMask)
	assert.NotZero(t, nan&fracMask)
}

func TestFromFloat64_RoundingTiesToEven(t *testing.T) {
	step := math.Ldexp(1, -10)

	// Halfway between 1.0 (even mantissa) and the next representable value.
	assert.Equal(t, Bits(0x3C00), FromFloat64(1+step/2))
	// Halfway with an odd lower neighbour rounds up.
	assert.Equal(t, Bits(0x3C02), FromFloat64(1+step+step/2))
	// Largest value below 2.0 rounds up into the next binade.
	assert.Equal(t, Bits(0x4000), FromFloat64(2-step/4))
}

func TestFromFloat64_AgreesWithReferenceEncoder(t *testing.T) {
	for _, f := range []float32{0.25, -3.5, 1024, 0.099975586, 65504, -0.000061035156} {
		assert.Equal(t, float16.Fromfloat32(f).Bits(), uint16(FromFloat64(float64(f))), "value %g", f)
	}
}

func TestDecode(t *testing.T) {
	t.Run("LittleEndian", func(t *testing.T) {
		// 0x3C00 (1.0) then 0xC000 (-2.0), low byte first.
		got, err := Decode([]byte{0x00, 0x3C, 0x00, 0xC0})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, -2}, got)
	})

	t.Run("LengthIsHalfOfBytes", func(t *testing.T) {
		for _, n := range []int{0, 2, 100, 1024, 1200} {
			got, err := Decode(make([]byte, n))
			require.NoError(t, err)
			assert.Len(t, got, n/2)
		}
	})

	t.Run("OddLength", func(t *testing.T) {
		_, err := Decode(make([]byte, 3))
		assert.ErrorIs(t, err, ErrOddLength)
	})
}

func TestEncodeDecode_Slices(t *testing.T) {
	src := []float64{0, 1, -2, 65504, math.Inf(1), 0.5}
	got, err := Decode(Encode(src))
	require.NoError(t, err)
	assert.Equal(t, src, got)
}
