// Package f16 implements IEEE-754 binary16 (half-precision) decoding into
// float64 and the little-endian word layout used on the wire.
//
// This package is internal: the public surface lives in package embedding.
package f16

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Bits is the raw IEEE-754 binary16 bit-pattern.
//
// Layout:
//
//	sign: 1 bit  (bit 15)
//	exp:  5 bits (bits 14-10, bias 15)
//	frac: 10 bits (bits 9-0)
type Bits uint16

const (
	signMask Bits = 0x8000
	expMask  Bits = 0x7C00
	fracMask Bits = 0x03FF

	// WordSize is the number of bytes per encoded half-float.
	WordSize = 2
)

// ErrOddLength is returned when a buffer cannot be split into whole words.
var ErrOddLength = errors.New("f16: buffer length must be even")

// ToFloat64 converts a binary16 bit-pattern to float64.
//
// Rules are evaluated in order: signed zero, subnormal, infinity/NaN, normal.
// Every binary16 value is exactly representable as a float64.
func ToFloat64(h Bits) float64 {
	neg := h&signMask != 0
	exp := int((h & expMask) >> 10)
	frac := float64(h & fracMask)

	sign := 1.0
	if neg {
		sign = -1.0
	}

	switch exp {
	case 0:
		if frac == 0 {
			return math.Copysign(0, sign)
		}
		// Subnormal: no implicit leading 1, fixed exponent of -14.
		return sign * math.Ldexp(frac/1024, -14)
	case 0x1F:
		if frac == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	default:
		return sign * math.Ldexp(1+frac/1024, exp-15)
	}
}

// FromFloat64 converts a float64 value into a binary16 bit-pattern.
//
// Rounding mode: round-to-nearest, ties-to-even. Values beyond the binary16
// range become infinity; values below the smallest subnormal become zero.
func FromFloat64(f float64) Bits {
	var sign Bits
	if math.Signbit(f) {
		sign = signMask
		f = -f
	}

	switch {
	case math.IsNaN(f):
		return sign | expMask | 0x0200 // quiet NaN
	case math.IsInf(f, 0):
		return sign | expMask
	case f == 0:
		return sign
	}

	frac, exp := math.Frexp(f) // f = frac * 2^exp, frac in [0.5, 1)
	e16 := exp - 1 + 15

	if e16 >= 0x1F {
		return sign | expMask
	}

	if e16 <= 0 {
		// Subnormal: value = m * 2^-24 with m in [0, 1024).
		m := math.RoundToEven(math.Ldexp(f, 24))
		if m >= 1024 {
			// Rounded up into the smallest normal.
			return sign | Bits(1<<10)
		}
		return sign | Bits(m)
	}

	// Normal: mantissa in [1024, 2048) before removing the implicit bit.
	m := math.RoundToEven(math.Ldexp(frac, 11))
	if m >= 2048 {
		m /= 2
		e16++
		if e16 >= 0x1F {
			return sign | expMask
		}
	}
	return sign | Bits(e16<<10) | (Bits(m) & fracMask)
}

// Decode converts a little-endian byte buffer into float64 values, one per
// 16-bit word. The byte order is fixed regardless of the host.
func Decode(buf []byte) ([]float64, error) {
	if len(buf)%WordSize != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrOddLength, len(buf))
	}
	out := make([]float64, len(buf)/WordSize)
	for i := range out {
		out[i] = ToFloat64(Bits(binary.LittleEndian.Uint16(buf[i*WordSize:])))
	}
	return out, nil
}

// Encode converts float64 values to little-endian binary16 words.
func Encode(src []float64) []byte {
	out := make([]byte, len(src)*WordSize)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*WordSize:], uint16(FromFloat64(v)))
	}
	return out
}
