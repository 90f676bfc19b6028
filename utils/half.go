// File: utils/half.go
package utils

import "math"

// IEEE 754 binary16 conversion. The browser clients decode these by hand, so
// the exact bit layout matters: mantissas are truncated (round toward zero),
// not rounded to nearest, and NaN always encodes as a quiet NaN.

// FloatToHalf converts a float64 to its binary16 bit pattern.
func FloatToHalf(f float64) uint16 {
	bits := math.Float32bits(float32(f))
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127
	mant := bits & 0x7fffff

	switch {
	case exp == 128: // Inf or NaN
		if mant != 0 {
			return sign | 0x7e00 // quiet NaN
		}
		return sign | 0x7c00
	case exp > 15: // overflow to Inf
		return sign | 0x7c00
	case exp >= -14: // normal
		return sign | uint16((exp+15)<<10) | uint16(mant>>13)
	case exp >= -24: // subnormal: shift in the implicit leading bit
		mant |= 0x800000
		return sign | uint16(mant>>uint32(-1-exp))
	default: // underflow to signed zero
		return sign
	}
}

// HalfToFloat converts a binary16 bit pattern to float64.
func HalfToFloat(h uint16) float64 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	var bits uint32
	switch {
	case exp == 0x1f: // Inf or NaN
		bits = sign | 0x7f800000 | mant<<13
	case exp == 0: // zero or subnormal
		if mant == 0 {
			bits = sign
		} else {
			// normalize the subnormal
			e := int32(-15)
			for mant&0x400 == 0 {
				mant <<= 1
				e--
			}
			mant &= 0x3ff
			bits = sign | uint32(e+128)<<23 | mant<<13
		}
	default:
		bits = sign | (exp+112)<<23 | mant<<13
	}
	return float64(math.Float32frombits(bits))
}
