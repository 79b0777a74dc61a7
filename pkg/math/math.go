package math

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Precision is the fixed-point scale shared by every amount and factor in
// the clearing house: 20 decimal places.
var Precision = sdkmath.NewIntWithDecimal(1, 20)

// MulDiv computes (a * b) / c with a full-width big.Int intermediate so the
// product cannot overflow before the division.
func MulDiv(a, b, c sdkmath.Int) sdkmath.Int {
	if c.IsZero() {
		panic("math: division by zero in MulDiv")
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return sdkmath.NewIntFromBigInt(product.Quo(product, c.BigInt()))
}

// ApplyPrecision scales value by a precision-scaled factor: (value * factor) / Precision.
func ApplyPrecision(value, factor sdkmath.Int) sdkmath.Int {
	return MulDiv(value, factor, Precision)
}

// ToPrecision divides value by factor keeping precision: (value * Precision) / factor.
func ToPrecision(value, factor sdkmath.Int) sdkmath.Int {
	return MulDiv(value, Precision, factor)
}

// BoundAboveSigned caps value at max.
func BoundAboveSigned(value, max sdkmath.Int) sdkmath.Int {
	if value.GT(max) {
		return max
	}
	return value
}

// BoundBelowSigned floors value at min.
func BoundBelowSigned(value, min sdkmath.Int) sdkmath.Int {
	if value.LT(min) {
		return min
	}
	return value
}

// BoundSigned clamps value into [min, max].
func BoundSigned(value, min, max sdkmath.Int) sdkmath.Int {
	return BoundBelowSigned(BoundAboveSigned(value, max), min)
}

// BoundMagnitudeSigned clamps the magnitude of a signed value into
// [minMag, maxMag] while keeping its sign. A zero value is treated as positive.
func BoundMagnitudeSigned(value, minMag, maxMag sdkmath.Int) sdkmath.Int {
	magnitude := BoundSigned(value.Abs(), minMag, maxMag)
	if value.IsNegative() {
		return magnitude.Neg()
	}
	return magnitude
}

// Diff returns |a - b|.
func Diff(a, b sdkmath.Int) sdkmath.Int {
	if a.GT(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

// SaturatingSub subtracts subtrahend from minuend, but ensures the result is never negative.
func SaturatingSub(minuend, subtrahend sdkmath.Int) sdkmath.Int {
	if minuend.LT(subtrahend) {
		return sdkmath.ZeroInt()
	}
	return minuend.Sub(subtrahend)
}

// MinInt returns the smaller of a and b.
func MinInt(a, b sdkmath.Int) sdkmath.Int {
	if a.LT(b) {
		return a
	}
	return b
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b sdkmath.Int) sdkmath.Int {
	if a.GT(b) {
		return a
	}
	return b
}
