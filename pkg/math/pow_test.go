package math

import (
	"testing"

	"github.com/stretchr/testify/require"

	sdkmath "cosmossdk.io/math"
)

func precisionTimes(n int64) sdkmath.Int {
	return Precision.MulRaw(n)
}

func TestApplyExponentIdentity(t *testing.T) {
	value := precisionTimes(37)
	require.Equal(t, value.String(), ApplyExponent(value, Precision).String())
}

func TestApplyExponentBelowUnitIsZero(t *testing.T) {
	// The unsigned log2 is undefined below one unit, so sub-unit bases
	// collapse to zero by construction.
	half := Precision.QuoRaw(2)
	require.True(t, ApplyExponent(half, precisionTimes(2)).IsZero())
	require.True(t, ApplyExponent(sdkmath.ZeroInt(), Precision).IsZero())
}

func TestApplyExponentZeroExponentIsOne(t *testing.T) {
	require.Equal(t, Precision.String(), ApplyExponent(precisionTimes(9), sdkmath.ZeroInt()).String())
}

func TestApplyExponentExactPowers(t *testing.T) {
	testCases := []struct {
		name     string
		value    int64
		exponent int64 // whole exponent
		expected int64
	}{
		{name: "square of four", value: 4, exponent: 2, expected: 16},
		{name: "cube of two", value: 2, exponent: 3, expected: 8},
		{name: "identity power", value: 13, exponent: 1, expected: 13},
		{name: "square of sixteen", value: 16, exponent: 2, expected: 256},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ApplyExponent(precisionTimes(tc.value), precisionTimes(tc.exponent))
			require.Equal(t, precisionTimes(tc.expected).String(), result.String())
		})
	}
}

func TestApplyExponentSquareRoot(t *testing.T) {
	halfExponent := Precision.QuoRaw(2)

	// 4^0.5 is exact because every intermediate is a power of two.
	require.Equal(t, precisionTimes(2).String(), ApplyExponent(precisionTimes(4), halfExponent).String())

	// 2^0.5 comes out of the binary-fraction table; check it against
	// sqrt(2) to twelve decimal places.
	result := ApplyExponent(precisionTimes(2), halfExponent)
	expected := intFromString(t, "141421356237309504880") // sqrt(2) * 1e20
	tolerance := intFromString(t, "100000000")            // 1e-12 at 20 decimals

	require.True(t, Diff(result, expected).LTE(tolerance),
		"2^0.5 = %s, want %s within %s", result, expected, tolerance)
}

func TestApplyExponentFractionalPower(t *testing.T) {
	// 8^(2/3) = 4 within rounding of the iterative log2.
	twoThirds := Precision.MulRaw(2).QuoRaw(3)
	result := ApplyExponent(precisionTimes(8), twoThirds)

	tolerance := intFromString(t, "1000000000") // 1e-11 at 20 decimals
	require.True(t, Diff(result, precisionTimes(4)).LTE(tolerance),
		"8^(2/3) = %s, want ~%s", result, precisionTimes(4))
}

func TestApplyExponentMonotoneInValue(t *testing.T) {
	exponent := Precision.MulRaw(3).QuoRaw(2) // 1.5

	previous := sdkmath.ZeroInt()
	for _, v := range []int64{1, 2, 5, 17, 120, 3500} {
		result := ApplyExponent(precisionTimes(v), exponent)
		require.True(t, result.GT(previous), "expected %s^1.5 to grow, got %s after %s", precisionTimes(v), result, previous)
		previous = result
	}
}
