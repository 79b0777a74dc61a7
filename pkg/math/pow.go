package math

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Unsigned 60.18-decimal fixed-point exponentiation, ported from the PRBMath
// arithmetic library (https://github.com/PaulRBerg/prb-math). Values enter at
// 20 decimals and are rescaled to 18 decimals for pow, then rescaled back.

var (
	unit        = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil) // 1e18
	doubleUnit  = new(big.Int).Mul(unit, big.NewInt(2))
	halfUnit    = new(big.Int).Quo(unit, big.NewInt(2))
	unitSquared = new(big.Int).Mul(unit, unit)

	// exp2 accepts exponents strictly below 192e18; anything larger cannot be
	// represented in the 192.64 format.
	maxExp2Input = new(big.Int).Mul(big.NewInt(192), unit)

	// Precision is 1e20, the pow domain is 1e18.
	u60x18Divisor = big.NewInt(100)
)

// exp2Magic holds the binary-fraction multipliers 2^(2^-i) for i in 1..64
// as 64.64 fixed-point numbers. Bit 64-i of the fractional part (the bit
// worth 2^-i) selects entry i.
var exp2Magic = mustParseHexInts([]string{
	"16A09E667F3BCC909", "1306FE0A31B7152DF", "1172B83C7D517ADCE", "10B5586CF9890F62A",
	"1059B0D31585743AE", "102C9A3E778060EE7", "10163DA9FB33356D8", "100B1AFA5ABCBED61",
	"10058C86DA1C09EA2", "1002C605E2E8CEC50", "100162F3904051FA1", "1000B175EFFDC76BA",
	"100058BA01FB9F96D", "10002C5CC37DA9492", "1000162E525EE0547", "10000B17255775C04",
	"1000058B91B5BC9AE", "100002C5C89D5EC6D", "10000162E43F4F831", "100000B1721BCFC9A",
	"10000058B90CF1E6E", "1000002C5C863B73F", "100000162E430E5A2", "1000000B172183551",
	"100000058B90C0B49", "10000002C5C8601CC", "1000000162E42FFF0", "10000000B17217FBB",
	"1000000058B90BFCE", "100000002C5C85FE3", "10000000162E42FF1", "100000000B17217F8",
	"10000000058B90BFC", "1000000002C5C85FE", "100000000162E42FF", "1000000000B17217F",
	"100000000058B90C0", "10000000002C5C860", "1000000000162E430", "10000000000B17218",
	"1000000000058B90C", "100000000002C5C86", "10000000000162E43", "100000000000B1721",
	"10000000000058B91", "1000000000002C5C8", "100000000000162E4", "1000000000000B172",
	"100000000000058B9", "10000000000002C5D", "1000000000000162E", "10000000000000B17",
	"1000000000000058C", "100000000000002C6", "10000000000000163", "100000000000000B1",
	"10000000000000059", "1000000000000002C", "10000000000000016", "1000000000000000B",
	"10000000000000006", "10000000000000003", "10000000000000001", "10000000000000001",
})

func mustParseHexInts(values []string) []*big.Int {
	parsed := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := new(big.Int).SetString(v, 16)
		if !ok {
			panic("math: invalid exp2 magic constant")
		}
		parsed[i] = n
	}
	return parsed
}

// ApplyExponent computes value^(exponent/Precision) on precision-scaled
// inputs. Bases below one unit return zero: the unsigned log2 is undefined
// there, and the factors this feeds (skew ratios, reserve curvature) treat a
// sub-unit base as negligible.
func ApplyExponent(value, exponent sdkmath.Int) sdkmath.Int {
	if value.LT(Precision) {
		return sdkmath.ZeroInt()
	}
	if exponent.Equal(Precision) {
		return value
	}

	x := new(big.Int).Quo(value.BigInt(), u60x18Divisor)
	y := new(big.Int).Quo(exponent.BigInt(), u60x18Divisor)

	result := pow(x, y)
	return sdkmath.NewIntFromBigInt(result.Mul(result, u60x18Divisor))
}

// pow raises x to the power y, both UD60x18 numbers, via x^y = 2^(log2(x)*y).
func pow(x, y *big.Int) *big.Int {
	switch {
	case x.Sign() == 0:
		if y.Sign() == 0 {
			return new(big.Int).Set(unit)
		}
		return new(big.Int)
	case x.Cmp(unit) == 0:
		return new(big.Int).Set(unit)
	}

	switch {
	case y.Sign() == 0:
		return new(big.Int).Set(unit)
	case y.Cmp(unit) == 0:
		return new(big.Int).Set(x)
	}

	if x.Cmp(unit) > 0 {
		return exp2(mulDiv18(log2(x), y))
	}

	// For x < 1 the unsigned log2 is undefined, so invert: x^y = 1 / (1/x)^y.
	inverse := new(big.Int).Quo(unitSquared, x)
	w := exp2(mulDiv18(log2(inverse), y))
	return w.Quo(new(big.Int).Set(unitSquared), w)
}

// log2 calculates the binary logarithm of a UD60x18 number x >= 1 using the
// iterative approximation algorithm.
func log2(x *big.Int) *big.Int {
	if x.Cmp(unit) < 0 {
		panic("math: log2 argument below one")
	}

	// Integer part: the most significant bit of x / unit.
	n := uint(new(big.Int).Quo(x, unit).BitLen() - 1)

	result := new(big.Int).Mul(big.NewInt(int64(n)), unit)

	// y = x * 2^-n lies in [1, 2).
	y := new(big.Int).Rsh(x, n)
	if y.Cmp(unit) == 0 {
		return result
	}

	delta := new(big.Int).Set(halfUnit)
	for delta.Sign() > 0 {
		y.Mul(y, y).Quo(y, unit)
		if y.Cmp(doubleUnit) >= 0 {
			result.Add(result, delta)
			y.Rsh(y, 1)
		}
		delta.Rsh(delta, 1)
	}
	return result
}

// exp2 calculates the binary exponent of a UD60x18 number x < 192e18 using
// the binary fraction method on the 192.64 representation.
func exp2(x *big.Int) *big.Int {
	if x.Cmp(maxExp2Input) >= 0 {
		panic("math: exp2 argument out of range")
	}

	x192x64 := new(big.Int).Lsh(x, 64)
	x192x64.Quo(x192x64, unit)
	return exp192x64(x192x64)
}

func exp192x64(x *big.Int) *big.Int {
	// Start from 2^191, which is 0.5 at a 2^192 scale; multiplying by
	// 2^(2^-i) for every set fraction bit worth 2^-i accumulates
	// 2^frac(x) / 2 at that scale.
	result := new(big.Int).Lsh(big.NewInt(1), 191)

	for i, magic := range exp2Magic {
		if x.Bit(63-i) == 1 {
			result.Mul(result, magic)
			result.Rsh(result, 64)
		}
	}

	// Multiply in the integer part (the 191 below compensates the initial
	// 0.5 guess) and convert to UD60x18.
	result.Mul(result, unit)
	shift := 191 - uint(new(big.Int).Rsh(x, 64).Uint64())
	return result.Rsh(result, shift)
}

func mulDiv18(a, b *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, unit)
}
