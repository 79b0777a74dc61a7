package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

func TestPriceWithin(t *testing.T) {
	state := NewPricingState(math.Precision, sdkmath.ZeroInt(), sdkmath.ZeroInt())

	// No observation yet.
	_, ok := state.PriceWithin(10*time.Minute, testEpoch)
	require.False(t, ok)

	state.UpdatePrice(unit(100), testEpoch)

	price, ok := state.PriceWithin(10*time.Minute, testEpoch.Add(9*time.Minute))
	require.True(t, ok)
	require.Equal(t, unit(100).String(), price.String())

	_, ok = state.PriceWithin(10*time.Minute, testEpoch.Add(11*time.Minute))
	require.False(t, ok)
}

func TestUpdateFromOracle(t *testing.T) {
	state := NewPricingState(math.Precision, sdkmath.ZeroInt(), sdkmath.ZeroInt())

	// rate 10000 at 2 decimals is 100.00 quote per base.
	price := state.UpdateFromOracle(10000, 2, testEpoch)

	require.Equal(t, unit(100).String(), price.String())
	require.Equal(t, unit(100).String(), state.Price.String())
	require.Equal(t, testEpoch, state.LastFetched)
}

func TestImpactForSameSideRebalance(t *testing.T) {
	state := NewPricingState(math.Precision, unitFraction(1, 100), unitFraction(2, 100))

	// Shrinking the imbalance is rewarded at the positive factor.
	impact := state.ImpactForSameSideRebalance(unit(100), unit(50))
	require.True(t, impact.IsPositive())
	require.Equal(t, math.ApplyPrecision(unit(50), unitFraction(1, 100)).String(), impact.String())

	// Growing it is charged at the negative factor.
	impact = state.ImpactForSameSideRebalance(unit(50), unit(100))
	require.True(t, impact.IsNegative())
	require.Equal(t, math.ApplyPrecision(unit(50), unitFraction(2, 100)).Neg().String(), impact.String())
}

func TestImpactForCrossoverRebalance(t *testing.T) {
	state := NewPricingState(math.Precision, unitFraction(1, 100), unitFraction(2, 100))

	// The crossover weighs the old imbalance at the positive factor and the
	// new one at the negative factor.
	impact := state.ImpactForCrossoverRebalance(unit(100), unit(10))
	expected := math.ApplyPrecision(unit(100), unitFraction(1, 100)).
		Sub(math.ApplyPrecision(unit(10), unitFraction(2, 100)))
	require.Equal(t, expected.String(), impact.String())

	impact = state.ImpactForCrossoverRebalance(unit(10), unit(100))
	require.True(t, impact.IsNegative())
}
