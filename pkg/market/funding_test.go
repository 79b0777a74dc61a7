package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

func staticFundingState(now time.Time) FundingState {
	return NewFundingState(FundingConfig{
		FundingFactor:            unitFraction(1, 100),
		FundingExponentFactor:    math.Precision,
		MinFundingFactorPS:       sdkmath.ZeroInt(),
		MaxFundingFactorPS:       unit(1),
		ThresholdStableFunding:   sdkmath.ZeroInt(),
		ThresholdDecreaseFunding: sdkmath.ZeroInt(),
		FundingIncreaseFactorPS:  sdkmath.ZeroInt(),
		FundingDecreaseFactorPS:  sdkmath.ZeroInt(),
	}, now)
}

func dynamicFundingState(now time.Time) FundingState {
	return NewFundingState(FundingConfig{
		FundingFactor:            unitFraction(1, 100),
		FundingExponentFactor:    math.Precision,
		MinFundingFactorPS:       sdkmath.ZeroInt(),
		MaxFundingFactorPS:       unit(1000),
		ThresholdStableFunding:   unitFraction(1, 10),
		ThresholdDecreaseFunding: unitFraction(5, 100),
		FundingIncreaseFactorPS:  unitFraction(1, 100),
		FundingDecreaseFactorPS:  sdkmath.NewInt(100),
	}, now)
}

func TestUpdateFundingFactorZeroSkew(t *testing.T) {
	state := staticFundingState(testEpoch)
	state.NextFundingFactorPS = unit(1)

	state.UpdateFundingFactorPS(sdkmath.ZeroInt(), unit(100), testEpoch.Add(time.Minute))
	require.True(t, state.NextFundingFactorPS.IsZero())

	state.NextFundingFactorPS = unit(1)
	state.UpdateFundingFactorPS(unit(10), sdkmath.ZeroInt(), testEpoch.Add(2*time.Minute))
	require.True(t, state.NextFundingFactorPS.IsZero())
}

func TestUpdateFundingFactorStaticRegime(t *testing.T) {
	state := staticFundingState(testEpoch)

	// Longs lead by 50 of 200 total: skew ratio 0.25, factor 0.25 * 0.01.
	state.UpdateFundingFactorPS(unit(50), unit(200), testEpoch.Add(time.Minute))

	expected := math.ApplyPrecision(unitFraction(25, 100), unitFraction(1, 100))
	require.Equal(t, expected.String(), state.NextFundingFactorPS.String())

	// Shorts leading flips the sign.
	state.UpdateFundingFactorPS(unit(50).Neg(), unit(200), testEpoch.Add(2*time.Minute))
	require.Equal(t, expected.Neg().String(), state.NextFundingFactorPS.String())
}

func TestUpdateFundingFactorStaticClamp(t *testing.T) {
	state := staticFundingState(testEpoch)
	state.MaxFundingFactorPS = sdkmath.NewInt(7)

	state.UpdateFundingFactorPS(unit(50), unit(200), testEpoch.Add(time.Minute))
	require.Equal(t, int64(7), state.NextFundingFactorPS.Int64())
}

func TestUpdateFundingFactorDynamicIncrease(t *testing.T) {
	state := dynamicFundingState(testEpoch)

	// Skew ratio 0.25 above the stable threshold, 60 seconds elapsed:
	// delta = 0.25 * 0.01 * 60.
	state.UpdateFundingFactorPS(unit(50), unit(200), testEpoch.Add(time.Minute))

	expected := math.ApplyPrecision(unitFraction(25, 100), unitFraction(1, 100)).MulRaw(60)
	require.Equal(t, expected.String(), state.NextFundingFactorPS.String())
}

func TestUpdateFundingFactorDynamicIncreaseOppositeSkew(t *testing.T) {
	state := dynamicFundingState(testEpoch)
	state.NextFundingFactorPS = unit(1)

	// The skew flipped to the short side: funding ramps the other way from
	// the current positive factor.
	state.UpdateFundingFactorPS(unit(50).Neg(), unit(200), testEpoch.Add(time.Minute))

	delta := math.ApplyPrecision(unitFraction(25, 100), unitFraction(1, 100)).MulRaw(60)
	require.Equal(t, unit(1).Sub(delta).String(), state.NextFundingFactorPS.String())
}

func TestUpdateFundingFactorDynamicDecrease(t *testing.T) {
	state := dynamicFundingState(testEpoch)
	state.NextFundingFactorPS = sdkmath.NewInt(100_000)

	// Skew ratio 0.01 is under the decrease threshold of 0.05:
	// the factor shrinks by decrease_rate * elapsed = 100 * 60.
	state.UpdateFundingFactorPS(unit(2), unit(200), testEpoch.Add(time.Minute))

	require.Equal(t, int64(94_000), state.NextFundingFactorPS.Int64())
}

func TestUpdateFundingFactorDecreaseKeepsSignAtUnit(t *testing.T) {
	state := dynamicFundingState(testEpoch)
	state.NextFundingFactorPS = sdkmath.NewInt(-50)

	// The decrease overshoots the magnitude: the factor pins to -1 instead
	// of flipping sign.
	state.UpdateFundingFactorPS(unit(2).Neg(), unit(200), testEpoch.Add(time.Minute))

	require.Equal(t, int64(-1), state.NextFundingFactorPS.Int64())
}

func TestSettleFundingSymmetry(t *testing.T) {
	mkt := bootstrapMarket(t, unit(10000), unit(100), testEpoch)

	openTestPosition(t, mkt, true, unit(30), unit(2), unit(1), testEpoch)
	openTestPosition(t, mkt, false, unit(10), unit(2), unit(1), testEpoch)

	// Longs lead, so seed a positive factor and let an hour accrue.
	mkt.Funding.NextFundingFactorPS = sdkmath.NewInt(1_000_000)
	mkt.Funding.LastTimeUpdated = testEpoch

	later := testEpoch.Add(time.Hour)
	mkt.SettleFunding(later)

	longs := mkt.Bias.Longs
	shorts := mkt.Bias.Shorts

	// Longs paid, shorts received.
	require.True(t, longs.CumulativeFundingFactor.IsNegative())
	require.True(t, shorts.CumulativeFundingFactor.IsPositive())

	// The value paid by longs matches the value received by shorts within
	// the rounding of one MulDiv.
	paid := math.ApplyPrecision(longs.CumulativeFundingFactor.Abs(), longs.TotalOpenInterest)
	received := math.ApplyPrecision(shorts.CumulativeFundingFactor, shorts.TotalOpenInterest)
	require.True(t, math.Diff(paid, received).LTE(sdkmath.NewInt(1)),
		"funding asymmetry: paid %s received %s", paid, received)

	// Dynamic open interest moved by the same values.
	require.Equal(t, longs.TotalOpenInterest.Sub(paid).String(), longs.TotalOpenInterestDynamic.String())
	require.Equal(t, shorts.TotalOpenInterest.Add(received).String(), shorts.TotalOpenInterestDynamic.String())
}

func TestSettleFundingSkipsEmptySide(t *testing.T) {
	mkt := bootstrapMarket(t, unit(10000), unit(100), testEpoch)
	openTestPosition(t, mkt, true, unit(30), unit(2), unit(1), testEpoch)

	mkt.Funding.NextFundingFactorPS = sdkmath.NewInt(1_000_000)
	mkt.SettleFunding(testEpoch.Add(time.Hour))

	// No counterparty: nothing accrues, but the factor is recomputed.
	require.True(t, mkt.Bias.Longs.CumulativeFundingFactor.IsZero())
	require.True(t, mkt.Bias.Shorts.CumulativeFundingFactor.IsZero())
}
