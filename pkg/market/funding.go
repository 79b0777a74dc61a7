package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

type fundingChangeType int

const (
	fundingNoChange fundingChangeType = iota
	fundingIncrease
	fundingDecrease
)

// FundingState drives skew-based funding: the majority side pays the
// minority side at a per-second rate derived from the open-interest
// imbalance, with separate increase and decrease dynamics and stability
// bands.
type FundingState struct {
	// LastTimeUpdated is when the funding factor was last recomputed.
	LastTimeUpdated time.Time

	// NextFundingFactorPS is the signed per-second factor accruing until the
	// next settlement. Positive means longs pay shorts.
	NextFundingFactorPS sdkmath.Int

	// MinFundingFactorPS and MaxFundingFactorPS bound the factor magnitude.
	MinFundingFactorPS sdkmath.Int
	MaxFundingFactorPS sdkmath.Int

	// FundingFactor and FundingExponentFactor parameterise the static skew
	// curve.
	FundingFactor         sdkmath.Int
	FundingExponentFactor sdkmath.Int

	// ThresholdStableFunding and ThresholdDecreaseFunding delimit the bands
	// in which the dynamic factor grows, shrinks or holds.
	ThresholdStableFunding   sdkmath.Int
	ThresholdDecreaseFunding sdkmath.Int

	// FundingIncreaseFactorPS and FundingDecreaseFactorPS are the dynamic
	// ramp rates. A zero increase factor selects the static regime.
	FundingIncreaseFactorPS sdkmath.Int
	FundingDecreaseFactorPS sdkmath.Int
}

// FundingConfig carries the market-creation parameters for funding.
type FundingConfig struct {
	FundingFactor            sdkmath.Int
	FundingExponentFactor    sdkmath.Int
	MinFundingFactorPS       sdkmath.Int
	MaxFundingFactorPS       sdkmath.Int
	ThresholdStableFunding   sdkmath.Int
	ThresholdDecreaseFunding sdkmath.Int
	FundingIncreaseFactorPS  sdkmath.Int
	FundingDecreaseFactorPS  sdkmath.Int
}

// NewFundingState returns a funding state with a zero factor.
func NewFundingState(cfg FundingConfig, now time.Time) FundingState {
	return FundingState{
		LastTimeUpdated:          now,
		NextFundingFactorPS:      sdkmath.ZeroInt(),
		MinFundingFactorPS:       cfg.MinFundingFactorPS,
		MaxFundingFactorPS:       cfg.MaxFundingFactorPS,
		FundingFactor:            cfg.FundingFactor,
		FundingExponentFactor:    cfg.FundingExponentFactor,
		ThresholdStableFunding:   cfg.ThresholdStableFunding,
		ThresholdDecreaseFunding: cfg.ThresholdDecreaseFunding,
		FundingIncreaseFactorPS:  cfg.FundingIncreaseFactorPS,
		FundingDecreaseFactorPS:  cfg.FundingDecreaseFactorPS,
	}
}

// SecondsSinceLastUpdate returns the whole seconds elapsed since the factor
// was last recomputed.
func (f FundingState) SecondsSinceLastUpdate(now time.Time) int64 {
	elapsed := now.Sub(f.LastTimeUpdated)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed.Seconds())
}

// UpdateFundingFactorPS recomputes the next per-second funding factor from
// the current open-interest skew.
func (f *FundingState) UpdateFundingFactorPS(longShortDiff, totalOpenInterest sdkmath.Int, now time.Time) {
	defer func() { f.LastTimeUpdated = now }()

	if totalOpenInterest.IsZero() || longShortDiff.IsZero() {
		f.NextFundingFactorPS = sdkmath.ZeroInt()
		return
	}

	elapsed := sdkmath.NewInt(f.SecondsSinceLastUpdate(now))

	// (|imbalance| ^ funding_exponent) / total open interest
	diffAfterExponent := math.ApplyExponent(longShortDiff.Abs(), f.FundingExponentFactor)
	skewRatio := math.ToPrecision(diffAfterExponent, totalOpenInterest)

	if f.FundingIncreaseFactorPS.IsZero() {
		// Static regime: the factor tracks the skew directly.
		factor := math.ApplyPrecision(skewRatio, f.FundingFactor)
		if factor.GT(f.MaxFundingFactorPS) {
			factor = f.MaxFundingFactorPS
		}
		if longShortDiff.IsNegative() {
			factor = factor.Neg()
		}
		f.NextFundingFactorPS = factor
		return
	}

	current := f.NextFundingFactorPS
	next := current

	changeType := fundingNoChange

	sameDirection := (current.IsPositive() && longShortDiff.IsPositive()) ||
		(current.IsNegative() && longShortDiff.IsNegative())

	if sameDirection {
		if skewRatio.GT(f.ThresholdStableFunding) {
			changeType = fundingIncrease
		} else if skewRatio.LT(f.ThresholdDecreaseFunding) {
			changeType = fundingDecrease
		}
	} else {
		// The skew flipped, or no factor is set yet: funding ramps toward
		// the majority side.
		changeType = fundingIncrease
	}

	switch changeType {
	case fundingIncrease:
		increase := math.ApplyPrecision(skewRatio, f.FundingIncreaseFactorPS).Mul(elapsed)
		if longShortDiff.IsNegative() {
			increase = increase.Neg()
		}
		next = current.Add(increase)

	case fundingDecrease:
		if !current.IsZero() {
			decrease := f.FundingDecreaseFactorPS.Mul(elapsed)
			if current.Abs().LTE(decrease) {
				// Keep the sign alive at unit magnitude so the direction is
				// not lost between settlements.
				next = sdkmath.OneInt()
				if current.IsNegative() {
					next = next.Neg()
				}
			} else {
				next = current.Abs().Sub(decrease)
				if current.IsNegative() {
					next = next.Neg()
				}
			}
		}
	}

	f.NextFundingFactorPS = math.BoundMagnitudeSigned(next, f.MinFundingFactorPS, f.MaxFundingFactorPS)
}
