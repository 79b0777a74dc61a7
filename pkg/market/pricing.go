package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

// PricingState holds the latest oracle observation for a market, scaled to
// quote/base at the house precision, plus the price-impact curve parameters.
type PricingState struct {
	// Price is the quote/base rate, precision scaled.
	Price sdkmath.Int

	// LastFetched is when Price was observed.
	LastFetched time.Time

	// Price-impact curve parameters. The curve is computed but not yet
	// applied to open or close.
	PriceImpactExponentFactor sdkmath.Int
	PositivePriceImpactFactor sdkmath.Int
	NegativePriceImpactFactor sdkmath.Int
}

// NewPricingState returns an empty pricing state with the given impact curve.
func NewPricingState(impactExponent, positiveImpact, negativeImpact sdkmath.Int) PricingState {
	return PricingState{
		Price:                     sdkmath.ZeroInt(),
		PriceImpactExponentFactor: impactExponent,
		PositivePriceImpactFactor: positiveImpact,
		NegativePriceImpactFactor: negativeImpact,
	}
}

// PriceWithin returns the stored price if it is no older than interval.
func (p PricingState) PriceWithin(interval time.Duration, now time.Time) (sdkmath.Int, bool) {
	if p.LastFetched.IsZero() || now.Sub(p.LastFetched) > interval {
		return sdkmath.Int{}, false
	}
	return p.Price, true
}

// UpdatePrice stores a precision-scaled price observed now.
func (p *PricingState) UpdatePrice(price sdkmath.Int, now time.Time) {
	p.Price = price
	p.LastFetched = now
}

// UpdateFromOracle scales a raw oracle rate into the house precision and
// stores it. Returns the stored price.
func (p *PricingState) UpdateFromOracle(rate uint64, decimals uint32, now time.Time) sdkmath.Int {
	scale := sdkmath.NewIntWithDecimal(1, int(decimals))
	price := math.ToPrecision(sdkmath.NewIntFromUint64(rate), scale)
	p.UpdatePrice(price, now)
	return price
}

// ImpactForSameSideRebalance is the price impact when an order changes the
// open-interest imbalance without flipping its direction. Shrinking the
// imbalance has positive impact, growing it negative.
func (p PricingState) ImpactForSameSideRebalance(initialDiff, nextDiff sdkmath.Int) sdkmath.Int {
	hasPositiveImpact := nextDiff.LT(initialDiff)

	impactFactor := p.NegativePriceImpactFactor
	if hasPositiveImpact {
		impactFactor = p.PositivePriceImpactFactor
	}

	deltaDiff := math.Diff(
		p.applyImpactFactor(initialDiff, impactFactor),
		p.applyImpactFactor(nextDiff, impactFactor),
	)

	if hasPositiveImpact {
		return deltaDiff
	}
	return deltaDiff.Neg()
}

// ImpactForCrossoverRebalance is the price impact when an order flips the
// imbalance direction, e.g. a short large enough to tip a long-heavy market.
func (p PricingState) ImpactForCrossoverRebalance(initialDiff, nextDiff sdkmath.Int) sdkmath.Int {
	positiveImpact := p.applyImpactFactor(initialDiff, p.PositivePriceImpactFactor)
	negativeImpact := p.applyImpactFactor(nextDiff, p.NegativePriceImpactFactor)

	deltaDiff := math.Diff(positiveImpact, negativeImpact)

	if positiveImpact.GT(negativeImpact) {
		return deltaDiff
	}
	return deltaDiff.Neg()
}

func (p PricingState) applyImpactFactor(diff, impactFactor sdkmath.Int) sdkmath.Int {
	exponentValue := math.ApplyExponent(diff, p.PriceImpactExponentFactor)
	return math.ApplyPrecision(exponentValue, impactFactor)
}
