package market

import (
	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

// BiasDeltas bundles the five additive updates applied to a side on open and
// close. Close passes the open deltas negated, which keeps the inversion
// auditable in one place.
type BiasDeltas struct {
	OpenInterest        sdkmath.Int
	OpenInterestDynamic sdkmath.Int
	Units               sdkmath.Int
	TraderDebt          sdkmath.Int
	Reserve             sdkmath.Int
}

// Negated returns the deltas with every field negated.
func (d BiasDeltas) Negated() BiasDeltas {
	return BiasDeltas{
		OpenInterest:        d.OpenInterest.Neg(),
		OpenInterestDynamic: d.OpenInterestDynamic.Neg(),
		Units:               d.Units.Neg(),
		TraderDebt:          d.TraderDebt.Neg(),
		Reserve:             d.Reserve.Neg(),
	}
}

// BiasDetails tracks one side (long or short) of a market.
type BiasDetails struct {
	// TotalOpenInterest is the sum of collateral plus debt across open
	// positions on this side.
	TotalOpenInterest sdkmath.Int

	// TotalOpenInterestDynamic is the side's remaining claim on the pool:
	// it starts equal to the open interest, is reduced by borrowing accruals
	// and adjusted by funding accruals. Signed; a negative value is bad debt
	// already incurred by the side.
	TotalOpenInterestDynamic sdkmath.Int

	// TotalUnits is the sum of index-asset units bought (longs) or sold
	// (shorts).
	TotalUnits sdkmath.Int

	// TotalReserve is the sum of per-position max reserves.
	TotalReserve sdkmath.Int

	// TotalTraderDebt is the leverage-sourced debt on this side.
	TotalTraderDebt sdkmath.Int

	// CurrentBorrowingFactor is the accumulated borrowing factor charged at
	// the next collection.
	CurrentBorrowingFactor sdkmath.Int

	// CumulativeFundingFactor is the signed cumulative funding factor since
	// epoch.
	CumulativeFundingFactor sdkmath.Int

	// CumulativeBorrowingFactor is the cumulative borrowing factor since
	// epoch.
	CumulativeBorrowingFactor sdkmath.Int

	// BaseBorrowingFactor and BorrowingExponentFactor parameterise the
	// borrowing-rate curve for this side.
	BaseBorrowingFactor     sdkmath.Int
	BorrowingExponentFactor sdkmath.Int
}

// NewBiasDetails returns a zeroed side with the given borrowing curve.
func NewBiasDetails(baseBorrowingFactor, borrowingExponentFactor sdkmath.Int) BiasDetails {
	return BiasDetails{
		TotalOpenInterest:         sdkmath.ZeroInt(),
		TotalOpenInterestDynamic:  sdkmath.ZeroInt(),
		TotalUnits:                sdkmath.ZeroInt(),
		TotalReserve:              sdkmath.ZeroInt(),
		TotalTraderDebt:           sdkmath.ZeroInt(),
		CurrentBorrowingFactor:    sdkmath.ZeroInt(),
		CumulativeFundingFactor:   sdkmath.ZeroInt(),
		CumulativeBorrowingFactor: sdkmath.ZeroInt(),
		BaseBorrowingFactor:       baseBorrowingFactor,
		BorrowingExponentFactor:   borrowingExponentFactor,
	}
}

// Apply adds the deltas to the side's totals. Callers precompute values
// consistent with the market invariants; no validation happens here.
func (b *BiasDetails) Apply(deltas BiasDeltas) {
	b.TotalOpenInterest = b.TotalOpenInterest.Add(deltas.OpenInterest)
	b.TotalOpenInterestDynamic = b.TotalOpenInterestDynamic.Add(deltas.OpenInterestDynamic)
	b.TotalUnits = b.TotalUnits.Add(deltas.Units)
	b.TotalTraderDebt = b.TotalTraderDebt.Add(deltas.TraderDebt)
	b.TotalReserve = b.TotalReserve.Add(deltas.Reserve)
}

// ApplyCumulativeFunding accrues a signed funding factor delta. A positive
// delta means this side received funding and its dynamic open interest grows.
func (b *BiasDetails) ApplyCumulativeFunding(delta sdkmath.Int) {
	value := math.ApplyPrecision(delta.Abs(), b.TotalOpenInterest)
	if delta.IsNegative() {
		value = value.Neg()
	}

	b.TotalOpenInterestDynamic = b.TotalOpenInterestDynamic.Add(value)
	b.CumulativeFundingFactor = b.CumulativeFundingFactor.Add(delta)
}

// ApplyCumulativeBorrowing charges the previously accumulated borrowing
// factor against the side's dynamic open interest, folds it into the
// cumulative factor and stores the next accumulated factor. Returns the
// charged value so the pool ledger can credit its owed borrow fees.
func (b *BiasDetails) ApplyCumulativeBorrowing(next sdkmath.Int) sdkmath.Int {
	previous := b.CurrentBorrowingFactor

	value := math.ApplyPrecision(previous, b.TotalOpenInterest)

	b.TotalOpenInterestDynamic = b.TotalOpenInterestDynamic.Sub(value)
	b.CumulativeBorrowingFactor = b.CumulativeBorrowingFactor.Add(previous)
	b.CurrentBorrowingFactor = next

	return value
}

// HousePnL is the pool's signed gain from this side at the given price. The
// pool takes the other side of every position, so the long side's expression
// falls when the price rises. Bounded below by the side's reserve plus any
// bad debt already incurred, and above by what the side still owes net of
// debt.
func (b BiasDetails) HousePnL(price sdkmath.Int, isLong bool) sdkmath.Int {
	raw := b.TotalOpenInterest.Sub(math.ApplyPrecision(b.TotalUnits, price))
	if !isLong {
		raw = raw.Neg()
	}

	minimum := b.TotalReserve.Neg().Add(math.MinInt(sdkmath.ZeroInt(), b.TotalOpenInterestDynamic))
	maximum := b.TotalOpenInterestDynamic.Sub(b.TotalTraderDebt)

	return math.BoundSigned(raw, minimum, maximum)
}

// TradersPnL is the symmetric dual of HousePnL: the side's aggregate signed
// profit, bounded above by the side's reserve and below by its residual claim
// net of debt.
func (b BiasDetails) TradersPnL(price sdkmath.Int, isLong bool) sdkmath.Int {
	raw := math.ApplyPrecision(b.TotalUnits, price).Sub(b.TotalOpenInterest)
	if !isLong {
		raw = raw.Neg()
	}

	minimum := math.MinInt(sdkmath.ZeroInt(), b.TotalOpenInterestDynamic.Sub(b.TotalTraderDebt))

	return math.BoundSigned(raw, minimum, b.TotalReserve)
}

// ReserveValue is the notional the pool must currently hold ready to pay the
// side: its dynamic open interest plus its marked profit.
func (b BiasDetails) ReserveValue(price sdkmath.Int, isLong bool) sdkmath.Int {
	value := b.TotalOpenInterestDynamic.Add(b.TradersPnL(price, isLong))
	return math.BoundBelowSigned(value, sdkmath.ZeroInt())
}

// BorrowingFactorPS derives the side's borrowing factor per second from the
// pool value and the side's reserve value.
func (b BiasDetails) BorrowingFactorPS(poolValue, reserveValue sdkmath.Int) sdkmath.Int {
	if poolValue.IsZero() {
		return sdkmath.ZeroInt()
	}
	reserveAfterExponent := math.ApplyExponent(reserveValue, b.BorrowingExponentFactor)
	return math.MulDiv(b.BaseBorrowingFactor, reserveAfterExponent, poolValue)
}

// Bias composes the two sides of a market.
type Bias struct {
	Longs  BiasDetails
	Shorts BiasDetails
}

// Side returns the requested side.
func (b *Bias) Side(long bool) *BiasDetails {
	if long {
		return &b.Longs
	}
	return &b.Shorts
}

// LongShortDiff is the signed difference between long and short open
// interest.
func (b Bias) LongShortDiff() sdkmath.Int {
	return b.Longs.TotalOpenInterest.Sub(b.Shorts.TotalOpenInterest)
}

// TotalOpenInterest sums both sides' open interest.
func (b Bias) TotalOpenInterest() sdkmath.Int {
	return b.Longs.TotalOpenInterest.Add(b.Shorts.TotalOpenInterest)
}

// NetHousePnL is the pool's aggregate signed gain across both sides.
func (b Bias) NetHousePnL(price sdkmath.Int) sdkmath.Int {
	return b.Longs.HousePnL(price, true).Add(b.Shorts.HousePnL(price, false))
}
