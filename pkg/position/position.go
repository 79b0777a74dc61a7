package position

import (
	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// Details is an open position. It is created by open-position, destroyed by
// close-position and immutable in between.
type Details struct {
	// Owner is the principal the position belongs to.
	Owner types.Principal

	// Long is true for a long and false for a short.
	Long bool

	// Collateral put up when opening the position.
	Collateral sdkmath.Int

	// Debt taken on through leverage.
	Debt sdkmath.Int

	// Units of the index asset bought (longs) or sold (shorts).
	Units sdkmath.Int

	// MaxReserve is the notional the pool earmarked to pay this position's
	// maximum profit.
	MaxReserve sdkmath.Int

	// EntryCumulativeFundingFactor is the side's cumulative funding factor at
	// open time (signed).
	EntryCumulativeFundingFactor sdkmath.Int

	// EntryCumulativeBorrowingFactor is the side's cumulative borrowing
	// factor at open time.
	EntryCumulativeBorrowingFactor sdkmath.Int
}

// OpenInterest is the position's collateral plus debt.
func (d Details) OpenInterest() sdkmath.Int {
	return d.Collateral.Add(d.Debt)
}

// PnL returns the position's signed profit at price, bounded above by the
// position's max reserve.
func (d Details) PnL(price sdkmath.Int) sdkmath.Int {
	unitsValue := math.ApplyPrecision(price, d.Units)

	pnl := unitsValue.Sub(d.OpenInterest())
	if !d.Long {
		pnl = pnl.Neg()
	}
	return math.BoundAboveSigned(pnl, d.MaxReserve)
}

// NetBorrowingFee is the unsigned borrowing fee accrued between open and the
// given cumulative borrowing factor.
func (d Details) NetBorrowingFee(currentCumulativeBorrowingFactor sdkmath.Int) sdkmath.Int {
	netFactor := currentCumulativeBorrowingFactor.Sub(d.EntryCumulativeBorrowingFactor)
	return math.ApplyPrecision(netFactor, d.OpenInterest())
}

// NetFundingFee is the signed funding accrued between open and the given
// cumulative funding factor. Positive means the position receives.
func (d Details) NetFundingFee(currentCumulativeFundingFactor sdkmath.Int) sdkmath.Int {
	netFactor := currentCumulativeFundingFactor.Sub(d.EntryCumulativeFundingFactor)

	fee := math.ApplyPrecision(netFactor.Abs(), d.OpenInterest())
	if netFactor.IsNegative() {
		return fee.Neg()
	}
	return fee
}

// Settlement carries the result of closing a position against the pool.
type Settlement struct {
	// NetFreeLiquidity is the market's free liquidity after the close,
	// before bad-debt netting.
	NetFreeLiquidity sdkmath.Int

	// Payout is what the position owner receives.
	Payout sdkmath.Int

	// NewHouseBadDebt is any funding shortfall the pool could not cover.
	NewHouseBadDebt sdkmath.Int
}

// SettleWithPositiveFunding settles a position that receives funding
// (netFundingFee >= 0). The pool cannot incur bad debt on this path.
func (d Details) SettleWithPositiveFunding(freeLiquidity, netFundingFee, netBorrowingFee, positionPnL sdkmath.Int) Settlement {
	openInterest := d.OpenInterest()
	pnlMagnitude := positionPnL.Abs()

	netFreeLiquidity := freeLiquidity

	payout := math.BoundBelowSigned(
		openInterest.Add(positionPnL).Add(netFundingFee).Sub(netBorrowingFee.Add(d.Debt)),
		sdkmath.ZeroInt(),
	)

	if positionPnL.IsNegative() {
		// Trader lost; the pool captures the loss up to what the position
		// can still cover after borrowing fees and debt.
		valueWithoutPnL := math.BoundBelowSigned(
			openInterest.Sub(netBorrowingFee.Add(d.Debt)).Add(netFundingFee),
			sdkmath.ZeroInt(),
		)
		captured := math.MinInt(valueWithoutPnL, pnlMagnitude)
		netFreeLiquidity = netFreeLiquidity.Add(d.MaxReserve).Add(captured)
	} else {
		netFreeLiquidity = netFreeLiquidity.Add(d.MaxReserve.Sub(pnlMagnitude))
	}

	return Settlement{
		NetFreeLiquidity: netFreeLiquidity,
		Payout:           payout,
		NewHouseBadDebt:  sdkmath.ZeroInt(),
	}
}

// SettleWithNegativeFunding settles a position that pays funding
// (netFundingFee < 0). If the position cannot fully pay, the shortfall is
// drawn from free liquidity and anything beyond that becomes house bad debt.
func (d Details) SettleWithNegativeFunding(freeLiquidity, netFundingFee, netBorrowingFee, positionPnL sdkmath.Int) Settlement {
	openInterest := d.OpenInterest()
	pnlMagnitude := positionPnL.Abs()
	fundingMagnitude := netFundingFee.Abs()

	netFreeLiquidity := freeLiquidity

	valueBeforeFunding := math.BoundBelowSigned(
		openInterest.Add(positionPnL).Sub(netBorrowingFee.Add(d.Debt)),
		sdkmath.ZeroInt(),
	)

	payout := sdkmath.ZeroInt()
	badDebt := sdkmath.ZeroInt()

	if valueBeforeFunding.GTE(fundingMagnitude) {
		payout = valueBeforeFunding.Sub(fundingMagnitude)
		netFreeLiquidity = netFreeLiquidity.Add(d.MaxReserve.Sub(positionPnL))
		return Settlement{NetFreeLiquidity: netFreeLiquidity, Payout: payout, NewHouseBadDebt: badDebt}
	}

	// The position cannot fully pay its funding. Credit the pool as in the
	// solvent case, then draw the remainder from free liquidity.
	if positionPnL.IsNegative() {
		valueWithoutPnL := math.BoundBelowSigned(
			openInterest.Sub(netBorrowingFee.Add(d.Debt)).Sub(fundingMagnitude),
			sdkmath.ZeroInt(),
		)
		captured := math.MinInt(valueWithoutPnL, pnlMagnitude)
		netFreeLiquidity = netFreeLiquidity.Add(d.MaxReserve).Add(captured)
	} else {
		netFreeLiquidity = netFreeLiquidity.Add(d.MaxReserve.Sub(pnlMagnitude))
	}

	delta := netFreeLiquidity.Add(valueBeforeFunding).Sub(fundingMagnitude)
	if delta.IsNegative() {
		netFreeLiquidity = sdkmath.ZeroInt()
		badDebt = delta.Abs()
	} else {
		netFreeLiquidity = delta
	}

	return Settlement{NetFreeLiquidity: netFreeLiquidity, Payout: payout, NewHouseBadDebt: badDebt}
}
