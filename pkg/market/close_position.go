package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/math"
	"github.com/margined-protocol/clearing-core/pkg/position"
)

// ClosePositionResult is the outcome of a close attempt.
type ClosePositionResult struct {
	Status Status

	// Payout is what the owner receives; credited to the user balance in
	// the facade.
	Payout sdkmath.Int

	Err error
}

// ClosePosition settles a position against the pool at the current price.
// Requires a fresh price; returns Waiting otherwise with no state changed.
func (m *Market) ClosePosition(pos position.Details, acceptablePrice sdkmath.Int, now time.Time) ClosePositionResult {
	price, ok := m.FreshPrice(now)
	if !ok {
		return ClosePositionResult{Status: StatusWaiting}
	}
	return m.closePositionWithPrice(pos, acceptablePrice, price)
}

func (m *Market) closePositionWithPrice(pos position.Details, acceptablePrice, price sdkmath.Int) ClosePositionResult {
	// A closing long fails below the acceptable price, a closing short
	// above it.
	if (pos.Long && price.LT(acceptablePrice)) ||
		(!pos.Long && price.GT(acceptablePrice)) {
		return ClosePositionResult{Status: StatusFailed, Err: errors.ErrPriceLimitExceeded}
	}

	netBorrowingFee := pos.NetBorrowingFee(m.CumulativeBorrowingFactor(pos.Long))
	netFundingFee := pos.NetFundingFee(m.CumulativeFundingFactor(pos.Long))
	positionPnL := pos.PnL(price)

	var settlement position.Settlement
	if netFundingFee.IsNegative() {
		settlement = pos.SettleWithNegativeFunding(m.Liquidity.FreeLiquidity, netFundingFee, netBorrowingFee, positionPnL)
	} else {
		settlement = pos.SettleWithPositiveFunding(m.Liquidity.FreeLiquidity, netFundingFee, netBorrowingFee, positionPnL)
	}

	openInterest := pos.OpenInterest()
	deltaOpenInterestDynamic := openInterest.Add(netFundingFee).Sub(netBorrowingFee)

	m.Bias.Side(pos.Long).Apply(BiasDeltas{
		OpenInterest:        openInterest,
		OpenInterestDynamic: deltaOpenInterestDynamic,
		Units:               pos.Units,
		TraderDebt:          pos.Debt,
		Reserve:             pos.MaxReserve,
	}.Negated())

	// The position's share of debt and accrued borrow fees is removed even
	// when it could not fully repay them.
	m.Liquidity.CurrentNetTraderDebt = m.Liquidity.CurrentNetTraderDebt.Sub(pos.Debt)
	m.Liquidity.CurrentBorrowFeesOwed = math.SaturatingSub(m.Liquidity.CurrentBorrowFeesOwed, netBorrowingFee)

	payout := math.MinInt(settlement.Payout, m.Liquidity.TotalDeposit)
	m.Liquidity.TotalDeposit = m.Liquidity.TotalDeposit.Sub(payout)

	// Bad debt is repaid before free liquidity is restored.
	badDebtRemoved := math.MinInt(settlement.NetFreeLiquidity, m.Liquidity.CurrentHouseBadDebt)
	m.Liquidity.CurrentHouseBadDebt = m.Liquidity.CurrentHouseBadDebt.
		Add(settlement.NewHouseBadDebt).
		Sub(badDebtRemoved)
	m.Liquidity.FreeLiquidity = settlement.NetFreeLiquidity.Sub(badDebtRemoved)

	sideReserve := m.Liquidity.SideReserve(pos.Long)
	*sideReserve = sideReserve.Sub(pos.MaxReserve)

	return ClosePositionResult{Status: StatusSettled, Payout: payout}
}
