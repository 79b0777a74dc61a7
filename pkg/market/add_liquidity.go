package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/math"
)

// AddLiquidityParams are the depositor-supplied inputs for adding liquidity.
type AddLiquidityParams struct {
	// Amount of quote asset to deposit, precision scaled.
	Amount sdkmath.Int

	// MinSharesOut is the slippage floor on the shares minted.
	MinSharesOut sdkmath.Int
}

// LiquidityResult is the outcome of an add- or remove-liquidity attempt.
type LiquidityResult struct {
	Status Status

	// AmountOut is shares minted on add, quote asset paid on remove.
	AmountOut sdkmath.Int

	Err error
}

// AddLiquidity deposits quote asset into the pool against newly minted
// shares. A fresh price is only required once the pool has shares
// outstanding or reserve earmarked; the very first deposit bootstraps the
// pool at one share per unit.
func (m *Market) AddLiquidity(params AddLiquidityParams, now time.Time) LiquidityResult {
	needsPrice := m.Liquidity.TotalLiquidityShares.IsPositive() || m.Liquidity.HasReserve()

	price := sdkmath.ZeroInt()
	if needsPrice {
		fresh, ok := m.FreshPrice(now)
		if !ok {
			return LiquidityResult{Status: StatusWaiting}
		}
		price = fresh
	}

	return m.addLiquidityWithPrice(params, price)
}

func (m *Market) addLiquidityWithPrice(params AddLiquidityParams, price sdkmath.Int) LiquidityResult {
	liquidity := &m.Liquidity

	var sharesOut sdkmath.Int
	if liquidity.TotalLiquidityShares.IsZero() {
		sharesOut = params.Amount
	} else {
		houseValue := m.HouseValue(price)
		if houseValue.IsZero() {
			return LiquidityResult{Status: StatusFailed, Err: errors.ErrHouseValueZero}
		}
		sharesOut = math.MulDiv(params.Amount, liquidity.TotalLiquidityShares, houseValue)
	}

	if sharesOut.LT(params.MinSharesOut) {
		return LiquidityResult{Status: StatusFailed, Err: errors.ErrSharesBelowMin}
	}

	liquidity.TotalDeposit = liquidity.TotalDeposit.Add(params.Amount)

	// Bad debt absorbs the deposit first; free liquidity only grows once the
	// debt is fully cleared.
	repaid := math.MinInt(liquidity.CurrentHouseBadDebt, params.Amount)
	if repaid.Equal(liquidity.CurrentHouseBadDebt) {
		liquidity.FreeLiquidity = liquidity.FreeLiquidity.Add(params.Amount.Sub(repaid))
	}
	liquidity.CurrentHouseBadDebt = liquidity.CurrentHouseBadDebt.Sub(repaid)

	liquidity.TotalLiquidityShares = liquidity.TotalLiquidityShares.Add(sharesOut)

	return LiquidityResult{Status: StatusSettled, AmountOut: sharesOut}
}
