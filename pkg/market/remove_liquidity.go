package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/math"
)

// RemoveLiquidityParams are the inputs for burning shares against the pool.
type RemoveLiquidityParams struct {
	// SharesIn is the number of shares to burn.
	SharesIn sdkmath.Int

	// MinAmountOut is the slippage floor on the quote asset paid out.
	MinAmountOut sdkmath.Int
}

// RemoveLiquidity burns shares for their proportion of house value, capped
// by free liquidity. Requires a fresh price; returns Waiting otherwise with
// no state changed.
func (m *Market) RemoveLiquidity(params RemoveLiquidityParams, now time.Time) LiquidityResult {
	price, ok := m.FreshPrice(now)
	if !ok {
		return LiquidityResult{Status: StatusWaiting}
	}
	return m.removeLiquidityWithPrice(params, price)
}

func (m *Market) removeLiquidityWithPrice(params RemoveLiquidityParams, price sdkmath.Int) LiquidityResult {
	liquidity := &m.Liquidity

	if liquidity.TotalLiquidityShares.IsZero() {
		return LiquidityResult{Status: StatusFailed, Err: errors.ErrNoLiquidityShares}
	}

	assets := math.MulDiv(m.HouseValue(price), params.SharesIn, liquidity.TotalLiquidityShares)

	payable := math.MinInt(assets, liquidity.FreeLiquidity)
	if payable.LT(params.MinAmountOut) {
		return LiquidityResult{Status: StatusFailed, Err: errors.ErrPayoutBelowMin}
	}

	liquidity.FreeLiquidity = liquidity.FreeLiquidity.Sub(payable)
	liquidity.TotalDeposit = liquidity.TotalDeposit.Sub(payable)
	liquidity.TotalLiquidityShares = liquidity.TotalLiquidityShares.Sub(params.SharesIn)

	return LiquidityResult{Status: StatusSettled, AmountOut: payable}
}
