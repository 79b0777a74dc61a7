package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/math"
	"github.com/margined-protocol/clearing-core/pkg/position"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// OpenPositionParams are the trader-supplied inputs for opening a position.
type OpenPositionParams struct {
	Owner types.Principal
	Long  bool

	// Collateral backing the position, precision scaled.
	Collateral sdkmath.Int

	// LeverageFactor is the total position size as a multiple of collateral.
	LeverageFactor sdkmath.Int

	// ReserveFactor caps the position's profit as a multiple of its open
	// interest.
	ReserveFactor sdkmath.Int

	// AcceptablePrice bounds slippage in the trader's disfavour: a long
	// fails above it, a short below it.
	AcceptablePrice sdkmath.Int
}

// OpenPositionResult is the outcome of an open attempt.
type OpenPositionResult struct {
	Status   Status
	Position position.Details
	Err      error
}

// OpenPosition opens a leveraged position against the pool. Requires a fresh
// price; returns Waiting otherwise with no state changed.
func (m *Market) OpenPosition(params OpenPositionParams, now time.Time) OpenPositionResult {
	price, ok := m.FreshPrice(now)
	if !ok {
		return OpenPositionResult{Status: StatusWaiting}
	}
	return m.openPositionWithPrice(params, price)
}

func (m *Market) openPositionWithPrice(params OpenPositionParams, price sdkmath.Int) OpenPositionResult {
	if (params.Long && price.GT(params.AcceptablePrice)) ||
		(!params.Long && price.LT(params.AcceptablePrice)) {
		return OpenPositionResult{Status: StatusFailed, Err: errors.ErrPriceLimitExceeded}
	}

	if params.LeverageFactor.GT(m.Config.MaxLeverageFactor) {
		return OpenPositionResult{Status: StatusFailed, Err: errors.ErrExceedsLeverage}
	}
	if params.ReserveFactor.GT(m.Config.MaxReserveFactor) {
		return OpenPositionResult{Status: StatusFailed, Err: errors.ErrExceedsReserve}
	}

	debt := math.ApplyPrecision(params.LeverageFactor, params.Collateral).Sub(params.Collateral)
	reserve := math.ApplyPrecision(params.ReserveFactor, params.Collateral.Add(debt))

	houseValue := m.HouseValue(price)
	sideMaxReserve := math.ApplyPrecision(m.Liquidity.SideMaxReserveFactor(params.Long), houseValue)
	sideReserve := m.Liquidity.SideReserve(params.Long)

	if debt.Add(reserve).GT(m.Liquidity.FreeLiquidity) {
		return OpenPositionResult{Status: StatusFailed, Err: errors.ErrExceedsFreeLiquidity}
	}
	if reserve.Add(*sideReserve).GT(sideMaxReserve) {
		return OpenPositionResult{Status: StatusFailed, Err: errors.ErrExceedsSideReserve}
	}

	m.Liquidity.FreeLiquidity = m.Liquidity.FreeLiquidity.Sub(debt.Add(reserve))
	m.Liquidity.CurrentNetTraderDebt = m.Liquidity.CurrentNetTraderDebt.Add(debt)
	*sideReserve = sideReserve.Add(reserve)
	m.Liquidity.TotalDeposit = m.Liquidity.TotalDeposit.Add(params.Collateral)

	openInterest := params.Collateral.Add(debt)
	units := math.ToPrecision(openInterest, price)

	m.Bias.Side(params.Long).Apply(BiasDeltas{
		OpenInterest:        openInterest,
		OpenInterestDynamic: openInterest,
		Units:               units,
		TraderDebt:          debt,
		Reserve:             reserve,
	})

	// Collateral and the execution fee are debited from the user balance in
	// the facade.
	return OpenPositionResult{
		Status: StatusSettled,
		Position: position.Details{
			Owner:                          params.Owner,
			Long:                           params.Long,
			Collateral:                     params.Collateral,
			Debt:                           debt,
			Units:                          units,
			MaxReserve:                     reserve,
			EntryCumulativeFundingFactor:   m.CumulativeFundingFactor(params.Long),
			EntryCumulativeBorrowingFactor: m.CumulativeBorrowingFactor(params.Long),
		},
	}
}
