package market

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// LiquidityState is the pool-side ledger of a market: deposits, outstanding
// shares and the buckets free liquidity is partitioned into while positions
// are open.
type LiquidityState struct {
	// TotalDeposit is everything deposited into the market by liquidity
	// providers and traders.
	TotalDeposit sdkmath.Int

	// TotalLiquidityShares is the number of pool shares outstanding.
	TotalLiquidityShares sdkmath.Int

	// FreeLiquidity is the unused house liquidity.
	FreeLiquidity sdkmath.Int

	// CurrentLongsReserve and CurrentShortsReserve are the notionals
	// earmarked to pay out each side's maximum profit.
	CurrentLongsReserve  sdkmath.Int
	CurrentShortsReserve sdkmath.Int

	// CurrentNetTraderDebt is the leverage debt lent to open positions.
	CurrentNetTraderDebt sdkmath.Int

	// CurrentBorrowFeesOwed is the borrow fees accrued by open positions and
	// not yet realised by a close.
	CurrentBorrowFeesOwed sdkmath.Int

	// CurrentHouseBadDebt is the deficit incurred when positions could not
	// fully pay funding at close. It reduces pool valuation until repaid.
	CurrentHouseBadDebt sdkmath.Int

	// LongsMaxReserveFactor and ShortsMaxReserveFactor cap each side's
	// reserve as a fraction of house value.
	LongsMaxReserveFactor  sdkmath.Int
	ShortsMaxReserveFactor sdkmath.Int

	// LiquidationFactor configures the collateral fraction below which a
	// position is liquidatable.
	LiquidationFactor sdkmath.Int

	// LastTimeBorrowFeesCollected is when borrow fees were last accrued.
	LastTimeBorrowFeesCollected time.Time
}

// LiquidityConfig carries the market-creation parameters for the pool.
type LiquidityConfig struct {
	LongsMaxReserveFactor  sdkmath.Int
	ShortsMaxReserveFactor sdkmath.Int
	LiquidationFactor      sdkmath.Int
}

// NewLiquidityState returns an empty pool ledger.
func NewLiquidityState(cfg LiquidityConfig, now time.Time) LiquidityState {
	return LiquidityState{
		TotalDeposit:                sdkmath.ZeroInt(),
		TotalLiquidityShares:        sdkmath.ZeroInt(),
		FreeLiquidity:               sdkmath.ZeroInt(),
		CurrentLongsReserve:         sdkmath.ZeroInt(),
		CurrentShortsReserve:        sdkmath.ZeroInt(),
		CurrentNetTraderDebt:        sdkmath.ZeroInt(),
		CurrentBorrowFeesOwed:       sdkmath.ZeroInt(),
		CurrentHouseBadDebt:         sdkmath.ZeroInt(),
		LongsMaxReserveFactor:       cfg.LongsMaxReserveFactor,
		ShortsMaxReserveFactor:      cfg.ShortsMaxReserveFactor,
		LiquidationFactor:           cfg.LiquidationFactor,
		LastTimeBorrowFeesCollected: now,
	}
}

// StaticValue is the pool's accounting value before marking trader PnL: the
// sum of its buckets minus bad debt. Signed, because extreme bad debt can
// push it below zero.
func (l LiquidityState) StaticValue() sdkmath.Int {
	return l.FreeLiquidity.
		Add(l.CurrentLongsReserve).
		Add(l.CurrentShortsReserve).
		Add(l.CurrentNetTraderDebt).
		Add(l.CurrentBorrowFeesOwed).
		Sub(l.CurrentHouseBadDebt)
}

// SideReserve returns the requested side's current reserve bucket.
func (l *LiquidityState) SideReserve(long bool) *sdkmath.Int {
	if long {
		return &l.CurrentLongsReserve
	}
	return &l.CurrentShortsReserve
}

// SideMaxReserveFactor returns the requested side's reserve cap factor.
func (l LiquidityState) SideMaxReserveFactor(long bool) sdkmath.Int {
	if long {
		return l.LongsMaxReserveFactor
	}
	return l.ShortsMaxReserveFactor
}

// HasReserve reports whether either side currently has reserve earmarked.
func (l LiquidityState) HasReserve() bool {
	return l.CurrentLongsReserve.IsPositive() || l.CurrentShortsReserve.IsPositive()
}
