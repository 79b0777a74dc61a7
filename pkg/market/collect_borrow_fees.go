package market

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// CollectBorrowFees accrues each side's borrowing charge since the last
// collection and credits the pool's owed borrow fees. Requires a fresh
// price; returns Waiting otherwise with no state changed.
func (m *Market) CollectBorrowFees(now time.Time) Status {
	price, ok := m.FreshPrice(now)
	if !ok {
		return StatusWaiting
	}
	m.collectBorrowFeesWithPrice(price, now)
	return StatusSettled
}

func (m *Market) collectBorrowFeesWithPrice(price sdkmath.Int, now time.Time) {
	poolValue := m.HouseValue(price)

	longsFactorPS := m.Bias.Longs.BorrowingFactorPS(poolValue, m.Bias.Longs.ReserveValue(price, true))
	shortsFactorPS := m.Bias.Shorts.BorrowingFactorPS(poolValue, m.Bias.Shorts.ReserveValue(price, false))

	elapsed := now.Sub(m.Liquidity.LastTimeBorrowFeesCollected)
	if elapsed < 0 {
		elapsed = 0
	}
	duration := sdkmath.NewInt(int64(elapsed.Seconds()))

	longsCharge := m.Bias.Longs.ApplyCumulativeBorrowing(longsFactorPS.Mul(duration))
	shortsCharge := m.Bias.Shorts.ApplyCumulativeBorrowing(shortsFactorPS.Mul(duration))

	m.Liquidity.LastTimeBorrowFeesCollected = now
	m.Liquidity.CurrentBorrowFeesOwed = m.Liquidity.CurrentBorrowFeesOwed.
		Add(longsCharge).
		Add(shortsCharge)
}
