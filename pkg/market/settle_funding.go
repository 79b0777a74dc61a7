package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

// SettleFunding accrues the funding owed since the last settlement: the
// majority side pays its factor, the minority side receives it scaled by the
// open-interest ratio so both legs move the same notional. The per-second
// factor is then recomputed from the fresh skew.
func (m *Market) SettleFunding(now time.Time) {
	longs := &m.Bias.Longs
	shorts := &m.Bias.Shorts

	factorPS := m.Funding.NextFundingFactorPS
	duration := sdkmath.NewInt(m.Funding.SecondsSinceLastUpdate(now))

	longOpenInterest := longs.TotalOpenInterest
	shortOpenInterest := shorts.TotalOpenInterest

	if !factorPS.IsZero() && longOpenInterest.IsPositive() && shortOpenInterest.IsPositive() {
		majority := factorPS.Mul(duration)

		if factorPS.IsPositive() {
			// Longs pay shorts.
			longs.ApplyCumulativeFunding(majority.Neg())

			shortsFactor := math.MulDiv(majority, longOpenInterest, shortOpenInterest)
			shorts.ApplyCumulativeFunding(shortsFactor)
		} else {
			// Shorts pay longs.
			shorts.ApplyCumulativeFunding(majority)

			longsFactor := math.MulDiv(majority.Abs(), shortOpenInterest, longOpenInterest)
			longs.ApplyCumulativeFunding(longsFactor)
		}
	}

	m.Funding.UpdateFundingFactorPS(m.Bias.LongShortDiff(), m.Bias.TotalOpenInterest(), now)
}
