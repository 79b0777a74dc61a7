package position

import (
	"testing"

	"github.com/stretchr/testify/require"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
)

func unit(n int64) sdkmath.Int {
	return math.Precision.MulRaw(n)
}

// newPosition builds a 2x position on the given side: 10 collateral, 10
// debt, entry price 100.
func newPosition(long bool) Details {
	openInterest := unit(20)
	return Details{
		Owner:                          "trader",
		Long:                           long,
		Collateral:                     unit(10),
		Debt:                           unit(10),
		Units:                          math.ToPrecision(openInterest, unit(100)),
		MaxReserve:                     unit(15),
		EntryCumulativeFundingFactor:   sdkmath.ZeroInt(),
		EntryCumulativeBorrowingFactor: sdkmath.ZeroInt(),
	}
}

func TestPnL(t *testing.T) {
	testCases := []struct {
		name     string
		long     bool
		price    int64
		expected int64
	}{
		{name: "long flat", long: true, price: 100, expected: 0},
		{name: "long up ten percent", long: true, price: 110, expected: 2},
		{name: "long down ten percent", long: true, price: 90, expected: -2},
		{name: "long capped at max reserve", long: true, price: 1000, expected: 15},
		{name: "short flat", long: false, price: 100, expected: 0},
		{name: "short down ten percent", long: false, price: 90, expected: 2},
		{name: "short up ten percent", long: false, price: 110, expected: -2},
		{name: "short capped at max reserve", long: false, price: 1, expected: 15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pos := newPosition(tc.long)
			require.Equal(t, unit(tc.expected).String(), pos.PnL(unit(tc.price)).String())
		})
	}
}

func TestNetFees(t *testing.T) {
	pos := newPosition(true)

	// 10% cumulative borrowing since entry on 20 of open interest.
	borrowFactor := math.Precision.QuoRaw(10)
	require.Equal(t, unit(2).String(), pos.NetBorrowingFee(borrowFactor).String())

	// Positive funding factor means the position receives.
	fundingFactor := math.Precision.QuoRaw(10)
	require.Equal(t, unit(2).String(), pos.NetFundingFee(fundingFactor).String())
	require.Equal(t, unit(2).Neg().String(), pos.NetFundingFee(fundingFactor.Neg()).String())
}

func TestSettleWithPositiveFundingFlat(t *testing.T) {
	pos := newPosition(true)
	free := unit(100)

	settlement := pos.SettleWithPositiveFunding(free, sdkmath.ZeroInt(), sdkmath.ZeroInt(), sdkmath.ZeroInt())

	// Flat close returns exactly the collateral; the reserve flows back.
	require.Equal(t, pos.Collateral.String(), settlement.Payout.String())
	require.Equal(t, free.Add(pos.MaxReserve).String(), settlement.NetFreeLiquidity.String())
	require.True(t, settlement.NewHouseBadDebt.IsZero())
}

func TestSettleWithPositiveFundingTraderLoss(t *testing.T) {
	pos := newPosition(true)
	free := unit(100)
	pnl := unit(5).Neg()

	settlement := pos.SettleWithPositiveFunding(free, sdkmath.ZeroInt(), sdkmath.ZeroInt(), pnl)

	// The pool captures the loss on top of its reserve.
	require.Equal(t, unit(5).String(), settlement.Payout.String())
	require.Equal(t, free.Add(pos.MaxReserve).Add(unit(5)).String(), settlement.NetFreeLiquidity.String())
	require.True(t, settlement.NewHouseBadDebt.IsZero())
}

func TestSettleWithPositiveFundingTraderProfit(t *testing.T) {
	pos := newPosition(true)
	free := unit(100)
	pnl := unit(6)

	settlement := pos.SettleWithPositiveFunding(free, sdkmath.ZeroInt(), sdkmath.ZeroInt(), pnl)

	require.Equal(t, unit(16).String(), settlement.Payout.String())
	require.Equal(t, free.Add(pos.MaxReserve).Sub(pnl).String(), settlement.NetFreeLiquidity.String())
}

func TestSettleWithNegativeFundingSolvent(t *testing.T) {
	pos := newPosition(true)
	free := unit(100)
	funding := unit(4).Neg()

	settlement := pos.SettleWithNegativeFunding(free, funding, sdkmath.ZeroInt(), sdkmath.ZeroInt())

	// Position value 10 covers funding of 4.
	require.Equal(t, unit(6).String(), settlement.Payout.String())
	require.Equal(t, free.Add(pos.MaxReserve).String(), settlement.NetFreeLiquidity.String())
	require.True(t, settlement.NewHouseBadDebt.IsZero())
}

func TestSettleWithNegativeFundingInsolvent(t *testing.T) {
	pos := newPosition(true)
	free := unit(30)

	// Position value before funding is 10; funding owed is 60. After the
	// reserve flows back the pool covers 30+15+10=55 and is short 5.
	funding := unit(60).Neg()

	settlement := pos.SettleWithNegativeFunding(free, funding, sdkmath.ZeroInt(), sdkmath.ZeroInt())

	require.True(t, settlement.Payout.IsZero())
	require.True(t, settlement.NetFreeLiquidity.IsZero())
	require.Equal(t, unit(5).String(), settlement.NewHouseBadDebt.String())
}
