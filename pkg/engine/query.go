package engine

import (
	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/errors"
	"github.com/margined-protocol/clearing-core/pkg/position"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// MarketDetails is a read-only view of one market's state.
type MarketDetails struct {
	IndexAsset types.AssetPricingDetails

	Price      sdkmath.Int
	HouseValue sdkmath.Int

	TotalDeposit         sdkmath.Int
	TotalLiquidityShares sdkmath.Int
	FreeLiquidity        sdkmath.Int
	CurrentHouseBadDebt  sdkmath.Int

	LongOpenInterest  sdkmath.Int
	ShortOpenInterest sdkmath.Int
	LongReserve       sdkmath.Int
	ShortReserve      sdkmath.Int

	NextFundingFactorPS sdkmath.Int
}

// MarketDetails returns a consistent snapshot of a market. Queries cannot
// interleave with writers, so the snapshot is taken under the engine lock.
func (e *Engine) MarketDetails(marketIndex uint64) (MarketDetails, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mkt, err := e.market(marketIndex)
	if err != nil {
		return MarketDetails{}, err
	}

	return MarketDetails{
		IndexAsset:           mkt.IndexAsset,
		Price:                mkt.Pricing.Price,
		HouseValue:           mkt.HouseValue(mkt.Pricing.Price),
		TotalDeposit:         mkt.Liquidity.TotalDeposit,
		TotalLiquidityShares: mkt.Liquidity.TotalLiquidityShares,
		FreeLiquidity:        mkt.Liquidity.FreeLiquidity,
		CurrentHouseBadDebt:  mkt.Liquidity.CurrentHouseBadDebt,
		LongOpenInterest:     mkt.Bias.Longs.TotalOpenInterest,
		ShortOpenInterest:    mkt.Bias.Shorts.TotalOpenInterest,
		LongReserve:          mkt.Liquidity.CurrentLongsReserve,
		ShortReserve:         mkt.Liquidity.CurrentShortsReserve,
		NextFundingFactorPS:  mkt.Funding.NextFundingFactorPS,
	}, nil
}

// PositionInfo is a read-only view of one open position, marked at the
// market's current price.
type PositionInfo struct {
	ID          uint64
	MarketIndex uint64
	Details     position.Details

	// PnL is the position's signed profit at the current stored price.
	PnL sdkmath.Int

	// AccruedBorrowingFee and AccruedFundingFee are the fees the position
	// would realise if closed now.
	AccruedBorrowingFee sdkmath.Int
	AccruedFundingFee   sdkmath.Int
}

// UserPositions lists a principal's open positions with live marks.
func (e *Engine) UserPositions(owner types.Principal) []PositionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	infos := make([]PositionInfo, 0)
	for key, entry := range e.positions {
		if key.Owner != owner {
			continue
		}

		mkt := e.markets[entry.MarketIndex]
		infos = append(infos, PositionInfo{
			ID:                  key.ID,
			MarketIndex:         entry.MarketIndex,
			Details:             entry.Details,
			PnL:                 entry.Details.PnL(mkt.Pricing.Price),
			AccruedBorrowingFee: entry.Details.NetBorrowingFee(mkt.CumulativeBorrowingFactor(entry.Details.Long)),
			AccruedFundingFee:   entry.Details.NetFundingFee(mkt.CumulativeFundingFactor(entry.Details.Long)),
		})
	}
	return infos
}

// UserPosition returns one position by id.
func (e *Engine) UserPosition(owner types.Principal, positionID uint64) (PositionInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.positions[positionKey{Owner: owner, ID: positionID}]
	if !ok {
		return PositionInfo{}, errors.ErrInvalidPosition
	}

	mkt := e.markets[entry.MarketIndex]
	return PositionInfo{
		ID:                  positionID,
		MarketIndex:         entry.MarketIndex,
		Details:             entry.Details,
		PnL:                 entry.Details.PnL(mkt.Pricing.Price),
		AccruedBorrowingFee: entry.Details.NetBorrowingFee(mkt.CumulativeBorrowingFactor(entry.Details.Long)),
		AccruedFundingFee:   entry.Details.NetFundingFee(mkt.CumulativeFundingFactor(entry.Details.Long)),
	}, nil
}

// UserBalance returns a principal's quote-asset balance.
func (e *Engine) UserBalance(owner types.Principal) sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance(owner)
}

// UserShareBalance returns a principal's share balance in a market.
func (e *Engine) UserShareBalance(owner types.Principal, marketIndex uint64) sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shareBalance(owner, marketIndex)
}
