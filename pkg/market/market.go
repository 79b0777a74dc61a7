package market

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/math"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// Status is the outcome shape shared by every market operation.
type Status int

const (
	// StatusSettled means the operation executed and its state changes are
	// committed.
	StatusSettled Status = iota

	// StatusWaiting means the operation needs a fresh oracle price and must
	// be deferred. No state was changed.
	StatusWaiting

	// StatusFailed means the operation was rejected. No state was changed.
	StatusFailed
)

// Config carries the per-market position limits.
type Config struct {
	// MaxLeverageFactor caps the leverage of a new position, precision
	// scaled (50x is 50 * Precision).
	MaxLeverageFactor sdkmath.Int

	// MaxReserveFactor caps the reserve factor of a new position.
	MaxReserveFactor sdkmath.Int
}

// Market is one independent perpetual-futures market: the two bias sides,
// the funding controller, the latest price, the liquidity pool and the
// position limits. All mutation goes through the clearing-house facade,
// which serialises access.
type Market struct {
	IndexAsset types.AssetPricingDetails
	Bias       Bias
	Funding    FundingState
	Pricing    PricingState
	Liquidity  LiquidityState
	Config     Config
}

// CreateParams bundles everything needed to create a market.
type CreateParams struct {
	IndexAsset types.AssetPricingDetails
	Config     Config
	Funding    FundingConfig
	Liquidity  LiquidityConfig

	LongsBaseBorrowingFactor      sdkmath.Int
	LongsBorrowingExponentFactor  sdkmath.Int
	ShortsBaseBorrowingFactor     sdkmath.Int
	ShortsBorrowingExponentFactor sdkmath.Int

	PriceImpactExponentFactor sdkmath.Int
	PositivePriceImpactFactor sdkmath.Int
	NegativePriceImpactFactor sdkmath.Int
}

// New creates an empty market from its configuration.
func New(params CreateParams, now time.Time) *Market {
	return &Market{
		IndexAsset: params.IndexAsset,
		Bias: Bias{
			Longs:  NewBiasDetails(params.LongsBaseBorrowingFactor, params.LongsBorrowingExponentFactor),
			Shorts: NewBiasDetails(params.ShortsBaseBorrowingFactor, params.ShortsBorrowingExponentFactor),
		},
		Funding: NewFundingState(params.Funding, now),
		Pricing: NewPricingState(
			params.PriceImpactExponentFactor,
			params.PositivePriceImpactFactor,
			params.NegativePriceImpactFactor,
		),
		Liquidity: NewLiquidityState(params.Liquidity, now),
		Config:    params.Config,
	}
}

// FreshPrice returns the stored price if it is within the staleness window.
func (m *Market) FreshPrice(now time.Time) (sdkmath.Int, bool) {
	return m.Pricing.PriceWithin(types.MaxPriceStaleness, now)
}

// HouseValue is the mark-to-market value of the pool at price: its static
// accounting value adjusted by the pool's aggregate gain against traders,
// floored at zero.
func (m *Market) HouseValue(price sdkmath.Int) sdkmath.Int {
	value := m.Liquidity.StaticValue().Add(m.Bias.NetHousePnL(price))
	return math.BoundBelowSigned(value, sdkmath.ZeroInt())
}

// CumulativeFundingFactor returns the requested side's cumulative funding
// factor since epoch.
func (m *Market) CumulativeFundingFactor(long bool) sdkmath.Int {
	return m.Bias.Side(long).CumulativeFundingFactor
}

// CumulativeBorrowingFactor returns the requested side's cumulative
// borrowing factor since epoch.
func (m *Market) CumulativeBorrowingFactor(long bool) sdkmath.Int {
	return m.Bias.Side(long).CumulativeBorrowingFactor
}
