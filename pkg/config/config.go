package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"

	"github.com/margined-protocol/clearing-core/pkg/db"
	"github.com/margined-protocol/clearing-core/pkg/market"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// MarketConfig is the TOML shape of one market's creation parameters.
type MarketConfig struct {
	IndexAsset types.AssetPricingDetails `toml:"index_asset" mapstructure:"index_asset"`

	MaxLeverageFactor types.SdkInt `toml:"max_leverage_factor" mapstructure:"max_leverage_factor"`
	MaxReserveFactor  types.SdkInt `toml:"max_reserve_factor" mapstructure:"max_reserve_factor"`

	FundingFactor            types.SdkInt `toml:"funding_factor" mapstructure:"funding_factor"`
	FundingExponentFactor    types.SdkInt `toml:"funding_exponent_factor" mapstructure:"funding_exponent_factor"`
	MinFundingFactorPS       types.SdkInt `toml:"min_funding_factor_ps" mapstructure:"min_funding_factor_ps"`
	MaxFundingFactorPS       types.SdkInt `toml:"max_funding_factor_ps" mapstructure:"max_funding_factor_ps"`
	ThresholdStableFunding   types.SdkInt `toml:"threshold_stable_funding" mapstructure:"threshold_stable_funding"`
	ThresholdDecreaseFunding types.SdkInt `toml:"threshold_decrease_funding" mapstructure:"threshold_decrease_funding"`
	FundingIncreaseFactorPS  types.SdkInt `toml:"funding_increase_factor_ps" mapstructure:"funding_increase_factor_ps"`
	FundingDecreaseFactorPS  types.SdkInt `toml:"funding_decrease_factor_ps" mapstructure:"funding_decrease_factor_ps"`

	LongsMaxReserveFactor  types.SdkInt `toml:"longs_max_reserve_factor" mapstructure:"longs_max_reserve_factor"`
	ShortsMaxReserveFactor types.SdkInt `toml:"shorts_max_reserve_factor" mapstructure:"shorts_max_reserve_factor"`
	LiquidationFactor      types.SdkInt `toml:"liquidation_factor" mapstructure:"liquidation_factor"`

	LongsBaseBorrowingFactor      types.SdkInt `toml:"longs_base_borrowing_factor" mapstructure:"longs_base_borrowing_factor"`
	LongsBorrowingExponentFactor  types.SdkInt `toml:"longs_borrowing_exponent_factor" mapstructure:"longs_borrowing_exponent_factor"`
	ShortsBaseBorrowingFactor     types.SdkInt `toml:"shorts_base_borrowing_factor" mapstructure:"shorts_base_borrowing_factor"`
	ShortsBorrowingExponentFactor types.SdkInt `toml:"shorts_borrowing_exponent_factor" mapstructure:"shorts_borrowing_exponent_factor"`

	PriceImpactExponentFactor types.SdkInt `toml:"price_impact_exponent_factor" mapstructure:"price_impact_exponent_factor"`
	PositivePriceImpactFactor types.SdkInt `toml:"positive_price_impact_factor" mapstructure:"positive_price_impact_factor"`
	NegativePriceImpactFactor types.SdkInt `toml:"negative_price_impact_factor" mapstructure:"negative_price_impact_factor"`
}

// CreateParams converts the TOML shape into market creation parameters.
func (m MarketConfig) CreateParams() market.CreateParams {
	return market.CreateParams{
		IndexAsset: m.IndexAsset,
		Config: market.Config{
			MaxLeverageFactor: m.MaxLeverageFactor.Value,
			MaxReserveFactor:  m.MaxReserveFactor.Value,
		},
		Funding: market.FundingConfig{
			FundingFactor:            m.FundingFactor.Value,
			FundingExponentFactor:    m.FundingExponentFactor.Value,
			MinFundingFactorPS:       m.MinFundingFactorPS.Value,
			MaxFundingFactorPS:       m.MaxFundingFactorPS.Value,
			ThresholdStableFunding:   m.ThresholdStableFunding.Value,
			ThresholdDecreaseFunding: m.ThresholdDecreaseFunding.Value,
			FundingIncreaseFactorPS:  m.FundingIncreaseFactorPS.Value,
			FundingDecreaseFactorPS:  m.FundingDecreaseFactorPS.Value,
		},
		Liquidity: market.LiquidityConfig{
			LongsMaxReserveFactor:  m.LongsMaxReserveFactor.Value,
			ShortsMaxReserveFactor: m.ShortsMaxReserveFactor.Value,
			LiquidationFactor:      m.LiquidationFactor.Value,
		},
		LongsBaseBorrowingFactor:      m.LongsBaseBorrowingFactor.Value,
		LongsBorrowingExponentFactor:  m.LongsBorrowingExponentFactor.Value,
		ShortsBaseBorrowingFactor:     m.ShortsBaseBorrowingFactor.Value,
		ShortsBorrowingExponentFactor: m.ShortsBorrowingExponentFactor.Value,
		PriceImpactExponentFactor:     m.PriceImpactExponentFactor.Value,
		PositivePriceImpactFactor:     m.PositivePriceImpactFactor.Value,
		NegativePriceImpactFactor:     m.NegativePriceImpactFactor.Value,
	}
}

// Config is the clearing house's TOML configuration.
type Config struct {
	Admin string `toml:"admin" mapstructure:"admin"`

	QuoteAsset   types.AssetPricingDetails `toml:"quote_asset" mapstructure:"quote_asset"`
	ExecutionFee types.SdkInt              `toml:"execution_fee" mapstructure:"execution_fee"`

	Database *db.Config `toml:"database" mapstructure:"database"`

	Markets []MarketConfig `toml:"market" mapstructure:"market"`
}

// LoadConfig reads and parses a TOML configuration file.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at path: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// DecodeConfig decodes loosely-typed configuration (e.g. from an admin API)
// into a typed struct, converting strings into big fixed-point values.
func DecodeConfig(input interface{}, output interface{}) error {
	decoderConfig := &mapstructure.DecoderConfig{
		DecodeHook:       types.SdkIntDecodeHook,
		Result:           output,
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	return decoder.Decode(input)
}
