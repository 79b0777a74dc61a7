package types

import (
	"fmt"
	"reflect"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Principal identifies a caller of the clearing house. The empty principal is
// the anonymous caller and is rejected by every mutating operation.
type Principal string

// Anonymous is the zero principal.
const Anonymous Principal = ""

// IsAnonymous reports whether the principal is the anonymous caller.
func (p Principal) IsAnonymous() bool {
	return p == Anonymous
}

// AssetClass distinguishes crypto and fiat assets for oracle queries.
type AssetClass string

const (
	AssetClassCryptocurrency AssetClass = "cryptocurrency"
	AssetClassFiatCurrency   AssetClass = "fiat_currency"
)

// AssetPricingDetails describes one leg of an oracle currency pair.
type AssetPricingDetails struct {
	Symbol string     `toml:"symbol" mapstructure:"symbol"`
	Class  AssetClass `toml:"class" mapstructure:"class"`
}

// Constants shared by the price gate and the deferral queue.
const (
	// MaxPriceStaleness is the oldest oracle observation a price-dependent
	// operation may execute against.
	MaxPriceStaleness = 10 * time.Minute

	// TimerDelay is how long the deferral queue waits after the last enqueue
	// before firing an oracle fetch and draining.
	TimerDelay = 500 * time.Millisecond
)

// Deferral-queue priorities, drained in ascending order. Fee collection
// updates the cumulative factors every other operation reads, add-liquidity
// widens headroom, close-position frees reserve, open-position consumes
// reserve, remove-liquidity consumes free liquidity last.
const (
	PriorityCollectBorrowFees uint8 = 0
	PriorityAddLiquidity      uint8 = 1
	PriorityClosePosition     uint8 = 2
	PriorityOpenPosition      uint8 = 3
	PriorityRemoveLiquidity   uint8 = 4
)

// SdkInt is a wrapper around sdkmath.Int to handle TOML unmarshalling
type SdkInt struct {
	Value sdkmath.Int
}

// NewSdkInt wraps an sdkmath.Int.
func NewSdkInt(v sdkmath.Int) SdkInt {
	return SdkInt{Value: v}
}

// UnmarshalText implements TOML unmarshalling for SdkInt
func (s *SdkInt) UnmarshalText(text []byte) error {
	str := string(text)
	res, ok := sdkmath.NewIntFromString(str)
	if !ok {
		return fmt.Errorf("invalid sdkmath.Int value: %s", str)
	}
	s.Value = res
	return nil
}

// MarshalText implements TOML marshalling for SdkInt
func (s SdkInt) MarshalText() ([]byte, error) {
	return []byte(s.Value.String()), nil
}

// SdkIntDecodeHook converts config strings into SdkInt values during
// mapstructure decoding.
func SdkIntDecodeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(SdkInt{}) {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		str, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for SdkInt, got %T", data)
		}
		value, ok := sdkmath.NewIntFromString(str)
		if !ok {
			return nil, fmt.Errorf("invalid sdkmath.Int value: %s", str)
		}
		return SdkInt{Value: value}, nil
	default:
		return nil, fmt.Errorf("unsupported type for SdkInt: %s", from.Kind())
	}
}
