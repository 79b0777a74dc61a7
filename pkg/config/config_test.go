package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/types"
)

const testConfig = `
admin = "house-admin"
execution_fee = "100000000000000000000"

[quote_asset]
symbol = "USDT"
class = "cryptocurrency"

[database]
host = "localhost"
dbname = "clearing"

[[market]]
max_leverage_factor = "5000000000000000000000"
max_reserve_factor = "1000000000000000000000"
funding_factor = "1000000000000000000"
funding_exponent_factor = "100000000000000000000"
min_funding_factor_ps = "0"
max_funding_factor_ps = "100000000000000000000"
threshold_stable_funding = "0"
threshold_decrease_funding = "0"
funding_increase_factor_ps = "0"
funding_decrease_factor_ps = "0"
longs_max_reserve_factor = "30000000000000000000"
shorts_max_reserve_factor = "30000000000000000000"
liquidation_factor = "1000000000000000000"
longs_base_borrowing_factor = "100000000000000000"
longs_borrowing_exponent_factor = "100000000000000000000"
shorts_base_borrowing_factor = "100000000000000000"
shorts_borrowing_exponent_factor = "100000000000000000000"
price_impact_exponent_factor = "100000000000000000000"
positive_price_impact_factor = "0"
negative_price_impact_factor = "0"

[market.index_asset]
symbol = "BTC"
class = "cryptocurrency"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	require.Equal(t, "house-admin", cfg.Admin)
	require.Equal(t, "USDT", cfg.QuoteAsset.Symbol)
	require.Equal(t, "100000000000000000000", cfg.ExecutionFee.Value.String())

	require.NotNil(t, cfg.Database)
	require.Equal(t, "clearing", cfg.Database.DBName)

	require.Len(t, cfg.Markets, 1)
	mkt := cfg.Markets[0]
	require.Equal(t, "BTC", mkt.IndexAsset.Symbol)

	params := mkt.CreateParams()
	require.Equal(t, sdkmath.NewIntWithDecimal(50, 20).String(), params.Config.MaxLeverageFactor.String())
	require.Equal(t, sdkmath.NewIntWithDecimal(3, 19).String(), params.Liquidity.LongsMaxReserveFactor.String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestDecodeConfig(t *testing.T) {
	input := map[string]interface{}{
		"execution_fee": "100000000000000000000",
	}

	// DecodeConfig converts strings into big fixed-point values via the
	// SdkInt hook.
	var out struct {
		ExecutionFee types.SdkInt `mapstructure:"execution_fee"`
	}
	require.NoError(t, DecodeConfig(input, &out))
	require.Equal(t, "100000000000000000000", out.ExecutionFee.Value.String())
}
