package oracle

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	localbackoff "github.com/margined-protocol/clearing-core/pkg/backoff"
	"github.com/margined-protocol/clearing-core/pkg/types"
)

// Rate is one oracle observation: a raw rate scaled by 10^Decimals.
type Rate struct {
	Rate     uint64
	Decimals uint32
}

// PriceOracle fetches the current exchange rate for a currency pair.
type PriceOracle interface {
	Fetch(ctx context.Context, base, quote types.AssetPricingDetails) (Rate, error)
}

// FetchWithRetry fetches a rate, retrying transient failures on the shared
// lightning backoff schedule.
func FetchWithRetry(ctx context.Context, o PriceOracle, base, quote types.AssetPricingDetails) (Rate, error) {
	var rate Rate

	operation := func() error {
		fetched, err := o.Fetch(ctx, base, quote)
		if err != nil {
			return err
		}
		rate = fetched
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(localbackoff.NewLightningBackoff(ctx), ctx)); err != nil {
		return Rate{}, fmt.Errorf("failed to fetch %s/%s rate: %w", base.Symbol, quote.Symbol, err)
	}

	return rate, nil
}
