package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/market"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e, _, _ := newTestEngine(t, unit(1))

	mktIndex, err := e.CreateMarket(admin, testCreateParams())
	require.NoError(t, err)

	fund(t, e, trader, unit(2000))
	outcome := e.AddLiquidity(trader, AddLiquidityRequest{
		MarketIndex:  mktIndex,
		Amount:       unit(1000),
		MinSharesOut: sdkmath.ZeroInt(),
	})
	require.Equal(t, market.StatusSettled, outcome.Status)

	snap := e.Snapshot()

	// The snapshot survives the JSON encoding the store uses.
	encoded, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	restored, _, _ := newTestEngine(t, sdkmath.ZeroInt())
	restored.Restore(decoded)

	require.Equal(t, e.UserBalance(trader).String(), restored.UserBalance(trader).String())
	require.Equal(t, e.UserShareBalance(trader, mktIndex).String(), restored.UserShareBalance(trader, mktIndex).String())

	details, err := restored.MarketDetails(mktIndex)
	require.NoError(t, err)
	require.Equal(t, unit(1000).String(), details.TotalDeposit.String())
	require.Equal(t, unit(1000).String(), details.TotalLiquidityShares.String())

	// The restored engine accepts operations against the restored market.
	ok, err := restored.Deposit(context.Background(), trader, unit(10), nil)
	require.NoError(t, err)
	require.True(t, ok)
}
