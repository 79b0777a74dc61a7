package ledger

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/margined-protocol/clearing-core/pkg/types"
)

// TxRef optionally references an external ledger transaction, used to verify
// deposits that were sent before the call.
type TxRef uint64

// AssetLedger moves the quote asset between users and the clearing house.
// Both operations are all-or-nothing from the engine's point of view.
type AssetLedger interface {
	// SendIn pulls amount from the given principal. Returns false if the
	// transfer did not happen.
	SendIn(ctx context.Context, amount sdkmath.Int, from types.Principal, ref *TxRef) (bool, error)

	// SendOut pays amount to the given principal. Returns false if the
	// transfer did not happen.
	SendOut(ctx context.Context, amount sdkmath.Int, to types.Principal) (bool, error)
}
