package errors

import (
	"errors"
)

var (
	ErrInsufficientBalance  = errors.New("balance does not cover amount and execution fee")
	ErrInsufficientShares   = errors.New("share balance is below the requested amount")
	ErrInvalidPosition      = errors.New("position not found or caller is not the owner")
	ErrPriceLimitExceeded   = errors.New("price is beyond the acceptable limit")
	ErrExceedsLeverage      = errors.New("leverage factor exceeds the market maximum")
	ErrExceedsReserve       = errors.New("reserve factor exceeds the market maximum")
	ErrExceedsFreeLiquidity = errors.New("debt and reserve exceed free liquidity")
	ErrExceedsSideReserve   = errors.New("reserve exceeds the side max reserve")
	ErrSharesBelowMin       = errors.New("shares out below the requested minimum")
	ErrPayoutBelowMin       = errors.New("payout below the requested minimum")
	ErrHouseValueZero       = errors.New("house value is zero")
	ErrStalePrice           = errors.New("oracle price is stale")
	ErrLedgerFailed         = errors.New("asset ledger transfer failed")
	ErrMarketNotFound       = errors.New("market does not exist")
	ErrAnonymousCaller      = errors.New("anonymous callers are not allowed")
	ErrNoLiquidityShares    = errors.New("no liquidity shares outstanding")
)
